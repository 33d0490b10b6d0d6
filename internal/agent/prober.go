// Periodic knowledge base health probing

package agent

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	v1 "github.com/Pew-X/sensegate/api/v1"
	"github.com/Pew-X/sensegate/internal/knowledge"
	"github.com/Pew-X/sensegate/internal/monitoring"
)

const probeTimeout = 5 * time.Second

// Prober pings the knowledge base on a fixed interval and mirrors the result
// into the gRPC health service and the metrics.
type Prober struct {
	handle          *knowledge.Handle
	metrics         *monitoring.Metrics
	health          *health.Server
	intervalSeconds int64
	enabled         bool
	ticker          *time.Ticker
	stopChan        chan struct{}
	wg              sync.WaitGroup
	mutex           sync.Mutex
	running         bool
	healthy         bool
}

// NewProber creates a prober. A non-positive interval falls back to 30 seconds.
func NewProber(handle *knowledge.Handle, metrics *monitoring.Metrics, healthServer *health.Server, intervalSeconds int64, enabled bool) *Prober {
	if intervalSeconds <= 0 {
		intervalSeconds = 30
	}

	return &Prober{
		handle:          handle,
		metrics:         metrics,
		health:          healthServer,
		intervalSeconds: intervalSeconds,
		enabled:         enabled,
		healthy:         true,
	}
}

// Start runs one probe right away and then one per interval. A stopped prober
// can be started again.
func (p *Prober) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.running {
		return
	}

	p.running = true
	p.ticker = time.NewTicker(time.Duration(p.intervalSeconds) * time.Second)
	p.stopChan = make(chan struct{})

	p.wg.Add(1)
	go p.run(p.ticker, p.stopChan)

	log.WithField("interval_seconds", p.intervalSeconds).Info("Knowledge base prober started")
}

// Stop stops probing and waits for an in-flight probe to finish.
func (p *Prober) Stop() {
	p.mutex.Lock()
	if !p.running {
		p.mutex.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	if p.ticker != nil {
		p.ticker.Stop()
	}
	p.mutex.Unlock()

	p.wg.Wait()
	log.Info("Knowledge base prober stopped")
}

func (p *Prober) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer p.wg.Done()

	p.Probe()
	for {
		select {
		case <-ticker.C:
			p.Probe()
		case <-stop:
			return
		}
	}
}

// Probe pings the knowledge base once and publishes the result.
func (p *Prober) Probe() bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	start := time.Now()
	err := p.handle.Ping(ctx)
	healthy := err == nil

	p.mutex.Lock()
	changed := healthy != p.healthy
	p.healthy = healthy
	p.mutex.Unlock()

	p.metrics.SetBackendUp(healthy)
	if p.health != nil {
		servingStatus := healthpb.HealthCheckResponse_SERVING
		if !healthy {
			servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
		}
		p.health.SetServingStatus(v1.ServiceName, servingStatus)
	}

	entry := log.WithField("duration", time.Since(start))
	switch {
	case !healthy && changed:
		entry.WithError(err).Warn("Knowledge base became unreachable")
	case !healthy:
		entry.WithError(err).Debug("Knowledge base still unreachable")
	case changed:
		entry.Info("Knowledge base reachable again")
	}
	return healthy
}

// ProberStats describes the prober state.
type ProberStats struct {
	Enabled         bool  `json:"enabled"`
	Running         bool  `json:"running"`
	IntervalSeconds int64 `json:"interval_seconds"`
	Healthy         bool  `json:"healthy"`
}

// GetStats returns prober statistics.
func (p *Prober) GetStats() ProberStats {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return ProberStats{
		Enabled:         p.enabled,
		Running:         p.running,
		IntervalSeconds: p.intervalSeconds,
		Healthy:         p.healthy,
	}
}
