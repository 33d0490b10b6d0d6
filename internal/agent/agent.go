package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	v1 "github.com/Pew-X/sensegate/api/v1"
	"github.com/Pew-X/sensegate/internal/knowledge"
	"github.com/Pew-X/sensegate/internal/lookup"
	"github.com/Pew-X/sensegate/internal/monitoring"
)

// Agent hosts the lookup service over gRPC and owns the knowledge base handle.
type Agent struct {
	v1.UnimplementedLookupServiceServer

	config  Config
	handle  *knowledge.Handle
	lookup  *lookup.Service
	metrics *monitoring.Metrics
	prober  *Prober
	health  *health.Server

	server        *grpc.Server
	listener      net.Listener
	metricsServer *http.Server
	metricsAddr   net.Addr

	group    *errgroup.Group
	groupCtx context.Context

	// State
	mutex   sync.RWMutex
	running bool
}

// NewAgent creates an agent whose knowledge base is opened lazily from config.
func NewAgent(config Config) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return NewAgentWithHandle(config, knowledge.NewHandle(config.Opener())), nil
}

// NewAgentWithHandle creates an agent around an existing knowledge base handle.
func NewAgentWithHandle(config Config, handle *knowledge.Handle) *Agent {
	metrics := monitoring.NewMetrics()
	healthServer := health.NewServer()

	return &Agent{
		config:  config,
		handle:  handle,
		lookup:  lookup.NewService(handle, lookup.WithLanguage(config.language())),
		metrics: metrics,
		health:  healthServer,
		prober:  NewProber(handle, metrics, healthServer, config.ProbeIntervalSeconds, config.ProbeEnabled),
	}
}

// Start binds the listeners and starts serving in the background.
func (a *Agent) Start() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.running {
		return fmt.Errorf("agent is already running")
	}

	log.Info("Starting sensegate agent...")

	listener, err := net.Listen("tcp", net.JoinHostPort(a.config.Host, fmt.Sprint(a.config.GRPCPort)))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	var metricsListener net.Listener
	if a.config.MetricsPort > 0 {
		metricsListener, err = net.Listen("tcp", net.JoinHostPort(a.config.Host, fmt.Sprint(a.config.MetricsPort)))
		if err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to listen for metrics: %w", err)
		}
	}

	a.listener = listener
	a.server = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(loggingInterceptor),
	)
	v1.RegisterLookupServiceServer(a.server, a)
	healthpb.RegisterHealthServer(a.server, a.health)
	// Undo the Shutdown of a previous run.
	a.health.Resume()
	a.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	a.health.SetServingStatus(v1.ServiceName, healthpb.HealthCheckResponse_SERVING)

	a.group, a.groupCtx = errgroup.WithContext(context.Background())
	a.group.Go(func() error {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	if metricsListener != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{}))
		a.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		a.metricsAddr = metricsListener.Addr()
		a.group.Go(func() error {
			if err := a.metricsServer.Serve(metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", err)
			}
			return nil
		})
		log.WithField("addr", a.metricsAddr.String()).Info("Prometheus metrics exposed")
	}

	a.prober.Start()

	a.running = true
	log.WithFields(log.Fields{
		"addr":    listener.Addr().String(),
		"backend": a.config.Backend,
	}).Info("sensegate agent started")

	return nil
}

// Run starts the agent and blocks until ctx is done or a server fails, then
// shuts down.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-a.groupCtx.Done():
	}
	return a.Shutdown()
}

// Addr returns the gRPC listener address, or "" before Start.
func (a *Agent) Addr() string {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// MetricsAddr returns the metrics listener address, or "" when disabled.
func (a *Agent) MetricsAddr() string {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if a.metricsAddr == nil {
		return ""
	}
	return a.metricsAddr.String()
}

// Shutdown gracefully stops serving and closes the knowledge base. The agent
// can be started again afterwards; the backend is then reopened on first use.
func (a *Agent) Shutdown() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.running {
		return nil
	}

	log.Info("Shutting down sensegate agent...")

	a.prober.Stop()
	a.health.Shutdown()

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Metrics server did not shut down cleanly")
		}
		cancel()
	}

	a.server.GracefulStop()
	serveErr := a.group.Wait()

	if err := a.handle.Close(); err != nil {
		log.WithError(err).Warn("Failed to close knowledge base")
	}

	a.running = false
	log.Info("sensegate agent shut down")

	return serveErr
}
