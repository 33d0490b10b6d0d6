package agent

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Pew-X/sensegate/internal/core"
	"github.com/Pew-X/sensegate/internal/knowledge"
	"github.com/Pew-X/sensegate/internal/knowledge/memory"
	client "github.com/Pew-X/sensegate/pkg/sensegate-client"
)

func testIndex() *memory.Index {
	wn := func(key string) core.Sense {
		return core.Sense{Lemma: key, Language: core.English, Source: core.SourceWordNet, SenseKey: key}
	}

	idx := memory.NewIndex()
	idx.Add(&core.Synset{
		ID:          "bn:00000001n",
		ResourceIDs: []string{"wn:00000001n"},
		Senses:      []core.Sense{wn("entity%1:03:00::")},
		Glosses: []core.Gloss{
			{Text: "that which is perceived", Language: core.English, Source: core.SourceWordNet},
			{Text: "or known", Language: core.English, Source: core.SourceWordNet},
		},
		Examples: []core.Example{{Text: "an entity exists", Language: core.English, Source: core.SourceWordNet}},
		Edges: []core.Edge{
			{Pointer: core.GlossMonosemous, Target: "bn:00000003n"},
			{Pointer: core.GlossDisambiguated, Target: "bn:00000002n"},
			{Pointer: core.GlossDisambiguated, Target: "bn:00000002n"},
		},
	})
	idx.Add(&core.Synset{ID: "bn:00000002n", Senses: []core.Sense{wn("perceive%2:39:00::")}})
	idx.Add(&core.Synset{ID: "bn:00000003n", Senses: []core.Sense{wn("know%2:31:01::")}})
	return idx
}

func testConfig() Config {
	config := DefaultConfig()
	config.GRPCPort = 0
	config.Backend = BackendDump
	config.LogLevel = "warn"
	return config
}

func startTestAgent(t *testing.T, config Config, handle *knowledge.Handle) (*Agent, *client.Client) {
	t.Helper()

	a := NewAgentWithHandle(config, handle)
	require.NoError(t, a.Start())
	t.Cleanup(func() { _ = a.Shutdown() })

	c, err := client.Dial(a.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return a, c
}

func TestNewAgent(t *testing.T) {
	a, err := NewAgent(testConfig())
	require.NoError(t, err)

	assert.NotNil(t, a.lookup)
	assert.NotNil(t, a.metrics)
	assert.NotNil(t, a.prober)
	assert.False(t, a.running)
	assert.False(t, a.handle.Opened(), "backend must be opened lazily")
	assert.Empty(t, a.Addr())
}

func TestNewAgent_InvalidConfig(t *testing.T) {
	config := testConfig()
	config.Backend = "cassandra"

	_, err := NewAgent(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestAgent_StartAndShutdown(t *testing.T) {
	a := NewAgentWithHandle(testConfig(), knowledge.Static(testIndex()))

	require.NoError(t, a.Start())
	assert.NotEmpty(t, a.Addr())
	assert.Error(t, a.Start(), "second start must fail")

	require.NoError(t, a.Shutdown())
	assert.NoError(t, a.Shutdown(), "second shutdown is a no-op")
}

func TestAgent_Restart(t *testing.T) {
	var opens atomic.Int32
	handle := knowledge.NewHandle(func(context.Context) (knowledge.Base, error) {
		opens.Add(1)
		return testIndex(), nil
	})
	a := NewAgentWithHandle(testConfig(), handle)
	ctx := context.Background()

	require.NoError(t, a.Start())
	require.NoError(t, a.Shutdown())

	require.NoError(t, a.Start())
	t.Cleanup(func() { _ = a.Shutdown() })

	c, err := client.Dial(a.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	serving, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, serving, "health must not stay shut down")

	gloss, err := c.Gloss(ctx, "wn:00000001n")
	require.NoError(t, err)
	assert.Equal(t, "that which is perceived or known", gloss)
	assert.Equal(t, int32(2), opens.Load(), "backend is reopened after the first shutdown closed it")
}

func TestAgent_LookupRPCs(t *testing.T) {
	_, c := startTestAgent(t, testConfig(), knowledge.Static(testIndex()))
	ctx := context.Background()

	gloss, err := c.Gloss(ctx, "wn:00000001n")
	require.NoError(t, err)
	assert.Equal(t, "that which is perceived or known", gloss)

	example, err := c.Example(ctx, "wn:00000001n")
	require.NoError(t, err)
	assert.Equal(t, "an entity exists", example)

	related, err := c.Related(ctx, "wn:00000001n")
	require.NoError(t, err)
	assert.Equal(t, []string{"perceive%2:39:00::", "perceive%2:39:00::", "know%2:31:01::"}, related)
}

func TestAgent_UnknownIDIsEmpty(t *testing.T) {
	_, c := startTestAgent(t, testConfig(), knowledge.Static(testIndex()))
	ctx := context.Background()

	gloss, err := c.Gloss(ctx, "wn:99999999n")
	require.NoError(t, err)
	assert.Equal(t, "", gloss)

	related, err := c.Related(ctx, "wn:99999999n")
	require.NoError(t, err)
	assert.Empty(t, related)

	d, err := c.Describe(ctx, "wn:99999999n")
	require.NoError(t, err)
	assert.False(t, d.Found)
	assert.Equal(t, "wn:99999999n", d.ID)
}

func TestAgent_Describe(t *testing.T) {
	_, c := startTestAgent(t, testConfig(), knowledge.Static(testIndex()))

	d, err := c.Describe(context.Background(), "wn:00000001n")
	require.NoError(t, err)
	assert.True(t, d.Found)
	assert.Equal(t, "that which is perceived or known", d.Gloss)
	assert.Equal(t, "an entity exists", d.Example)
	assert.Len(t, d.Related, 3)
}

func TestAgent_UnavailableBackend(t *testing.T) {
	config := testConfig()
	config.ProbeEnabled = false

	handle := knowledge.NewHandle(func(context.Context) (knowledge.Base, error) {
		return nil, errors.New("connection refused")
	})
	_, c := startTestAgent(t, config, handle)

	_, err := c.Gloss(context.Background(), "wn:00000001n")
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestAgent_HealthFollowsProbe(t *testing.T) {
	config := testConfig()
	config.ProbeIntervalSeconds = 3600

	handle := knowledge.NewHandle(func(context.Context) (knowledge.Base, error) {
		return nil, errors.New("connection refused")
	})
	a, c := startTestAgent(t, config, handle)
	ctx := context.Background()

	require.False(t, a.prober.Probe())
	serving, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, serving)

	metrics, err := c.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "unhealthy", metrics["status"])
	assert.Equal(t, false, metrics["backend_up"])
}

func TestAgent_MetricsCountLookups(t *testing.T) {
	_, c := startTestAgent(t, testConfig(), knowledge.Static(testIndex()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Gloss(ctx, "wn:00000001n")
		require.NoError(t, err)
	}
	_, err := c.Related(ctx, "wn:00000001n")
	require.NoError(t, err)

	metrics, err := c.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(4), metrics["total_lookups"])
	assert.Equal(t, float64(0), metrics["total_errors"])
	assert.Equal(t, "dump", metrics["backend"])

	operations, ok := metrics["operations"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), operations["gloss"])
	assert.Equal(t, float64(1), operations["related"])
}

func TestAgent_RunStopsOnCancel(t *testing.T) {
	a := NewAgentWithHandle(testConfig(), knowledge.Static(testIndex()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAgent_ScrapeMetrics(t *testing.T) {
	a := NewAgentWithHandle(testConfig(), knowledge.Static(testIndex()))
	a.config.MetricsPort = freePort(t)
	require.NoError(t, a.Start())
	t.Cleanup(func() { _ = a.Shutdown() })

	resp, err := http.Get("http://" + a.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "sensegate_knowledge_base_up")
}

func TestAgent_MetricsDisabledByDefault(t *testing.T) {
	a, _ := startTestAgent(t, testConfig(), knowledge.Static(testIndex()))
	assert.Empty(t, a.MetricsAddr())
}

func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}
