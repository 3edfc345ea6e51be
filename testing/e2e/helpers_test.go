package e2e

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/endpoint"
	"github.com/example/tp3s/internal/observability"
	"github.com/example/tp3s/internal/service"
	"github.com/example/tp3s/internal/storage/sqlite"
	tgrpc "github.com/example/tp3s/internal/transport/grpc"
	"github.com/example/tp3s/internal/web"
)

// TestEnv wires the full stack: sqlite run history, the solve service, the
// gRPC server on an in-memory listener and the HTTP history API.
type TestEnv struct {
	Storage *sqlite.Store
	Metrics *observability.Metrics
	Service *service.SolveService
	Client  *tgrpc.Client
	HTTP    *httptest.Server
}

// NewTestEnv creates a new test environment with a temp database.
func NewTestEnv(t *testing.T, cfg domain.SolverConfig) *TestEnv {
	t.Helper()

	ctx := context.Background()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	metrics := observability.NewMetrics()
	svc := service.NewSolveService(cfg,
		service.WithStorage(store),
		service.WithMetrics(metrics),
		service.WithLogger(logger))

	server := tgrpc.NewServer(endpoint.MakeEndpoints(svc), tgrpc.WithLogger(logger))
	lis := bufconn.Listen(1 << 20)
	go server.ServeListener(lis)
	t.Cleanup(server.GracefulStop)

	client, err := tgrpc.Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	httpServer := httptest.NewServer(web.NewServer("", svc, metrics, logger).Handler())
	t.Cleanup(httpServer.Close)

	return &TestEnv{
		Storage: store,
		Metrics: metrics,
		Service: svc,
		Client:  client,
		HTTP:    httpServer,
	}
}

// GetJSON fetches path from the HTTP server and decodes the body into v.
func (e *TestEnv) GetJSON(t *testing.T, path string, v any) int {
	t.Helper()
	resp, err := http.Get(e.HTTP.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("GET %s: invalid JSON: %v", path, err)
		}
	}
	return resp.StatusCode
}

// randomInstance builds an instance with one vehicle per test, so every
// instance is feasible. Release times fall on two or three groups.
func randomInstance(t *testing.T, seed uint64, numTests int) *domain.Instance {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed*7919+1))

	tests := make([]domain.Test, numTests)
	for i := range tests {
		release := rng.IntN(6)
		duration := 1 + rng.IntN(4)
		tests[i] = domain.Test{
			ID:       i + 1,
			Release:  release,
			Deadline: release + duration + rng.IntN(6),
			Duration: duration,
		}
	}

	groups := 2 + rng.IntN(2)
	resources := make([]domain.Resource, numTests)
	for i := range resources {
		resources[i] = domain.Resource{ID: i + 1, Release: 2 * (i % groups)}
	}

	compat := domain.Compatibility{}
	for _, a := range tests {
		for _, b := range tests {
			if a.ID != b.ID && rng.Float64() < 0.6 {
				compat.Set(a.ID, b.ID, true)
			}
		}
	}

	inst, err := domain.NewInstance("random", tests, resources, compat)
	if err != nil {
		t.Fatalf("NewInstance(seed %d): %v", seed, err)
	}
	return inst
}

func chainInstanceJSON() []byte {
	return []byte(`{
  "tests": [{"test_id": 1, "release": 0, "deadline": 10, "dur": 5},
            {"test_id": 2, "release": 0, "deadline": 20, "dur": 5}],
  "vehicles": [{"vehicle_id": 1, "release": 0}, {"vehicle_id": 2, "release": 0}],
  "rehit": {"1": {"2": true}}
}`)
}
