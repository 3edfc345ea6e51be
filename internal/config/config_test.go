package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/example/tp3s/bnp/domain"
)

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
solver:
  fixed_cost: 20
  strategy: best-bound
storage:
  path: /tmp/runs.db
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Solver.FixedCost != 20 {
		t.Errorf("got fixed cost %v, want 20", cfg.Solver.FixedCost)
	}
	if cfg.Solver.Strategy != domain.StrategyBestBound {
		t.Errorf("got strategy %q, want best-bound", cfg.Solver.Strategy)
	}
	if cfg.Solver.FractionalTolerance != 0.4888 {
		t.Errorf("got fractional tolerance %v, want default 0.4888", cfg.Solver.FractionalTolerance)
	}
	if cfg.Solver.MaxColumnGenerationIterations != 1000 {
		t.Errorf("got iteration cap %d, want default 1000", cfg.Solver.MaxColumnGenerationIterations)
	}
	if cfg.Storage.Path != "/tmp/runs.db" {
		t.Errorf("got storage path %q", cfg.Storage.Path)
	}
	if cfg.Server.Addr != ":50051" {
		t.Errorf("got server addr %q, want default :50051", cfg.Server.Addr)
	}
}

func TestParseExplicitZeroFixedCost(t *testing.T) {
	cfg, err := Parse([]byte("solver:\n  fixed_cost: 0\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Solver.FixedCost != 0 {
		t.Errorf("got fixed cost %v, want 0", cfg.Solver.FixedCost)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"fractional tolerance", "solver:\n  fractional_tolerance: 0.7\n"},
		{"strategy", "solver:\n  strategy: breadth-first\n"},
		{"iterations", "solver:\n  max_column_generation_iterations: -1\n"},
		{"server addr", "server:\n  addr: nope\n"},
		{"metrics addr", "server:\n  metrics_addr: nope\n"},
		{"log level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("got %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := Parse([]byte("solver: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tp3s.yaml")
	if err := os.WriteFile(path, []byte("solver:\n  seed_depth: 2\nlog:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.SeedDepth != 2 {
		t.Errorf("got seed depth %d, want 2", cfg.Solver.SeedDepth)
	}
	logger, err := cfg.Logger()
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level should be enabled")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
