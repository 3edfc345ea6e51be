package e2e

import (
	"context"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/storage"
)

func TestErrorCodes(t *testing.T) {
	env := NewTestEnv(t, domain.DefaultConfig())
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func() error
		wantCode codes.Code
	}{
		{
			name: "malformed instance",
			call: func() error {
				_, err := env.Client.Solve(ctx, "bad", []byte(`{"tests": "nope"}`), nil, false)
				return err
			},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "no vehicles",
			call: func() error {
				_, err := env.Client.Solve(ctx, "empty", []byte(`{"tests": [{"test_id": 1, "release": 0, "deadline": 1, "dur": 1}], "vehicles": []}`), nil, false)
				return err
			},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "invalid config",
			call: func() error {
				cfg := domain.DefaultConfig()
				cfg.Strategy = "random"
				_, err := env.Client.Solve(ctx, "chain", chainInstanceJSON(), &cfg, false)
				return err
			},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "unknown run",
			call: func() error {
				_, err := env.Client.GetRun(ctx, "missing")
				return err
			},
			wantCode: codes.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if status.Code(err) != tt.wantCode {
				t.Errorf("got %v, want code %v", err, tt.wantCode)
			}
		})
	}
}

// TestNoSolutionIsRecorded checks that an infeasible instance fails with
// FailedPrecondition and still leaves a no_solution run behind.
func TestNoSolutionIsRecorded(t *testing.T) {
	env := NewTestEnv(t, domain.DefaultConfig())
	ctx := context.Background()

	infeasible := []byte(`{
  "tests": [{"test_id": 1, "release": 0, "deadline": 3, "dur": 5},
            {"test_id": 2, "release": 0, "deadline": 3, "dur": 5}],
  "vehicles": [{"vehicle_id": 1, "release": 0}]
}`)
	_, err := env.Client.Solve(ctx, "tardy", infeasible, nil, true)
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("got %v, want FailedPrecondition", err)
	}

	runs, err := env.Service.ListRuns(ctx, storage.ListOptions{Statuses: []storage.RunStatus{storage.RunNoSolution}})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d no_solution runs, want 1", len(runs))
	}
	if runs[0].Objective != nil {
		t.Errorf("objective = %v, want nil", *runs[0].Objective)
	}

	if code := env.GetJSON(t, "/api/runs/missing", nil); code != http.StatusNotFound {
		t.Errorf("http status = %d, want 404", code)
	}
}

func TestCancelledSolve(t *testing.T) {
	env := NewTestEnv(t, domain.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.Client.Solve(ctx, "chain", chainInstanceJSON(), nil, false)
	if status.Code(err) != codes.Canceled {
		t.Errorf("got %v, want Canceled", err)
	}
}
