package endpoint

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/service"
	"github.com/example/tp3s/internal/storage"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: x", domain.ErrInvalidInstance), codes.InvalidArgument},
		{fmt.Errorf("%w: x", domain.ErrInvalidConfig), codes.InvalidArgument},
		{fmt.Errorf("%w: x", domain.ErrNoSolution), codes.FailedPrecondition},
		{service.ErrNoStorage, codes.FailedPrecondition},
		{storage.ErrNotFound, codes.NotFound},
		{context.Canceled, codes.Canceled},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		got := status.Code(MapErrorToStatus(tt.err))
		if got != tt.want {
			t.Errorf("MapErrorToStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
	if MapErrorToStatus(nil) != nil {
		t.Error("nil error should map to nil")
	}
}

func TestSolveEndpointValidation(t *testing.T) {
	eps := MakeEndpoints(service.NewSolveService(domain.DefaultConfig()))
	ctx := context.Background()

	_, err := eps.Solve(ctx, &service.SolveRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("got %v, want InvalidArgument", err)
	}

	inst, err := domain.NewInstance("one", []domain.Test{{ID: 1, Deadline: 10, Duration: 5}},
		[]domain.Resource{{ID: 1}}, domain.Compatibility{})
	if err != nil {
		t.Fatal(err)
	}
	bad := domain.SolverConfig{Strategy: "sideways"}
	_, err = eps.Solve(ctx, &service.SolveRequest{Instance: inst, Config: &bad})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("got %v, want InvalidArgument", err)
	}

	resp, err := eps.Solve(ctx, &service.SolveRequest{Instance: inst})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if got := resp.(*service.SolveResponse).Result.Objective; math.Abs(got-50) > 1e-6 {
		t.Errorf("got objective %f, want 50", got)
	}
}

func TestRunEndpointsValidation(t *testing.T) {
	eps := MakeEndpoints(service.NewSolveService(domain.DefaultConfig()))
	ctx := context.Background()

	if _, err := eps.GetRun(ctx, ""); status.Code(err) != codes.InvalidArgument {
		t.Errorf("got %v, want InvalidArgument", err)
	}
	if _, err := eps.ListRuns(ctx, &storage.ListOptions{Limit: -1}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("got %v, want InvalidArgument", err)
	}
	if _, err := eps.ListRuns(ctx, &storage.ListOptions{Statuses: []storage.RunStatus{"lost"}}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("got %v, want InvalidArgument", err)
	}
	if _, err := eps.ListRuns(ctx, &storage.ListOptions{}); !errors.Is(err, service.ErrNoStorage) {
		t.Errorf("got %v, want ErrNoStorage", err)
	}
}
