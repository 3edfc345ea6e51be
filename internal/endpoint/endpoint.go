package endpoint

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/service"
	"github.com/example/tp3s/internal/storage"
)

// Endpoint is a function that takes a request and returns a response.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Endpoints holds all endpoint handlers.
type Endpoints struct {
	Solve    Endpoint
	Relax    Endpoint
	GetRun   Endpoint
	ListRuns Endpoint
}

// MakeEndpoints creates all endpoints from the service.
func MakeEndpoints(svc *service.SolveService) Endpoints {
	return Endpoints{
		Solve:    makeSolveEndpoint(svc),
		Relax:    makeRelaxEndpoint(svc),
		GetRun:   makeGetRunEndpoint(svc),
		ListRuns: makeListRunsEndpoint(svc),
	}
}

func makeSolveEndpoint(svc *service.SolveService) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*service.SolveRequest)
		if err := validateSolveRequest(req); err != nil {
			return nil, err
		}
		resp, err := svc.Solve(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}

func makeRelaxEndpoint(svc *service.SolveService) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*service.SolveRequest)
		if err := validateSolveRequest(req); err != nil {
			return nil, err
		}
		return svc.Relax(ctx, req)
	}
}

func makeGetRunEndpoint(svc *service.SolveService) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id := request.(string)
		if id == "" {
			return nil, status.Error(codes.InvalidArgument, "run ID is required")
		}
		return svc.GetRun(ctx, id)
	}
}

func makeListRunsEndpoint(svc *service.SolveService) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		opts := request.(*storage.ListOptions)
		if err := validateListOptions(opts); err != nil {
			return nil, err
		}
		return svc.ListRuns(ctx, *opts)
	}
}

// MapErrorToStatus maps domain errors to gRPC status codes.
func MapErrorToStatus(err error) error {
	if err == nil {
		return nil
	}

	// Already a gRPC status error
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInstance),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrUnknownTest),
		errors.Is(err, domain.ErrUnknownGroup),
		errors.Is(err, domain.ErrIncompatibleColumn),
		errors.Is(err, domain.ErrInvalidBranch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNoSolution),
		errors.Is(err, domain.ErrEnumerationLimit),
		errors.Is(err, service.ErrNoStorage):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
