package endpoint

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/tp3s/internal/service"
	"github.com/example/tp3s/internal/storage"
)

func validateSolveRequest(req *service.SolveRequest) error {
	if req == nil || req.Instance == nil {
		return status.Error(codes.InvalidArgument, "instance is required")
	}
	if req.Config != nil {
		if err := req.Config.Validate(); err != nil {
			return status.Errorf(codes.InvalidArgument, "config: %v", err)
		}
	}
	return nil
}

func validateListOptions(opts *storage.ListOptions) error {
	if opts.Limit < 0 {
		return status.Error(codes.InvalidArgument, "limit must be non-negative")
	}
	if opts.Offset < 0 {
		return status.Error(codes.InvalidArgument, "offset must be non-negative")
	}
	for _, s := range opts.Statuses {
		switch s {
		case storage.RunOptimal, storage.RunIncomplete, storage.RunNoSolution, storage.RunFailed:
		default:
			return status.Errorf(codes.InvalidArgument, "unknown run status %q", s)
		}
	}
	return nil
}
