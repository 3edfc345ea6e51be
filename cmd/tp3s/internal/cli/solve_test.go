package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/tp3s/bnp/domain"
)

func TestSolveExitErr(t *testing.T) {
	recordErr := errors.New("insert run: database is locked")
	tests := []struct {
		name    string
		err     error
		wantNil bool
	}{
		{"success", nil, true},
		{"cancelled", fmt.Errorf("search: %w", context.Canceled), true},
		{"timed out", context.DeadlineExceeded, true},
		{"no solution", fmt.Errorf("%w: tardy after 1 nodes", domain.ErrNoSolution), false},
		{"record failed", recordErr, false},
		{"master failed", fmt.Errorf("%w: relaxation failed", domain.ErrMasterNotOptimal), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := solveExitErr(tt.err)
			if tt.wantNil && got != nil {
				t.Errorf("got %v, want nil", got)
			}
			if !tt.wantNil && !errors.Is(got, tt.err) {
				t.Errorf("got %v, want %v", got, tt.err)
			}
		})
	}
}
