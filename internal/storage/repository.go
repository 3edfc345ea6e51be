package storage

import (
	"context"
	"errors"
	"time"

	"github.com/example/tp3s/bnp/domain"
)

// ErrNotFound is returned when a requested run doesn't exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the terminal state of a recorded solve.
type RunStatus string

const (
	// RunOptimal means the search emptied its frontier with an incumbent.
	RunOptimal RunStatus = "optimal"

	// RunIncomplete means the search stopped early with an incumbent.
	RunIncomplete RunStatus = "incomplete"

	// RunNoSolution means no integer solution was found.
	RunNoSolution RunStatus = "no_solution"

	// RunFailed means the solve returned an error other than no solution.
	RunFailed RunStatus = "failed"
)

// RunColumn is one selected column of a recorded solve.
type RunColumn struct {
	Release  int
	Sequence []int
	Cost     int
	Weight   float64
}

// Run is the history record of one solve. It is a report, not resumable
// search state.
type Run struct {
	ID           string
	InstanceName string
	Status       RunStatus

	// Objective is nil when no solution was found.
	Objective *float64

	Config  domain.SolverConfig
	Stats   domain.SearchStats
	Columns []RunColumn

	// Error holds the failure message for RunFailed.
	Error string

	CreatedAt  time.Time
	FinishedAt time.Time
}

// ListOptions provides filtering options for list operations.
type ListOptions struct {
	// InstanceName filters by instance (empty = all)
	InstanceName string

	// Statuses to filter by (empty = all)
	Statuses []RunStatus

	// Pagination
	Limit  int
	Offset int
}

// RunRepository provides access to Run storage.
type RunRepository interface {
	// Create stores a run with its columns.
	Create(ctx context.Context, run *Run) error

	// Get retrieves a run and its columns by ID.
	Get(ctx context.Context, id string) (*Run, error)

	// List retrieves runs, newest first. Columns are not loaded.
	List(ctx context.Context, opts ListOptions) ([]*Run, error)

	// Delete removes a run and its columns.
	Delete(ctx context.Context, id string) error
}

// UnitOfWork provides transactional access to all repositories.
type UnitOfWork interface {
	Runs() RunRepository

	// Transaction control
	Commit() error
	Rollback() error
}

// Storage provides the main entry point for storage operations.
type Storage interface {
	// Begin starts a new transaction and returns a UnitOfWork.
	Begin(ctx context.Context) (UnitOfWork, error)

	// Close closes the storage connection.
	Close() error
}
