// Package service runs solves on behalf of the CLI and the gRPC server and
// records their outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/bnp/enumerate"
	"github.com/example/tp3s/bnp/master"
	"github.com/example/tp3s/bnp/search"
	"github.com/example/tp3s/internal/observability"
	"github.com/example/tp3s/internal/storage"
	"github.com/example/tp3s/pkg/id"
)

// ErrNoStorage is returned by run history operations when the service has
// no storage configured.
var ErrNoStorage = errors.New("run history is not configured")

// SolveService builds solvers for instances and optionally records runs.
type SolveService struct {
	config  domain.SolverConfig
	storage storage.Storage
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// Option is a functional option for configuring the SolveService.
type Option func(*SolveService)

// WithStorage enables run history.
func WithStorage(store storage.Storage) Option {
	return func(s *SolveService) {
		s.storage = store
	}
}

// WithMetrics records search and solve metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *SolveService) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SolveService) {
		s.logger = logger
	}
}

// NewSolveService creates a SolveService with cfg as the default solver
// configuration.
func NewSolveService(cfg domain.SolverConfig, opts ...Option) *SolveService {
	s := &SolveService{
		config: cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SolveRequest is the request for Solve, Relax and Exhaustive.
type SolveRequest struct {
	Instance *domain.Instance

	// Config replaces the service configuration for this request. It is
	// used as given, so explicit zeros such as a zero FixedCost survive.
	Config *domain.SolverConfig

	// Record stores the run in the history when storage is configured.
	Record bool

	// Recorder receives the telemetry of this solve next to the service
	// metrics.
	Recorder search.Recorder
}

// SolveResponse is the response of Solve.
type SolveResponse struct {
	// RunID is set when the run was recorded.
	RunID string

	Result *domain.Result
}

func (s *SolveService) configFor(req *SolveRequest) (domain.SolverConfig, error) {
	cfg := s.config
	if req.Config != nil {
		cfg = *req.Config
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *SolveService) solver(req *SolveRequest) (*search.Solver, error) {
	if req == nil || req.Instance == nil {
		return nil, fmt.Errorf("%w: instance is required", domain.ErrInvalidInstance)
	}
	cfg, err := s.configFor(req)
	if err != nil {
		return nil, err
	}
	opts := []search.Option{
		search.WithConfig(cfg),
		search.WithLogger(s.logger.Named("search")),
	}
	var recorders []search.Recorder
	if s.metrics != nil {
		recorders = append(recorders, s.metrics)
	}
	if req.Recorder != nil {
		recorders = append(recorders, req.Recorder)
	}
	if len(recorders) > 0 {
		opts = append(opts, search.WithRecorder(search.MultiRecorder(recorders...)))
	}
	return search.NewSolver(req.Instance, opts...)
}

// Solve runs branch-and-price. A partial result is returned alongside the
// error when the search was cancelled or found no solution.
func (s *SolveService) Solve(ctx context.Context, req *SolveRequest) (*SolveResponse, error) {
	solver, err := s.solver(req)
	if err != nil {
		return nil, err
	}

	started := s.now()
	res, solveErr := solver.Solve(ctx)
	finished := s.now()
	status := RunStatusOf(res, solveErr)
	if s.metrics != nil {
		s.metrics.SolveFinished(string(status), finished.Sub(started))
	}

	resp := &SolveResponse{Result: res}
	if req.Record && s.storage != nil {
		run := newRun(req.Instance.Name(), solver.Config(), res, solveErr, started, finished)
		if err := s.record(ctx, run); err != nil {
			return resp, fmt.Errorf("failed to record run: %w", err)
		}
		resp.RunID = run.ID
	}
	return resp, solveErr
}

// Relax runs column generation at the root without branching.
func (s *SolveService) Relax(ctx context.Context, req *SolveRequest) (*search.Relaxation, error) {
	solver, err := s.solver(req)
	if err != nil {
		return nil, err
	}
	return solver.SolveRelaxation(ctx)
}

// Exhaustive enumerates every feasible sequence and solves the integer
// master over all of them. It is exact but only practical on small
// instances.
func (s *SolveService) Exhaustive(ctx context.Context, req *SolveRequest) (*domain.Result, error) {
	if req == nil || req.Instance == nil {
		return nil, fmt.Errorf("%w: instance is required", domain.ErrInvalidInstance)
	}
	cfg, err := s.configFor(req)
	if err != nil {
		return nil, err
	}

	start := s.now()
	cols, err := enumerate.NewEnumerator(req.Instance, id.NewSequence("enum")).Full(ctx)
	if err != nil {
		return nil, err
	}
	p, ip, err := master.SolveExhaustive(req.Instance, cols, cfg.FixedCost, cfg.MIPNodeLimit)
	if err != nil {
		return nil, err
	}
	s.logger.Info("exhaustive solve finished",
		zap.String("instance", req.Instance.Name()),
		zap.Int("columns", len(cols)),
		zap.Float64("objective", ip.Objective))
	return &domain.Result{
		Objective: ip.Objective,
		Columns:   p.Selected(ip.Weights, cfg.WeightThreshold),
		Complete:  true,
		Stats: domain.SearchStats{
			ColumnsSeeded: len(cols),
			Elapsed:       s.now().Sub(start),
		},
	}, nil
}

func (s *SolveService) record(ctx context.Context, run *storage.Run) error {
	start := s.now()
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Runs().Create(ctx, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RunPersisted(s.now().Sub(start))
	}
	s.logger.Debug("run recorded", zap.String("run_id", run.ID), zap.String("status", string(run.Status)))
	return nil
}

// GetRun retrieves a recorded run by ID.
func (s *SolveService) GetRun(ctx context.Context, runID string) (*storage.Run, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Runs().Get(ctx, runID)
}

// ListRuns lists recorded runs, newest first.
func (s *SolveService) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*storage.Run, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Runs().List(ctx, opts)
}

// RunStatusOf classifies the outcome of a search.
func RunStatusOf(res *domain.Result, err error) storage.RunStatus {
	switch {
	case res.Found() && res.Complete && err == nil:
		return storage.RunOptimal
	case res.Found():
		return storage.RunIncomplete
	case err == nil || errors.Is(err, domain.ErrNoSolution):
		return storage.RunNoSolution
	default:
		return storage.RunFailed
	}
}

func newRun(instance string, cfg domain.SolverConfig, res *domain.Result, solveErr error, started, finished time.Time) *storage.Run {
	run := &storage.Run{
		ID:           id.Generate(),
		InstanceName: instance,
		Status:       RunStatusOf(res, solveErr),
		Config:       cfg,
		CreatedAt:    started,
		FinishedAt:   finished,
	}
	if solveErr != nil {
		run.Error = solveErr.Error()
	}
	if res == nil {
		return run
	}
	run.Stats = res.Stats
	if res.Found() {
		obj := res.Objective
		run.Objective = &obj
	}
	for _, cw := range res.Columns {
		run.Columns = append(run.Columns, storage.RunColumn{
			Release:  cw.Column.Release,
			Sequence: append([]int(nil), cw.Column.Sequence...),
			Cost:     cw.Column.Cost,
			Weight:   cw.Weight,
		})
	}
	return run
}
