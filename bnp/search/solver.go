// Package search drives branch-and-price: it owns the frontier of pending
// nodes and the incumbent, and processes nodes one at a time until the
// frontier is empty.
package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/bnp/enumerate"
	"github.com/example/tp3s/bnp/pricing"
	"github.com/example/tp3s/pkg/id"
)

// Solver runs branch-and-price on one instance. A Solver may be reused;
// every call to Solve starts from an empty incumbent.
type Solver struct {
	inst        *domain.Instance
	cfg         domain.SolverConfig
	logger      *zap.Logger
	recorder    Recorder
	idGenerator func() string
	pricer      pricing.Pricer
}

// Option configures a Solver.
type Option func(*Solver)

// WithConfig sets the solver parameters. The configuration is used as
// given; NewSolver rejects it when it does not validate.
func WithConfig(cfg domain.SolverConfig) Option {
	return func(s *Solver) { s.cfg = cfg }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Solver) { s.logger = logger }
}

// WithRecorder sets the telemetry sink.
func WithRecorder(r Recorder) Option {
	return func(s *Solver) { s.recorder = r }
}

// WithIDGenerator sets the generator of node and column ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Solver) { s.idGenerator = gen }
}

// WithPricer replaces the default heuristic-then-exact pricer.
func WithPricer(p pricing.Pricer) Option {
	return func(s *Solver) { s.pricer = p }
}

// NewSolver creates a solver for the instance.
func NewSolver(inst *domain.Instance, opts ...Option) (*Solver, error) {
	s := &Solver{
		inst:        inst,
		cfg:         domain.DefaultConfig(),
		logger:      zap.NewNop(),
		recorder:    nopRecorder{},
		idGenerator: id.NewSequence("col"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.pricer == nil {
		s.pricer = pricing.Chain{
			pricing.NewHeuristic(inst, s.cfg, s.idGenerator, s.logger.Named("heuristic")),
			pricing.NewExact(inst, s.cfg, s.idGenerator, s.logger.Named("exact")),
		}
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Solver) Config() domain.SolverConfig { return s.cfg }

// run is the mutable state of one search.
type run struct {
	*Solver
	incumbent *Incumbent
	stats     domain.SearchStats
	nextSeq   int
	nodeIDs   func() string
}

func (s *Solver) newRun() *run {
	return &run{Solver: s, incumbent: NewIncumbent(), nodeIDs: id.NewScoped("node")}
}

// root enumerates the seed pool and builds the root node.
func (r *run) root(ctx context.Context) (*Node, error) {
	seed, err := enumerate.NewEnumerator(r.inst, r.idGenerator).Enumerate(ctx, r.cfg.SeedDepth)
	if err != nil {
		return nil, fmt.Errorf("seeding columns: %w", err)
	}
	r.stats.ColumnsSeeded = len(seed)
	return &Node{
		ID:    r.nodeIDs(),
		Bound: math.Inf(-1),
		pool:  NewColumnPool(seed),
	}, nil
}

// Solve runs the search to completion and returns the best integer
// solution. It returns a wrapped domain.ErrNoSolution when the search ends
// without one. When ctx is cancelled or MaxNodes is reached the partial
// result is returned with Complete unset; cancellation also returns the
// context error.
func (s *Solver) Solve(ctx context.Context) (*domain.Result, error) {
	start := time.Now()
	r := s.newRun()
	root, err := r.root(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("search started",
		zap.String("instance", s.inst.Name()),
		zap.Int("tests", s.inst.NumTests()),
		zap.Int("groups", len(s.inst.Groups())),
		zap.Int("seed_columns", r.stats.ColumnsSeeded),
		zap.String("strategy", string(s.cfg.Strategy)))

	frontier := NewFrontier(s.cfg.Strategy)
	frontier.Push(root)
	complete := true
	var runErr error
	for frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			complete, runErr = false, err
			break
		}
		if s.cfg.MaxNodes > 0 && r.stats.NodesProcessed >= s.cfg.MaxNodes {
			complete = false
			s.logger.Warn("node limit reached", zap.Int("max_nodes", s.cfg.MaxNodes))
			break
		}

		n := frontier.Pop()
		children, err := r.process(ctx, n)
		if err != nil {
			complete, runErr = false, err
			break
		}
		if n.Depth > r.stats.MaxDepth {
			r.stats.MaxDepth = n.Depth
		}
		for _, c := range children {
			frontier.Push(c)
		}
		s.recorder.FrontierSize(frontier.Len())
	}

	r.stats.Elapsed = time.Since(start)
	res := &domain.Result{
		Objective: r.incumbent.Value(),
		Columns:   r.incumbent.Columns(),
		Complete:  complete,
		Stats:     r.stats,
	}
	s.logger.Info("search finished",
		zap.Float64("objective", res.Objective),
		zap.Bool("complete", complete),
		zap.Int("nodes", r.stats.NodesProcessed),
		zap.Duration("elapsed", r.stats.Elapsed))

	if runErr != nil {
		return res, runErr
	}
	if !res.Found() {
		return res, fmt.Errorf("%w: %s after %d nodes", domain.ErrNoSolution, s.inst.Name(), r.stats.NodesProcessed)
	}
	return res, nil
}

// Relaxation is the column generation bound of the root node.
type Relaxation struct {
	// Bound is the root LP objective.
	Bound float64

	// Columns are the columns with weight above the threshold.
	Columns []domain.ColumnWeight

	// Iterations is the number of pricing rounds that added a column.
	Iterations int

	// Capped is set when the iteration cap stopped column generation.
	Capped bool

	// PoolSize is the number of columns in the final master.
	PoolSize int
}

// SolveRelaxation runs column generation at the root without branching.
func (s *Solver) SolveRelaxation(ctx context.Context) (*Relaxation, error) {
	r := s.newRun()
	root, err := r.root(ctx)
	if err != nil {
		return nil, err
	}
	m, cg, err := r.relax(ctx, root)
	if err != nil {
		return nil, err
	}
	if !cg.lp.Covers(artificialTol) && !cg.capped {
		return nil, fmt.Errorf("%w: %s: no column set covers every test", domain.ErrNoSolution, s.inst.Name())
	}
	return &Relaxation{
		Bound:      cg.lp.Objective,
		Columns:    m.Selected(cg.lp.Weights, s.cfg.WeightThreshold),
		Iterations: cg.iterations,
		Capped:     cg.capped,
		PoolSize:   m.NumColumns(),
	}, nil
}
