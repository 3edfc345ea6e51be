package search

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/bnp/master"
	"github.com/example/tp3s/bnp/pricing"
)

// pruneTol is the margin by which an LP bound must undercut the incumbent
// for a node to be explored further.
const pruneTol = 1e-6

// artificialTol is the artificial cover weight a converged master may keep
// and still count as covering every test.
const artificialTol = 1e-6

// Node is one subproblem of the search tree: the root column pool plus
// the branching decisions taken on the path from the root.
type Node struct {
	ID          string
	Depth       int
	Constraints []domain.BranchConstraint

	// Bound is the LP bound of the parent; -Inf for the root.
	Bound float64

	// LPBound is the node's own LP bound once solved.
	LPBound float64

	Outcome domain.NodeOutcome

	pool *ColumnPool
	seq  int
}

// Pool returns the node's column pool.
func (n *Node) Pool() *ColumnPool { return n.pool }

// colGen is the outcome of the column generation loop of one node.
type colGen struct {
	lp         *master.LPResult
	iterations int
	capped     bool
}

// process solves one node to LP optimality by column generation, prunes it
// against the incumbent, tries an integer re-solve of its master and
// either declares it integral or returns the two children of a branch.
func (r *run) process(ctx context.Context, n *Node) ([]*Node, error) {
	start := time.Now()
	logger := r.logger.With(
		zap.String("node", n.ID),
		zap.Int("depth", n.Depth),
		zap.Int("constraints", len(n.Constraints)))

	children, err := r.solveNode(ctx, n, logger)
	if err != nil {
		return nil, err
	}
	r.stats.Record(n.Outcome)
	r.recorder.NodeProcessed(n.Outcome, n.Depth, time.Since(start))
	logger.Debug("node processed",
		zap.Stringer("outcome", n.Outcome),
		zap.Float64("lp_bound", n.LPBound),
		zap.Int("columns", n.pool.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return children, nil
}

// relax builds the node's master with every excluded pool column pinned at
// zero and runs column generation on it.
func (r *run) relax(ctx context.Context, n *Node) (*master.Problem, *colGen, error) {
	m := master.New(r.inst, r.cfg.FixedCost, r.cfg.MIPNodeLimit)
	for _, col := range n.pool.All() {
		if _, err := m.AddColumn(col, domain.ExcludedBy(n.Constraints, col)); err != nil {
			return nil, nil, err
		}
	}
	cg, err := r.generateColumns(ctx, n, m)
	if err != nil {
		return nil, nil, err
	}
	return m, cg, nil
}

func (r *run) solveNode(ctx context.Context, n *Node, logger *zap.Logger) ([]*Node, error) {
	m, cg, err := r.relax(ctx, n)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, domain.ErrMasterNotOptimal) || errors.Is(err, domain.ErrPricingFailed) {
			logger.Debug("node abandoned", zap.Error(err))
			n.Outcome = domain.OutcomeInfeasible
			n.LPBound = math.Inf(1)
			return nil, nil
		}
		return nil, err
	}
	if cg.capped {
		r.stats.IterationCapHits++
		logger.Warn("column generation hit its iteration cap",
			zap.Int("iterations", cg.iterations),
			zap.Float64("lp_bound", cg.lp.Objective))
	}
	lp := cg.lp
	if !lp.Covers(artificialTol) {
		if cg.capped {
			logger.Warn("node abandoned with tests still uncovered at the iteration cap",
				zap.Float64("uncovered", lp.Uncovered))
		} else {
			logger.Debug("no column set covers every test", zap.Float64("uncovered", lp.Uncovered))
		}
		n.Outcome = domain.OutcomeInfeasible
		n.LPBound = math.Inf(1)
		return nil, nil
	}
	n.LPBound = lp.Objective
	if n.Depth == 0 {
		r.stats.RootBound = lp.Objective
	}

	if lp.Objective >= r.incumbent.Value()-pruneTol {
		n.Outcome = domain.OutcomePruned
		return nil, nil
	}

	ipStart := time.Now()
	ip, err := m.SolveInteger()
	r.recorder.MasterSolved("ip", time.Since(ipStart))
	if err != nil {
		logger.Debug("integer re-solve found no solution", zap.Error(err))
	} else {
		r.offer(ip.Objective, m.Selected(ip.Weights, r.cfg.WeightThreshold), logger)
		if math.Abs(ip.Objective-lp.Objective) < r.cfg.IntegralityGapTolerance {
			n.Outcome = domain.OutcomeIntegral
			return nil, nil
		}
	}

	bc, ok := fractional(aggregate(m.Columns(), lp.Weights), r.cfg.FractionalTolerance)
	if !ok {
		r.offer(lp.Objective, m.Selected(lp.Weights, r.cfg.WeightThreshold), logger)
		n.Outcome = domain.OutcomeIntegral
		return nil, nil
	}

	n.Outcome = domain.OutcomeBranched
	logger.Debug("branching", zap.Stringer("decision", bc))
	one := r.child(n, bc.Complement())
	zero := r.child(n, bc)
	return []*Node{one, zero}, nil
}

// generateColumns alternates master solves and pricing until no improving
// column exists or the iteration cap is reached.
func (r *run) generateColumns(ctx context.Context, n *Node, m *master.Problem) (*colGen, error) {
	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lpStart := time.Now()
		lp, err := m.SolveLP()
		r.recorder.MasterSolved("lp", time.Since(lpStart))
		if err != nil {
			return nil, err
		}
		if iter >= r.cfg.MaxColumnGenerationIterations {
			return &colGen{lp: lp, iterations: iter, capped: true}, nil
		}

		priceStart := time.Now()
		res, err := r.pricer.Price(ctx, pricing.Request{
			Duals:       lp.Duals,
			Constraints: n.Constraints,
			Pool:        m.Columns(),
		})
		if err != nil {
			r.recorder.Priced("", time.Since(priceStart))
			return nil, err
		}
		if res == nil {
			r.recorder.Priced("", time.Since(priceStart))
			return &colGen{lp: lp, iterations: iter}, nil
		}
		r.recorder.Priced(res.Source, time.Since(priceStart))

		if _, err := m.AddColumn(res.Column, false); err != nil {
			return nil, err
		}
		n.pool.Add(res.Column)
		switch res.Source {
		case pricing.SourceHeuristic:
			r.stats.ColumnsHeuristic++
		case pricing.SourceExact:
			r.stats.ColumnsExact++
		}
	}
}

// offer proposes an integer solution to the incumbent.
func (r *run) offer(value float64, cols []domain.ColumnWeight, logger *zap.Logger) {
	if !r.incumbent.Update(value, cols) {
		return
	}
	r.stats.IncumbentUpdates++
	r.recorder.IncumbentImproved(value)
	logger.Info("new incumbent",
		zap.Float64("objective", value),
		zap.Int("columns", len(cols)))
}

func (r *run) child(parent *Node, bc domain.BranchConstraint) *Node {
	constraints := make([]domain.BranchConstraint, len(parent.Constraints), len(parent.Constraints)+1)
	copy(constraints, parent.Constraints)
	r.nextSeq++
	return &Node{
		ID:          r.nodeIDs(),
		Depth:       parent.Depth + 1,
		Constraints: append(constraints, bc),
		Bound:       parent.LPBound,
		pool:        parent.pool.Fork(),
		seq:         r.nextSeq,
	}
}
