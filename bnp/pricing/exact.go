package pricing

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/lpsolve"
)

// Exact prices by solving a single-resource scheduling MIP: pick one
// resource group, a subset of tests, their start times and a pairwise
// precedence, minimizing fixed cost plus tardiness minus duals.
type Exact struct {
	inst         *domain.Instance
	fixedCost    float64
	tolerance    float64
	bigM         float64
	mipNodeLimit int
	idGenerator  func() string
	logger       *zap.Logger
}

// NewExact creates a MIP pricer.
func NewExact(inst *domain.Instance, cfg domain.SolverConfig, idGenerator func() string, logger *zap.Logger) *Exact {
	if logger == nil {
		logger = zap.NewNop()
	}
	bigM := math.Max(cfg.BigMFactor*float64(inst.MaxDuration()), float64(inst.Horizon())) + 1
	return &Exact{
		inst:         inst,
		fixedCost:    cfg.FixedCost,
		tolerance:    cfg.ReducedCostTolerance,
		bigM:         bigM,
		mipNodeLimit: cfg.MIPNodeLimit,
		idGenerator:  idGenerator,
		logger:       logger,
	}
}

// subproblem indexes the variables of one pricing MIP.
type subproblem struct {
	model  *lpsolve.Model
	use    map[int]int
	start  map[int]int
	group  map[int]int
	before map[[2]int]int
}

// Price implements Pricer.
func (e *Exact) Price(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sp := e.build(req)
	sol := sp.model.SolveMIP(lpsolve.MIPOptions{NodeLimit: e.mipNodeLimit}.WithCutoff(-e.tolerance))
	switch sol.Status {
	case lpsolve.StatusOptimal, lpsolve.StatusFeasible:
	case lpsolve.StatusCutoff, lpsolve.StatusInfeasible:
		return nil, nil
	case lpsolve.StatusLimit:
		e.logger.Warn("exact pricing hit its node limit without a column",
			zap.Int("nodes", sol.Nodes))
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: exact pricing %s: %v", domain.ErrPricingFailed, sol.Status, sol.Err)
	}

	release, ok := e.chosenGroup(sp, sol)
	if !ok {
		return nil, nil
	}
	seq := e.sequence(sp, sol)
	if len(seq) == 0 {
		return nil, nil
	}
	col, err := domain.NewColumn(e.idGenerator(), e.inst, seq, release)
	if err != nil {
		return nil, fmt.Errorf("%w: exact pricing produced %v: %v", domain.ErrPricingFailed, seq, err)
	}
	rc := ReducedCost(col, req.Duals, e.fixedCost)
	if rc >= -e.tolerance {
		return nil, nil
	}
	if _, dup := signatures(req.Pool)[col.Signature()]; dup {
		e.logger.Warn("exact pricing returned a known column",
			zap.String("column", col.String()),
			zap.Float64("reduced_cost", rc))
		return nil, nil
	}
	if domain.ExcludedBy(req.Constraints, col) {
		return nil, fmt.Errorf("%w: exact pricing produced excluded column %s", domain.ErrPricingFailed, col)
	}
	e.logger.Debug("exact column",
		zap.String("column", col.String()),
		zap.Float64("reduced_cost", rc),
		zap.Float64("mip_objective", sol.Objective),
		zap.Int("mip_nodes", sol.Nodes))
	return &Result{Column: col, ReducedCost: rc, Source: SourceExact}, nil
}

func (e *Exact) build(req Request) *subproblem {
	m := lpsolve.NewModel("pricing")
	sp := &subproblem{
		model:  m,
		use:    make(map[int]int),
		start:  make(map[int]int),
		group:  make(map[int]int),
		before: make(map[[2]int]int),
	}
	m.SetObjectiveConstant(e.fixedCost)
	tests := e.inst.Tests()

	tard := make(map[int]int, len(tests))
	for _, t := range tests {
		sp.use[t.ID] = m.AddVar(fmt.Sprintf("use_%d", t.ID), 0, 1, -req.Duals.Test(t.ID), lpsolve.Binary)
		tard[t.ID] = m.AddVar(fmt.Sprintf("tard_%d", t.ID), 0, math.Inf(1), 1, lpsolve.Continuous)
		sp.start[t.ID] = m.AddVar(fmt.Sprintf("start_%d", t.ID), float64(t.Release), math.Inf(1), 0, lpsolve.Continuous)
	}
	one := make([]lpsolve.Term, 0, len(e.inst.Groups()))
	for _, g := range e.inst.Groups() {
		v := m.AddVar(fmt.Sprintf("group_%d", g.Release), 0, 1, -req.Duals.Group(g.Release), lpsolve.Binary)
		sp.group[g.Release] = v
		one = append(one, lpsolve.Term{Var: v, Value: 1})
	}
	m.AddConstraint("one_group", lpsolve.Equal, 1, one...)

	for _, t := range tests {
		// start_t >= release of the chosen group
		terms := []lpsolve.Term{{Var: sp.start[t.ID], Value: 1}}
		for _, g := range e.inst.Groups() {
			terms = append(terms, lpsolve.Term{Var: sp.group[g.Release], Value: -float64(g.Release)})
		}
		m.AddConstraint(fmt.Sprintf("avail_%d", t.ID), lpsolve.GreaterEqual, 0, terms...)

		// start_t + dur_t - deadline_t <= tard_t when the test is used
		m.AddConstraint(fmt.Sprintf("late_%d", t.ID), lpsolve.LessEqual,
			float64(t.Deadline-t.Duration)+e.bigM,
			lpsolve.Term{Var: sp.start[t.ID], Value: 1},
			lpsolve.Term{Var: tard[t.ID], Value: -1},
			lpsolve.Term{Var: sp.use[t.ID], Value: e.bigM})
	}

	for i, a := range tests {
		for _, b := range tests[i+1:] {
			e.addPair(sp, a, b)
		}
	}
	e.project(sp, req.Constraints)
	return sp
}

// addPair links the inclusion, precedence and start variables of a and b.
// Precedence variables exist only for compatible orders.
func (e *Exact) addPair(sp *subproblem, a, b domain.Test) {
	m := sp.model
	useA, useB := sp.use[a.ID], sp.use[b.ID]
	var either []lpsolve.Term
	for _, o := range [][2]domain.Test{{a, b}, {b, a}} {
		first, second := o[0], o[1]
		if !e.inst.Compatible(first.ID, second.ID) {
			continue
		}
		p := m.AddVar(fmt.Sprintf("before_%d_%d", first.ID, second.ID), 0, 1, 0, lpsolve.Binary)
		sp.before[[2]int{first.ID, second.ID}] = p
		either = append(either, lpsolve.Term{Var: p, Value: -1})

		m.AddConstraint(fmt.Sprintf("uses_%d_%d_a", first.ID, second.ID), lpsolve.LessEqual, 0,
			lpsolve.Term{Var: p, Value: 1}, lpsolve.Term{Var: useA, Value: -1})
		m.AddConstraint(fmt.Sprintf("uses_%d_%d_b", first.ID, second.ID), lpsolve.LessEqual, 0,
			lpsolve.Term{Var: p, Value: 1}, lpsolve.Term{Var: useB, Value: -1})
		// start_second >= start_first + dur_first when p = 1
		m.AddConstraint(fmt.Sprintf("seq_%d_%d", first.ID, second.ID), lpsolve.LessEqual,
			e.bigM-float64(first.Duration),
			lpsolve.Term{Var: sp.start[first.ID], Value: 1},
			lpsolve.Term{Var: sp.start[second.ID], Value: -1},
			lpsolve.Term{Var: p, Value: e.bigM})
	}
	// both used implies one order
	terms := append([]lpsolve.Term{
		{Var: useA, Value: 1},
		{Var: useB, Value: 1},
	}, either...)
	m.AddConstraint(fmt.Sprintf("order_%d_%d", a.ID, b.ID), lpsolve.LessEqual, 1, terms...)
}

// project adds the node's branching decisions as linear constraints. Each
// encoding admits exactly the columns the decision does not exclude.
func (e *Exact) project(sp *subproblem, constraints []domain.BranchConstraint) {
	m := sp.model
	for i, bc := range constraints {
		name := fmt.Sprintf("branch_%d", i)
		useA, okA := sp.use[bc.First]
		useB, okB := sp.use[bc.Second]
		grp, okG := sp.group[bc.Release]

		switch bc.Kind {
		case domain.KindSingleAssignment:
			if !okA {
				continue
			}
			switch {
			case bc.Direction == domain.ForceZero && okG:
				m.AddConstraint(name, lpsolve.LessEqual, 1,
					lpsolve.Term{Var: useA, Value: 1}, lpsolve.Term{Var: grp, Value: 1})
			case bc.Direction == domain.ForceOne && okG:
				m.AddConstraint(name, lpsolve.LessEqual, 0,
					lpsolve.Term{Var: useA, Value: 1}, lpsolve.Term{Var: grp, Value: -1})
			case bc.Direction == domain.ForceOne:
				m.SetBounds(useA, 0, 0)
			}

		case domain.KindPairTogether:
			if !okA || !okB {
				continue
			}
			if bc.Direction == domain.ForceZero {
				m.AddConstraint(name, lpsolve.LessEqual, 1,
					lpsolve.Term{Var: useA, Value: 1}, lpsolve.Term{Var: useB, Value: 1})
			} else {
				m.AddConstraint(name, lpsolve.Equal, 0,
					lpsolve.Term{Var: useA, Value: 1}, lpsolve.Term{Var: useB, Value: -1})
			}

		case domain.KindPairOrder:
			if !okA || !okB {
				continue
			}
			if bc.Direction == domain.ForceZero {
				p, ok := sp.before[[2]int{bc.First, bc.Second}]
				if ok && okG {
					m.AddConstraint(name, lpsolve.LessEqual, 1,
						lpsolve.Term{Var: p, Value: 1}, lpsolve.Term{Var: grp, Value: 1})
				}
			} else {
				m.AddConstraint(name, lpsolve.Equal, 0,
					lpsolve.Term{Var: useA, Value: 1}, lpsolve.Term{Var: useB, Value: -1})
				if p, ok := sp.before[[2]int{bc.Second, bc.First}]; ok {
					m.SetBounds(p, 0, 0)
				}
			}

		default:
			panic(fmt.Sprintf("pricing: unknown branch kind %d", bc.Kind))
		}
	}
}

func (e *Exact) chosenGroup(sp *subproblem, sol *lpsolve.Solution) (int, bool) {
	for release, v := range sp.group {
		if sol.Value(v) > 0.5 {
			return release, true
		}
	}
	return 0, false
}

// sequence orders the used tests by how many used tests precede them, then
// by start time, then by id.
func (e *Exact) sequence(sp *subproblem, sol *lpsolve.Solution) []int {
	var used []int
	for _, t := range e.inst.Tests() {
		if sol.Value(sp.use[t.ID]) > 0.5 {
			used = append(used, t.ID)
		}
	}
	preds := make(map[int]int, len(used))
	for _, a := range used {
		for _, b := range used {
			if p, ok := sp.before[[2]int{a, b}]; ok && sol.Value(p) > 0.5 {
				preds[b]++
			}
		}
	}
	sort.SliceStable(used, func(i, j int) bool {
		a, b := used[i], used[j]
		if preds[a] != preds[b] {
			return preds[a] < preds[b]
		}
		sa, sb := sol.Value(sp.start[a]), sol.Value(sp.start[b])
		if sa != sb {
			return sa < sb
		}
		return a < b
	})
	return used
}
