// Package master holds the restricted master problem of branch-and-price:
// a set-cover LP over a growing pool of columns with one cover row per test
// and one capacity row per resource group.
package master

import (
	"fmt"
	"math"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/lpsolve"
)

// LPResult is an optimal master relaxation.
type LPResult struct {
	// Objective is the LP bound of the master.
	Objective float64

	// Weights holds the weight of each column, indexed like Columns().
	Weights []float64

	// Duals are the cover and capacity shadow prices.
	Duals domain.Duals

	// Uncovered is the total weight left on the artificial cover
	// variables. Positive means the pool cannot cover every test yet.
	Uncovered float64
}

// Covers reports whether the relaxation covers every test with real
// columns only.
func (r *LPResult) Covers(tol float64) bool { return r.Uncovered <= tol }

// IntegerResult is an integer solution of the master over its current pool.
type IntegerResult struct {
	Objective float64
	Weights   []float64
}

// Problem is the restricted master problem of one search node. It is built
// once and extended with every column column generation discovers.
type Problem struct {
	inst         *domain.Instance
	fixedCost    float64
	mipNodeLimit int

	model     *lpsolve.Model
	coverRows map[int]int
	capRows   map[int]int
	columns   []*domain.Column
	vars      []int
	pinned    []bool

	// artificial holds one penalised cover variable per test so the
	// restricted master stays feasible whatever the pool.
	artificial []int
	penalty    float64
}

// artificialTol is the weight an artificial may keep and still count as
// zero.
const artificialTol = 1e-6

// Penalty returns the cost of an artificial cover variable: more than the
// fixed cost and worst-case tardiness of every test combined, so no real
// schedule is ever priced above a single artificial.
func Penalty(inst *domain.Instance, fixedCost float64) float64 {
	return (fixedCost+float64(inst.Horizon()))*float64(inst.NumTests()) + 1
}

// New creates an empty master problem for the instance.
func New(inst *domain.Instance, fixedCost float64, mipNodeLimit int) *Problem {
	p := &Problem{
		inst:         inst,
		fixedCost:    fixedCost,
		mipNodeLimit: mipNodeLimit,
		model:        lpsolve.NewModel("master"),
		coverRows:    make(map[int]int, inst.NumTests()),
		capRows:      make(map[int]int, len(inst.Groups())),
		penalty:      Penalty(inst, fixedCost),
	}
	for _, t := range inst.Tests() {
		row := p.model.AddRow(fmt.Sprintf("cover_%d", t.ID), lpsolve.GreaterEqual, 1)
		p.coverRows[t.ID] = row
		p.artificial = append(p.artificial, p.model.AddVar(fmt.Sprintf("art_%d", t.ID), 0, math.Inf(1), p.penalty,
			lpsolve.Continuous, lpsolve.Coef{Row: row, Value: 1}))
	}
	for _, g := range inst.Groups() {
		p.capRows[g.Release] = p.model.AddRow(fmt.Sprintf("cap_%d", g.Release), lpsolve.LessEqual, float64(g.Capacity))
	}
	return p
}

// AddColumn appends a weight variable for the column. A pinned column has
// its upper bound fixed at zero. Returns the column's index.
func (p *Problem) AddColumn(col *domain.Column, pinned bool) (int, error) {
	capRow, ok := p.capRows[col.Release]
	if !ok {
		return 0, fmt.Errorf("%w: column %s on release %d", domain.ErrUnknownGroup, col.ID, col.Release)
	}
	coefs := make([]lpsolve.Coef, 0, col.Len()+1)
	for _, tid := range col.Sequence {
		row, ok := p.coverRows[tid]
		if !ok {
			return 0, fmt.Errorf("%w: column %s covers %d", domain.ErrUnknownTest, col.ID, tid)
		}
		coefs = append(coefs, lpsolve.Coef{Row: row, Value: 1})
	}
	coefs = append(coefs, lpsolve.Coef{Row: capRow, Value: 1})

	hi := math.Inf(1)
	if pinned {
		hi = 0
	}
	v := p.model.AddVar("col_"+col.ID, 0, hi, p.fixedCost+float64(col.Cost), lpsolve.Continuous, coefs...)
	p.columns = append(p.columns, col)
	p.vars = append(p.vars, v)
	p.pinned = append(p.pinned, pinned)
	return len(p.columns) - 1, nil
}

// Columns returns the columns of the master in insertion order.
func (p *Problem) Columns() []*domain.Column { return p.columns }

// NumColumns returns the number of columns.
func (p *Problem) NumColumns() int { return len(p.columns) }

// Pinned reports whether the column at index i is fixed at zero.
func (p *Problem) Pinned(i int) bool { return p.pinned[i] }

// SolveLP solves the relaxation and extracts dual prices. A non-optimal
// outcome is reported as ErrMasterNotOptimal.
func (p *Problem) SolveLP() (*LPResult, error) {
	sol := p.model.SolveLP()
	if !sol.IsOptimal() {
		return nil, notOptimal("relaxation", sol)
	}

	duals := domain.NewDuals()
	for tid, row := range p.coverRows {
		duals.Tests[tid] = sol.Dual(row)
	}
	for release, row := range p.capRows {
		duals.Groups[release] = sol.Dual(row)
	}
	return &LPResult{
		Objective: sol.Objective,
		Weights:   p.weights(sol),
		Duals:     duals,
		Uncovered: p.uncovered(sol),
	}, nil
}

// SolveInteger re-solves the current master with binary weights. A
// solution that needs an artificial variable is no solution at all and is
// reported as ErrMasterNotOptimal.
func (p *Problem) SolveInteger() (*IntegerResult, error) {
	mip := p.model.Clone()
	for _, v := range p.vars {
		mip.SetType(v, lpsolve.Binary)
	}
	for _, v := range p.artificial {
		mip.SetType(v, lpsolve.Binary)
	}
	sol := mip.SolveMIP(lpsolve.MIPOptions{NodeLimit: p.mipNodeLimit})
	if !sol.HasSolution() {
		return nil, notOptimal("integer master", sol)
	}
	if u := p.uncovered(sol); u > artificialTol {
		return nil, fmt.Errorf("%w: integer master leaves %.0f tests uncovered", domain.ErrMasterNotOptimal, u)
	}
	return &IntegerResult{
		Objective: sol.Objective,
		Weights:   p.weights(sol),
	}, nil
}

func (p *Problem) weights(sol *lpsolve.Solution) []float64 {
	w := make([]float64, len(p.vars))
	for i, v := range p.vars {
		w[i] = math.Max(sol.Value(v), 0)
	}
	return w
}

func (p *Problem) uncovered(sol *lpsolve.Solution) float64 {
	var sum float64
	for _, v := range p.artificial {
		sum += math.Max(sol.Value(v), 0)
	}
	return sum
}

// Selected returns the columns whose weight exceeds threshold.
func (p *Problem) Selected(weights []float64, threshold float64) []domain.ColumnWeight {
	var out []domain.ColumnWeight
	for i, w := range weights {
		if w > threshold {
			out = append(out, domain.ColumnWeight{Column: p.columns[i], Weight: w})
		}
	}
	return out
}

func notOptimal(what string, sol *lpsolve.Solution) error {
	if sol.Err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrMasterNotOptimal, what, sol.Status, sol.Err)
	}
	return fmt.Errorf("%w: %s %s", domain.ErrMasterNotOptimal, what, sol.Status)
}
