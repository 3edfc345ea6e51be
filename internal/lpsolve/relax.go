package lpsolve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	fixTol     = 1e-12
	feasTol    = 1e-9
	intTol     = 1e-6
	simplexTol = 1e-10
)

// SolveLP solves the continuous relaxation of the model and reports row
// duals. Integer and binary domains are relaxed to their bounds.
func (m *Model) SolveLP() *Solution {
	lo, hi := m.bounds(false)
	return m.relax(lo, hi, true)
}

// inequality is one row of the internal G x <= h system. origin is the model
// row it came from, or -1 for an upper bound on an active variable.
type inequality struct {
	origin int
	sign   float64
	bound  int
}

// relax solves min c.x over lo <= x <= hi and the model rows. Fixed variables
// and variables appearing in no row are resolved before the simplex. Every
// remaining row is turned into one or two G x <= h rows and finite upper
// bounds become extra rows, which gives gonum the standard form
// [G I][x; s] = h with s >= 0.
func (m *Model) relax(lo, hi []float64, withDuals bool) *Solution {
	nv, nr := len(m.vars), len(m.rows)
	values := make([]float64, nv)
	obj := m.objConst
	rhs := make([]float64, nr)
	for i, r := range m.rows {
		rhs[i] = r.rhs
	}

	var active []int
	var width []float64
	for j, v := range m.vars {
		l, h := lo[j], hi[j]
		if math.IsNaN(l) || math.IsNaN(h) || math.IsInf(l, 0) {
			return &Solution{Status: StatusError, Err: fmt.Errorf("lpsolve: variable %s needs a finite lower bound", v.name)}
		}
		if h < l-feasTol {
			return &Solution{Status: StatusInfeasible}
		}
		val := l
		if len(v.coefs) == 0 && v.obj < 0 && h-l > fixTol {
			if math.IsInf(h, 1) {
				return &Solution{Status: StatusUnbounded, Objective: math.Inf(-1)}
			}
			val = h
		}
		values[j] = val
		obj += v.obj * val
		for r, a := range v.coefs {
			rhs[r] -= a * val
		}
		if len(v.coefs) == 0 || h-l <= fixTol {
			continue
		}
		active = append(active, j)
		width = append(width, h-l)
	}

	used := make([]bool, nr)
	for _, j := range active {
		for r := range m.vars[j].coefs {
			used[r] = true
		}
	}
	var ineqs []inequality
	rowIneqs := make([][]int, nr)
	for r, rw := range m.rows {
		if !used[r] {
			if !satisfied(rw.sense, rhs[r]) {
				return &Solution{Status: StatusInfeasible}
			}
			continue
		}
		if rw.sense == LessEqual || rw.sense == Equal {
			rowIneqs[r] = append(rowIneqs[r], len(ineqs))
			ineqs = append(ineqs, inequality{origin: r, sign: 1, bound: -1})
		}
		if rw.sense == GreaterEqual || rw.sense == Equal {
			rowIneqs[r] = append(rowIneqs[r], len(ineqs))
			ineqs = append(ineqs, inequality{origin: r, sign: -1, bound: -1})
		}
	}
	for k, w := range width {
		if !math.IsInf(w, 1) {
			ineqs = append(ineqs, inequality{origin: -1, sign: 1, bound: k})
		}
	}

	sol := &Solution{Status: StatusOptimal, Objective: obj, Values: values}
	if withDuals {
		sol.RowDuals = make([]float64, nr)
	}
	na, nk := len(active), len(ineqs)
	if na == 0 {
		return sol
	}

	g := mat.NewDense(nk, na, nil)
	h := make([]float64, nk)
	for i, in := range ineqs {
		if in.origin >= 0 {
			h[i] = in.sign * rhs[in.origin]
		} else {
			g.Set(i, in.bound, 1)
			h[i] = width[in.bound]
		}
	}
	cost := make([]float64, na)
	for k, j := range active {
		cost[k] = m.vars[j].obj
		for r, a := range m.vars[j].coefs {
			for _, i := range rowIneqs[r] {
				g.Set(i, k, ineqs[i].sign*a)
			}
		}
	}

	c := make([]float64, na+nk)
	copy(c, cost)
	a := mat.NewDense(nk, na+nk, nil)
	a.Slice(0, nk, 0, na).(*mat.Dense).Copy(g)
	for i := 0; i < nk; i++ {
		a.Set(i, na+i, 1)
	}
	optF, x, err := lp.Simplex(c, a, h, simplexTol, nil)
	if err != nil {
		return failed(err)
	}
	for k, j := range active {
		values[j] = lo[j] + math.Max(x[k], 0)
	}
	sol.Objective = obj + optF
	if !withDuals {
		return sol
	}

	// Dual: min h.w subject to -G^T w <= c, w >= 0.
	dc := make([]float64, nk+na)
	copy(dc, h)
	da := mat.NewDense(na, nk+na, nil)
	for i := 0; i < nk; i++ {
		for k := 0; k < na; k++ {
			if v := g.At(i, k); v != 0 {
				da.Set(k, i, -v)
			}
		}
	}
	for k := 0; k < na; k++ {
		da.Set(k, nk+k, 1)
	}
	_, w, err := lp.Simplex(dc, da, cost, simplexTol, nil)
	if err != nil {
		return &Solution{Status: StatusError, Err: fmt.Errorf("lpsolve: dual prices: %w", err)}
	}
	for i, in := range ineqs {
		if in.origin >= 0 {
			sol.RowDuals[in.origin] -= in.sign * w[i]
		}
	}
	return sol
}

func satisfied(sense Sense, rhs float64) bool {
	switch sense {
	case LessEqual:
		return rhs >= -feasTol
	case GreaterEqual:
		return rhs <= feasTol
	default:
		return math.Abs(rhs) <= feasTol
	}
}

func failed(err error) *Solution {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return &Solution{Status: StatusInfeasible}
	case errors.Is(err, lp.ErrUnbounded):
		return &Solution{Status: StatusUnbounded, Objective: math.Inf(-1)}
	default:
		return &Solution{Status: StatusError, Err: fmt.Errorf("lpsolve: simplex: %w", err)}
	}
}
