package lpsolve

import (
	"math"
)

const (
	defaultNodeLimit = 100000
	pruneTol         = 1e-9
)

// MIPOptions controls SolveMIP.
type MIPOptions struct {
	// NodeLimit caps the number of relaxations solved. Zero means the default.
	NodeLimit int

	cutoff    float64
	hasCutoff bool
}

// WithCutoff returns options that only accept solutions with an objective
// strictly below v. Subtrees whose bound reaches v are pruned.
func (o MIPOptions) WithCutoff(v float64) MIPOptions {
	o.cutoff = v
	o.hasCutoff = true
	return o
}

// Cutoff returns the configured cutoff and whether one is set.
func (o MIPOptions) Cutoff() (float64, bool) {
	return o.cutoff, o.hasCutoff
}

type bbNode struct {
	lo []float64
	hi []float64
}

// SolveMIP solves the model honoring integer and binary domains with
// depth-first branch-and-bound. It branches on the most fractional integer
// variable and explores the rounded-up child first.
func (m *Model) SolveMIP(opts MIPOptions) *Solution {
	limit := opts.NodeLimit
	if limit <= 0 {
		limit = defaultNodeLimit
	}
	best := math.Inf(1)
	if opts.hasCutoff {
		best = opts.cutoff
	}
	var bestX []float64

	lo, hi := m.bounds(true)
	stack := []bbNode{{lo: lo, hi: hi}}
	nodes := 0
	limited := false
	for len(stack) > 0 {
		if nodes >= limit {
			limited = true
			break
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		sol := m.relax(n.lo, n.hi, false)
		switch sol.Status {
		case StatusOptimal:
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			if nodes == 1 {
				sol.Nodes = nodes
				return sol
			}
			continue
		default:
			sol.Nodes = nodes
			return sol
		}
		if sol.Objective >= best-pruneTol {
			continue
		}

		j := m.mostFractional(sol.Values)
		if j < 0 {
			best = sol.Objective
			bestX = m.rounded(sol.Values)
			continue
		}
		v := sol.Values[j]
		down := bbNode{lo: n.lo, hi: clone(n.hi)}
		down.hi[j] = math.Floor(v)
		up := bbNode{lo: clone(n.lo), hi: n.hi}
		up.lo[j] = math.Ceil(v)
		stack = append(stack, down, up)
	}

	out := &Solution{Nodes: nodes}
	switch {
	case bestX != nil:
		out.Values = bestX
		out.Objective = best
		out.Status = StatusOptimal
		if limited {
			out.Status = StatusFeasible
		}
	case limited:
		out.Status = StatusLimit
	case opts.hasCutoff:
		out.Status = StatusCutoff
	default:
		out.Status = StatusInfeasible
	}
	return out
}

// mostFractional returns the integer variable whose value is closest to a
// half, or -1 when every integer variable is integral.
func (m *Model) mostFractional(x []float64) int {
	pick, bestDist := -1, math.Inf(1)
	for j, v := range m.vars {
		if v.typ == Continuous {
			continue
		}
		f := x[j] - math.Floor(x[j])
		if f <= intTol || f >= 1-intTol {
			continue
		}
		if d := math.Abs(f - 0.5); d < bestDist {
			pick, bestDist = j, d
		}
	}
	return pick
}

func (m *Model) rounded(x []float64) []float64 {
	out := clone(x)
	for j, v := range m.vars {
		if v.typ != Continuous {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
