package search

import (
	"math"
	"sort"

	"github.com/example/tp3s/bnp/domain"
)

// aggregates sums LP weight over the three branching dimensions.
type aggregates struct {
	together map[[2]int]float64 // {higher id, lower id}
	single   map[[2]int]float64 // {test, release}
	order    map[[3]int]float64 // {first, second, release}
}

func aggregate(cols []*domain.Column, weights []float64) aggregates {
	agg := aggregates{
		together: make(map[[2]int]float64),
		single:   make(map[[2]int]float64),
		order:    make(map[[3]int]float64),
	}
	for i, col := range cols {
		w := weights[i]
		if w <= 1e-9 {
			continue
		}
		for x, a := range col.Sequence {
			agg.single[[2]int{a, col.Release}] += w
			for _, b := range col.Sequence[x+1:] {
				agg.order[[3]int{a, b, col.Release}] += w
				agg.together[[2]int{max(a, b), min(a, b)}] += w
			}
		}
	}
	return agg
}

// fractional finds the most fractional aggregate in priority order: pairs
// together, then test on group, then pair order on group. Within a kind
// the first candidate closest to one half wins. It returns the FORCE_ZERO
// side of the decision, or false when every aggregate is within tolerance
// of an integer.
func fractional(agg aggregates, tolerance float64) (domain.BranchConstraint, bool) {
	if bc, ok := pickTogether(agg.together, tolerance); ok {
		return bc, true
	}
	if bc, ok := pickSingle(agg.single, tolerance); ok {
		return bc, true
	}
	return pickOrder(agg.order, tolerance)
}

func dist(v float64) float64 { return math.Abs(v - 0.5) }

func pickTogether(m map[[2]int]float64, tolerance float64) (domain.BranchConstraint, bool) {
	k, ok := closest(m, tolerance)
	if !ok {
		return domain.BranchConstraint{}, false
	}
	return domain.BranchConstraint{
		Kind:      domain.KindPairTogether,
		Direction: domain.ForceZero,
		First:     k[0],
		Second:    k[1],
	}, true
}

func pickSingle(m map[[2]int]float64, tolerance float64) (domain.BranchConstraint, bool) {
	k, ok := closest(m, tolerance)
	if !ok {
		return domain.BranchConstraint{}, false
	}
	return domain.BranchConstraint{
		Kind:      domain.KindSingleAssignment,
		Direction: domain.ForceZero,
		First:     k[0],
		Release:   k[1],
	}, true
}

// closest scans keys in lexicographic order and returns the first one
// whose value is nearest to one half, if within tolerance.
func closest(m map[[2]int]float64, tolerance float64) ([2]int, bool) {
	keys := make([][2]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	best, bestDist := -1, math.Inf(1)
	for i, k := range keys {
		if d := dist(m[k]); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > tolerance {
		return [2]int{}, false
	}
	return keys[best], true
}

// pickOrder scans pairs by (higher id, lower id), then group, checking the
// higher-first order before the lower-first one.
func pickOrder(m map[[3]int]float64, tolerance float64) (domain.BranchConstraint, bool) {
	type orderKey struct {
		hi, lo, release int
		lowFirst        bool
	}
	keys := make([]orderKey, 0, len(m))
	for k := range m {
		a, b := k[0], k[1]
		keys = append(keys, orderKey{hi: max(a, b), lo: min(a, b), release: k[2], lowFirst: a < b})
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch {
		case a.hi != b.hi:
			return a.hi < b.hi
		case a.lo != b.lo:
			return a.lo < b.lo
		case a.release != b.release:
			return a.release < b.release
		default:
			return !a.lowFirst && b.lowFirst
		}
	})
	best, bestDist := -1, math.Inf(1)
	var first, second int
	for i, k := range keys {
		f, s := k.hi, k.lo
		if k.lowFirst {
			f, s = k.lo, k.hi
		}
		if d := dist(m[[3]int{f, s, k.release}]); d < bestDist {
			best, bestDist = i, d
			first, second = f, s
		}
	}
	if best < 0 || bestDist > tolerance {
		return domain.BranchConstraint{}, false
	}
	return domain.BranchConstraint{
		Kind:      domain.KindPairOrder,
		Direction: domain.ForceZero,
		First:     first,
		Second:    second,
		Release:   keys[best].release,
	}, true
}
