// Package pricing searches for columns with negative reduced cost given the
// dual prices of a master relaxation.
package pricing

import (
	"context"

	"github.com/example/tp3s/bnp/domain"
)

// Source names the pricer that produced a column.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceExact     Source = "exact"
)

// Request is the input of one pricing round.
type Request struct {
	// Duals are the master's cover and capacity shadow prices.
	Duals domain.Duals

	// Constraints are the branching decisions active at the node. Returned
	// columns must not be excluded by any of them.
	Constraints []domain.BranchConstraint

	// Pool is the node's current column pool. Heuristic pricing extends
	// these sequences; no pricer returns a sequence already in it.
	Pool []*domain.Column
}

// Result is a priced column.
type Result struct {
	Column      *domain.Column
	ReducedCost float64
	Source      Source
}

// Pricer finds an improving column. A nil Result with a nil error means
// no column has reduced cost below the tolerance.
type Pricer interface {
	Price(ctx context.Context, req Request) (*Result, error)
}

// ReducedCost returns fixedCost + cost − Σ test duals − group dual.
func ReducedCost(col *domain.Column, duals domain.Duals, fixedCost float64) float64 {
	return reducedCost(col.Sequence, col.Cost, col.Release, duals, fixedCost)
}

func reducedCost(seq []int, cost, release int, duals domain.Duals, fixedCost float64) float64 {
	rc := fixedCost + float64(cost) - duals.Group(release)
	for _, tid := range seq {
		rc -= duals.Test(tid)
	}
	return rc
}

func signatures(pool []*domain.Column) map[string]struct{} {
	known := make(map[string]struct{}, len(pool))
	for _, col := range pool {
		known[col.Signature()] = struct{}{}
	}
	return known
}

// Chain tries each pricer in order and returns the first improving column.
type Chain []Pricer

// Price implements Pricer.
func (c Chain) Price(ctx context.Context, req Request) (*Result, error) {
	for _, p := range c {
		res, err := p.Price(ctx, req)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}
