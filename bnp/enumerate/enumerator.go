// Package enumerate generates compatible test sequences by breadth-first
// level expansion. Shallow enumeration seeds the branch-and-price root and
// deep enumeration feeds the exhaustive baseline.
package enumerate

import (
	"context"
	"fmt"

	"github.com/example/tp3s/bnp/domain"
)

// Generator produces columns for an instance.
type Generator interface {
	// Enumerate returns every column with at most maxDepth+1 tests.
	Enumerate(ctx context.Context, maxDepth int) ([]*domain.Column, error)
}

// Enumerator expands sequences level by level. Level 0 holds one column per
// (test, resource group) pair and level k+1 appends every extendable test
// to every level-k column.
type Enumerator struct {
	inst        *domain.Instance
	idGenerator func() string
	limit       int
}

// NewEnumerator creates a new Enumerator.
func NewEnumerator(inst *domain.Instance, idGenerator func() string) *Enumerator {
	return &Enumerator{
		inst:        inst,
		idGenerator: idGenerator,
	}
}

// WithLimit caps the number of columns an enumeration may produce.
// Zero disables the cap.
func (e *Enumerator) WithLimit(n int) *Enumerator {
	e.limit = n
	return e
}

// Enumerate returns the columns of levels 0 through maxDepth. It stops early
// when a level is empty. A negative depth yields no columns.
func (e *Enumerator) Enumerate(ctx context.Context, maxDepth int) ([]*domain.Column, error) {
	if maxDepth < 0 {
		return nil, nil
	}

	var all []*domain.Column
	level := make([]*domain.Column, 0, e.inst.NumTests()*len(e.inst.Groups()))
	for _, t := range e.inst.Tests() {
		for _, g := range e.inst.Groups() {
			col, err := domain.NewColumn(e.idGenerator(), e.inst, []int{t.ID}, g.Release)
			if err != nil {
				return nil, err
			}
			level = append(level, col)
		}
	}

	for depth := 0; len(level) > 0; depth++ {
		all = append(all, level...)
		if e.limit > 0 && len(all) > e.limit {
			return nil, fmt.Errorf("%w: more than %d columns at depth %d",
				domain.ErrEnumerationLimit, e.limit, depth)
		}
		if depth == maxDepth {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := e.expand(level)
		if err != nil {
			return nil, err
		}
		level = next
	}
	return all, nil
}

func (e *Enumerator) expand(level []*domain.Column) ([]*domain.Column, error) {
	var next []*domain.Column
	for _, col := range level {
		for _, t := range e.inst.Tests() {
			if !domain.Extendable(e.inst, col.Sequence, t.ID) {
				continue
			}
			seq := make([]int, len(col.Sequence)+1)
			copy(seq, col.Sequence)
			seq[len(col.Sequence)] = t.ID
			ext, err := domain.NewColumn(e.idGenerator(), e.inst, seq, col.Release)
			if err != nil {
				return nil, err
			}
			next = append(next, ext)
		}
	}
	return next, nil
}

// Full enumerates every compatible sequence of the instance.
func (e *Enumerator) Full(ctx context.Context) ([]*domain.Column, error) {
	return e.Enumerate(ctx, e.inst.NumTests()-1)
}
