package search

import "github.com/example/tp3s/bnp/domain"

// ColumnPool is an append-only column list shared structurally between a
// node and its descendants: a child sees its parent's columns as of the
// fork plus the columns it generated itself.
type ColumnPool struct {
	parent    *ColumnPool
	parentLen int
	delta     []*domain.Column
}

// NewColumnPool creates a root pool holding cols.
func NewColumnPool(cols []*domain.Column) *ColumnPool {
	delta := make([]*domain.Column, len(cols))
	copy(delta, cols)
	return &ColumnPool{delta: delta}
}

// Fork returns a child pool. Columns added to the parent afterwards are
// not visible to the child.
func (p *ColumnPool) Fork() *ColumnPool {
	return &ColumnPool{parent: p, parentLen: p.Len()}
}

// Add appends a column.
func (p *ColumnPool) Add(col *domain.Column) {
	p.delta = append(p.delta, col)
}

// Len returns the number of visible columns.
func (p *ColumnPool) Len() int {
	return p.parentLen + len(p.delta)
}

// Delta returns the columns added to this pool since its fork.
func (p *ColumnPool) Delta() []*domain.Column {
	return p.delta
}

// All returns the visible columns, oldest first.
func (p *ColumnPool) All() []*domain.Column {
	out := make([]*domain.Column, 0, p.Len())
	return p.appendTo(out)
}

func (p *ColumnPool) appendTo(out []*domain.Column) []*domain.Column {
	if p.parent != nil {
		out = p.parent.appendTo(out)
		out = out[:p.parentLen]
	}
	return append(out, p.delta...)
}
