package search

import (
	"math"
	"sync"

	"github.com/example/tp3s/bnp/domain"
)

// Incumbent is the best integer solution known to a search. Updates are
// serialized and only ever lower the value.
type Incumbent struct {
	mu      sync.Mutex
	value   float64
	columns []domain.ColumnWeight
	history []float64
}

// NewIncumbent creates an empty incumbent with value +Inf.
func NewIncumbent() *Incumbent {
	return &Incumbent{value: math.Inf(1)}
}

// Value returns the current incumbent value.
func (i *Incumbent) Value() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.value
}

// Update records the solution if it is strictly better than the current
// one and reports whether it was.
func (i *Incumbent) Update(value float64, columns []domain.ColumnWeight) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if value >= i.value {
		return false
	}
	i.value = value
	i.columns = columns
	i.history = append(i.history, value)
	return true
}

// Columns returns the columns of the incumbent solution.
func (i *Incumbent) Columns() []domain.ColumnWeight {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.columns
}

// History returns every value the incumbent took, in order.
func (i *Incumbent) History() []float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]float64, len(i.history))
	copy(out, i.history)
	return out
}
