// Package progress follows a running search and renders its state for the
// terminal.
package progress

import (
	"math"
	"sync"
	"time"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/bnp/pricing"
)

// State is a point-in-time view of a search.
type State struct {
	Elapsed   time.Duration
	Outcomes  map[domain.NodeOutcome]int
	Nodes     int
	MaxDepth  int
	Frontier  int
	Incumbent float64 // +Inf until the first integer solution

	// IncumbentAt is the elapsed time of the last improvement.
	IncumbentAt time.Duration

	Columns       map[pricing.Source]int
	PricingRounds int
	MasterSolves  int
}

// HasIncumbent reports whether an integer solution was found.
func (s State) HasIncumbent() bool {
	return !math.IsInf(s.Incumbent, 1)
}

// Tracker accumulates search telemetry. It implements search.Recorder and
// is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	start time.Time
	now   func() time.Time
	state State
}

// NewTracker creates a Tracker whose clock starts now.
func NewTracker() *Tracker {
	return newTracker(time.Now)
}

func newTracker(now func() time.Time) *Tracker {
	return &Tracker{
		start: now(),
		now:   now,
		state: State{
			Outcomes:  make(map[domain.NodeOutcome]int),
			Columns:   make(map[pricing.Source]int),
			Incumbent: math.Inf(1),
		},
	}
}

func (t *Tracker) NodeProcessed(outcome domain.NodeOutcome, depth int, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Outcomes[outcome]++
	t.state.Nodes++
	if depth > t.state.MaxDepth {
		t.state.MaxDepth = depth
	}
}

func (t *Tracker) MasterSolved(string, time.Duration) {
	t.mu.Lock()
	t.state.MasterSolves++
	t.mu.Unlock()
}

func (t *Tracker) Priced(source pricing.Source, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.PricingRounds++
	if source != "" {
		t.state.Columns[source]++
	}
}

func (t *Tracker) FrontierSize(n int) {
	t.mu.Lock()
	t.state.Frontier = n
	t.mu.Unlock()
}

func (t *Tracker) IncumbentImproved(value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Incumbent = value
	t.state.IncumbentAt = t.now().Sub(t.start)
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state
	s.Elapsed = t.now().Sub(t.start)
	s.Outcomes = make(map[domain.NodeOutcome]int, len(t.state.Outcomes))
	for k, v := range t.state.Outcomes {
		s.Outcomes[k] = v
	}
	s.Columns = make(map[pricing.Source]int, len(t.state.Columns))
	for k, v := range t.state.Columns {
		s.Columns[k] = v
	}
	return s
}
