package domain

import (
	"math"
	"time"
)

// Duals holds the master's shadow prices: one per cover row (by test id)
// and one per capacity row (by group release).
type Duals struct {
	Tests  map[int]float64
	Groups map[int]float64
}

// NewDuals returns empty dual maps.
func NewDuals() Duals {
	return Duals{
		Tests:  make(map[int]float64),
		Groups: make(map[int]float64),
	}
}

// Test returns the dual of the test's cover row, 0 when absent.
func (d Duals) Test(tid int) float64 { return d.Tests[tid] }

// Group returns the dual of the group's capacity row, 0 when absent.
func (d Duals) Group(release int) float64 { return d.Groups[release] }

// ColumnWeight pairs a column with its value in a master solution.
type ColumnWeight struct {
	Column *Column
	Weight float64
}

// NodeOutcome is the terminal state of a processed search node.
type NodeOutcome int

const (
	OutcomeUnsolved   NodeOutcome = iota // Node not yet processed
	OutcomePruned                        // LP bound cannot beat the incumbent
	OutcomeIntegral                      // LP or integer re-solve is integral
	OutcomeBranched                      // Two children emitted
	OutcomeInfeasible                    // Master or pricing not optimal
)

func (o NodeOutcome) String() string {
	switch o {
	case OutcomePruned:
		return "PRUNED"
	case OutcomeIntegral:
		return "INTEGRAL"
	case OutcomeBranched:
		return "BRANCHED"
	case OutcomeInfeasible:
		return "INFEASIBLE"
	default:
		return "UNSOLVED"
	}
}

// SearchStats summarizes a branch-and-price run.
type SearchStats struct {
	NodesProcessed   int `json:"nodes_processed"`
	NodesPruned      int `json:"nodes_pruned"`
	NodesIntegral    int `json:"nodes_integral"`
	NodesBranched    int `json:"nodes_branched"`
	NodesInfeasible  int `json:"nodes_infeasible"`
	ColumnsSeeded    int `json:"columns_seeded"`
	ColumnsHeuristic int `json:"columns_heuristic"`
	ColumnsExact     int `json:"columns_exact"`
	IncumbentUpdates int `json:"incumbent_updates"`
	IterationCapHits int `json:"iteration_cap_hits"`
	MaxDepth         int `json:"max_depth"`

	// RootBound is the LP bound of the root node.
	RootBound float64 `json:"root_bound"`

	// Elapsed is the wall time of the search.
	Elapsed time.Duration `json:"elapsed"`
}

// Record counts a processed node.
func (s *SearchStats) Record(outcome NodeOutcome) {
	s.NodesProcessed++
	switch outcome {
	case OutcomePruned:
		s.NodesPruned++
	case OutcomeIntegral:
		s.NodesIntegral++
	case OutcomeBranched:
		s.NodesBranched++
	case OutcomeInfeasible:
		s.NodesInfeasible++
	}
}

// Result is the outcome of a solve.
type Result struct {
	// Objective is the incumbent value; +Inf when none was found.
	Objective float64

	// Columns are the columns used with weight above the threshold.
	Columns []ColumnWeight

	// Complete is false when the search stopped on MaxNodes or context
	// cancellation before the frontier emptied.
	Complete bool

	Stats SearchStats
}

// Found reports whether an integer solution was found.
func (r *Result) Found() bool {
	return r != nil && !math.IsInf(r.Objective, 1)
}

// ResourcesUsed returns the total weight of the used columns.
func (r *Result) ResourcesUsed() float64 {
	total := 0.0
	for _, cw := range r.Columns {
		total += cw.Weight
	}
	return total
}
