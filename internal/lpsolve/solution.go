package lpsolve

// Status is the outcome of a solve.
type Status int

const (
	StatusUnknown    Status = iota
	StatusOptimal           // Proven optimal
	StatusFeasible          // Integer solution found, node limit hit before proof
	StatusInfeasible        // No feasible point
	StatusUnbounded         // Objective unbounded below
	StatusCutoff            // No solution strictly below the cutoff
	StatusLimit             // Node limit hit without an integer solution
	StatusError             // Numerical failure
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusUnbounded:
		return "UNBOUNDED"
	case StatusCutoff:
		return "CUTOFF"
	case StatusLimit:
		return "LIMIT"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Solution contains the results from solving a model.
type Solution struct {
	// Status indicates the outcome of the solve.
	Status Status

	// Objective is the objective value including the constant term.
	Objective float64

	// Values contains the primal value of each variable.
	Values []float64

	// RowDuals contains the shadow price of each row.
	// Only populated by SolveLP.
	RowDuals []float64

	// Nodes is the number of branch-and-bound nodes explored.
	Nodes int

	// Err describes a StatusError outcome.
	Err error
}

// IsOptimal returns true if the solution is optimal.
func (s *Solution) IsOptimal() bool {
	return s.Status == StatusOptimal
}

// HasSolution returns true if Values holds a feasible point.
func (s *Solution) HasSolution() bool {
	return s.Status == StatusOptimal || s.Status == StatusFeasible
}

// Value returns the value of a variable by index.
// Returns 0 if the index is out of range.
func (s *Solution) Value(index int) float64 {
	if index < 0 || index >= len(s.Values) {
		return 0
	}
	return s.Values[index]
}

// Dual returns the shadow price of a row by index.
// Returns 0 if the index is out of range.
func (s *Solution) Dual(index int) float64 {
	if index < 0 || index >= len(s.RowDuals) {
		return 0
	}
	return s.RowDuals[index]
}
