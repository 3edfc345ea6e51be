package domain

import "fmt"

// BranchKind identifies the entity a branching decision is made on.
type BranchKind int

const (
	// KindSingleAssignment decides whether a test runs on a resource group.
	KindSingleAssignment BranchKind = iota + 1
	// KindPairTogether decides whether two tests share a column.
	KindPairTogether
	// KindPairOrder decides whether one test precedes another on a group.
	KindPairOrder
)

func (k BranchKind) String() string {
	switch k {
	case KindSingleAssignment:
		return "SINGLE_ASSIGNMENT"
	case KindPairTogether:
		return "PAIR_TOGETHER"
	case KindPairOrder:
		return "PAIR_ORDER"
	default:
		return "UNKNOWN"
	}
}

// Direction is the side of a bisection.
type Direction int

const (
	// ForceZero forbids the relationship.
	ForceZero Direction = iota + 1
	// ForceOne requires the relationship.
	ForceOne
)

func (d Direction) String() string {
	switch d {
	case ForceZero:
		return "FORCE_ZERO"
	case ForceOne:
		return "FORCE_ONE"
	default:
		return "UNKNOWN"
	}
}

// Effect is the projection of a branch constraint onto one column.
type Effect int

const (
	// NoImpact leaves the column free.
	NoImpact Effect = iota
	// Excluded pins the column's weight to zero.
	Excluded
)

func (e Effect) String() string {
	if e == Excluded {
		return "FORCE_ZERO"
	}
	return "NO_IMPACT"
}

// BranchConstraint is one bisection decision taken on a search-tree edge.
// Second is meaningful for pair kinds, Release for SINGLE_ASSIGNMENT and
// PAIR_ORDER.
type BranchConstraint struct {
	Kind      BranchKind
	Direction Direction
	First     int
	Second    int
	Release   int
}

// NewBranchConstraint validates the kind and direction.
func NewBranchConstraint(kind BranchKind, dir Direction, first, second, release int) (BranchConstraint, error) {
	bc := BranchConstraint{
		Kind:      kind,
		Direction: dir,
		First:     first,
		Second:    second,
		Release:   release,
	}
	if err := bc.Validate(); err != nil {
		return BranchConstraint{}, err
	}
	return bc, nil
}

// Validate checks kind, direction and operands.
func (bc BranchConstraint) Validate() error {
	switch bc.Direction {
	case ForceZero, ForceOne:
	default:
		return fmt.Errorf("%w: direction %d", ErrInvalidBranch, bc.Direction)
	}
	switch bc.Kind {
	case KindSingleAssignment:
	case KindPairTogether, KindPairOrder:
		if bc.First == bc.Second {
			return fmt.Errorf("%w: %s needs two distinct tests, got %d twice",
				ErrInvalidBranch, bc.Kind, bc.First)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidBranch, bc.Kind)
	}
	return nil
}

// Complement returns the same decision with the opposite direction.
func (bc BranchConstraint) Complement() BranchConstraint {
	out := bc
	if bc.Direction == ForceZero {
		out.Direction = ForceOne
	} else {
		out.Direction = ForceZero
	}
	return out
}

// Satisfy projects the constraint onto a column. A column is never forced
// to one individually; FORCE_ONE decisions exclude every column that
// contradicts them. Panics on a kind or direction that Validate rejects.
func (bc BranchConstraint) Satisfy(col *Column) Effect {
	switch bc.Direction {
	case ForceZero:
		switch bc.Kind {
		case KindSingleAssignment:
			if col.Contains(bc.First) && col.Release == bc.Release {
				return Excluded
			}
		case KindPairTogether:
			if col.Contains(bc.First) && col.Contains(bc.Second) {
				return Excluded
			}
		case KindPairOrder:
			if col.Release == bc.Release && col.Precedes(bc.First, bc.Second) {
				return Excluded
			}
		default:
			panic(fmt.Sprintf("bnp: unknown branch kind %d", bc.Kind))
		}
		return NoImpact

	case ForceOne:
		switch bc.Kind {
		case KindSingleAssignment:
			if col.Contains(bc.First) && col.Release != bc.Release {
				return Excluded
			}
		case KindPairTogether:
			if col.Contains(bc.First) != col.Contains(bc.Second) {
				return Excluded
			}
		case KindPairOrder:
			if col.Contains(bc.First) != col.Contains(bc.Second) {
				return Excluded
			}
			if col.Precedes(bc.Second, bc.First) {
				return Excluded
			}
		default:
			panic(fmt.Sprintf("bnp: unknown branch kind %d", bc.Kind))
		}
		return NoImpact

	default:
		panic(fmt.Sprintf("bnp: unknown branch direction %d", bc.Direction))
	}
}

// ExcludedBy returns true if any constraint excludes the column.
func ExcludedBy(constraints []BranchConstraint, col *Column) bool {
	for _, bc := range constraints {
		if bc.Satisfy(col) == Excluded {
			return true
		}
	}
	return false
}

func (bc BranchConstraint) String() string {
	switch bc.Kind {
	case KindSingleAssignment:
		return fmt.Sprintf("%s(%d@%d)=%s", bc.Kind, bc.First, bc.Release, bc.Direction)
	case KindPairTogether:
		return fmt.Sprintf("%s(%d,%d)=%s", bc.Kind, bc.First, bc.Second, bc.Direction)
	default:
		return fmt.Sprintf("%s(%d<%d@%d)=%s", bc.Kind, bc.First, bc.Second, bc.Release, bc.Direction)
	}
}
