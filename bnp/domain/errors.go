package domain

import "errors"

var (
	// ErrInvalidInstance is returned when problem data is malformed.
	ErrInvalidInstance = errors.New("invalid instance")

	// ErrInvalidConfig is returned when solver configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownTest is returned when a test id is not part of the instance.
	ErrUnknownTest = errors.New("unknown test")

	// ErrUnknownGroup is returned when no resource group has the given release.
	ErrUnknownGroup = errors.New("unknown resource group")

	// ErrIncompatibleColumn is returned when a sequence violates the
	// compatibility relation or repeats a test.
	ErrIncompatibleColumn = errors.New("incompatible column")

	// ErrInvalidBranch is returned for branch constraints with an unknown
	// kind or direction, or with missing operands.
	ErrInvalidBranch = errors.New("invalid branch constraint")

	// ErrNoSolution is returned when the search ends without an integer
	// feasible solution.
	ErrNoSolution = errors.New("no integer solution found")

	// ErrMasterNotOptimal is returned when the master problem could not be
	// solved to optimality.
	ErrMasterNotOptimal = errors.New("master problem not optimal")

	// ErrPricingFailed is returned when the pricing subproblem fails.
	ErrPricingFailed = errors.New("pricing failed")

	// ErrEnumerationLimit is returned when enumeration exceeds its column cap.
	ErrEnumerationLimit = errors.New("enumeration limit exceeded")
)
