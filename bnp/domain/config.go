package domain

import "fmt"

// Strategy selects how the search frontier is drained.
type Strategy string

const (
	// StrategyDepthFirst explores the most recently created node first.
	StrategyDepthFirst Strategy = "depth-first"

	// StrategyBestBound explores the node with the lowest parent LP bound
	// first. It is an alternate exploration order, not the default.
	StrategyBestBound Strategy = "best-bound"
)

// SolverConfig holds the tunable parameters of the branch-and-price search.
type SolverConfig struct {
	// FixedCost is charged once per used resource.
	// Default: 50
	FixedCost float64 `yaml:"fixed_cost" json:"fixed_cost"`

	// ReducedCostTolerance is the epsilon below zero a column's reduced
	// cost must reach to count as improving.
	// Default: 0.001
	ReducedCostTolerance float64 `yaml:"reduced_cost_tolerance" json:"reduced_cost_tolerance"`

	// FractionalTolerance is the largest distance from 0.5 an aggregate
	// weight may have and still trigger branching.
	// Default: 0.4888
	FractionalTolerance float64 `yaml:"fractional_tolerance" json:"fractional_tolerance"`

	// IntegralityGapTolerance is how close the integer re-solve of the
	// master must be to the LP bound to declare the node integral.
	// Default: 0.001
	IntegralityGapTolerance float64 `yaml:"integrality_gap_tolerance" json:"integrality_gap_tolerance"`

	// MaxColumnGenerationIterations caps the pricing loop of one node.
	// Default: 1000
	MaxColumnGenerationIterations int `yaml:"max_column_generation_iterations" json:"max_column_generation_iterations"`

	// SeedDepth is the enumeration depth of the root column pool.
	// 0 seeds singleton columns only.
	// Default: 0
	SeedDepth int `yaml:"seed_depth" json:"seed_depth"`

	// BigMFactor scales the longest duration in the exact pricer's linking
	// constraints.
	// Default: 5
	BigMFactor float64 `yaml:"big_m_factor" json:"big_m_factor"`

	// Strategy is the frontier ordering.
	// Default: depth-first
	Strategy Strategy `yaml:"strategy" json:"strategy"`

	// Workers bounds the heuristic pricing fan-out. 0 means GOMAXPROCS.
	// Default: 0
	Workers int `yaml:"workers" json:"workers"`

	// MaxNodes stops the search after this many processed nodes.
	// 0 means unlimited.
	// Default: 0
	MaxNodes int `yaml:"max_nodes" json:"max_nodes"`

	// MIPNodeLimit caps the branch-and-bound nodes of each integer solve.
	// Default: 100000
	MIPNodeLimit int `yaml:"mip_node_limit" json:"mip_node_limit"`

	// WeightThreshold is the smallest weight reported in a solution.
	// Default: 0.001
	WeightThreshold float64 `yaml:"weight_threshold" json:"weight_threshold"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() SolverConfig {
	return SolverConfig{
		FixedCost:                     50,
		ReducedCostTolerance:          0.001,
		FractionalTolerance:           0.4888,
		IntegralityGapTolerance:       0.001,
		MaxColumnGenerationIterations: 1000,
		SeedDepth:                     0,
		BigMFactor:                    5,
		Strategy:                      StrategyDepthFirst,
		Workers:                       0,
		MaxNodes:                      0,
		MIPNodeLimit:                  100000,
		WeightThreshold:               0.001,
	}
}

// Validate checks that the configuration is valid.
func (c *SolverConfig) Validate() error {
	if c.FixedCost < 0 {
		return fmt.Errorf("%w: FixedCost must be non-negative, got %f",
			ErrInvalidConfig, c.FixedCost)
	}
	if c.ReducedCostTolerance <= 0 {
		return fmt.Errorf("%w: ReducedCostTolerance must be positive, got %f",
			ErrInvalidConfig, c.ReducedCostTolerance)
	}
	if c.FractionalTolerance <= 0 || c.FractionalTolerance >= 0.5 {
		return fmt.Errorf("%w: FractionalTolerance must be in (0, 0.5), got %f",
			ErrInvalidConfig, c.FractionalTolerance)
	}
	if c.IntegralityGapTolerance < 0 {
		return fmt.Errorf("%w: IntegralityGapTolerance must be non-negative, got %f",
			ErrInvalidConfig, c.IntegralityGapTolerance)
	}
	if c.MaxColumnGenerationIterations < 1 {
		return fmt.Errorf("%w: MaxColumnGenerationIterations must be at least 1, got %d",
			ErrInvalidConfig, c.MaxColumnGenerationIterations)
	}
	if c.SeedDepth < 0 {
		return fmt.Errorf("%w: SeedDepth must be non-negative, got %d",
			ErrInvalidConfig, c.SeedDepth)
	}
	if c.BigMFactor <= 0 {
		return fmt.Errorf("%w: BigMFactor must be positive, got %f",
			ErrInvalidConfig, c.BigMFactor)
	}
	switch c.Strategy {
	case StrategyDepthFirst, StrategyBestBound:
	default:
		return fmt.Errorf("%w: unknown Strategy %q", ErrInvalidConfig, c.Strategy)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: Workers must be non-negative, got %d",
			ErrInvalidConfig, c.Workers)
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("%w: MaxNodes must be non-negative, got %d",
			ErrInvalidConfig, c.MaxNodes)
	}
	if c.MIPNodeLimit < 1 {
		return fmt.Errorf("%w: MIPNodeLimit must be at least 1, got %d",
			ErrInvalidConfig, c.MIPNodeLimit)
	}
	if c.WeightThreshold < 0 {
		return fmt.Errorf("%w: WeightThreshold must be non-negative, got %f",
			ErrInvalidConfig, c.WeightThreshold)
	}
	return nil
}

// WithDefaults returns a new config with defaults applied for zero values.
// SeedDepth, Workers and MaxNodes have meaningful zero values and are kept.
func (c SolverConfig) WithDefaults() SolverConfig {
	defaults := DefaultConfig()
	if c.FixedCost == 0 {
		c.FixedCost = defaults.FixedCost
	}
	if c.ReducedCostTolerance == 0 {
		c.ReducedCostTolerance = defaults.ReducedCostTolerance
	}
	if c.FractionalTolerance == 0 {
		c.FractionalTolerance = defaults.FractionalTolerance
	}
	if c.IntegralityGapTolerance == 0 {
		c.IntegralityGapTolerance = defaults.IntegralityGapTolerance
	}
	if c.MaxColumnGenerationIterations == 0 {
		c.MaxColumnGenerationIterations = defaults.MaxColumnGenerationIterations
	}
	if c.BigMFactor == 0 {
		c.BigMFactor = defaults.BigMFactor
	}
	if c.Strategy == "" {
		c.Strategy = defaults.Strategy
	}
	if c.MIPNodeLimit == 0 {
		c.MIPNodeLimit = defaults.MIPNodeLimit
	}
	if c.WeightThreshold == 0 {
		c.WeightThreshold = defaults.WeightThreshold
	}
	return c
}
