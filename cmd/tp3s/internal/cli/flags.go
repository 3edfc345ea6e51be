package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/example/tp3s/bnp/domain"
)

// solverFlags holds command-line overrides of the solver configuration.
type solverFlags struct {
	fixedCost     float64
	seedDepth     int
	strategy      string
	maxNodes      int
	workers       int
	maxIterations int
	bigMFactor    float64
}

func (f *solverFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64Var(&f.fixedCost, "fixed-cost", 0, "cost charged per used vehicle")
	fs.IntVar(&f.seedDepth, "seed-depth", 0, "enumeration depth of the root column pool")
	fs.StringVar(&f.strategy, "strategy", "", "frontier order: depth-first or best-bound")
	fs.IntVar(&f.maxNodes, "max-nodes", 0, "stop after this many search nodes (0 = unlimited)")
	fs.IntVar(&f.workers, "workers", 0, "heuristic pricing goroutines (0 = GOMAXPROCS)")
	fs.IntVar(&f.maxIterations, "max-iterations", 0, "column generation rounds per node")
	fs.Float64Var(&f.bigMFactor, "big-m-factor", 0, "exact pricing big-M multiplier")
}

// apply overlays the flags the user set on cfg.
func (f *solverFlags) apply(fs *pflag.FlagSet, cfg domain.SolverConfig) (domain.SolverConfig, error) {
	if fs.Changed("fixed-cost") {
		cfg.FixedCost = f.fixedCost
	}
	if fs.Changed("seed-depth") {
		cfg.SeedDepth = f.seedDepth
	}
	if fs.Changed("strategy") {
		cfg.Strategy = domain.Strategy(f.strategy)
	}
	if fs.Changed("max-nodes") {
		cfg.MaxNodes = f.maxNodes
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("max-iterations") {
		cfg.MaxColumnGenerationIterations = f.maxIterations
	}
	if fs.Changed("big-m-factor") {
		cfg.BigMFactor = f.bigMFactor
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
