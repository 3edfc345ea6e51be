package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tp3s/cmd/tp3s/internal/ui"
	"github.com/example/tp3s/internal/instance"
	"github.com/example/tp3s/internal/service"
)

var relaxSolver solverFlags

var relaxCmd = &cobra.Command{
	Use:   "relax <instance>",
	Short: "Compute the root column generation bound",
	Long: `Run column generation at the root node without branching.

The printed bound is a lower bound on the optimal objective. Fractional
column weights show where branching would be needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelax,
}

func init() {
	relaxSolver.register(relaxCmd)
}

func runRelax(cmd *cobra.Command, args []string) error {
	cfg, err := relaxSolver.apply(cmd.Flags(), appConfig.Solver)
	if err != nil {
		return err
	}
	inst, err := instance.Load(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(0)
	defer cancel()

	ui.PrintHeader("Root Relaxation")
	ui.PrintInstance(inst)

	svc := service.NewSolveService(cfg, service.WithLogger(logger))
	relax, err := svc.Relax(ctx, &service.SolveRequest{Instance: inst})
	if err != nil {
		return err
	}

	ui.PrintObjective("Lower bound", relax.Bound)
	ui.PrintInfo(fmt.Sprintf("Pricing rounds: %d, pool size: %d", relax.Iterations, relax.PoolSize))
	if relax.Capped {
		ui.PrintWarning("Column generation hit its iteration cap; the bound may be weak")
	}
	fmt.Println()
	ui.PrintColumns(inst, relax.Columns)
	return nil
}
