package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tp3s/cmd/tp3s/internal/ui"
	"github.com/example/tp3s/internal/service"
	"github.com/example/tp3s/internal/storage"
)

var (
	runsInstance string
	runsStatus   []string
	runsLimit    int
	runsOffset   int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded solves",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded solves, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded solve with its columns",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsListCmd.Flags().StringVar(&runsInstance, "instance", "", "only runs of this instance")
	runsListCmd.Flags().StringSliceVar(&runsStatus, "status", nil, "only runs with these statuses (optimal, incomplete, no_solution, failed)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs (0 = all)")
	runsListCmd.Flags().IntVar(&runsOffset, "offset", 0, "skip this many runs")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	opts := storage.ListOptions{
		InstanceName: runsInstance,
		Limit:        runsLimit,
		Offset:       runsOffset,
	}
	for _, s := range runsStatus {
		status := storage.RunStatus(s)
		switch status {
		case storage.RunOptimal, storage.RunIncomplete, storage.RunNoSolution, storage.RunFailed:
		default:
			return fmt.Errorf("unknown run status %q", s)
		}
		opts.Statuses = append(opts.Statuses, status)
	}

	ctx, cancel := signalContext(0)
	defer cancel()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.NewSolveService(appConfig.Solver, service.WithStorage(store), service.WithLogger(logger))
	runs, err := svc.ListRuns(ctx, opts)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.PrintInfo("No runs recorded")
		return nil
	}
	ui.PrintRuns(runs)
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(0)
	defer cancel()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.NewSolveService(appConfig.Solver, service.WithStorage(store), service.WithLogger(logger))
	run, err := svc.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	ui.PrintRun(run)
	return nil
}
