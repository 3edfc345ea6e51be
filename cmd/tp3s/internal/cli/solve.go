package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/cmd/tp3s/internal/progress"
	"github.com/example/tp3s/cmd/tp3s/internal/ui"
	"github.com/example/tp3s/internal/export"
	"github.com/example/tp3s/internal/instance"
	"github.com/example/tp3s/internal/service"
	tgrpc "github.com/example/tp3s/internal/transport/grpc"
)

var (
	solveSolver  solverFlags
	solveRecord  bool
	solveTimeout time.Duration
	solveParquet string
	solveRemote  string
	solveEvery   time.Duration
)

var solveCmd = &cobra.Command{
	Use:   "solve <instance>",
	Short: "Find the optimal schedule with branch-and-price",
	Long: `Solve an instance to optimality with branch-and-price.

The search stops early on --timeout, --max-nodes or Ctrl-C; the best
schedule found so far is still printed.

EXAMPLES:
  # Solve locally
  tp3s solve 157.tp3s

  # Record the run and export the schedule
  tp3s solve 157.tp3s --record --db runs.db --parquet schedule.parquet

  # Print search progress every two seconds
  tp3s solve 157.tp3s --progress 2s

  # Solve on a remote server
  tp3s solve 157.tp3s --remote localhost:50051`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	solveSolver.register(solveCmd)
	solveCmd.Flags().BoolVar(&solveRecord, "record", false, "store the run in the history database")
	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "stop the search after this long (0 = no limit)")
	solveCmd.Flags().StringVar(&solveParquet, "parquet", "", "write the schedule to this parquet file")
	solveCmd.Flags().StringVar(&solveRemote, "remote", "", "solve on a tp3s server at this address")
	solveCmd.Flags().DurationVar(&solveEvery, "progress", 0, "print search progress at this interval (0 = off)")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := solveSolver.apply(cmd.Flags(), appConfig.Solver)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(solveTimeout)
	defer cancel()

	if solveRemote != "" {
		return solveRemotely(ctx, args[0], cfg)
	}

	inst, err := instance.Load(args[0])
	if err != nil {
		return err
	}

	ui.PrintHeader("Branch and Price")
	ui.PrintInstance(inst)
	ui.PrintInfo(fmt.Sprintf("Fixed cost: %s, strategy: %s", ui.FormatValue(cfg.FixedCost), cfg.Strategy))
	fmt.Println()

	opts := []service.Option{service.WithLogger(logger)}
	if solveRecord {
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, service.WithStorage(store))
	}
	svc := service.NewSolveService(cfg, opts...)

	req := &service.SolveRequest{Instance: inst, Record: solveRecord}
	var tracker *progress.Tracker
	stopReport := func() {}
	if solveEvery > 0 {
		tracker = progress.NewTracker()
		req.Recorder = tracker
		reportCtx, cancelReport := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			progress.Report(reportCtx, os.Stderr, tracker, solveEvery)
		}()
		stopReport = func() {
			cancelReport()
			<-done
		}
	}

	ui.PrintStep("Searching...")
	resp, err := svc.Solve(ctx, req)
	stopReport()
	switch {
	case err == nil:
		ui.PrintSuccess("Search complete")
	case errors.Is(err, domain.ErrNoSolution):
		ui.PrintError("No feasible schedule exists for the available vehicles")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ui.PrintWarning(fmt.Sprintf("Search stopped early: %v", err))
	default:
		if resp == nil || resp.Result == nil {
			return err
		}
		ui.PrintError(err.Error())
	}
	if resp == nil || resp.Result == nil {
		return err
	}

	res := resp.Result
	if !res.Complete && err == nil {
		ui.PrintWarning("Node limit reached; the schedule may not be optimal")
	}
	ui.PrintObjective("Objective", res.Objective)
	if res.Found() {
		ui.PrintInfo(fmt.Sprintf("Vehicles used: %s", ui.FormatValue(res.ResourcesUsed())))
		fmt.Println()
		ui.PrintColumns(inst, res.Columns)
	}
	fmt.Println()
	ui.PrintStats(res.Stats)
	if tracker != nil {
		fmt.Println()
		fmt.Print(progress.RenderOutcomeTree(tracker.Snapshot()))
	}

	if resp.RunID != "" {
		fmt.Println()
		ui.PrintSuccess(fmt.Sprintf("Recorded run %s", resp.RunID))
	}
	if solveParquet != "" && res.Found() {
		if err := export.WriteSchedule(solveParquet, inst, res.Columns); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Wrote schedule to %s", solveParquet))
	}

	return solveExitErr(err)
}

// solveExitErr decides the exit status of a solve that printed a partial
// result. Stopping on Ctrl-C or --timeout is not a failure.
func solveExitErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func solveRemotely(ctx context.Context, path string, cfg domain.SolverConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read instance: %w", err)
	}
	client, err := tgrpc.Dial(solveRemote)
	if err != nil {
		return err
	}
	defer client.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	resp, err := client.Solve(ctx, name, data, &cfg, solveRecord)
	if err != nil {
		return err
	}
	raw, err := resp.MarshalJSON()
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return err
	}
	fmt.Println(pretty.String())
	return nil
}
