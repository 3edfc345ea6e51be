package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tp3s/bnp/enumerate"
	"github.com/example/tp3s/cmd/tp3s/internal/ui"
	"github.com/example/tp3s/internal/instance"
	"github.com/example/tp3s/internal/service"
	"github.com/example/tp3s/pkg/id"
)

var (
	enumDepth  int
	enumLimit  int
	enumSolve  bool
	enumSolver solverFlags
)

var enumerateCmd = &cobra.Command{
	Use:   "enumerate <instance>",
	Short: "Enumerate feasible sequences",
	Long: `List every compatible test sequence on every resource group up to a depth.

With --solve, every sequence is enumerated and the integer master is solved
over all of them. This is exact but only practical for small instances.

EXAMPLES:
  # Count sequences of up to three tests
  tp3s enumerate small.json --depth 2

  # Exhaustive optimum
  tp3s enumerate small.json --solve`,
	Args: cobra.ExactArgs(1),
	RunE: runEnumerate,
}

func init() {
	enumSolver.register(enumerateCmd)
	enumerateCmd.Flags().IntVar(&enumDepth, "depth", -1, "extensions beyond singletons (-1 = all)")
	enumerateCmd.Flags().IntVar(&enumLimit, "limit", 100000, "abort above this many sequences (0 = unlimited)")
	enumerateCmd.Flags().BoolVar(&enumSolve, "solve", false, "solve the integer master over every sequence")
}

func runEnumerate(cmd *cobra.Command, args []string) error {
	inst, err := instance.Load(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(0)
	defer cancel()

	if enumSolve {
		cfg, err := enumSolver.apply(cmd.Flags(), appConfig.Solver)
		if err != nil {
			return err
		}
		ui.PrintHeader("Exhaustive Solve")
		ui.PrintInstance(inst)

		svc := service.NewSolveService(cfg, service.WithLogger(logger))
		res, err := svc.Exhaustive(ctx, &service.SolveRequest{Instance: inst})
		if err != nil {
			return err
		}
		ui.PrintInfo(fmt.Sprintf("Sequences: %d", res.Stats.ColumnsSeeded))
		ui.PrintObjective("Objective", res.Objective)
		fmt.Println()
		ui.PrintColumns(inst, res.Columns)
		return nil
	}

	depth := enumDepth
	if depth < 0 {
		depth = inst.NumTests() - 1
	}
	gen := enumerate.NewEnumerator(inst, id.NewSequence("col"))
	if enumLimit > 0 {
		gen = gen.WithLimit(enumLimit)
	}
	cols, err := gen.Enumerate(ctx, depth)
	if err != nil {
		return err
	}

	ui.PrintHeader("Enumeration")
	ui.PrintInstance(inst)
	byLen := make(map[int]int)
	maxLen := 0
	for _, c := range cols {
		byLen[c.Len()]++
		if c.Len() > maxLen {
			maxLen = c.Len()
		}
	}
	fmt.Println()
	rows := make([][]string, 0, maxLen)
	for n := 1; n <= maxLen; n++ {
		rows = append(rows, []string{fmt.Sprint(n), fmt.Sprint(byLen[n])})
	}
	ui.PrintTable([]string{"LENGTH", "SEQUENCES"}, rows)
	fmt.Println()
	ui.PrintSuccess(fmt.Sprintf("%d sequences", len(cols)))
	return nil
}
