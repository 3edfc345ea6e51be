package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/tp3s/internal/config"
	"github.com/example/tp3s/internal/storage/sqlite"
)

var (
	cfgFile string
	verbose bool
	dbPath  string

	appConfig *config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tp3s",
	Short: "Schedule time-windowed tests on vehicles with branch-and-price",
	Long: `tp3s assigns every test of an instance to exactly one vehicle and orders the
tests on each vehicle, minimizing the number of vehicles used times a fixed
cost plus the total tardiness.

Vehicles sharing a release time form one resource group. A test may follow
another on the same vehicle only when the instance's rehit table allows it.

WORKFLOW:
  1. tp3s solve instance.json             (branch-and-price optimum)
  2. tp3s relax instance.json             (root lower bound only)
  3. tp3s enumerate instance.json --solve (exhaustive check on small instances)
  4. tp3s runs list                       (history of recorded solves)

EXAMPLES:
  # Solve and record the run
  tp3s solve 157.tp3s --record --db runs.db

  # Cheaper vehicles, best-bound exploration
  tp3s solve 157.tp3s --fixed-cost 20 --strategy best-bound

  # Serve the gRPC API with metrics
  tp3s serve --addr :50051 --metrics-addr :9090 --db runs.db`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log search progress at debug level")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite run history file (overrides storage.path)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(relaxCmd)
	rootCmd.AddCommand(enumerateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if verbose {
		cfg.Log.Level = "debug"
	} else if cfgFile == "" {
		cfg.Log.Level = "warn"
	}

	l, err := cfg.Logger()
	if err != nil {
		return err
	}
	appConfig = cfg
	logger = l
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM, or after timeout when
// it is positive.
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func openStore(ctx context.Context) (*sqlite.Store, error) {
	path := appConfig.Storage.Path
	if path == "" {
		return nil, fmt.Errorf("no run history database: set --db or storage.path")
	}
	return sqlite.Open(ctx, path)
}
