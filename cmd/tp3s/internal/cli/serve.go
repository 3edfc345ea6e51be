package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/tp3s/cmd/tp3s/internal/ui"
	"github.com/example/tp3s/internal/endpoint"
	"github.com/example/tp3s/internal/observability"
	"github.com/example/tp3s/internal/service"
	tgrpc "github.com/example/tp3s/internal/transport/grpc"
	"github.com/example/tp3s/internal/web"
)

var (
	serveAddr        string
	serveMetricsAddr string
	serveSolver      solverFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the solver over gRPC",
	Long: `Start the tp3s.v1.Solver gRPC service.

When a run history database is configured, Solve requests with record set
are persisted and GetRun/ListRuns read them back. With --metrics-addr, an
HTTP server exposes solve metrics at /metrics and the run history as JSON
at /api/runs/.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveSolver.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "gRPC listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "HTTP metrics listen address (overrides server.metrics_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveSolver.apply(cmd.Flags(), appConfig.Solver)
	if err != nil {
		return err
	}
	addr := appConfig.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	metricsAddr := appConfig.Server.MetricsAddr
	if serveMetricsAddr != "" {
		metricsAddr = serveMetricsAddr
	}

	ctx, cancel := signalContext(0)
	defer cancel()

	metrics := observability.NewMetrics()
	opts := []service.Option{service.WithMetrics(metrics), service.WithLogger(logger)}
	if appConfig.Storage.Path != "" {
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, service.WithStorage(store))
	} else {
		ui.PrintWarning("No run history database configured; recording is disabled")
	}

	svc := service.NewSolveService(cfg, opts...)
	server := tgrpc.NewServer(endpoint.MakeEndpoints(svc), tgrpc.WithLogger(logger))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ui.PrintStep(fmt.Sprintf("Serving gRPC on %s", addr))
		return server.Serve(addr)
	})

	var httpServer *web.Server
	if metricsAddr != "" {
		httpServer = web.NewServer(metricsAddr, svc, metrics, logger)
		g.Go(func() error {
			ui.PrintStep(fmt.Sprintf("Serving run history and metrics on %s", metricsAddr))
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		server.GracefulStop()
		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http server shutdown failed", zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	ui.PrintSuccess("Server stopped")
	return nil
}
