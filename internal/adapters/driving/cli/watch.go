package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/athena/internal/connectors/filesystem"
	"github.com/custodia-labs/athena/internal/logger"
)

var (
	watchMetricsAddr string
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the store in step with the policy directory",
	Long: `Runs an ingest pass immediately, then again on the configured interval
and whenever files in the policy directory change.

Use --metrics-addr to serve Prometheus metrics while watching.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "address for /metrics, e.g. :9090 (empty = disabled)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before a change triggers a pass")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}
	if policyDir == "" {
		return errors.New("policy directory not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if watchMetricsAddr != "" && metricsHandler != nil {
		srv := &http.Server{
			Addr:              watchMetricsAddr,
			Handler:           metricsMux(metricsHandler),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			cmd.Printf("Metrics on http://localhost%s/metrics\n", watchMetricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	watcher := filesystem.New(policyDir, watchDebounce, schedulerService.Trigger)
	g.Go(func() error {
		return ignoreCancel(watcher.Run(ctx))
	})
	g.Go(func() error {
		return ignoreCancel(schedulerService.Start(ctx))
	})
	g.Go(func() error {
		<-ctx.Done()
		return schedulerService.Stop()
	})

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", policyDir)
	err := g.Wait()
	logger.Info("Watch stopped")
	return err
}

func metricsMux(h http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	return mux
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
