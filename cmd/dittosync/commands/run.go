package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/config"
	"github.com/marmos91/dittosync/pkg/metrics"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		listFile string
		workers  int
		failFast bool
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract every object of the list file into the target",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLog()

			if cmd.Flags().Changed("list") {
				cfg.ListFile = listFile
			}
			if cmd.Flags().Changed("workers") {
				cfg.Engine.Workers = workers
			}
			if cmd.Flags().Changed("fail-fast") {
				cfg.Engine.FailFast = failFast
			}
			if cmd.Flags().Changed("verify") {
				cfg.Engine.Verify = verify
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline, err := config.InitializePipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := pipeline.Close(); err != nil {
					logger.Error("Failed to close pipeline: %v", err)
				}
			}()

			if cfg.Metrics.Enabled {
				stopMetrics, err := startMetrics(ctx, cfg, pipeline)
				if err != nil {
					return err
				}
				defer stopMetrics()
			}

			logger.Info("Starting run: source=%s target=%s workers=%d",
				cfg.Source.Type, cfg.Target.Type, cfg.Engine.Workers)

			stats, err := pipeline.Run(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "processed: %d\nfailed: %d\n", stats.Processed, stats.Failed)
			if cfg.Engine.Verify {
				fmt.Fprintf(cmd.OutOrStdout(), "verified: %d\nmismatched: %d\n", stats.Verified, stats.Mismatched)
			}
			if err != nil {
				return err
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%d objects failed", stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listFile, "list", "", "list file (overrides list_file)")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of workers (overrides engine.workers)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failed object")
	cmd.Flags().BoolVar(&verify, "verify", false, "read every object back from the target and compare it")

	return cmd
}

// startMetrics registers engine metrics and serves them until the returned
// function is called.
func startMetrics(ctx context.Context, cfg *config.Config, pipeline *config.Pipeline) (func(), error) {
	metrics.InitRegistry()
	pipeline.Engine.SetMetrics(metrics.NewEngineMetrics())

	server := metrics.NewServer(cfg.Metrics)
	if err := server.Listen(); err != nil {
		return nil, err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Start(serveCtx); err != nil {
			logger.Error("Metrics server: %v", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}
