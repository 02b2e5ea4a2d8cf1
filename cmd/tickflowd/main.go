// Command tickflowd runs tick threads and worker pools described by a
// configuration file, with optional cron jobs, a Redis heartbeat and a
// Prometheus endpoint.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnykmshr/tickflow/internal/config"
	"github.com/vnykmshr/tickflow/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile       string
		statsInterval time.Duration
	)

	root := &cobra.Command{
		Use:           "tickflowd",
		Short:         "Cooperative tick-thread and worker-pool daemon",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			undo := zap.ReplaceGlobals(logger)
			defer undo()

			d, err := newDaemon(cfg, logger, statsInterval)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return d.run(ctx)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "path to a configuration file (yaml, json or toml)")
	flags.DurationVar(&statsInterval, "stats-interval", 30*time.Second, "how often scheduler stats are logged, 0 disables")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "json", "log format: json or console")
	flags.Bool("metrics", true, "serve Prometheus metrics")
	flags.String("metrics-address", ":9090", "address of the metrics endpoint")
	flags.String("redis-addr", "localhost:6379", "Redis address used by the heartbeat")

	root.AddCommand(newValidateCmd(&cfgFile))
	return root
}

func newValidateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "threads:   %d\n", len(cfg.Threads))
			fmt.Fprintf(out, "pools:     %d\n", len(cfg.Pools))
			fmt.Fprintf(out, "cron jobs: %d\n", len(cfg.Cron))
			fmt.Fprintf(out, "heartbeat: %t\n", cfg.Heartbeat.Enabled)
			fmt.Fprintf(out, "metrics:   %t\n", cfg.Metrics.Enabled)
			return nil
		},
	}
}
