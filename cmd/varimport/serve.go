package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the import worker until interrupted",
		Long: `Poll the spool directory on a fixed interval and process at most
one import job per tick. At most one job is in flight system-wide,
enforced by the spool lock file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			imp, st, _, err := buildPipeline(logger)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("import worker started")
			if err := imp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("import worker stopped")
			return nil
		},
	}
}

func newImportCmd(verbose *bool) *cobra.Command {
	var forceUnlock bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Process a single pending import job",
		Long: `Run exactly one queue tick: claim a pending job if any, process it
and exit. Useful for debugging and external cron setups.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			imp, st, queue, err := buildPipeline(logger)
			if err != nil {
				return err
			}
			defer st.Close()

			// Operator escape hatch for a lock left behind by a
			// crashed worker.
			if forceUnlock {
				queue.Unlock()
			}

			return imp.RunOnce(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&forceUnlock, "force-unlock", false,
		"remove a stale spool lock before claiming")
	return cmd
}
