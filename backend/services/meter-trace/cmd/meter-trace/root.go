package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ocppmeter/backend/libs/logging"
	"ocppmeter/backend/services/meter-trace/internal/app"
	"ocppmeter/backend/services/meter-trace/internal/config"
)

// newRootCmd builds the meter-trace command. Positional arguments name trace files
// and replace directory discovery.
func newRootCmd() *cobra.Command {
	var configPath string
	flagged := config.Default()

	cmd := &cobra.Command{
		Use:   "meter-trace [flags] [file.trace...]",
		Short: "Converts OCPP MeterValues trace files into per-channel time series",
		Example: "meter-trace -t ./traces\n" +
			"meter-trace --sink log,websocket --viewer-url ws://localhost:9876/ingest -t ./traces\n" +
			"meter-trace --strict session.trace",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.ApplyFlags(cmd.Flags(), flagged)
			if err := cfg.Validate(len(args) > 0); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Name:   "meter-trace",
			})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to init application", zap.Error(err))
				return err
			}
			defer application.Close()

			if _, err := application.Run(ctx, args); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("conversion interrupted")
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "yaml config file (defaults to CONFIG_FILE)")
	flagged.Flags(cmd.Flags())
	cmd.CompletionOptions.DisableDefaultCmd = true

	return cmd
}
