package main

import (
	"log/slog"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/config"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "telegram-keyword-monitor",
		Short:         "Watch Telegram chats for keywords and forward matches to a notification chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Logging level: debug|info|warn|error (overrides LOG_LEVEL).")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newReapCmd(opts))

	return cmd
}

// setup loads the configuration and installs the process logger.
func setup(opts *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return nil, nil, err
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := logging.New(level)
	slog.SetDefault(logger)

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}
	return cfg, logger, nil
}
