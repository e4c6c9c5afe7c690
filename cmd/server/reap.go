package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/di"
	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	authRepo "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/repository"
	authService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/service"
	reaperService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/service"
	sharedErrors "github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/mtproto"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newReapCmd(opts *rootOptions) *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Delete the account's expired group messages once and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReap(cmd.Context(), opts, minutes)
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Retention in minutes (overrides AUTO_DELETE_MINUTES).")
	return cmd
}

func runReap(ctx context.Context, opts *rootOptions, minutes int) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAccount(); err != nil {
		return err
	}
	if minutes > 0 {
		cfg.AutoDeleteMinutes = minutes
	}
	if cfg.Retention() <= 0 {
		return oops.Errorf("retention is 0: set AUTO_DELETE_MINUTES or --minutes")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	injector, err := di.Setup(cfg, logger)
	if err != nil {
		return err
	}
	repo, err := do.Invoke[authRepo.Repository](injector)
	if err != nil {
		return err
	}
	defer repo.Close(context.WithoutCancel(ctx))

	client, err := do.Invoke[*mtproto.Client](injector)
	if err != nil {
		return err
	}

	// No code login here: a stored session is required.
	machine := authService.New(client, repo, consoleOperator{out: os.Stderr}, authService.Options{}, logger)
	reaper := reaperService.New(client, di.ReaperOptions(cfg, nil), logger)

	return client.Run(ctx, func(ctx context.Context) error {
		state, err := machine.Authenticate(ctx)
		if state != authDomain.StateAuthenticated {
			return oops.With("state", state).Wrapf(errorsOr(err, sharedErrors.ErrNotAuthenticated), "run the login command first")
		}

		report, err := reaper.RunOnce(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	})
}

func errorsOr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}
