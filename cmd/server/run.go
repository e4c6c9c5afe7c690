package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/di"
	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	authService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/service"
	dedupService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/service"
	filterDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/domain"
	filterService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/service"
	reaperService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/service"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/config"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/periodic"
	httpServer "github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/http"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/mtproto"
	telegramHandler "github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context(), opts)
		},
	}
}

// monitor is everything the run command starts once the container is built.
type monitor struct {
	cfg        *config.Config
	logger     *slog.Logger
	client     *mtproto.Client
	machine    *authService.Machine
	pipeline   *filterService.Pipeline
	cache      *dedupService.Cache
	reaper     *reaperService.Service
	heartbeat  *periodic.Runner
	dispatcher *telegramHandler.Dispatcher
	bot        *bot.Bot
	server     *httpServer.Server
}

func runMonitor(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup dependency injection
	injector, err := di.Setup(cfg, logger)
	if err != nil {
		logger.Error("Failed to setup dependency injection", "error", err)
		return err
	}

	m, err := resolveMonitor(injector)
	if err != nil {
		logger.Error("Failed to build services", "error", err)
		return err
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			logger.Error("Error during shutdown", "error", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	// Bot polling starts before login so the operator can answer the code
	// challenge from the admin chat.
	g.Go(func() error {
		m.bot.Start(ctx)
		return nil
	})

	g.Go(func() error {
		if err := m.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return m.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return m.client.Run(ctx, m.watch)
	})

	logger.Info("Application started", "port", cfg.HTTPPort)
	logger.Info("Press Ctrl+C to stop")

	err = g.Wait()
	logger.Info("Shutting down...")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func resolveMonitor(injector do.Injector) (*monitor, error) {
	var errs []error
	m := &monitor{
		cfg:        invoke[*config.Config](injector, &errs),
		logger:     invoke[*slog.Logger](injector, &errs),
		client:     invoke[*mtproto.Client](injector, &errs),
		machine:    invoke[*authService.Machine](injector, &errs),
		pipeline:   invoke[*filterService.Pipeline](injector, &errs),
		cache:      invoke[*dedupService.Cache](injector, &errs),
		reaper:     invoke[*reaperService.Service](injector, &errs),
		dispatcher: invoke[*telegramHandler.Dispatcher](injector, &errs),
		bot:        invoke[*bot.Bot](injector, &errs),
		server:     invoke[*httpServer.Server](injector, &errs),
	}

	heartbeat, err := do.InvokeNamed[*periodic.Runner](injector, di.ServiceHeartbeat)
	if err != nil {
		errs = append(errs, err)
	}
	m.heartbeat = heartbeat

	// Registers the bot commands.
	_ = invoke[*telegramHandler.Handler](injector, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func invoke[T any](injector do.Injector, errs *[]error) T {
	v, err := do.Invoke[T](injector)
	if err != nil {
		*errs = append(*errs, err)
	}
	return v
}

// watch runs while the account connection is up: log in, then feed updates
// through the filter pipeline until ctx is done.
func (m *monitor) watch(ctx context.Context) error {
	state, err := m.machine.Authenticate(ctx)
	if err != nil {
		m.logger.Warn("Login did not complete", "state", state, "error", err)
	}
	if state != authDomain.StateAuthenticated {
		m.logger.Info("Waiting for login from the admin chat", "state", state)
	}

	select {
	case <-m.machine.Ready():
	case <-ctx.Done():
		return nil
	}

	if err := m.client.Subscribe(ctx); err != nil {
		return err
	}

	m.pipeline.SetSelfID(m.client.SelfID())
	if botID, err := m.dispatcher.BotID(ctx); err != nil {
		m.logger.Warn("Could not identify the bot, its own messages will not be skipped", "error", err)
	} else {
		m.pipeline.SetBotID(botID)
	}

	m.logger.Info("Monitoring started",
		"self_id", m.client.SelfID(),
		"chats", len(m.cfg.MonitorChatIDs),
		"keywords", len(m.cfg.MonitorKeywords),
		"workers", m.cfg.PipelineWorkers,
	)

	m.serve(ctx, m.client.Events())
	return nil
}

// serve runs the timers and the pipeline until ctx is done or events
// closes. The timers are stopped before it returns, so no reaper batch or
// heartbeat is still using the connection once watch hands it back.
func (m *monitor) serve(ctx context.Context, events <-chan filterDomain.Event) {
	m.cache.Start(ctx)
	m.heartbeat.Start(ctx, false)
	if m.cfg.Retention() > 0 {
		m.reaper.Start(ctx)
	}
	defer m.stopTimers()

	m.pipeline.Run(ctx, events, m.cfg.PipelineWorkers)
}

func (m *monitor) stopTimers() {
	m.reaper.Stop()
	m.heartbeat.Stop()
	m.cache.Stop()
}
