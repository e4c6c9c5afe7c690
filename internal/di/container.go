package di

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	authRepo "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/repository"
	authService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/service"
	dedupService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/service"
	feedService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/feed/service"
	filterService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/service"
	notificationService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/service"
	reaperService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/service"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/config"
	sharedErrors "github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/ids"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/periodic"
	httpServer "github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/http"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/mtproto"
	natsMirror "github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/nats"
	telegramHandler "github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// ServiceHeartbeat names the session heartbeat runner
const ServiceHeartbeat = "heartbeat"

const (
	feedTitle       = "Keyword alerts"
	callTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Setup initializes the dependency injection container. Providers are lazy:
// nothing connects until a service is invoked.
func Setup(cfg *config.Config, logger *slog.Logger) (do.Injector, error) {
	if cfg == nil {
		return nil, oops.Errorf("config is required")
	}
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	// Register Session Repository
	do.Provide(injector, func(i do.Injector) (authRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		switch cfg.SessionStore {
		case config.SessionStoreMongo:
			ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
			defer cancel()
			repo, err := authRepo.NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDB, cfg.PhoneNumber)
			if err != nil {
				return nil, oops.With("context", "failed to initialize mongo session repository").Wrap(err)
			}
			return repo, nil
		default:
			repo, err := authRepo.NewFileStorage(cfg.SessionPath())
			if err != nil {
				return nil, oops.With("session_path", cfg.SessionPath(), "context", "failed to initialize session repository").Wrap(err)
			}
			return repo, nil
		}
	})

	// Register MTProto Client
	do.Provide(injector, func(i do.Injector) (*mtproto.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)

		blob, err := storedSession(cfg, do.MustInvoke[authRepo.Repository](i))
		if err != nil {
			return nil, err
		}

		return mtproto.New(mtproto.Options{
			AppID:   cfg.AppID,
			AppHash: cfg.AppAPIHash,
			Session: blob,
			Verbose: cfg.AppEnv == config.AppEnvDevelopment || cfg.AppEnv == config.AppEnvLocal,
		}, logger)
	})

	// Register Bot. The default handler is looked up per update so the
	// command handler can depend on services that themselves need the bot.
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
				do.MustInvoke[*telegramHandler.Handler](i).HandleUpdate(ctx, b, update)
			}),
			bot.WithServerURL(cfg.TelegramAPIURL),
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}
		return b, nil
	})

	// Register Dispatcher
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Dispatcher, error) {
		return telegramHandler.NewDispatcher(do.MustInvoke[*bot.Bot](i)), nil
	})

	// Register NATS Mirror
	if cfg.NatsURL != "" {
		do.Provide(injector, func(i do.Injector) (*natsMirror.Mirror, error) {
			cfg := do.MustInvoke[*config.Config](i)
			return natsMirror.Connect(cfg.NatsURL, cfg.NatsSubject, do.MustInvoke[*slog.Logger](i))
		})
	}

	// Register Notification Service
	do.Provide(injector, func(i do.Injector) (*notificationService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)

		svc := notificationService.New(do.MustInvoke[*telegramHandler.Dispatcher](i), cfg.NotificationChatID, cfg.AdminChatID, logger)
		if cfg.NatsURL != "" {
			mirror, err := do.Invoke[*natsMirror.Mirror](i)
			if err != nil {
				// The mirror is optional; alerts still reach the chat.
				logger.Warn("NATS mirror unavailable", "error", err)
			} else {
				svc.AddMirror(mirror)
			}
		}
		return svc, nil
	})

	// Register Auth Machine
	do.Provide(injector, func(i do.Injector) (*authService.Machine, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return authService.New(
			do.MustInvoke[*mtproto.Client](i),
			do.MustInvoke[authRepo.Repository](i),
			do.MustInvoke[*notificationService.Service](i),
			authService.Options{
				Phone:       cfg.PhoneNumber,
				Code:        cfg.PhoneCode,
				Password:    cfg.TwoFactorPassword,
				CallTimeout: callTimeout,
			},
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	// Register Dedup Cache
	do.Provide(injector, func(i do.Injector) (*dedupService.Cache, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return dedupService.New(cfg.DedupWindow(), cfg.DedupSweepInterval(),
			dedupService.WithLogger(do.MustInvoke[*slog.Logger](i))), nil
	})

	// Register Filter Pipeline
	do.Provide(injector, func(i do.Injector) (*filterService.Pipeline, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return filterService.New(
			filterService.NewRules(cfg),
			do.MustInvoke[*mtproto.Client](i),
			do.MustInvoke[*dedupService.Cache](i),
			do.MustInvoke[*notificationService.Service](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	// Register Reaper
	do.Provide(injector, func(i do.Injector) (*reaperService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		machine := do.MustInvoke[*authService.Machine](i)
		ready := func() bool { return machine.State() == authDomain.StateAuthenticated }
		return reaperService.New(do.MustInvoke[*mtproto.Client](i), ReaperOptions(cfg, ready), do.MustInvoke[*slog.Logger](i)), nil
	})

	// Register Heartbeat
	do.ProvideNamed(injector, ServiceHeartbeat, func(i do.Injector) (*periodic.Runner, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)
		machine := do.MustInvoke[*authService.Machine](i)
		return periodic.New(ServiceHeartbeat, cfg.HeartbeatInterval(), func(ctx context.Context) {
			if err := machine.Heartbeat(ctx); err != nil {
				logger.Warn("Heartbeat failed", "error", err)
			}
		}, logger), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		pipeline := do.MustInvoke[*filterService.Pipeline](i)

		var sink telegramHandler.Sink
		if cfg.BotIngest {
			sink = pipeline
		}

		h := telegramHandler.New(cfg.AdminChatID, do.MustInvoke[*authService.Machine](i), sink, pipeline, do.MustInvoke[*slog.Logger](i))
		h.RegisterCommands(do.MustInvoke[*bot.Bot](i))
		return h, nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		return feedService.New(do.MustInvoke[*dedupService.Cache](i), feedTitle), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)

		deps := httpServer.Deps{
			Auth:          do.MustInvoke[*authService.Machine](i),
			Dedup:         do.MustInvoke[*dedupService.Cache](i),
			Filter:        do.MustInvoke[*filterService.Pipeline](i),
			Notifications: do.MustInvoke[*notificationService.Service](i),
			Feed:          do.MustInvoke[*feedService.Service](i),
		}
		if cfg.Retention() > 0 {
			deps.Reaper = do.MustInvoke[*reaperService.Service](i)
		}

		server := httpServer.New(cfg, deps)
		server.SetLogger(do.MustInvoke[*slog.Logger](i))
		return server, nil
	})

	return injector, nil
}

// ReaperOptions maps the configuration onto reaper settings.
func ReaperOptions(cfg *config.Config, ready func() bool) reaperService.Options {
	return reaperService.Options{
		Retention:   cfg.Retention(),
		Interval:    cfg.ReaperInterval(),
		Location:    cfg.Location(),
		Exclude:     ids.NewSet(cfg.NotMonitorChatIDs),
		CallTimeout: callTimeout,
		Pacing:      reaperService.DefaultPacing(),
		Ready:       ready,
	}
}

// storedSession prefers an explicit string session over the repository.
func storedSession(cfg *config.Config, repo authRepo.Repository) ([]byte, error) {
	if cfg.StringSession != "" {
		blob, err := base64.StdEncoding.DecodeString(cfg.StringSession)
		if err != nil {
			return nil, oops.With("context", "string_session is not valid base64").Wrap(err)
		}
		return blob, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	blob, err := repo.Load(ctx)
	if errors.Is(err, sharedErrors.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("context", "failed to load session").Wrap(err)
	}
	return blob, nil
}

// Shutdown stops the long-running services started by the run command, in
// reverse start order. Bot polling ends with the run context. Call it only
// after every service below was invoked.
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if heartbeat, err := do.InvokeNamed[*periodic.Runner](injector, ServiceHeartbeat); err == nil {
		heartbeat.Stop()
	}

	if reaper, err := do.Invoke[*reaperService.Service](injector); err == nil {
		reaper.Stop()
	}

	if cache, err := do.Invoke[*dedupService.Cache](injector); err == nil {
		cache.Stop()
	}

	if server, err := do.Invoke[*httpServer.Server](injector); err == nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, oops.With("context", "http server shutdown").Wrap(err))
		}
	}

	if mirror, err := do.Invoke[*natsMirror.Mirror](injector); err == nil {
		if err := mirror.Close(); err != nil {
			errs = append(errs, oops.With("context", "nats drain").Wrap(err))
		}
	}

	if repo, err := do.Invoke[authRepo.Repository](injector); err == nil {
		if err := repo.Close(ctx); err != nil {
			errs = append(errs, oops.With("context", "session repository close").Wrap(err))
		}
	}

	return errors.Join(errs...)
}
