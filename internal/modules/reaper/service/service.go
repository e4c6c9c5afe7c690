package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/domain"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/ids"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/periodic"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	RecentLimit   = 200
	RecentHorizon = 10 * time.Minute
	PageSize      = 100
	MaxPages      = 10
	BatchSize     = 100
)

// SearchQuery pages through the account's own messages in a group, newest
// first. OffsetID is the last ID of the previous page, 0 for the first.
type SearchQuery struct {
	MinDate  time.Time
	MaxDate  time.Time
	OffsetID int
	Limit    int
}

// Platform is what the reaper needs from the user account connection.
type Platform interface {
	Dialogs(ctx context.Context) ([]domain.Dialog, error)
	// History returns the latest messages of a dialog, newest first.
	History(ctx context.Context, dialog domain.Dialog, limit int) ([]domain.Message, error)
	SearchOwn(ctx context.Context, dialog domain.Dialog, q SearchQuery) ([]domain.Message, error)
	// Delete removes messages for every participant.
	Delete(ctx context.Context, dialog domain.Dialog, messageIDs []int) error
}

// Pacing spaces out platform calls.
type Pacing struct {
	Page  time.Duration
	Batch time.Duration
	Group time.Duration
}

// DefaultPacing keeps well clear of the platform's flood limits.
func DefaultPacing() Pacing {
	return Pacing{Page: 200 * time.Millisecond, Batch: 200 * time.Millisecond, Group: 300 * time.Millisecond}
}

type Options struct {
	Retention   time.Duration
	Interval    time.Duration
	Location    *time.Location
	Exclude     ids.Set
	CallTimeout time.Duration
	Pacing      Pacing
	Now         func() time.Time
	// Ready gates timer-driven runs, typically on the session being
	// authenticated.
	Ready func() bool
}

// Service deletes the account's own group messages once they are older than
// the retention period.
type Service struct {
	platform Platform
	opts     Options
	logger   *slog.Logger
	runner   *periodic.Runner

	mu   sync.RWMutex
	last *domain.Report
}

// New creates a new reaper service
func New(platform Platform, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	if opts.Interval <= 0 {
		opts.Interval = max(time.Minute, opts.Retention)
	}

	s := &Service{
		platform: platform,
		opts:     opts,
		logger:   logger.With("component", "reaper"),
	}
	s.runner = periodic.New("reaper", opts.Interval, s.tick, s.logger)
	return s
}

// Start runs the reaper on its interval until Stop.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info("Reaper scheduled", "interval", s.opts.Interval, "retention", s.opts.Retention)
	s.runner.Start(ctx, true)
}

// Stop halts the timer and waits for a run in progress.
func (s *Service) Stop() {
	s.runner.Stop()
}

// Skipped returns how many ticks overlapped a run still in progress.
func (s *Service) Skipped() int64 { return s.runner.Skipped() }

// Last returns the most recent report.
func (s *Service) Last() (domain.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return domain.Report{}, false
	}
	return *s.last, true
}

func (s *Service) tick(ctx context.Context) {
	if s.opts.Ready != nil && !s.opts.Ready() {
		s.logger.Debug("Session not ready, skipping reaper run")
		return
	}
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Reaper run failed", "error", err)
	}
}

// RunOnce scans every eligible group serially and deletes expired own
// messages. Failures of single passes or batches are logged and counted;
// only a failure to list dialogs fails the run.
func (s *Service) RunOnce(ctx context.Context) (domain.Report, error) {
	now := s.opts.Now()
	report := domain.Report{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Cutoff:    now.Add(-s.opts.Retention),
	}
	logger := s.logger.With("run_id", report.RunID)
	errorBuilder := oops.In("reaper").With("run_id", report.RunID)

	var dialogs []domain.Dialog
	err := s.call(ctx, func(ctx context.Context) (err error) {
		dialogs, err = s.platform.Dialogs(ctx)
		return err
	})
	if err != nil {
		return report, errorBuilder.Wrapf(err, "failed to list dialogs")
	}

	groups := lo.Filter(dialogs, func(d domain.Dialog, _ int) bool {
		if !d.Group() {
			return false
		}
		if s.opts.Exclude.Has(d.ID) {
			logger.Debug("Skipping excluded group", "chat_id", d.ChatID(), "title", d.Title)
			return false
		}
		return true
	})
	logger.Info("Reaper run started", "groups", len(groups), "cutoff", report.Cutoff.In(s.opts.Location).Format(time.DateTime))

	groupPace := limiter(s.opts.Pacing.Group)
	for i, group := range groups {
		if err := groupPace.Wait(ctx); err != nil {
			break
		}

		result := s.reapGroup(ctx, group, now, report.Cutoff)
		report.Groups = append(report.Groups, result)
		report.Deleted += result.Deleted
		report.Failed += result.Failed
		report.FailedBatches += result.FailedBatches

		logger.Debug("Group processed",
			"index", i+1,
			"of", len(groups),
			"title", group.Title,
			"recent", result.Recent,
			"search", result.Search,
			"deleted", result.Deleted,
		)
	}

	report.FinishedAt = s.opts.Now()
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	logger.Info("Reaper run finished",
		"deleted", report.Deleted,
		"failed", report.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	if err := ctx.Err(); err != nil {
		return report, errorBuilder.Wrapf(err, "reaper run interrupted")
	}
	return report, nil
}

func (s *Service) reapGroup(ctx context.Context, dialog domain.Dialog, now, cutoff time.Time) domain.GroupResult {
	result := domain.GroupResult{ChatID: dialog.ChatID(), Title: dialog.Title}
	logger := s.logger.With("chat_id", result.ChatID, "title", dialog.Title)

	var recent, searched []domain.Message
	var eg errgroup.Group
	eg.Go(func() error {
		recent = s.recentPass(ctx, dialog, now, cutoff, logger)
		return nil
	})
	eg.Go(func() error {
		searched = s.searchPass(ctx, dialog, now, cutoff, logger)
		return nil
	})
	_ = eg.Wait()

	expired := lo.UniqBy(append(recent, searched...), func(m domain.Message) int { return m.ID })
	result.Recent, result.Search, result.Expired = len(recent), len(searched), len(expired)
	if len(expired) == 0 {
		return result
	}

	batchPace := limiter(s.opts.Pacing.Batch)
	messageIDs := lo.Map(expired, func(m domain.Message, _ int) int { return m.ID })
	for _, batch := range lo.Chunk(messageIDs, BatchSize) {
		if err := batchPace.Wait(ctx); err != nil {
			break
		}

		// Deletion is the one call that must not be cut short by shutdown.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CallTimeout)
		err := s.platform.Delete(dctx, dialog, batch)
		cancel()

		if err != nil {
			result.Failed += len(batch)
			result.FailedBatches++
			logger.Warn("Failed to delete message batch", "size", len(batch), "error", err)
			continue
		}
		result.Deleted += len(batch)
	}

	if result.Deleted > 0 {
		logger.Info("Deleted expired messages", "deleted", result.Deleted, "failed", result.Failed)
	}
	return result
}

// recentPass looks at the newest messages only, which catches messages the
// search index has not picked up yet.
func (s *Service) recentPass(ctx context.Context, dialog domain.Dialog, now, cutoff time.Time, logger *slog.Logger) []domain.Message {
	var messages []domain.Message
	err := s.call(ctx, func(ctx context.Context) (err error) {
		messages, err = s.platform.History(ctx, dialog, RecentLimit)
		return err
	})
	if err != nil {
		logger.Warn("Recent messages pass failed", "error", err)
		return nil
	}

	horizon := now.Add(-RecentHorizon)
	var expired []domain.Message
	for _, m := range messages {
		if m.Date.Before(horizon) {
			break
		}
		if m.Outgoing && m.Deletable() && m.Date.Before(cutoff) {
			expired = append(expired, m)
		}
	}
	return expired
}

// searchPass pages through today's own messages older than the recent
// horizon.
func (s *Service) searchPass(ctx context.Context, dialog domain.Dialog, now, cutoff time.Time, logger *slog.Logger) []domain.Message {
	q := SearchQuery{
		MinDate: s.dayStart(now),
		MaxDate: now.Add(-RecentHorizon),
		Limit:   PageSize,
	}
	pace := limiter(s.opts.Pacing.Page)

	var expired []domain.Message
	for page := 0; page < MaxPages; page++ {
		if err := pace.Wait(ctx); err != nil {
			return nil
		}

		var messages []domain.Message
		err := s.call(ctx, func(ctx context.Context) (err error) {
			messages, err = s.platform.SearchOwn(ctx, dialog, q)
			return err
		})
		if err != nil {
			logger.Warn("Search pass failed", "page", page+1, "error", err)
			return nil
		}
		if len(messages) == 0 {
			break
		}

		expired = append(expired, lo.Filter(messages, func(m domain.Message, _ int) bool {
			return m.Deletable() && m.Date.Before(cutoff)
		})...)

		q.OffsetID = messages[len(messages)-1].ID
		if len(messages) < PageSize {
			break
		}
	}
	return expired
}

func (s *Service) dayStart(now time.Time) time.Time {
	y, m, d := now.In(s.opts.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.opts.Location)
}

func (s *Service) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return fn(ctx)
}

func limiter(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}
