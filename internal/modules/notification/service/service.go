package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/domain"
	"github.com/samber/oops"
)

// Dispatcher delivers a rendered message to a chat.
type Dispatcher interface {
	Deliver(ctx context.Context, msg domain.Outbound) error
}

// Mirror receives a copy of every notification. Mirrors are best effort.
type Mirror interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Stats counts delivery outcomes since startup.
type Stats struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Mirrored  int64 `json:"mirrored"`
}

// Service formats notifications and sends them to the operator chat.
type Service struct {
	dispatcher  Dispatcher
	mirrors     []Mirror
	chatID      string
	adminChatID string
	timeout     time.Duration
	logger      *slog.Logger

	delivered atomic.Int64
	failed    atomic.Int64
	mirrored  atomic.Int64
}

// New creates a new notification service
func New(dispatcher Dispatcher, chatID, adminChatID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		dispatcher:  dispatcher,
		chatID:      chatID,
		adminChatID: adminChatID,
		timeout:     15 * time.Second,
		logger:      logger,
	}
}

// AddMirror registers a best-effort copy target.
func (s *Service) AddMirror(m Mirror) {
	s.mirrors = append(s.mirrors, m)
}

// Notify renders n and sends it once. Delivery errors are returned for
// logging but must not be retried by the caller.
func (s *Service) Notify(ctx context.Context, n domain.Notification) error {
	err := s.deliver(ctx, domain.Outbound{ChatID: s.chatID, Text: Format(n), Markdown: true})
	if err != nil {
		s.failed.Add(1)
		err = oops.
			With("chat_id", n.ChatID, "message_id", n.MessageID).
			Wrapf(err, "delivering notification")
	} else {
		s.delivered.Add(1)
	}

	for _, m := range s.mirrors {
		if mErr := m.Publish(ctx, n); mErr != nil {
			s.logger.Warn("Failed to mirror notification", "chat_id", n.ChatID, "message_id", n.MessageID, "error", mErr)
			continue
		}
		s.mirrored.Add(1)
	}

	return err
}

// Operator sends a plain text message to the admin chat.
func (s *Service) Operator(ctx context.Context, text string) error {
	if err := s.deliver(ctx, domain.Outbound{ChatID: s.adminChatID, Text: text}); err != nil {
		return oops.With("admin_chat_id", s.adminChatID).Wrapf(err, "messaging operator")
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (s *Service) Stats() Stats {
	return Stats{
		Delivered: s.delivered.Load(),
		Failed:    s.failed.Load(),
		Mirrored:  s.mirrored.Load(),
	}
}

func (s *Service) deliver(ctx context.Context, msg domain.Outbound) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.dispatcher.Deliver(ctx, msg)
}
