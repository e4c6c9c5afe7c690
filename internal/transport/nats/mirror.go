// Package nats mirrors notifications onto a NATS subject for other
// consumers.
package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	notificationDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/domain"
	"github.com/samber/oops"
)

// conn is the part of *nats.Conn the mirror uses.
type conn interface {
	Publish(subject string, data []byte) error
}

// Message is the JSON document published for each notification.
type Message struct {
	ChatID     string                      `json:"chat_id"`
	ChatTitle  string                      `json:"chat_title"`
	MessageID  int                         `json:"message_id"`
	SenderID   string                      `json:"sender_id,omitempty"`
	SenderName string                      `json:"sender_name,omitempty"`
	Text       string                      `json:"text"`
	Keyword    string                      `json:"keyword,omitempty"`
	Link       string                      `json:"link"`
	Date       time.Time                   `json:"date"`
	Lottery    *notificationDomain.Lottery `json:"lottery,omitempty"`
}

// Mirror publishes notifications to a subject.
type Mirror struct {
	conn    conn
	nc      *nats.Conn
	subject string
}

// Connect dials url and returns a mirror publishing on subject.
func Connect(url, subject string, logger *slog.Logger) (*Mirror, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	nc, err := nats.Connect(url,
		nats.Name("telegram-keyword-monitor"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, oops.In("nats").With("url", url).Wrapf(err, "could not connect to NATS")
	}

	logger.Info("Connected to NATS", "url", url, "subject", subject)
	return &Mirror{conn: nc, nc: nc, subject: subject}, nil
}

// Publish sends n as JSON. NATS core publishing is fire and forget, so ctx
// only guards against publishing after shutdown began.
func (m *Mirror) Publish(ctx context.Context, n notificationDomain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(Message{
		ChatID:     n.ChatID,
		ChatTitle:  n.ChatTitle,
		MessageID:  n.MessageID,
		SenderID:   n.SenderID,
		SenderName: n.SenderName,
		Text:       n.Text,
		Keyword:    n.Keyword,
		Link:       n.Link(),
		Date:       n.Date,
		Lottery:    n.Lottery,
	})
	if err != nil {
		return oops.In("nats").Wrapf(err, "failed to encode notification")
	}

	if err := m.conn.Publish(m.subject, data); err != nil {
		return oops.In("nats").With("subject", m.subject).Wrapf(err, "failed to publish notification")
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (m *Mirror) Close() error {
	if m.nc == nil {
		return nil
	}
	return m.nc.Drain()
}
