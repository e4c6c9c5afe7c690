package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	notificationDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return f.err
}

func TestPublishEncodesNotification(t *testing.T) {
	fc := &fakeConn{}
	m := &Mirror{conn: fc, subject: "alerts.keyword"}

	date := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := m.Publish(context.Background(), notificationDomain.Notification{
		ChatID:    "1234",
		ChatTitle: "Deals",
		MessageID: 7,
		Text:      "free coffee",
		Keyword:   "coffee",
		Date:      date,
	})
	require.NoError(t, err)
	require.Len(t, fc.msgs, 1)
	assert.Equal(t, "alerts.keyword", fc.msgs[0].subject)

	var msg Message
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &msg))
	assert.Equal(t, "Deals", msg.ChatTitle)
	assert.Equal(t, "https://t.me/c/1234/7", msg.Link)
	assert.Equal(t, "coffee", msg.Keyword)
	assert.True(t, date.Equal(msg.Date))
	assert.Nil(t, msg.Lottery)
}

func TestPublishErrors(t *testing.T) {
	fc := &fakeConn{err: errors.New("nats: connection closed")}
	m := &Mirror{conn: fc, subject: "alerts"}

	assert.Error(t, m.Publish(context.Background(), notificationDomain.Notification{ChatID: "1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Publish(ctx, notificationDomain.Notification{ChatID: "1"}), context.Canceled)
	assert.Len(t, fc.msgs, 1)
}

func TestCloseWithoutConnection(t *testing.T) {
	assert.NoError(t, (&Mirror{conn: &fakeConn{}}).Close())
}
