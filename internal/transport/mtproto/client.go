// Package mtproto connects the monitor to Telegram as a user account.
//
// One Client serves the login flow, the live update stream, chat metadata
// lookups and the reaper's history, search and delete calls.
package mtproto

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	filterDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/domain"
	"github.com/samber/oops"
	"go.uber.org/zap"
)

const eventBuffer = 256

// Options configures a Client.
type Options struct {
	AppID   int
	AppHash string
	// Session is a previously exported session blob, if any.
	Session []byte
	// Verbose turns on the client library's own debug logging.
	Verbose bool
}

// Client is a user-account MTProto connection.
type Client struct {
	client  *telegram.Client
	storage *session.StorageMemory
	peers   *peerCache
	events  chan filterDomain.Event
	selfID  atomic.Int64
	logger  *slog.Logger
}

// New creates a new MTProto client. Nothing connects until Run.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	storage := new(session.StorageMemory)
	if len(opts.Session) > 0 {
		if err := storage.StoreSession(context.Background(), opts.Session); err != nil {
			return nil, oops.In("mtproto").Wrapf(err, "failed to seed session")
		}
	}

	zlog := zap.NewNop()
	if opts.Verbose {
		dev, err := zap.NewDevelopment()
		if err == nil {
			zlog = dev
		}
	}

	c := &Client{
		storage: storage,
		peers:   newPeerCache(),
		events:  make(chan filterDomain.Event, eventBuffer),
		logger:  logger.With("component", "mtproto"),
	}

	dispatcher := tg.NewUpdateDispatcher()
	c.registerHandlers(dispatcher)

	c.client = telegram.NewClient(opts.AppID, opts.AppHash, telegram.Options{
		SessionStorage: storage,
		UpdateHandler:  dispatcher,
		Logger:         zlog,
	})
	return c, nil
}

// Run connects and calls fn while the connection is up. The connection is
// closed when fn returns.
func (c *Client) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.client.Run(ctx, fn)
}

// Events is the stream of inbound message updates.
func (c *Client) Events() <-chan filterDomain.Event { return c.events }

// SelfID returns the logged-in account's ID, or 0 before login.
func (c *Client) SelfID() int64 { return c.selfID.Load() }

// Subscribe asks the server to start pushing updates and preloads chat
// metadata. Call it once the session is authenticated.
func (c *Client) Subscribe(ctx context.Context) error {
	if _, err := c.api().UpdatesGetState(ctx); err != nil {
		return oops.In("mtproto").Wrapf(classify(err), "failed to subscribe to updates")
	}
	if _, err := c.Dialogs(ctx); err != nil {
		c.logger.Warn("Failed to preload chats", "error", err)
	}
	c.logger.Info("Subscribed to updates", "known_chats", c.peers.size())
	return nil
}

func (c *Client) api() *tg.Client { return c.client.API() }
