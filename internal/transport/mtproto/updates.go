package mtproto

import (
	"context"
	"strconv"
	"time"

	"github.com/gotd/td/tg"
	filterDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/domain"
)

const source = "mtproto"

func (c *Client) registerHandlers(d tg.UpdateDispatcher) {
	d.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		return c.emit(ctx, e, u.Message, false)
	})
	d.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		return c.emit(ctx, e, u.Message, false)
	})
	d.OnEditMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateEditMessage) error {
		return c.emit(ctx, e, u.Message, true)
	})
	d.OnEditChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateEditChannelMessage) error {
		return c.emit(ctx, e, u.Message, true)
	})
}

func (c *Client) emit(ctx context.Context, e tg.Entities, msg tg.MessageClass, edited bool) error {
	c.peers.rememberEntities(e)

	ev, ok := c.convert(msg, edited)
	if !ok {
		return nil
	}

	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
	return nil
}

// convert turns a raw message into an Event. Service messages are consumed
// for the group migrations they announce and produce no event.
func (c *Client) convert(msg tg.MessageClass, edited bool) (filterDomain.Event, bool) {
	var m *tg.Message
	switch v := msg.(type) {
	case *tg.Message:
		m = v
	case *tg.MessageService:
		c.noteMigration(v)
		return filterDomain.Event{}, false
	default:
		return filterDomain.Event{}, false
	}

	peer := peerOf(m.PeerID)
	if peer.ChannelID != 0 {
		peer.LegacyChatID = c.peers.legacyOf(peer.ChannelID)
	}

	ev := filterDomain.Event{
		Kind:      eventKind(m.Post, edited),
		Source:    source,
		MessageID: m.ID,
		Peer:      peer,
		Sender:    c.sender(m, peer),
		Text:      m.Message,
		HasMedia:  m.Media != nil,
		Date:      time.Unix(int64(m.Date), 0),
	}
	if info, ok := c.peers.lookup(peer); ok {
		ev.Chat = &info
	}
	return ev, true
}

func (c *Client) sender(m *tg.Message, peer filterDomain.Peer) filterDomain.Sender {
	if m.Out {
		if self := c.selfID.Load(); self != 0 {
			return filterDomain.Sender{ID: strconv.FormatInt(self, 10)}
		}
	}

	from := m.FromID
	if from == nil {
		if !peer.Private() {
			return filterDomain.Sender{}
		}
		from = m.PeerID
	}

	switch f := from.(type) {
	case *tg.PeerUser:
		s := filterDomain.Sender{ID: strconv.FormatInt(f.UserID, 10)}
		if u, ok := c.peers.user(f.UserID); ok {
			s.Name, s.IsBot = u.name, u.bot
		}
		return s
	case *tg.PeerChannel:
		s := filterDomain.Sender{ID: strconv.FormatInt(f.ChannelID, 10)}
		if ch, ok := c.peers.channel(f.ChannelID); ok {
			s.Name = ch.title
		}
		return s
	default:
		return filterDomain.Sender{}
	}
}

func (c *Client) noteMigration(m *tg.MessageService) {
	action, ok := m.Action.(*tg.MessageActionChannelMigrateFrom)
	if !ok {
		return
	}
	if channel, ok := m.PeerID.(*tg.PeerChannel); ok {
		c.peers.rememberMigration(channel.ChannelID, action.ChatID)
		c.logger.Info("Group was upgraded to a supergroup", "channel_id", channel.ChannelID, "legacy_chat_id", action.ChatID)
	}
}

func eventKind(post, edited bool) filterDomain.EventKind {
	switch {
	case post && edited:
		return filterDomain.EventKindEditedChannelPost
	case post:
		return filterDomain.EventKindChannelPost
	case edited:
		return filterDomain.EventKindEditedMessage
	default:
		return filterDomain.EventKindMessage
	}
}
