package mtproto

import (
	"context"
	"time"

	"github.com/gotd/td/tg"
	reaperDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/domain"
	reaperService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/service"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Dialogs lists the groups and channels the account belongs to. Basic groups
// that were upgraded or left are skipped.
func (c *Client) Dialogs(ctx context.Context) ([]reaperDomain.Dialog, error) {
	res, err := c.api().MessagesGetAllChats(ctx, nil)
	if err != nil {
		return nil, oops.In("mtproto").Wrapf(classify(err), "failed to list chats")
	}

	chats := chatsOf(res)
	c.peers.rememberChats(chats)

	return lo.FilterMap(chats, func(chat tg.ChatClass, _ int) (reaperDomain.Dialog, bool) {
		switch v := chat.(type) {
		case *tg.Chat:
			if v.Deactivated || v.Left {
				return reaperDomain.Dialog{}, false
			}
			return reaperDomain.Dialog{Kind: reaperDomain.DialogKindBasic, ID: v.ID, Title: v.Title}, true
		case *tg.Channel:
			if v.Left {
				return reaperDomain.Dialog{}, false
			}
			kind := reaperDomain.DialogKindSupergroup
			if v.Broadcast {
				kind = reaperDomain.DialogKindBroadcast
			}
			return reaperDomain.Dialog{Kind: kind, ID: v.ID, AccessHash: v.AccessHash, Title: v.Title}, true
		default:
			return reaperDomain.Dialog{}, false
		}
	}), nil
}

// History returns the newest messages of a dialog.
func (c *Client) History(ctx context.Context, dialog reaperDomain.Dialog, limit int) ([]reaperDomain.Message, error) {
	res, err := c.api().MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  inputPeer(dialog),
		Limit: limit,
	})
	if err != nil {
		return nil, oops.In("mtproto").With("chat_id", dialog.ChatID()).Wrapf(classify(err), "failed to read history")
	}
	return reaperMessages(res), nil
}

// SearchOwn runs a server-side search restricted to the account's own
// messages.
func (c *Client) SearchOwn(ctx context.Context, dialog reaperDomain.Dialog, q reaperService.SearchQuery) ([]reaperDomain.Message, error) {
	res, err := c.api().MessagesSearch(ctx, &tg.MessagesSearchRequest{
		Peer:     inputPeer(dialog),
		FromID:   &tg.InputPeerSelf{},
		Filter:   &tg.InputMessagesFilterEmpty{},
		MinDate:  int(q.MinDate.Unix()),
		MaxDate:  int(q.MaxDate.Unix()),
		OffsetID: q.OffsetID,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, oops.In("mtproto").With("chat_id", dialog.ChatID()).Wrapf(classify(err), "failed to search messages")
	}
	return reaperMessages(res), nil
}

// Delete revokes messages for everyone in the dialog.
func (c *Client) Delete(ctx context.Context, dialog reaperDomain.Dialog, messageIDs []int) error {
	var err error
	if dialog.Kind == reaperDomain.DialogKindBasic {
		_, err = c.api().MessagesDeleteMessages(ctx, &tg.MessagesDeleteMessagesRequest{
			Revoke: true,
			ID:     messageIDs,
		})
	} else {
		_, err = c.api().ChannelsDeleteMessages(ctx, &tg.ChannelsDeleteMessagesRequest{
			Channel: &tg.InputChannel{ChannelID: dialog.ID, AccessHash: dialog.AccessHash},
			ID:      messageIDs,
		})
	}
	if err != nil {
		return oops.In("mtproto").With("chat_id", dialog.ChatID(), "count", len(messageIDs)).Wrapf(classify(err), "failed to delete messages")
	}
	return nil
}

func inputPeer(dialog reaperDomain.Dialog) tg.InputPeerClass {
	if dialog.Kind == reaperDomain.DialogKindBasic {
		return &tg.InputPeerChat{ChatID: dialog.ID}
	}
	return &tg.InputPeerChannel{ChannelID: dialog.ID, AccessHash: dialog.AccessHash}
}

func reaperMessages(res tg.MessagesMessagesClass) []reaperDomain.Message {
	var raw []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesMessages:
		raw = r.Messages
	case *tg.MessagesMessagesSlice:
		raw = r.Messages
	case *tg.MessagesChannelMessages:
		raw = r.Messages
	}

	return lo.FilterMap(raw, func(msg tg.MessageClass, _ int) (reaperDomain.Message, bool) {
		switch m := msg.(type) {
		case *tg.Message:
			return reaperDomain.Message{
				ID:       m.ID,
				Date:     time.Unix(int64(m.Date), 0),
				Outgoing: m.Out,
				HasText:  m.Message != "",
				HasMedia: m.Media != nil,
			}, true
		case *tg.MessageService:
			return reaperDomain.Message{
				ID:       m.ID,
				Date:     time.Unix(int64(m.Date), 0),
				Outgoing: m.Out,
				Service:  true,
			}, true
		default:
			return reaperDomain.Message{}, false
		}
	})
}
