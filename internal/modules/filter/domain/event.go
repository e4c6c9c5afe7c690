package domain

import (
	"strconv"
	"time"
)

// Peer is where a message was posted. At most one of UserID, ChatID and
// ChannelID is the "current" identity; LegacyChatID is set when a basic group
// was upgraded to the supergroup in ChannelID.
type Peer struct {
	UserID       int64 `json:"user_id,omitempty"`
	ChatID       int64 `json:"chat_id,omitempty"`
	ChannelID    int64 `json:"channel_id,omitempty"`
	LegacyChatID int64 `json:"legacy_chat_id,omitempty"`
}

// RawID rebuilds the Bot API style identifier from the peer alone. Used when
// the chat entity cannot be resolved.
func (p Peer) RawID() string {
	switch {
	case p.ChannelID != 0:
		return "-100" + strconv.FormatInt(p.ChannelID, 10)
	case p.ChatID != 0:
		return "-" + strconv.FormatInt(p.ChatID, 10)
	case p.UserID != 0:
		return strconv.FormatInt(p.UserID, 10)
	default:
		return ""
	}
}

// LegacyID is the pre-migration basic group identifier, if known.
func (p Peer) LegacyID() string {
	switch {
	case p.LegacyChatID != 0:
		return "-" + strconv.FormatInt(p.LegacyChatID, 10)
	case p.ChannelID != 0 && p.ChatID != 0:
		return "-" + strconv.FormatInt(p.ChatID, 10)
	default:
		return ""
	}
}

// Private reports whether the peer is a one-to-one conversation.
func (p Peer) Private() bool {
	return p.UserID != 0 && p.ChatID == 0 && p.ChannelID == 0
}

// FallbackTitle names a chat whose entity could not be resolved.
func (p Peer) FallbackTitle() string {
	switch {
	case p.ChannelID != 0:
		return "Channel " + strconv.FormatInt(p.ChannelID, 10)
	case p.ChatID != 0:
		return "Group " + strconv.FormatInt(p.ChatID, 10)
	default:
		return "Unknown Group"
	}
}

// Sender is the author of a message. ID is empty for anonymous channel posts.
type Sender struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	IsBot bool   `json:"is_bot,omitempty"`
}

// ChatInfo is resolved chat metadata.
type ChatInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Broadcast bool   `json:"broadcast,omitempty"`
	Private   bool   `json:"private,omitempty"`
}

// Event is one inbound message update, whichever transport produced it.
type Event struct {
	Kind      EventKind `json:"kind"`
	Source    string    `json:"source"`
	MessageID int       `json:"message_id"`
	Peer      Peer      `json:"peer"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text,omitempty"`
	HasMedia  bool      `json:"has_media,omitempty"`
	Date      time.Time `json:"date"`

	// Chat is filled by transports that deliver chat metadata inline.
	Chat *ChatInfo `json:"chat,omitempty"`
}

// Edited reports whether the event is an edit of an earlier message.
func (e Event) Edited() bool {
	return e.Kind == EventKindEditedMessage || e.Kind == EventKindEditedChannelPost
}

// PartitionKey groups events of the same chat.
func (e Event) PartitionKey() string {
	if e.Chat != nil && e.Chat.ID != "" {
		return e.Chat.ID
	}
	return e.Peer.RawID()
}

// Verdict is what the pipeline decided for an event.
type Verdict struct {
	Action  Action `json:"action"`
	Reason  Reason `json:"reason"`
	ChatID  string `json:"chat_id,omitempty"`
	Keyword string `json:"keyword,omitempty"`
}

// Drop builds a drop verdict.
func Drop(reason Reason, chatID string) Verdict {
	return Verdict{Action: ActionDrop, Reason: reason, ChatID: chatID}
}

// Suppress builds a suppress verdict.
func Suppress(reason Reason, chatID string) Verdict {
	return Verdict{Action: ActionSuppress, Reason: reason, ChatID: chatID}
}
