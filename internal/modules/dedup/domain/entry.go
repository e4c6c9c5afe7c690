package domain

import (
	"fmt"
	"time"
)

// Key identifies a message across restarts of the event stream.
type Key struct {
	ChatID    string
	MessageID int
}

// NewKey builds a Key from a canonical chat ID.
func NewKey(chatID string, messageID int) Key {
	return Key{ChatID: chatID, MessageID: messageID}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.ChatID, k.MessageID)
}

// Entry is what the cache remembers about a notified message.
type Entry struct {
	Key         Key       `json:"key"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	ChatTitle   string    `json:"chat_title"`
	Sender      string    `json:"sender"`
	Text        string    `json:"text"`
	Link        string    `json:"link"`
}
