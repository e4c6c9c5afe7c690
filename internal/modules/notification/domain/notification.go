package domain

import (
	"fmt"
	"time"
)

// Notification is a message that passed the filter and is about to be
// forwarded to the operator.
type Notification struct {
	ChatID     string    `json:"chat_id"`
	ChatTitle  string    `json:"chat_title"`
	MessageID  int       `json:"message_id"`
	SenderID   string    `json:"sender_id,omitempty"`
	SenderName string    `json:"sender_name,omitempty"`
	Text       string    `json:"text"`
	Keyword    string    `json:"keyword,omitempty"`
	Date       time.Time `json:"date"`
	Lottery    *Lottery  `json:"lottery,omitempty"`
}

// Link points at the original message. Only meaningful for supergroups and
// channels; the platform has no public link form for basic groups.
func (n Notification) Link() string {
	return fmt.Sprintf("https://t.me/c/%s/%d", n.ChatID, n.MessageID)
}

// Prize is one line of a lottery prize list.
type Prize struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Lottery holds the fields extracted from a giveaway or red packet
// announcement. Empty strings and zero counts mean "not present".
type Lottery struct {
	CreatedAt     string  `json:"created_at,omitempty"`
	Creator       string  `json:"creator,omitempty"`
	AutoOpenCount int     `json:"auto_open_count,omitempty"`
	Keyword       string  `json:"keyword,omitempty"`
	Prizes        []Prize `json:"prizes,omitempty"`
	RedPacket     bool    `json:"red_packet,omitempty"`
}

// Outbound is a rendered message for a chat.
type Outbound struct {
	ChatID   string
	Text     string
	Markdown bool
}
