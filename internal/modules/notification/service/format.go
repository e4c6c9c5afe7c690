package service

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/domain"
)

// Telegram counts the 4096 message limit in UTF-16 code units after entity
// parsing; leave room for the header.
const maxBodyUnits = 3500

// Format renders n as MarkdownV2.
func Format(n domain.Notification) string {
	if n.Lottery != nil {
		return formatLottery(n)
	}
	return formatAlert(n)
}

func formatAlert(n domain.Notification) string {
	var b strings.Builder

	b.WriteString("🔔 *Keyword alert*\n\n")
	fmt.Fprintf(&b, "🚩 *Chat:* %s \\(ID: %s\\)\n", bot.EscapeMarkdown(n.ChatTitle), bot.EscapeMarkdown(n.ChatID))
	if n.SenderName != "" {
		fmt.Fprintf(&b, "👤 *From:* %s\n", bot.EscapeMarkdown(n.SenderName))
	}
	if n.Keyword != "" {
		fmt.Fprintf(&b, "🔑 *Keyword:* %s\n", bot.EscapeMarkdown(n.Keyword))
	}
	fmt.Fprintf(&b, "📝 *Link:* %s\n", bot.EscapeMarkdown(n.Link()))
	fmt.Fprintf(&b, "\n*Message:*\n%s", escapeTruncated(n.Text, maxBodyUnits))

	return b.String()
}

func formatLottery(n domain.Notification) string {
	l := n.Lottery
	var b strings.Builder

	if l.RedPacket {
		b.WriteString("🧧 *Red packet alert*\n\n")
	} else {
		b.WriteString("🎉 *Giveaway alert*\n\n")
	}
	fmt.Fprintf(&b, "🚩 *Chat:* %s \\(ID: %s\\)\n", bot.EscapeMarkdown(n.ChatTitle), bot.EscapeMarkdown(n.ChatID))
	if l.Creator != "" {
		fmt.Fprintf(&b, "👑 *Creator:* %s\n", bot.EscapeMarkdown(l.Creator))
	}
	if l.CreatedAt != "" {
		fmt.Fprintf(&b, "🕖 *Created:* %s\n", bot.EscapeMarkdown(l.CreatedAt))
	}
	if l.AutoOpenCount > 0 {
		fmt.Fprintf(&b, "👥 *Draws at:* %d participants\n", l.AutoOpenCount)
	}
	if l.Keyword != "" {
		fmt.Fprintf(&b, "©️ *Keyword:* `%s` \\(tap to copy\\)\n", escapeCode(l.Keyword))
	}
	if len(l.Prizes) > 0 {
		b.WriteString("🎁 *Prizes:*\n")
		for _, prize := range l.Prizes {
			fmt.Fprintf(&b, "    %s × %d\n", bot.EscapeMarkdown(prize.Name), prize.Count)
		}
	}
	fmt.Fprintf(&b, "📝 *Link:* %s", bot.EscapeMarkdown(n.Link()))

	return b.String()
}

// Inside a code span only the backtick and backslash are special.
func escapeCode(s string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(s)
}

// escapeTruncated escapes s for MarkdownV2 and cuts it at a rune boundary
// so the escaped body stays within limit UTF-16 code units.
func escapeTruncated(s string, limit int) string {
	var b strings.Builder
	units := 0
	for _, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		escaped := bot.EscapeMarkdown(string(r))
		if escaped != string(r) {
			n++
		}
		if units+n > limit {
			b.WriteString("…")
			return b.String()
		}
		units += n
		b.WriteString(escaped)
	}
	return b.String()
}
