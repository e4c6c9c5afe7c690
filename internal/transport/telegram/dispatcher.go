package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	notificationDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/domain"
	"github.com/samber/oops"
)

// Dispatcher sends outbound messages through the Bot API.
type Dispatcher struct {
	bot *bot.Bot
}

// NewDispatcher creates a new bot dispatcher
func NewDispatcher(b *bot.Bot) *Dispatcher {
	return &Dispatcher{bot: b}
}

// Deliver sends one message. Link previews are off so alerts stay compact.
func (d *Dispatcher) Deliver(ctx context.Context, out notificationDomain.Outbound) error {
	params := &bot.SendMessageParams{
		ChatID:             out.ChatID,
		Text:               out.Text,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	}
	if out.Markdown {
		params.ParseMode = models.ParseModeMarkdown
	}

	if _, err := d.bot.SendMessage(ctx, params); err != nil {
		return oops.In("telegram").With("chat_id", out.ChatID).Wrapf(err, "failed to send message")
	}
	return nil
}

// BotID returns the bot's own user ID.
func (d *Dispatcher) BotID(ctx context.Context) (int64, error) {
	me, err := d.bot.GetMe(ctx)
	if err != nil {
		return 0, oops.In("telegram").Wrapf(err, "failed to identify bot")
	}
	return me.ID, nil
}
