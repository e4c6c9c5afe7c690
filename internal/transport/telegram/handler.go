package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	filterDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/domain"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/ids"
)

const source = "bot"

var (
	codeCommand = regexp.MustCompile(`(?i)^/?code\b`)
	nonDigits   = regexp.MustCompile(`\D`)
)

// Auth is the login flow the operator drives from the admin chat.
type Auth interface {
	Authenticate(ctx context.Context) (authDomain.State, error)
	SubmitCode(ctx context.Context, code string) (authDomain.State, error)
	SubmitPassword(ctx context.Context, password string) (authDomain.State, error)
	Status() authDomain.Status
}

// Sink receives events ingested from the Bot API.
type Sink interface {
	Process(ctx context.Context, ev filterDomain.Event) filterDomain.Verdict
}

// StatsSource reports counters for /status.
type StatsSource interface {
	Stats() map[string]int64
}

// Handler handles Telegram bot interactions
type Handler struct {
	adminChatID string
	auth        Auth
	sink        Sink
	stats       StatsSource
	logger      *slog.Logger
}

// New creates a new Telegram handler. sink is nil unless Bot API ingest is
// enabled.
func New(adminChatID string, auth Auth, sink Sink, stats StatsSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		adminChatID: adminChatID,
		auth:        auth,
		sink:        sink,
		stats:       stats,
		logger:      logger.With("component", "bot"),
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/login", bot.MatchTypeExact, h.handleLogin)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/password", bot.MatchTypePrefix, h.handlePassword)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.handleStatus)
	b.RegisterHandlerRegexp(bot.HandlerTypeMessageText, codeCommand, h.handleCode)
}

// HandleUpdate processes updates no command matched. With ingest enabled,
// group and channel messages are fed to the filter pipeline.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if h.sink == nil {
		return
	}

	var (
		msg  *models.Message
		kind filterDomain.EventKind
	)
	switch {
	case update.Message != nil:
		msg, kind = update.Message, filterDomain.EventKindMessage
	case update.EditedMessage != nil:
		msg, kind = update.EditedMessage, filterDomain.EventKindEditedMessage
	case update.ChannelPost != nil:
		msg, kind = update.ChannelPost, filterDomain.EventKindChannelPost
	case update.EditedChannelPost != nil:
		msg, kind = update.EditedChannelPost, filterDomain.EventKindEditedChannelPost
	default:
		return
	}

	verdict := h.sink.Process(ctx, eventFrom(kind, msg))
	h.logger.Debug("Bot update processed", "chat_id", msg.Chat.ID, "message_id", msg.ID, "reason", verdict.Reason)
}

func (h *Handler) fromAdmin(update *models.Update) bool {
	return update.Message != nil && ids.Equal(update.Message.Chat.ID, h.adminChatID)
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.fromAdmin(update) {
		return
	}

	text := `👋 Keyword monitor

Commands:
/status - Show login and filter status
/login - Start or restart the account login
code 1 2 3 4 5 - Submit the login code (separate the digits)
/password <password> - Answer the two-factor challenge`

	h.reply(ctx, b, update, text)
}

func (h *Handler) handleLogin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.fromAdmin(update) {
		return
	}

	state, err := h.auth.Authenticate(ctx)
	h.reply(ctx, b, update, outcome(state, err))
}

func (h *Handler) handleCode(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.fromAdmin(update) {
		return
	}

	// Telegram invalidates codes that are sent verbatim through a chat, so the
	// operator spaces the digits out and we strip everything else.
	code := nonDigits.ReplaceAllString(codeCommand.ReplaceAllString(update.Message.Text, ""), "")
	if code == "" {
		h.reply(ctx, b, update, "Usage: code 1 2 3 4 5")
		return
	}

	state, err := h.auth.SubmitCode(ctx, code)
	h.reply(ctx, b, update, outcome(state, err))
}

func (h *Handler) handlePassword(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.fromAdmin(update) {
		return
	}

	password := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/password"))

	if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    update.Message.Chat.ID,
		MessageID: update.Message.ID,
	}); err != nil {
		h.logger.Warn("Failed to delete password message", "error", err)
	}

	if password == "" {
		h.reply(ctx, b, update, "Usage: /password <password>")
		return
	}

	state, err := h.auth.SubmitPassword(ctx, password)
	h.reply(ctx, b, update, outcome(state, err))
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.fromAdmin(update) {
		return
	}

	status := h.auth.Status()

	var text strings.Builder
	text.WriteString("📊 Status\n\n")
	text.WriteString(fmt.Sprintf("Login: %s\n", status.State))
	if status.Account != nil {
		text.WriteString(fmt.Sprintf("Account: %s\n", status.Account.DisplayName()))
	}
	if status.PendingFor != "" {
		text.WriteString(fmt.Sprintf("Code requested: %s ago\n", status.PendingFor))
	}
	if status.FloodUntil != nil {
		text.WriteString(fmt.Sprintf("Rate limited until: %s UTC\n", status.FloodUntil.UTC().Format("2006-01-02 15:04")))
	}

	if h.stats != nil {
		counts := h.stats.Stats()
		reasons := make([]string, 0, len(counts))
		for reason := range counts {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)

		if len(reasons) > 0 {
			text.WriteString("\nFilter decisions:\n")
		}
		for _, reason := range reasons {
			text.WriteString(fmt.Sprintf("  %s: %d\n", reason, counts[reason]))
		}
	}

	h.reply(ctx, b, update, text.String())
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	}); err != nil {
		h.logger.Error("Failed to reply", "chat_id", update.Message.Chat.ID, "error", err)
	}
}

func outcome(state authDomain.State, err error) string {
	switch {
	case err == nil && state == authDomain.StateAuthenticated:
		return "✅ Logged in."
	case err == nil && state == authDomain.StateCodeRequested:
		return "📨 Code requested. Reply with: code 1 2 3 4 5"
	case errors.Is(err, authDomain.ErrAuthInProgress):
		return "⏳ A login attempt is already running."
	case errors.Is(err, authDomain.ErrPasswordRequired):
		return "🔑 Two-factor password required. Send /password <password>."
	case err != nil:
		return fmt.Sprintf("❌ %s: %v", state, err)
	default:
		return fmt.Sprintf("ℹ️ Login state: %s", state)
	}
}

// eventFrom converts a Bot API message. Bot API chat IDs already carry the
// -100 marker, so the chat metadata is passed inline.
func eventFrom(kind filterDomain.EventKind, msg *models.Message) filterDomain.Event {
	text := msg.Text
	if text == "" && msg.Caption != "" {
		text = msg.Caption
	}

	title := msg.Chat.Title
	if title == "" {
		title = strings.TrimSpace(msg.Chat.FirstName + " " + msg.Chat.LastName)
	}

	return filterDomain.Event{
		Kind:      kind,
		Source:    source,
		MessageID: msg.ID,
		Sender:    getSender(msg),
		Text:      text,
		HasMedia:  hasMedia(msg),
		Date:      time.Unix(int64(msg.Date), 0),
		Chat: &filterDomain.ChatInfo{
			ID:        strconv.FormatInt(msg.Chat.ID, 10),
			Title:     title,
			Broadcast: msg.Chat.Type == models.ChatTypeChannel,
			Private:   msg.Chat.Type == models.ChatTypePrivate,
		},
	}
}

// Helper functions
func getSender(msg *models.Message) filterDomain.Sender {
	if msg.From != nil {
		name := msg.From.FirstName
		if msg.From.Username != "" {
			name = "@" + msg.From.Username
		}
		return filterDomain.Sender{ID: strconv.FormatInt(msg.From.ID, 10), Name: name, IsBot: msg.From.IsBot}
	}
	if msg.SenderChat != nil {
		return filterDomain.Sender{ID: strconv.FormatInt(msg.SenderChat.ID, 10), Name: msg.SenderChat.Title}
	}
	return filterDomain.Sender{}
}

func hasMedia(msg *models.Message) bool {
	return len(msg.Photo) > 0 ||
		msg.Video != nil ||
		msg.Document != nil ||
		msg.Audio != nil ||
		msg.Voice != nil ||
		msg.Animation != nil ||
		msg.Sticker != nil
}
