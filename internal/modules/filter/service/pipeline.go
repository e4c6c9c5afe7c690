package service

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	dedupDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/domain"
	dedupService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/service"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/domain"
	notificationDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/domain"
	notificationService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/service"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/ids"
)

const mediaPlaceholder = "[media message]"

// Resolver looks up chat metadata for a peer.
type Resolver interface {
	Resolve(ctx context.Context, peer domain.Peer) (*domain.ChatInfo, error)
}

// Notifier forwards a matched message.
type Notifier interface {
	Notify(ctx context.Context, n notificationDomain.Notification) error
}

// Pipeline decides, for every inbound message, whether the operator hears
// about it.
type Pipeline struct {
	rules    Rules
	resolver Resolver
	dedup    *dedupService.Cache
	notifier Notifier
	logger   *slog.Logger

	mu     sync.RWMutex
	selfID string
	botID  string

	statsMu sync.Mutex
	stats   map[domain.Reason]int64
}

// New creates a new filter pipeline
func New(rules Rules, resolver Resolver, dedup *dedupService.Cache, notifier Notifier, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		rules:    rules,
		resolver: resolver,
		dedup:    dedup,
		notifier: notifier,
		logger:   logger.With("component", "filter"),
		stats:    make(map[domain.Reason]int64),
	}
}

// SetSelfID installs the logged-in account's ID.
func (p *Pipeline) SetSelfID(id any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selfID = ids.Normalize(id)
}

// SetBotID installs the notification bot's ID.
func (p *Pipeline) SetBotID(id any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.botID = ids.Normalize(id)
}

// Process runs one event through the filter and notifies at most once.
func (p *Pipeline) Process(ctx context.Context, ev domain.Event) domain.Verdict {
	verdict := p.decide(ctx, ev)
	p.count(verdict.Reason)

	p.logger.Debug("Event processed",
		"kind", ev.Kind,
		"source", ev.Source,
		"chat_id", verdict.ChatID,
		"message_id", ev.MessageID,
		"action", verdict.Action,
		"reason", verdict.Reason,
	)
	return verdict
}

func (p *Pipeline) decide(ctx context.Context, ev domain.Event) domain.Verdict {
	senderID := ids.Normalize(ev.Sender.ID)

	p.mu.RLock()
	selfID, botID := p.selfID, p.botID
	p.mu.RUnlock()

	if senderID != "" && senderID == selfID {
		return domain.Drop(domain.ReasonSelfMessage, "")
	}
	if senderID != "" && senderID == botID {
		return domain.Drop(domain.ReasonBotMessage, "")
	}

	chat := p.resolve(ctx, ev)
	chatID := ids.Normalize(chat.ID)
	if chatID == "" {
		return domain.Drop(domain.ReasonUnresolvedChat, "")
	}
	legacyID := ids.Normalize(ev.Peer.LegacyID())

	if !p.rules.monitored(chatID, legacyID) {
		return domain.Drop(domain.ReasonNotMonitored, chatID)
	}
	if p.rules.excluded(chatID, legacyID) {
		return domain.Drop(domain.ReasonExcluded, chatID)
	}
	if chatID == p.rules.NotificationChat {
		return domain.Drop(domain.ReasonNotificationChat, chatID)
	}
	if p.rules.SkipPrivate && (chat.Private || ev.Peer.Private()) {
		return domain.Drop(domain.ReasonPrivateChat, chatID)
	}
	if p.rules.SkipBroadcast && chat.Broadcast {
		return domain.Drop(domain.ReasonBroadcastChannel, chatID)
	}

	display := ev.Text
	if display == "" {
		if !ev.HasMedia {
			return domain.Drop(domain.ReasonEmptyContent, chatID)
		}
		display = mediaPlaceholder
	}

	rel := p.rules.relevant(senderID, ev.Text)
	if !rel.notify {
		return domain.Suppress(domain.ReasonIrrelevant, chatID)
	}

	n := notificationDomain.Notification{
		ChatID:     chatID,
		ChatTitle:  chat.Title,
		MessageID:  ev.MessageID,
		SenderID:   senderID,
		SenderName: ev.Sender.Name,
		Text:       display,
		Keyword:    rel.keyword,
		Date:       ev.Date,
	}

	key := dedupDomain.NewKey(chatID, ev.MessageID)
	prev, duplicate := p.dedup.CheckAndRecord(key, dedupDomain.Entry{
		ChatTitle: n.ChatTitle,
		Sender:    n.SenderName,
		Text:      n.Text,
		Link:      n.Link(),
	})
	if duplicate {
		p.logger.Info("Duplicate notification suppressed",
			"key", key.String(),
			"edited", ev.Edited(),
			"elapsed_seconds", int(p.dedup.Since(prev).Seconds()),
		)
		return domain.Suppress(domain.ReasonDuplicate, chatID)
	}

	if lottery, ok := notificationService.ParseLottery(ev.Text); ok {
		n.Lottery = lottery
	}

	if err := p.notifier.Notify(ctx, n); err != nil {
		p.logger.Error("Failed to deliver notification", "key", key.String(), "error", err)
	} else {
		p.logger.Info("Notification sent", "key", key.String(), "chat", n.ChatTitle, "keyword", n.Keyword)
	}

	return domain.Verdict{Action: domain.ActionNotify, Reason: domain.ReasonNotified, ChatID: chatID, Keyword: rel.keyword}
}

// resolve prefers inline chat metadata, then the resolver, then a
// reconstruction from the raw peer.
func (p *Pipeline) resolve(ctx context.Context, ev domain.Event) domain.ChatInfo {
	if ev.Chat != nil && ev.Chat.ID != "" {
		return *ev.Chat
	}

	if p.resolver != nil {
		chat, err := p.resolver.Resolve(ctx, ev.Peer)
		if err == nil && chat != nil && chat.ID != "" {
			return *chat
		}
		p.logger.Warn("Failed to resolve chat, rebuilding ID from peer", "peer", ev.Peer.RawID(), "error", err)
	}

	return domain.ChatInfo{
		ID:      ev.Peer.RawID(),
		Title:   ev.Peer.FallbackTitle(),
		Private: ev.Peer.Private(),
	}
}

// Run consumes events until ctx is done or events is closed. Events of one
// chat are always handled by the same worker, in arrival order.
func (p *Pipeline) Run(ctx context.Context, events <-chan domain.Event, workers int) {
	if workers <= 0 {
		workers = 1
	}

	queues := make([]chan domain.Event, workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan domain.Event, 64)
		wg.Add(1)
		go func(queue <-chan domain.Event) {
			defer wg.Done()
			for ev := range queue {
				p.Process(ctx, ev)
			}
		}(queues[i])
	}

	defer func() {
		for _, queue := range queues {
			close(queue)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			select {
			case queues[partition(ev.PartitionKey(), workers)] <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stats returns verdict counts by reason.
func (p *Pipeline) Stats() map[string]int64 {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	out := make(map[string]int64, len(p.stats))
	for reason, n := range p.stats {
		out[reason.String()] = n
	}
	return out
}

func (p *Pipeline) count(reason domain.Reason) {
	p.statsMu.Lock()
	p.stats[reason]++
	p.statsMu.Unlock()
}

func partition(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
