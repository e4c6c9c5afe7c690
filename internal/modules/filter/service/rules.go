package service

import (
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/matcher"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/config"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/ids"
)

// Rules is the normalized, read-only view of the monitor settings.
type Rules struct {
	MonitorChats     ids.Set
	ExcludeChats     ids.Set
	TargetUsers      ids.Set
	NotificationChat string
	MonitorKeywords  *matcher.Set
	UserKeywords     *matcher.Set
	SkipPrivate      bool
	SkipBroadcast    bool
}

// NewRules derives Rules from the startup config.
func NewRules(cfg *config.Config) Rules {
	return Rules{
		MonitorChats:     ids.NewSet(cfg.MonitorChatIDs),
		ExcludeChats:     ids.NewSet(cfg.NotMonitorChatIDs),
		TargetUsers:      ids.NewSet(cfg.TargetUserIDs),
		NotificationChat: ids.Normalize(cfg.NotificationChatID),
		MonitorKeywords:  matcher.New(cfg.MonitorKeywords),
		UserKeywords:     matcher.New(cfg.UserKeywords),
		SkipPrivate:      cfg.SkipPrivateChats,
		SkipBroadcast:    cfg.SkipBroadcastChannels,
	}
}

// monitored applies the allow-list. An empty list monitors everything.
// legacyID covers basic groups that were upgraded to supergroups after the
// list was written.
func (r Rules) monitored(chatID, legacyID string) bool {
	if r.MonitorChats.Empty() {
		return true
	}
	return r.MonitorChats.Has(chatID) || r.MonitorChats.Has(legacyID)
}

func (r Rules) excluded(chatID, legacyID string) bool {
	return r.ExcludeChats.Has(chatID) || r.ExcludeChats.Has(legacyID)
}

type relevance struct {
	notify  bool
	keyword string
}

func (r Rules) relevant(senderID, text string) relevance {
	monitorKw, hasMonitorKw := r.MonitorKeywords.Match(text)
	if hasMonitorKw {
		return relevance{notify: true, keyword: monitorKw}
	}

	if r.TargetUsers.Has(senderID) {
		if r.UserKeywords.Empty() {
			return relevance{notify: true}
		}
		if userKw, ok := r.UserKeywords.Match(text); ok {
			return relevance{notify: true, keyword: userKw}
		}
	}

	return relevance{notify: r.MonitorKeywords.Empty() && r.UserKeywords.Empty()}
}
