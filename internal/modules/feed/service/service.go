package service

import (
	"fmt"
	"html"
	"time"

	"github.com/gorilla/feeds"
	dedupDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/domain"
	"github.com/samber/lo"
)

// DefaultLimit is how many recent notifications a feed carries.
const DefaultLimit = 50

// Source lists recently notified messages, newest first.
type Source interface {
	Recent(limit int) []dedupDomain.Entry
}

// Service renders recent notifications as an RSS feed
type Service struct {
	source Source
	title  string
	limit  int
	now    func() time.Time
}

// New creates a new feed service
func New(source Source, title string) *Service {
	return &Service{
		source: source,
		title:  title,
		limit:  DefaultLimit,
		now:    time.Now,
	}
}

// GenerateFeed builds the feed of notifications still inside the dedup
// window.
func (s *Service) GenerateFeed(baseURL string) *feeds.Feed {
	entries := s.source.Recent(s.limit)

	feed := &feeds.Feed{
		Title:       s.title,
		Link:        &feeds.Link{Href: baseURL + "/feed"},
		Description: "Messages that matched the keyword monitor",
		Created:     s.now(),
	}
	if len(entries) > 0 {
		feed.Updated = entries[0].FirstSeenAt
	}

	feed.Items = lo.Map(entries, func(e dedupDomain.Entry, _ int) *feeds.Item {
		return s.entryToFeedItem(e)
	})
	return feed
}

func (s *Service) entryToFeedItem(e dedupDomain.Entry) *feeds.Item {
	title := e.ChatTitle
	if e.Sender != "" {
		title = fmt.Sprintf("%s: %s", e.ChatTitle, e.Sender)
	}

	return &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: e.Link},
		Description: truncate(e.Text, 300),
		Content:     fmt.Sprintf("<p>%s</p>", html.EscapeString(e.Text)),
		Author:      &feeds.Author{Name: e.Sender},
		Created:     e.FirstSeenAt,
		Id:          e.Key.String(),
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
