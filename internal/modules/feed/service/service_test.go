package service

import (
	"strings"
	"testing"
	"time"

	dedupDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []dedupDomain.Entry

func (s staticSource) Recent(limit int) []dedupDomain.Entry {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

func TestGenerateFeed(t *testing.T) {
	seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := New(staticSource{
		{
			Key:         dedupDomain.NewKey("1234", 7),
			FirstSeenAt: seen,
			ChatTitle:   "Deals",
			Sender:      "Alice",
			Text:        "free <coffee> & cake",
			Link:        "https://t.me/c/1234/7",
		},
		{Key: dedupDomain.NewKey("99", 1), FirstSeenAt: seen.Add(-time.Minute), ChatTitle: "News", Text: strings.Repeat("é", 400)},
	}, "Keyword alerts")

	feed := svc.GenerateFeed("http://localhost:8080")

	assert.Equal(t, "Keyword alerts", feed.Title)
	assert.Equal(t, "http://localhost:8080/feed", feed.Link.Href)
	assert.Equal(t, seen, feed.Updated)
	require.Len(t, feed.Items, 2)

	first := feed.Items[0]
	assert.Equal(t, "Deals: Alice", first.Title)
	assert.Equal(t, "1234:7", first.Id)
	assert.Equal(t, "https://t.me/c/1234/7", first.Link.Href)
	assert.Equal(t, "<p>free &lt;coffee&gt; &amp; cake</p>", first.Content)

	second := feed.Items[1]
	assert.Equal(t, "News", second.Title)
	assert.Equal(t, 303, len([]rune(second.Description)))

	rss, err := feed.ToRss()
	require.NoError(t, err)
	assert.Contains(t, rss, "<title>Keyword alerts</title>")
}

func TestEmptyFeed(t *testing.T) {
	feed := New(staticSource{}, "Keyword alerts").GenerateFeed("https://example.com")
	assert.Empty(t, feed.Items)
	assert.True(t, feed.Updated.IsZero())
}
