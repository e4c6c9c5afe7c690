package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	dedupDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/domain"
	dedupService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/service"
	feedService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/feed/service"
	notificationService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/service"
	reaperDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/domain"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authStub authDomain.State

func (a authStub) Status() authDomain.Status { return authDomain.Status{State: authDomain.State(a)} }

type filterStub map[string]int64

func (f filterStub) Stats() map[string]int64 { return f }

type notificationStub notificationService.Stats

func (n notificationStub) Stats() notificationService.Stats { return notificationService.Stats(n) }

type reaperStub struct {
	report *reaperDomain.Report
}

func (r reaperStub) Last() (reaperDomain.Report, bool) {
	if r.report == nil {
		return reaperDomain.Report{}, false
	}
	return *r.report, true
}

func newTestServer(t *testing.T, deps Deps) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(&config.Config{HTTPPort: "0"}, deps).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Deps{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatusReportsEveryComponent(t *testing.T) {
	cache := dedupService.New(time.Minute, time.Minute)
	cache.Record(dedupDomain.NewKey("1", 1), dedupDomain.Entry{})

	srv := newTestServer(t, Deps{
		Auth:          authStub(authDomain.StateAuthenticated),
		Dedup:         cache,
		Filter:        filterStub{"notified": 2},
		Notifications: notificationStub{Delivered: 2, Failed: 1},
		Reaper:        reaperStub{report: &reaperDomain.Report{RunID: "run-1", Deleted: 4}},
	})

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Status        string                    `json:"status"`
		Auth          authDomain.Status         `json:"auth"`
		DedupEntries  int                       `json:"dedup_entries"`
		Filter        map[string]int64          `json:"filter"`
		Notifications notificationService.Stats `json:"notifications"`
		Reaper        reaperDomain.Report       `json:"reaper"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, authDomain.StateAuthenticated, body.Auth.State)
	assert.Equal(t, 1, body.DedupEntries)
	assert.Equal(t, int64(2), body.Filter["notified"])
	assert.Equal(t, int64(1), body.Notifications.Failed)
	assert.Equal(t, "run-1", body.Reaper.RunID)
	assert.Equal(t, 4, body.Reaper.Deleted)
}

func TestStatusIsDegradedBeforeLogin(t *testing.T) {
	srv := newTestServer(t, Deps{Auth: authStub(authDomain.StateCodeRequested), Reaper: reaperStub{}})

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
	assert.NotContains(t, body, "reaper")
}

func TestFeed(t *testing.T) {
	cache := dedupService.New(time.Hour, time.Minute)
	cache.Record(dedupDomain.NewKey("1234", 7), dedupDomain.Entry{ChatTitle: "Deals", Text: "free coffee", Link: "https://t.me/c/1234/7"})

	srv := newTestServer(t, Deps{Feed: feedService.New(cache, "Keyword alerts")})

	resp, err := http.Get(srv.URL + "/feed")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/rss+xml; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestFeedDisabled(t *testing.T) {
	srv := newTestServer(t, Deps{})

	resp, err := http.Get(srv.URL + "/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetScheme(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/feed", nil)
	assert.Equal(t, "http", getScheme(r))
	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https", getScheme(r))
}

func TestShutdownBeforeStartStopsServer(t *testing.T) {
	s := New(&config.Config{HTTPPort: "0"}, Deps{})
	require.NoError(t, s.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Shutdown")
	}
}
