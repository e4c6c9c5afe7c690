package main

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	dedupService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/service"
	filterDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/domain"
	filterService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/service"
	reaperDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/domain"
	reaperService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/service"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/config"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/periodic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowDeletes reports one expired message per run and takes a while to
// delete it.
type slowDeletes struct {
	mu       sync.Mutex
	inFlight int
	started  int
	finished int
}

func (p *slowDeletes) Dialogs(context.Context) ([]reaperDomain.Dialog, error) {
	return []reaperDomain.Dialog{{Kind: reaperDomain.DialogKindSupergroup, ID: 77, Title: "Deals"}}, nil
}

func (p *slowDeletes) History(context.Context, reaperDomain.Dialog, int) ([]reaperDomain.Message, error) {
	return nil, nil
}

func (p *slowDeletes) SearchOwn(_ context.Context, _ reaperDomain.Dialog, q reaperService.SearchQuery) ([]reaperDomain.Message, error) {
	if q.OffsetID != 0 {
		return nil, nil
	}
	return []reaperDomain.Message{{ID: 10, Date: time.Now().Add(-time.Hour), Outgoing: true, HasText: true}}, nil
}

func (p *slowDeletes) Delete(context.Context, reaperDomain.Dialog, []int) error {
	p.mu.Lock()
	p.inFlight++
	p.started++
	p.mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	p.mu.Lock()
	p.inFlight--
	p.finished++
	p.mu.Unlock()
	return nil
}

func (p *slowDeletes) snapshot() (inFlight, started, finished int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight, p.started, p.finished
}

func TestServeStopsTimersBeforeReturning(t *testing.T) {
	logger := slog.Default()
	cfg := &config.Config{AutoDeleteMinutes: 1, PipelineWorkers: 1}
	platform := &slowDeletes{}
	cache := dedupService.New(time.Minute, time.Minute)

	m := &monitor{
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		pipeline: filterService.New(filterService.NewRules(cfg), nil, cache, nil, logger),
		reaper: reaperService.New(platform, reaperService.Options{
			Retention: cfg.Retention(),
			Interval:  10 * time.Millisecond,
		}, logger),
		heartbeat: periodic.New("heartbeat", time.Hour, func(context.Context) {}, logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan filterDomain.Event)
	done := make(chan struct{})
	go func() {
		m.serve(ctx, events)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, started, _ := platform.snapshot()
		return started > 0
	}, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	inFlight, started, finished := platform.snapshot()
	assert.Zero(t, inFlight)
	assert.Equal(t, started, finished)

	time.Sleep(50 * time.Millisecond)
	_, startedLater, _ := platform.snapshot()
	assert.Equal(t, started, startedLater)
}
