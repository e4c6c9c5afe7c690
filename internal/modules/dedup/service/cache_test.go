package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newCache(window time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(window, time.Minute, WithClock(clock.Now)), clock
}

func TestCheckAndRecordWithinWindow(t *testing.T) {
	cache, clock := newCache(10 * time.Minute)
	key := domain.NewKey("1234567890", 42)

	_, dup := cache.CheckAndRecord(key, domain.Entry{Text: "first"})
	require.False(t, dup)

	clock.Advance(9 * time.Minute)
	prev, dup := cache.CheckAndRecord(key, domain.Entry{Text: "second"})
	require.True(t, dup)
	assert.Equal(t, "first", prev.Text)
	assert.Equal(t, key, prev.Key)

	entry, ok := cache.Seen(key)
	require.True(t, ok)
	assert.Equal(t, "first", entry.Text)
}

func TestEntryExpiresAfterWindow(t *testing.T) {
	cache, clock := newCache(10 * time.Minute)
	key := domain.NewKey("1234567890", 42)

	cache.Record(key, domain.Entry{})
	clock.Advance(10*time.Minute + time.Second)

	_, ok := cache.Seen(key)
	assert.False(t, ok)

	_, dup := cache.CheckAndRecord(key, domain.Entry{Text: "again"})
	assert.False(t, dup)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	cache, clock := newCache(time.Minute)

	cache.Record(domain.NewKey("1", 1), domain.Entry{})
	clock.Advance(50 * time.Second)
	cache.Record(domain.NewKey("1", 2), domain.Entry{})
	clock.Advance(20 * time.Second)

	assert.Equal(t, 1, cache.Sweep())
	assert.Equal(t, 1, cache.Len())

	_, ok := cache.Seen(domain.NewKey("1", 2))
	assert.True(t, ok)
}

func TestRecentNewestFirst(t *testing.T) {
	cache, clock := newCache(time.Hour)

	for i := 1; i <= 3; i++ {
		cache.Record(domain.NewKey("7", i), domain.Entry{Text: string(rune('a' + i - 1))})
		clock.Advance(time.Second)
	}

	recent := cache.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Text)
	assert.Equal(t, "b", recent[1].Text)
}

func TestCheckAndRecordIsAtomic(t *testing.T) {
	cache, _ := newCache(time.Hour)
	key := domain.NewKey("99", 1)

	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, dup := cache.CheckAndRecord(key, domain.Entry{}); !dup {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, fresh.Load())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "1234:56", domain.NewKey("1234", 56).String())
}
