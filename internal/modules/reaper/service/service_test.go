package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/domain"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakePlatform struct {
	mu sync.Mutex

	dialogs    []domain.Dialog
	dialogsErr error
	history    map[int64][]domain.Message
	historyErr map[int64]error
	search     map[int64][]domain.Message
	searchErr  map[int64]error
	deleteErr  func(batch []int) error

	queries []SearchQuery
	deletes map[int64][][]int
}

func newFakePlatform(dialogs ...domain.Dialog) *fakePlatform {
	return &fakePlatform{
		dialogs:    dialogs,
		history:    map[int64][]domain.Message{},
		historyErr: map[int64]error{},
		search:     map[int64][]domain.Message{},
		searchErr:  map[int64]error{},
		deletes:    map[int64][][]int{},
	}
}

func (f *fakePlatform) Dialogs(context.Context) ([]domain.Dialog, error) {
	return f.dialogs, f.dialogsErr
}

func (f *fakePlatform) History(_ context.Context, d domain.Dialog, limit int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.historyErr[d.ID]; err != nil {
		return nil, err
	}
	msgs := f.history[d.ID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// SearchOwn pages through search[d.ID] the way the server does: messages
// with an ID below OffsetID, at most Limit of them.
func (f *fakePlatform) SearchOwn(_ context.Context, d domain.Dialog, q SearchQuery) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.searchErr[d.ID]; err != nil {
		return nil, err
	}

	var page []domain.Message
	for _, m := range f.search[d.ID] {
		if q.OffsetID != 0 && m.ID >= q.OffsetID {
			continue
		}
		page = append(page, m)
		if len(page) == q.Limit {
			break
		}
	}
	return page, nil
}

func (f *fakePlatform) Delete(_ context.Context, d domain.Dialog, batch []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes[d.ID] = append(f.deletes[d.ID], append([]int(nil), batch...))
	if f.deleteErr != nil {
		return f.deleteErr(batch)
	}
	return nil
}

func newReaper(platform Platform, exclude ...string) *Service {
	return New(platform, Options{
		Retention: 5 * time.Minute,
		Location:  time.UTC,
		Exclude:   ids.NewSet(exclude),
		Now:       func() time.Time { return now },
	}, nil)
}

func own(id int, age time.Duration) domain.Message {
	return domain.Message{ID: id, Date: now.Add(-age), Outgoing: true, HasText: true}
}

// ownRange returns own text messages with IDs from hi down to lo, all older
// than the recent horizon.
func ownRange(hi, lo int) []domain.Message {
	var msgs []domain.Message
	for id := hi; id >= lo; id-- {
		msgs = append(msgs, own(id, time.Hour))
	}
	return msgs
}

var group = domain.Dialog{Kind: domain.DialogKindSupergroup, ID: 100, Title: "Deals"}

func TestDialogHelpers(t *testing.T) {
	assert.Equal(t, "-100100", group.ChatID())
	assert.Equal(t, "-42", domain.Dialog{Kind: domain.DialogKindBasic, ID: 42}.ChatID())
	assert.True(t, group.Group())
	assert.False(t, domain.Dialog{Kind: domain.DialogKindBroadcast}.Group())
	assert.False(t, domain.Dialog{Kind: domain.DialogKindPrivate}.Group())

	assert.True(t, domain.Message{HasMedia: true}.Deletable())
	assert.False(t, domain.Message{Service: true, HasText: true}.Deletable())
	assert.False(t, domain.Message{}.Deletable())
}

func TestRecentPassKeepsOwnExpiredMessagesWithinHorizon(t *testing.T) {
	platform := newFakePlatform(group)
	platform.history[group.ID] = []domain.Message{
		own(10, time.Minute),
		{ID: 9, Date: now.Add(-6 * time.Minute), HasText: true},
		own(8, 6*time.Minute),
		{ID: 7, Date: now.Add(-7 * time.Minute), Outgoing: true, Service: true},
		own(6, 8*time.Minute),
		// Past the horizon: the walk stops here and leaves the rest to search.
		own(5, 11*time.Minute),
		own(4, 9*time.Minute),
	}

	report, err := newReaper(platform).RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, platform.deletes[group.ID], 1)
	assert.Equal(t, []int{8, 6}, platform.deletes[group.ID][0])
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, now.Add(-5*time.Minute), report.Cutoff)
	assert.NotEmpty(t, report.RunID)
}

func TestBatchesOfAtMostOneHundred(t *testing.T) {
	platform := newFakePlatform(group)
	platform.search[group.ID] = ownRange(250, 1)

	report, err := newReaper(platform).RunOnce(context.Background())
	require.NoError(t, err)

	batches := platform.deletes[group.ID]
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)
	assert.Equal(t, 250, report.Deleted)
}

func TestFailedBatchDoesNotStopTheRest(t *testing.T) {
	other := domain.Dialog{Kind: domain.DialogKindBasic, ID: 200, Title: "Friends"}
	platform := newFakePlatform(group, other)
	platform.search[group.ID] = ownRange(250, 1)
	platform.search[other.ID] = ownRange(3, 1)
	platform.deleteErr = func(batch []int) error {
		if batch[0] == 150 {
			return errors.New("MESSAGE_DELETE_FORBIDDEN")
		}
		return nil
	}

	report, err := newReaper(platform).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Len(t, platform.deletes[group.ID], 3)
	assert.Len(t, platform.deletes[other.ID], 1)
	assert.Equal(t, 153, report.Deleted)
	assert.Equal(t, 100, report.Failed)
	assert.Equal(t, 1, report.FailedBatches)
}

func TestSearchStopsAtPageCap(t *testing.T) {
	platform := newFakePlatform(group)
	platform.search[group.ID] = ownRange(1500, 1)

	report, err := newReaper(platform).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Len(t, platform.queries, MaxPages)
	assert.Equal(t, MaxPages*PageSize, report.Deleted)
	assert.Equal(t, 601, platform.queries[MaxPages-1].OffsetID)
}

func TestSearchQueryWindow(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	platform := newFakePlatform(group)
	platform.search[group.ID] = ownRange(3, 1)

	r := New(platform, Options{
		Retention: 5 * time.Minute,
		Location:  shanghai,
		Now:       func() time.Time { return now },
	}, nil)
	_, err = r.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, platform.queries, 1)
	q := platform.queries[0]
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, shanghai), q.MinDate)
	assert.Equal(t, now.Add(-RecentHorizon), q.MaxDate)
	assert.Equal(t, PageSize, q.Limit)
	assert.Zero(t, q.OffsetID)
}

func TestPassesAreMergedAndDeduplicated(t *testing.T) {
	platform := newFakePlatform(group)
	platform.history[group.ID] = []domain.Message{own(12, 7*time.Minute), own(11, 8*time.Minute)}
	platform.search[group.ID] = []domain.Message{own(11, 8*time.Minute), own(3, time.Hour)}

	report, err := newReaper(platform).RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, platform.deletes[group.ID], 1)
	assert.ElementsMatch(t, []int{12, 11, 3}, platform.deletes[group.ID][0])
	require.Len(t, report.Groups, 1)
	assert.Equal(t, 2, report.Groups[0].Recent)
	assert.Equal(t, 2, report.Groups[0].Search)
	assert.Equal(t, 3, report.Groups[0].Expired)
}

func TestFailingPassYieldsNothingForThatPass(t *testing.T) {
	platform := newFakePlatform(group)
	platform.history[group.ID] = []domain.Message{own(12, 7*time.Minute)}
	platform.search[group.ID] = ownRange(3, 1)
	platform.searchErr[group.ID] = errors.New("FLOOD_WAIT_5")

	report, err := newReaper(platform).RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, platform.deletes[group.ID], 1)
	assert.Equal(t, []int{12}, platform.deletes[group.ID][0])
	assert.Equal(t, 1, report.Deleted)
}

func TestOnlyNonExcludedGroupsAreVisited(t *testing.T) {
	excluded := domain.Dialog{Kind: domain.DialogKindSupergroup, ID: 300, Title: "Work"}
	channel := domain.Dialog{Kind: domain.DialogKindBroadcast, ID: 400, Title: "News"}
	private := domain.Dialog{Kind: domain.DialogKindPrivate, ID: 500, Title: "Bob"}

	platform := newFakePlatform(group, excluded, channel, private)
	for _, d := range platform.dialogs {
		platform.search[d.ID] = ownRange(2, 1)
	}

	report, err := newReaper(platform, "-100300").RunOnce(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Groups, 1)
	assert.Contains(t, platform.deletes, group.ID)
	assert.NotContains(t, platform.deletes, excluded.ID)
	assert.NotContains(t, platform.deletes, channel.ID)
	assert.NotContains(t, platform.deletes, private.ID)
}

func TestDialogFailureFailsTheRun(t *testing.T) {
	platform := newFakePlatform()
	platform.dialogsErr = errors.New("connection lost")

	r := newReaper(platform)
	_, err := r.RunOnce(context.Background())
	require.Error(t, err)

	_, ok := r.Last()
	assert.False(t, ok)
}

func TestLastReportIsKept(t *testing.T) {
	platform := newFakePlatform(group)
	platform.search[group.ID] = ownRange(2, 1)

	r := newReaper(platform)
	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last.Deleted)
}

func TestTimerRunsAreGatedOnReadiness(t *testing.T) {
	platform := newFakePlatform(group)
	platform.search[group.ID] = ownRange(2, 1)

	r := New(platform, Options{
		Retention: 5 * time.Minute,
		Now:       func() time.Time { return now },
		Ready:     func() bool { return false },
	}, nil)
	r.tick(context.Background())

	assert.Empty(t, platform.deletes)
	_, ok := r.Last()
	assert.False(t, ok)
}
