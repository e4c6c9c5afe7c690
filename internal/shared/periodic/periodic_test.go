package periodic

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerSkipsOverlappingRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var runs atomic.Int32

	r := New("test", time.Hour, func(ctx context.Context) {
		runs.Add(1)
		close(started)
		<-release
	}, nil)

	done := make(chan bool)
	go func() { done <- r.Trigger(context.Background()) }()
	<-started

	assert.True(t, r.Running())
	assert.False(t, r.Trigger(context.Background()))
	assert.EqualValues(t, 1, r.Skipped())

	close(release)
	require.True(t, <-done)
	assert.EqualValues(t, 1, runs.Load())
	assert.False(t, r.Running())
}

func TestStartRunsOnScheduleAndStopWaits(t *testing.T) {
	var runs atomic.Int32
	r := New("tick", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	}, nil)

	r.Start(context.Background(), true)
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	r.Stop()
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestStopWithoutStart(t *testing.T) {
	r := New("idle", time.Second, func(context.Context) {}, nil)
	r.Stop()
}
