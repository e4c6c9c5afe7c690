// Package periodic runs a job on a fixed interval without ever overlapping
// two runs of the same job.
package periodic

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Job is one unit of periodic work.
type Job func(ctx context.Context)

// Runner schedules a Job. A tick that fires while the previous run is still
// going is skipped, not queued.
type Runner struct {
	name     string
	interval time.Duration
	job      Job
	logger   *slog.Logger

	running atomic.Bool
	skipped atomic.Int64
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// New creates a new Runner
func New(name string, interval time.Duration, job Job, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger.With("job", name),
	}
}

// Start launches the schedule. When immediate is set the job also runs once
// right away.
func (r *Runner) Start(ctx context.Context, immediate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.loop(ctx, immediate)
}

// Stop cancels the schedule and waits for an in-flight run to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
}

// Trigger runs the job now unless a run is already in progress. It reports
// whether the job ran.
func (r *Runner) Trigger(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.skipped.Add(1)
		r.logger.Warn("Previous run still in progress, skipping tick")
		return false
	}
	defer r.running.Store(false)

	r.job(ctx)
	return true
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool { return r.running.Load() }

// Skipped returns how many ticks were dropped because of overlap.
func (r *Runner) Skipped() int64 { return r.skipped.Load() }

func (r *Runner) loop(ctx context.Context, immediate bool) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if immediate {
		r.spawn(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.spawn(ctx)
		}
	}
}

// spawn runs the job off the ticker goroutine so a stuck run never delays
// the next tick.
func (r *Runner) spawn(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Trigger(ctx)
	}()
}
