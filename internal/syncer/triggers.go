package syncer

import (
	"context"
	"sync"
	"time"
)

// PeriodicJob drives the orchestrator's periodic trigger on a ticker. The
// job is idle until Start is called.
type PeriodicJob struct {
	orchestrator *Orchestrator

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPeriodicJob creates a PeriodicJob bound to the given orchestrator.
func NewPeriodicJob(orchestrator *Orchestrator) *PeriodicJob {
	return &PeriodicJob{orchestrator: orchestrator}
}

// Start stops any previously running job, then launches a background
// goroutine that evaluates the periodic trigger every interval. If interval
// is zero or negative it defaults to 5 minutes. The goroutine exits when
// ctx is cancelled or Stop is called.
func (j *PeriodicJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.orchestrator.maybePeriodicSync(jobCtx)
			}
		}
	}()
}

// Stop cancels the background goroutine's context and blocks until the
// goroutine has fully exited. Safe to call when the job is not running
// (no-op in that case).
func (j *PeriodicJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
