// Package reaper removes idle conversation sessions on a fixed interval.
package reaper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/feedbackbot/core/logger"
	"github.com/m3rciful/feedbackbot/core/session"
)

// Reaper periodically sweeps the session store and deletes sessions that
// stayed idle past the TTL. Deletes are conditional on the activity
// timestamp observed at list time, so a session revived mid-sweep survives.
type Reaper struct {
	store    session.Store
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// New constructs a Reaper sweeping store every interval.
func New(store session.Store, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Reaper{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; the loop runs
// until Stop is called or ctx is cancelled. Start is idempotent.
func (r *Reaper) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		ctx, r.cancel = context.WithCancel(ctx)
		go r.run(ctx)
	})
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
// Stop is idempotent and safe to call before Start.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel == nil {
			close(r.done)
			return
		}
		r.cancel()
		<-r.done
	})
}

func (r *Reaper) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info(ctx, "reaper", "started",
		slog.Duration("interval", r.interval),
	)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "reaper", "stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs one pass over the store, deleting every session still idle
// since it was listed. It returns the number of sessions removed.
func (r *Reaper) Sweep(ctx context.Context) int {
	start := time.Now()
	idle, err := r.store.ListIdle()
	if err != nil {
		logger.Error(ctx, "reaper", "sweep",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0
	}
	if len(idle) == 0 {
		return 0
	}

	removed := 0
	for _, ref := range idle {
		if err := r.store.DeleteIfUnchanged(ref.UserID, ref.LastActivityAt); err != nil {
			logger.Warn(ctx, "reaper", "delete",
				slog.String("status", "fail"),
				slog.String("user_id", ref.UserID),
				slog.String("err", err.Error()),
			)
			continue
		}
		removed++
	}

	logger.Info(ctx, "reaper", "sweep",
		slog.Int("count", removed),
		slog.Duration("took", time.Since(start)),
	)
	return removed
}
