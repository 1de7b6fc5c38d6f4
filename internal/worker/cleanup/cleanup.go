// Package cleanup runs the periodic sweep of expired sessions and tokens.
// The sweep only reclaims space; expiry is already enforced on every read.
package cleanup

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/models"
)

const DefaultInterval = 10 * time.Minute

type Cleaner interface {
	Cleanup(ctx context.Context) (models.CleanupStats, error)
}

type Observer interface {
	ObserveCleanup(sessions, tokens int64)
}

type Job struct {
	cleaner  Cleaner
	logger   logging.Logger
	observer Observer
	Interval time.Duration
}

func NewJob(cleaner Cleaner, logger logging.Logger, observer Observer) *Job {
	return &Job{
		cleaner:  cleaner,
		logger:   logger.With("module", "cleanup"),
		observer: observer,
		Interval: DefaultInterval,
	}
}

// Run performs one sweep. Running it when nothing has expired is a no-op.
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	stats, err := j.cleaner.Cleanup(ctx)
	if err != nil {
		j.logger.Error(ctx, "cleanup failed", "error", err)
		return err
	}

	if j.observer != nil {
		j.observer.ObserveCleanup(stats.Sessions, stats.Tokens)
	}
	j.logger.Debug(ctx, "cleanup done",
		"sessions", stats.Sessions,
		"tokens", stats.Tokens,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Loop runs a sweep every Interval until ctx is done. Failed sweeps are
// logged and retried on the next tick.
func (j *Job) Loop(ctx context.Context) {
	interval := j.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = j.Run(ctx)
		}
	}
}
