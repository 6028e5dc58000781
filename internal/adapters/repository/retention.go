package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/studybuddy/pkg/logger"
	"github.com/okian/studybuddy/pkg/metrics"
)

// Retention prunes entries older than a maximum age on a cron schedule.
type Retention struct {
	store  Store
	maxAge time.Duration
	cron   *cron.Cron
	now    func() time.Time
	logger logger.Logger
}

// RetentionOption configures a Retention.
type RetentionOption func(*Retention)

// WithClock overrides the time source used to compute the cutoff.
func WithClock(now func() time.Time) RetentionOption {
	return func(r *Retention) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRetentionLogger sets the logger.
func WithRetentionLogger(l logger.Logger) RetentionOption {
	return func(r *Retention) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRetention schedules pruning of store with the cron spec (standard five
// fields or descriptors such as "@hourly").
func NewRetention(store Store, maxAge time.Duration, spec string, opts ...RetentionOption) (*Retention, error) {
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", maxAge)
	}
	r := &Retention{
		store:  store,
		maxAge: maxAge,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		now:    time.Now,
		logger: logger.Get().Named("retention"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := r.cron.AddFunc(spec, func() { _, _ = r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("add cron: %w", err)
	}
	return r, nil
}

// Start begins cron execution.
func (r *Retention) Start() {
	r.cron.Start()
}

// Stop stops the scheduler and waits for a running prune to finish.
func (r *Retention) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// RunOnce prunes now and refreshes the entry gauge.
func (r *Retention) RunOnce(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.maxAge)
	n, err := r.store.Prune(ctx, cutoff)
	if err != nil {
		metrics.RecordErrorByComponent("journal", "prune")
		r.logger.Error(ctx, "journal prune failed", logger.Error(err))
		return 0, err
	}
	metrics.RecordJournalPruned(n)
	if count, err := r.store.Count(ctx); err == nil {
		metrics.UpdateJournalEntries(count)
	}
	if n > 0 {
		r.logger.Info(ctx, "journal pruned",
			logger.Int("removed", n),
			logger.String("cutoff", cutoff.Format(time.RFC3339)),
		)
	}
	return n, nil
}
