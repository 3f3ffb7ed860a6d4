// Package jobs runs scheduled background maintenance, currently the
// subscription lapse sweep.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/simterra/workspace/pkg/observability"
)

// Store is the persistence surface the sweep needs.
type Store interface {
	// DeactivateLapsedSubscriptions flips subscription_active off for every
	// organization whose window ended before now, returning how many rows
	// changed.
	DeactivateLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

// LapseSweeper periodically deactivates subscriptions whose window has
// ended. It only flips the active flag; the plan column is untouched, so
// entitlement gating is unaffected until a policy decision re-keys it.
type LapseSweeper struct {
	store   Store
	logger  *observability.Logger
	metrics *observability.Metrics // optional
	cron    *cron.Cron
	now     func() time.Time
}

// NewLapseSweeper creates a sweeper. metrics may be nil.
func NewLapseSweeper(store Store, logger *observability.Logger, metrics *observability.Metrics) *LapseSweeper {
	return &LapseSweeper{
		store:   store,
		logger:  logger,
		metrics: metrics,
		cron:    cron.New(),
		now:     time.Now,
	}
}

// Start schedules the sweep with a cron expression and starts the scheduler.
func (s *LapseSweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		defer observability.RecoverPanic(s.logger, "lapse sweep")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler, waiting for a running sweep to finish.
func (s *LapseSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce executes a single sweep. Exported so the composition root can run
// one at startup and operators can trigger one out of schedule.
func (s *LapseSweeper) RunOnce(ctx context.Context) {
	now := s.now().UTC()

	count, err := s.store.DeactivateLapsedSubscriptions(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("lapse sweep failed")
		return
	}

	if count > 0 {
		if s.metrics != nil {
			s.metrics.SubscriptionsLapsedTotal.Add(float64(count))
		}
		s.logger.WithField("count", count).Info("deactivated lapsed subscriptions")
	}
}
