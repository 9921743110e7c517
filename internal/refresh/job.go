// Package refresh periodically re-runs saved searches and stores new vacancies.
package refresh

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/notify"
	"github.com/vacancy-aggregator/backend/internal/search"
)

// Searcher runs one search for a session
type Searcher interface {
	Search(ctx context.Context, session string, raw domain.RawSearch, refresh bool) search.Result
}

// Store keeps the vacancies found for a user
type Store interface {
	Upsert(ctx context.Context, userID string, list []domain.Vacancy) (int64, error)
}

// Job refreshes every subscription in turn
type Job struct {
	searcher      Searcher
	store         Store
	notifier      notify.Notifier
	subscriptions []config.Subscription
	logger        *zap.Logger
	now           func() time.Time
}

// NewJob creates a refresh job
func NewJob(searcher Searcher, store Store, notifier notify.Notifier, subs []config.Subscription, logger *zap.Logger) *Job {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Job{
		searcher:      searcher,
		store:         store,
		notifier:      notifier,
		subscriptions: subs,
		logger:        logger,
		now:           time.Now,
	}
}

// RunOnce refreshes all subscriptions and notifies users that got new rows.
// Persistence errors are collected and returned together after every
// subscription was tried.
func (j *Job) RunOnce(ctx context.Context) error {
	var errs []error

	for _, sub := range j.subscriptions {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		result := j.searcher.Search(ctx, sub.UserID, sub.Search, true)

		inserted, err := j.store.Upsert(ctx, sub.UserID, result.Vacancies)
		if err != nil {
			j.logger.Error("Failed to store vacancies",
				zap.String("user_id", sub.UserID),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}

		j.logger.Info("Subscription refreshed",
			zap.String("user_id", sub.UserID),
			zap.String("search_id", result.SearchID),
			zap.Int("found", len(result.Vacancies)),
			zap.Int64("inserted", inserted),
		)

		if inserted == 0 {
			continue
		}
		event := notify.Event{
			UserID:      sub.UserID,
			Found:       len(result.Vacancies),
			Inserted:    inserted,
			RefreshedAt: j.now(),
		}
		if err := j.notifier.Notify(ctx, event); err != nil {
			j.logger.Warn("Failed to publish refresh event",
				zap.String("user_id", sub.UserID),
				zap.Error(err),
			)
		}
	}

	return errors.Join(errs...)
}

// Run refreshes immediately and then on every tick until ctx is done
func (j *Job) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error("Refresh finished with errors", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			j.logger.Info("Refresh job stopped")
			return
		case <-ticker.C:
		}
	}
}
