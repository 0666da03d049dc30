package queue

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/config"
	"github.com/turahe/mediacore/pkg/logger"
)

// CatalogLister returns the ids of every catalog the maintenance sweeps
// below should run against.
type CatalogLister func(ctx context.Context) ([]string, error)

// sweepTimeout bounds each cron-triggered catalog listing; the sweep
// itself only enqueues tasks, so this just guards against a stuck
// repository call wedging the scheduler.
const sweepTimeout = 30 * time.Second

// StartCron wires gocron jobs that enqueue VerifyStorage and
// UpdateSearches for every catalog on the schedules named by cfg. An
// empty cron expression skips that job entirely. The caller owns the
// returned scheduler's lifetime and must Shutdown it.
func StartCron(q *Queue, cfg config.Scheduler, catalogs CatalogLister) (gocron.Scheduler, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		} else if logger.Log != nil {
			logger.Log.Warn("queue: unknown scheduler timezone, using local", zap.String("timezone", cfg.Timezone))
		}
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}

	if cfg.VerifyStorageCron != "" {
		if _, err := s.NewJob(
			gocron.CronJob(cfg.VerifyStorageCron, false),
			gocron.NewTask(func() {
				sweepCatalogs(q, catalogs, func(catalog string) Task {
					return VerifyStorage{Catalog: catalog}
				})
			}),
		); err != nil {
			return nil, err
		}
	}

	if cfg.UpdateSearchesCron != "" {
		if _, err := s.NewJob(
			gocron.CronJob(cfg.UpdateSearchesCron, false),
			gocron.NewTask(func() {
				sweepCatalogs(q, catalogs, func(catalog string) Task {
					return UpdateSearches{Catalog: catalog}
				})
			}),
		); err != nil {
			return nil, err
		}
	}

	s.Start()
	return s, nil
}

func sweepCatalogs(q *Queue, catalogs CatalogLister, build func(string) Task) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	ids, err := catalogs(ctx)
	if err != nil {
		if logger.Log != nil {
			logger.Log.Error("queue: cron catalog listing failed", zap.Error(err))
		}
		return
	}
	for _, id := range ids {
		q.Enqueue(ctx, build(id))
	}
}
