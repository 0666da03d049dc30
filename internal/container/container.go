// Package container is the composition root: it owns process startup,
// wiring every internal/persistence store, the task queue, the auth
// service and the cron scheduler against the concrete Postgres/Redis/
// filesystem backends. internal/pipeline and internal/auth never import
// this package — wiring only flows one way, the same separation the
// teacher's internal/infrastructure/container keeps between its flat
// Container struct and the domain/application layers it assembles.
package container

import (
	"context"
	"fmt"

	"github.com/turahe/mediacore/config"
	"github.com/turahe/mediacore/internal/auth"
	"github.com/turahe/mediacore/internal/db/migrations"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/db/redisdb"
	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/internal/locks"
	"github.com/turahe/mediacore/internal/persistence"
	"github.com/turahe/mediacore/internal/pipeline"
	"github.com/turahe/mediacore/internal/queue"
	"github.com/turahe/mediacore/internal/storage"
)

// Container holds every wired collaborator cmd/server needs to run the
// process: the task queue (with every pipeline handler registered), the
// auth service, the cron scheduler, and the store types a future API
// surface would read from directly (catalogs, users) without going
// through the task queue.
type Container struct {
	Queue *queue.Queue
	Cron  CronScheduler
	Auth  auth.Service
	Locks *locks.Locks

	Catalogs      persistence.CatalogStore
	Users         persistence.UserStore
	MediaItems    persistence.MediaItemStore
	SavedSearches persistence.SavedSearchStore
}

// CronScheduler is the subset of gocron.Scheduler cmd/server needs to
// shut the scheduler down cleanly; kept narrow so this package doesn't
// have to re-export the gocron type name everywhere it's threaded
// through.
type CronScheduler interface {
	Shutdown() error
}

// New opens the Postgres pool, runs pending migrations, optionally
// connects Redis, and wires every pipeline handler and the auth service
// against the real internal/persistence stores. The caller is
// responsible for eventually calling Close.
func New(ctx context.Context) (*Container, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("container: config not loaded, call config.SetConfig first")
	}

	pool, err := pgxdb.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("container: open postgres: %w", err)
	}

	if err := migrations.Up(ctx, pool); err != nil {
		return nil, fmt.Errorf("container: run migrations: %w", err)
	}

	if cfg.Redis.Enabled() {
		if err := redisdb.Connect(cfg.Redis); err != nil {
			return nil, fmt.Errorf("container: connect redis: %w", err)
		}
	}

	if err := persistence.RefreshViews(ctx); err != nil {
		return nil, fmt.Errorf("container: initial view refresh: %w", err)
	}

	catalogs := persistence.CatalogStore{}
	users := persistence.UserStore{}
	tokens := persistence.AuthTokenStore{}
	mediaItems := persistence.MediaItemStore{}
	mediaFiles := persistence.MediaFileStore{}
	alternateFiles := persistence.AlternateFileStore{}
	storages := persistence.StorageStore{}
	savedSearches := persistence.SavedSearchStore{}

	l := locks.New(int64(cfg.TaskQueue.ExpensiveWorkers))

	local := storage.NewLocal(cfg.Storage.LocalRoot, false)
	temp := storage.NewTemp(cfg.Storage.TempRoot, false)

	deps := pipeline.Deps{
		MediaItems:     mediaItems,
		MediaFiles:     mediaFiles,
		AlternateFiles: alternateFiles,
		Catalogs:       catalogs,
		SavedSearches:  savedSearches,
		Stores: pipeline.Stores{
			Storages: storages,
			Local:    local,
			Temp:     temp,
			NewRemote: func(st entities.Storage) (storage.FileStore, error) {
				return storage.NewRemote(st, false)
			},
		},
		Locks:   l,
		TempDir: cfg.Storage.TempRoot,
	}

	q := queue.New(cfg.TaskQueue)
	pipeline.Register(q, deps)

	authSvc := auth.Service{
		Users:  users,
		Tokens: tokens,
		WithTx: persistence.WithTx,
	}

	cron, err := queue.StartCron(q, cfg.Scheduler, catalogs.ListCatalogs)
	if err != nil {
		return nil, fmt.Errorf("container: start cron: %w", err)
	}

	return &Container{
		Queue:         q,
		Cron:          cron,
		Auth:          authSvc,
		Locks:         l,
		Catalogs:      catalogs,
		Users:         users,
		MediaItems:    mediaItems,
		SavedSearches: savedSearches,
	}, nil
}

// Close shuts down the cron scheduler and drains the task queue. It
// does not close the Postgres pool or Redis client: those are
// process-wide singletons cmd/server closes itself, after Close
// returns, so any task still flushing its last write finishes first.
func (c *Container) Close(ctx context.Context) error {
	if c.Cron != nil {
		if err := c.Cron.Shutdown(); err != nil {
			return fmt.Errorf("container: shutdown cron: %w", err)
		}
	}
	return c.Queue.Shutdown(ctx)
}
