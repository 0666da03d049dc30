// Package migrations owns the schema this module persists to: numbered
// goose-format SQL files, each creating one table or a group of related
// tables or views, embedded into the binary so
// a deploy is a single executable with no separate migration step to
// ship. The runner pattern (embed.FS + goose.SetBaseFS + goose.Up) is
// the teacher corpus's own, adapted from the media database in
// ZaparooProject's database package.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/pkg/logger"
)

//go:embed *.sql
var files embed.FS

var mu sync.Mutex

// gooseZapLogger redirects goose's own progress output through the
// process logger instead of stdout.
type gooseZapLogger struct{}

func (gooseZapLogger) Printf(format string, v ...any) {
	if logger.Log != nil {
		logger.Log.Sugar().Infof(format, v...)
	}
}

func (gooseZapLogger) Fatalf(format string, v ...any) {
	if logger.Log != nil {
		logger.Log.Sugar().Fatalf(format, v...)
	}
}

// Views lists every materialized view created by 00008_create_materialized_views.sql,
// in dependency order (descendent views before the relation views that
// could in principle be built to use them, and independent of one
// another otherwise). internal/persistence's RefreshViews iterates this
// slice rather than hard-coding the list a second time.
var Views = []string{
	"user_catalog",
	"album_descendent",
	"tag_descendent",
	"album_relation",
	"tag_relation",
	"person_relation",
	"search_relation",
	"media_file_alternates",
}

// Up applies every pending migration against pool. pgx's pool is bridged
// to a database/sql.DB via stdlib since goose drives migrations through
// the standard library interface; this is the only place in the module
// that opens a database/sql connection rather than going through pgx
// directly.
func Up(ctx context.Context, pool *pgxpool.Pool) error {
	mu.Lock()
	defer mu.Unlock()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return upWith(db)
}

// UpDSN is the same as Up but opens its own *sql.DB from a DSN, for
// callers (migration CLIs, tests against a throwaway database) that
// don't already hold a pgxpool.Pool.
func UpDSN(dsn string) error {
	mu.Lock()
	defer mu.Unlock()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("migrations: open: %w", err)
	}
	defer db.Close()

	return upWith(db)
}

func upWith(db *sql.DB) error {
	goose.SetLogger(gooseZapLogger{})
	goose.SetBaseFS(files)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	if logger.Log != nil {
		logger.Log.Info("schema migrations applied", zap.Int("view_count", len(Views)))
	}
	return nil
}
