// Package persistence implements every pipeline and auth repository
// interface against Postgres, using internal/db/pgxdb for pooled
// connections/transactions and pkg/tracing to record each statement's
// operation tag and row count the way spec.md §4.2 requires. Every
// exported type here is a stateless literal (MediaItemStore{} and so
// on): pgxdb.Pool() is the single process-wide pool, so there is
// nothing per-instance to hold.
//
// Unlike internal/pipeline, which is unit-tested against in-memory
// fakes, this package's SQL-facing methods are exercised at the
// integration level against a live Postgres instance, not mocked: the
// teacher repo takes the same stance (internal/infrastructure/persistence
// carries zero _test.go files; only pure adapter logic like bcrypt
// hashing is unit-tested) and no pgx-compatible mocking library is
// grounded anywhere in this corpus.
package persistence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/domain/overlay"
)

// withConn acquires a pooled connection for the lifetime of fn and
// releases it on return; every repository method in this package is a
// one-line wrapper around this plus its SQL.
func withConn(ctx context.Context, fn func(ctx context.Context, conn *pgxdb.DbConnection) error) error {
	conn, err := pgxdb.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(ctx, conn)
}

// WithTx acquires a connection and runs fn inside a transaction at level,
// committing on success. internal/auth uses this directly to keep
// verify_credentials/verify_token's lookup, bcrypt check, token
// issuance/extension, and last_login update inside one transaction, per
// spec.md §4.2.
func WithTx(ctx context.Context, level pgx.TxIsoLevel, fn func(ctx context.Context, tx *pgxdb.DbConnection) error) error {
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		return conn.Isolated(ctx, level, fn)
	})
}

// overlayStr/overlayInt/overlayFloat/overlayTime decode a nullable
// column into an overlay.Field: a two-state encoding (null => Undefined,
// non-null => Value). See Open Question note in DESIGN.md — overlay.Null
// is never produced by anything this core writes, since the only write
// path is sync_with_file collapsing an item's fields toward its file,
// never an explicit clear-to-empty edit.
func overlayStr(v *string) overlay.Field[string] {
	if v == nil {
		return overlay.Unset[string]()
	}
	return overlay.Of(*v)
}

func overlayInt(v *int) overlay.Field[int] {
	if v == nil {
		return overlay.Unset[int]()
	}
	return overlay.Of(*v)
}

func overlayFloat(v *float64) overlay.Field[float64] {
	if v == nil {
		return overlay.Unset[float64]()
	}
	return overlay.Of(*v)
}

func overlayTime(v *time.Time) overlay.Field[time.Time] {
	if v == nil {
		return overlay.Unset[time.Time]()
	}
	return overlay.Of(*v)
}

// overlayRawStr/Int/Float/Time encode a Field back to the nullable
// column form: Raw's second return is false for Undefined (and for the
// unused Null state, collapsed into the same NULL encoding).
func overlayRawStr(f overlay.Field[string]) *string {
	if v, ok := f.Raw(); ok {
		return &v
	}
	return nil
}

func overlayRawInt(f overlay.Field[int]) *int {
	if v, ok := f.Raw(); ok {
		return &v
	}
	return nil
}

func overlayRawFloat(f overlay.Field[float64]) *float64 {
	if v, ok := f.Raw(); ok {
		return &v
	}
	return nil
}

func overlayRawTime(f overlay.Field[time.Time]) *time.Time {
	if v, ok := f.Raw(); ok {
		return &v
	}
	return nil
}
