package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/db/migrations"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/pkg/tracing"
)

// RefreshViews reissues REFRESH MATERIALIZED VIEW against every view
// migrations.Views names. §3/§6 describe these views as derived state
// that must be kept current as their underlying tables change; unlike
// the link tables' row-level triggers a full refresh would be, a plain
// (non-CONCURRENT) refresh briefly locks readers out, which is
// acceptable here since every view is read through caches
// (internal/db/redisdb) rather than hit per-request. Called once at
// startup by internal/container.
func RefreshViews(ctx context.Context) error {
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		for _, view := range migrations.Views {
			span := tracing.Start("views.refresh", zap.String("view", view))
			_, err := conn.Exec(ctx, `REFRESH MATERIALIZED VIEW `+quoteView(view))
			span.End(0, err)
			if err != nil {
				return coreerrors.DbError(err)
			}
		}
		return nil
	})
}

// RefreshView refreshes a single named view, used after a targeted
// mutation (e.g. catalog_share changes only need user_catalog current).
func RefreshView(ctx context.Context, view string) error {
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("views.refresh_one", zap.String("view", view))
		_, err := conn.Exec(ctx, `REFRESH MATERIALIZED VIEW `+quoteView(view))
		span.End(0, err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

// quoteView double-quotes view since it is never user input (it only
// ever comes from migrations.Views), guarding only against a future
// addition of a view name that happens to be a reserved word.
func quoteView(view string) string {
	return `"` + view + `"`
}
