package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/internal/domain/search"
	"github.com/turahe/mediacore/pkg/tracing"
)

// SavedSearchStore implements pipeline.SavedSearchRepo by compiling each
// catalog's saved searches (internal/domain/search) and diffing the
// result against media_search.
type SavedSearchStore struct{}

const savedSearchColumns = `id, catalog, name, shared, query`

const upsertSavedSearchSQL = `
	INSERT INTO saved_search (` + savedSearchColumns + `)
	VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, shared = EXCLUDED.shared, query = EXCLUDED.query`

func scanSavedSearch(row pgx.Row) (entities.SavedSearch, error) {
	var s entities.SavedSearch
	err := row.Scan(&s.ID, &s.Catalog, &s.Name, &s.Shared, &s.Query)
	return s, err
}

func (SavedSearchStore) Upsert(ctx context.Context, items []entities.SavedSearch) error {
	if len(items) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("saved_search.upsert", zap.Int("count", len(items)))
		rows := make([][]any, len(items))
		for i, s := range items {
			rows[i] = []any{s.ID, s.Catalog, s.Name, s.Shared, s.Query}
		}
		err := conn.BatchUpsert(ctx, upsertSavedSearchSQL, rows)
		span.End(int64(len(items)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

func (SavedSearchStore) ListForCatalog(ctx context.Context, catalog string) ([]entities.SavedSearch, error) {
	var out []entities.SavedSearch
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("saved_search.list_for_catalog", zap.String("catalog", catalog))
		rows, err := conn.Query(ctx, `SELECT `+savedSearchColumns+` FROM saved_search WHERE catalog = $1`, catalog)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()

		for rows.Next() {
			s, scanErr := scanSavedSearch(rows)
			if scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, s)
		}
		err = rows.Err()
		span.End(int64(len(out)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
	return out, err
}

// UpdateForCatalog recomputes media_search membership for every saved
// search in catalog: each search's compiled clause is matched against
// the catalog's media_item/media_file join, freshly matched ids are
// inserted (ON CONFLICT DO NOTHING), and ids no longer matching are
// deleted — all within one serializable transaction per search so a
// concurrent media edit can't be read half-applied.
func (SavedSearchStore) UpdateForCatalog(ctx context.Context, catalog string) error {
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("saved_search.update_for_catalog", zap.String("catalog", catalog))

		rows, err := conn.Query(ctx, `SELECT `+savedSearchColumns+` FROM saved_search WHERE catalog = $1`, catalog)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		var searches []entities.SavedSearch
		for rows.Next() {
			s, scanErr := scanSavedSearch(rows)
			if scanErr != nil {
				rows.Close()
				span.End(0, scanErr)
				return coreerrors.DbError(scanErr)
			}
			searches = append(searches, s)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		rows.Close()

		var total int64
		for _, s := range searches {
			n, err := updateOneSearch(ctx, conn, s)
			total += int64(n)
			if err != nil {
				span.End(total, err)
				return err
			}
		}
		span.End(total, nil)
		return nil
	})
}

func updateOneSearch(ctx context.Context, conn *pgxdb.DbConnection, s entities.SavedSearch) (int, error) {
	clause, err := search.Unmarshal(s.Query)
	if err != nil {
		return 0, err
	}

	sql, args, err := search.MatchQuery(s.Catalog, clause)
	if err != nil {
		return 0, err
	}

	var matchCount int
	err = conn.Isolated(ctx, pgxdb.Serializable, func(ctx context.Context, tx *pgxdb.DbConnection) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return coreerrors.DbError(err)
		}
		matched := []string{}
		for rows.Next() {
			var id string
			if scanErr := rows.Scan(&id); scanErr != nil {
				rows.Close()
				return coreerrors.DbError(scanErr)
			}
			matched = append(matched, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return coreerrors.DbError(err)
		}
		rows.Close()
		matchCount = len(matched)

		for _, id := range matched {
			if _, err := tx.Exec(ctx, search.UpsertMembershipSQL, id, s.ID, s.Catalog); err != nil {
				return coreerrors.DbError(err)
			}
		}

		if _, err := tx.Exec(ctx, search.DeleteStaleMembershipSQL, s.ID, s.Catalog, matched); err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
	return matchCount, err
}
