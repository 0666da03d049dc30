package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/pkg/tracing"
)

// CatalogStore implements pipeline.CatalogRepo plus the broader
// catalog-access helpers spec.md §4.2 names: stats, list_catalogs, and
// the get/list_for_user[_with_count] family that join through the
// user_catalog materialized view to enforce per-user access.
type CatalogStore struct{}

const catalogColumns = `id, name, storage_id`

const upsertCatalogSQL = `
	INSERT INTO catalog (` + catalogColumns + `)
	VALUES ($1,$2,$3)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, storage_id = EXCLUDED.storage_id`

func scanCatalog(row pgx.Row) (entities.Catalog, error) {
	var c entities.Catalog
	err := row.Scan(&c.ID, &c.Name, &c.StorageID)
	return c, err
}

func (CatalogStore) Upsert(ctx context.Context, items []entities.Catalog) error {
	if len(items) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("catalog.upsert", zap.Int("count", len(items)))
		rows := make([][]any, len(items))
		for i, c := range items {
			rows[i] = []any{c.ID, c.Name, c.StorageID}
		}
		err := conn.BatchUpsert(ctx, upsertCatalogSQL, rows)
		span.End(int64(len(items)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

// ListCatalogs returns every catalog id, the pipeline.CatalogRepo
// contract ServerStartup/VerifyStorage/PruneMediaFiles loop over.
func (CatalogStore) ListCatalogs(ctx context.Context) ([]string, error) {
	var out []string
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("catalog.list_catalogs")
		rows, err := conn.Query(ctx, `SELECT id FROM catalog ORDER BY id`)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if scanErr := rows.Scan(&id); scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, id)
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

// GetForUser returns catalog if user has any access (owner or share
// grant) to it, and coreerrors.NotFound otherwise — access denial and
// nonexistence are deliberately indistinguishable to the caller.
func (CatalogStore) GetForUser(ctx context.Context, user, catalog string) (entities.Catalog, error) {
	var out entities.Catalog
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("catalog.get_for_user", zap.String("user", user), zap.String("catalog", catalog))
		row := conn.QueryRow(ctx, `
			SELECT c.`+catalogColumns+`
			FROM catalog c
			JOIN user_catalog uc ON uc.catalog = c.id
			WHERE uc."user" = $1 AND c.id = $2`, user, catalog)
		result, err := scanCatalog(row)
		var rows int64
		if err == nil {
			out = result
			rows = 1
		} else if err == pgx.ErrNoRows {
			err = coreerrors.NotFound("catalog", catalog)
		}
		span.End(rows, err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
	return out, err
}

// ListForUser returns every catalog user can see, ordered by name.
func (CatalogStore) ListForUser(ctx context.Context, user string) ([]entities.Catalog, error) {
	var out []entities.Catalog
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("catalog.list_for_user", zap.String("user", user))
		rows, err := conn.Query(ctx, `
			SELECT c.`+catalogColumns+`
			FROM catalog c
			JOIN user_catalog uc ON uc.catalog = c.id
			WHERE uc."user" = $1
			ORDER BY c.name`, user)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()

		for rows.Next() {
			c, scanErr := scanCatalog(rows)
			if scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, c)
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

// CatalogWithCount pairs a Catalog with its live (non-deleted) item count.
type CatalogWithCount struct {
	Catalog   entities.Catalog
	ItemCount int64
}

// ListForUserWithCount is ListForUser plus each catalog's media_item count.
func (CatalogStore) ListForUserWithCount(ctx context.Context, user string) ([]CatalogWithCount, error) {
	var out []CatalogWithCount
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("catalog.list_for_user_with_count", zap.String("user", user))
		rows, err := conn.Query(ctx, `
			SELECT c.`+catalogColumns+`, count(mi.id) FILTER (WHERE NOT mi.deleted)
			FROM catalog c
			JOIN user_catalog uc ON uc.catalog = c.id
			LEFT JOIN media_item mi ON mi.catalog = c.id
			WHERE uc."user" = $1
			GROUP BY c.id
			ORDER BY c.name`, user)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()

		for rows.Next() {
			var c entities.Catalog
			var count int64
			if scanErr := rows.Scan(&c.ID, &c.Name, &c.StorageID, &count); scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, CatalogWithCount{Catalog: c, ItemCount: count})
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

// Stats is the store-wide summary spec.md's stats() DAL helper returns.
type Stats struct {
	CatalogCount   int64
	MediaItemCount int64
	MediaFileCount int64
	StorageBytes   int64
}

// Stats aggregates counts across the whole instance, used by the
// operator-facing status surface (no per-user scoping: callers that need
// a per-user view go through ListForUserWithCount instead).
func (CatalogStore) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("catalog.stats")
		row := conn.QueryRow(ctx, `
			SELECT
				(SELECT count(*) FROM catalog),
				(SELECT count(*) FROM media_item WHERE NOT deleted),
				(SELECT count(*) FROM media_file),
				(SELECT coalesce(sum(file_size), 0) FROM media_file)`)
		err := row.Scan(&out.CatalogCount, &out.MediaItemCount, &out.MediaFileCount, &out.StorageBytes)
		var rows int64
		if err == nil {
			rows = 1
		}
		span.End(rows, err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
	return out, err
}
