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

// StorageStore implements pipeline.StorageRepo.LockForCatalog: a
// SELECT ... FOR UPDATE against a catalog's storage row. The row lock
// ends when that statement returns (see LockForCatalog); it is not held
// across a VerifyStorage/PruneMediaFiles reconciliation pass.
type StorageStore struct{}

const storageColumns = `id, owner_id, bucket, region, key_id, secret, path_prefix, endpoint_url, public_url`

const upsertStorageSQL = `
	INSERT INTO storage (` + storageColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (id) DO UPDATE SET
		owner_id = EXCLUDED.owner_id, bucket = EXCLUDED.bucket, region = EXCLUDED.region,
		key_id = EXCLUDED.key_id, secret = EXCLUDED.secret, path_prefix = EXCLUDED.path_prefix,
		endpoint_url = EXCLUDED.endpoint_url, public_url = EXCLUDED.public_url`

func storageArgs(s entities.Storage) []any {
	return []any{s.ID, s.OwnerID, s.Bucket, s.Region, s.KeyID, s.Secret, s.PathPrefix, s.EndpointURL, s.PublicURL}
}

func scanStorage(row pgx.Row) (entities.Storage, error) {
	var s entities.Storage
	err := row.Scan(&s.ID, &s.OwnerID, &s.Bucket, &s.Region, &s.KeyID, &s.Secret, &s.PathPrefix, &s.EndpointURL, &s.PublicURL)
	return s, err
}

func (StorageStore) Upsert(ctx context.Context, items []entities.Storage) error {
	if len(items) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("storage.upsert", zap.Int("count", len(items)))
		rows := make([][]any, len(items))
		for i, s := range items {
			rows[i] = storageArgs(s)
		}
		err := conn.BatchUpsert(ctx, upsertStorageSQL, rows)
		span.End(int64(len(items)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

// LockForCatalog locks catalog's storage row for the duration of the
// statement. Acquire opens no implicit transaction of its own, so the
// lock is released as soon as the row is returned; callers that need the
// lock held across the whole reconciliation pass must wrap the handler's
// Remote/operate sequence in conn.Isolated themselves.
func (StorageStore) LockForCatalog(ctx context.Context, catalog string) (entities.Storage, error) {
	var out entities.Storage
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("storage.lock_for_catalog", zap.String("catalog", catalog))
		row := conn.QueryRow(ctx, `
			SELECT `+storageColumns+`
			FROM storage s
			JOIN catalog c ON c.storage_id = s.id
			WHERE c.id = $1
			FOR UPDATE`, catalog)
		result, err := scanStorage(row)
		var rows int64
		if err == nil {
			out = result
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
