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

// AlbumStore, TagStore and PersonStore cover the three organizational
// entities that sit below Catalog and above the media_album/media_tag/
// media_person link tables: simple self-contained CRUD plus the batched
// upsert every entity gets under spec.md §4.2.
type AlbumStore struct{}
type TagStore struct{}
type PersonStore struct{}

const upsertAlbumSQL = `
	INSERT INTO album (id, catalog, parent, name)
	VALUES ($1,$2,$3,$4)
	ON CONFLICT (id) DO UPDATE SET parent = EXCLUDED.parent, name = EXCLUDED.name`

func scanAlbum(row pgx.Row) (entities.Album, error) {
	var a entities.Album
	err := row.Scan(&a.ID, &a.Catalog, &a.Parent, &a.Name)
	return a, err
}

func (AlbumStore) Upsert(ctx context.Context, items []entities.Album) error {
	if len(items) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("album.upsert", zap.Int("count", len(items)))
		rows := make([][]any, len(items))
		for i, a := range items {
			rows[i] = []any{a.ID, a.Catalog, a.Parent, a.Name}
		}
		err := conn.BatchUpsert(ctx, upsertAlbumSQL, rows)
		span.End(int64(len(items)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

func (AlbumStore) ListForCatalog(ctx context.Context, catalog string) ([]entities.Album, error) {
	var out []entities.Album
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("album.list_for_catalog", zap.String("catalog", catalog))
		rows, err := conn.Query(ctx, `SELECT id, catalog, parent, name FROM album WHERE catalog = $1`, catalog)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()
		for rows.Next() {
			a, scanErr := scanAlbum(rows)
			if scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, a)
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

func (AlbumStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("album.delete", zap.Int("count", len(ids)))
		tag, err := conn.Exec(ctx, `DELETE FROM album WHERE id = ANY($1)`, ids)
		var rows int64
		if err == nil {
			rows = tag.RowsAffected()
		}
		span.End(rows, err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

const upsertTagSQL = `
	INSERT INTO tag (id, catalog, parent, name)
	VALUES ($1,$2,$3,$4)
	ON CONFLICT (id) DO UPDATE SET parent = EXCLUDED.parent, name = EXCLUDED.name`

func scanTag(row pgx.Row) (entities.Tag, error) {
	var t entities.Tag
	err := row.Scan(&t.ID, &t.Catalog, &t.Parent, &t.Name)
	return t, err
}

func (TagStore) Upsert(ctx context.Context, items []entities.Tag) error {
	if len(items) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("tag.upsert", zap.Int("count", len(items)))
		rows := make([][]any, len(items))
		for i, t := range items {
			rows[i] = []any{t.ID, t.Catalog, t.Parent, t.Name}
		}
		err := conn.BatchUpsert(ctx, upsertTagSQL, rows)
		span.End(int64(len(items)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

func (TagStore) ListForCatalog(ctx context.Context, catalog string) ([]entities.Tag, error) {
	var out []entities.Tag
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("tag.list_for_catalog", zap.String("catalog", catalog))
		rows, err := conn.Query(ctx, `SELECT id, catalog, parent, name FROM tag WHERE catalog = $1`, catalog)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()
		for rows.Next() {
			t, scanErr := scanTag(rows)
			if scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, t)
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

func (TagStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("tag.delete", zap.Int("count", len(ids)))
		tag, err := conn.Exec(ctx, `DELETE FROM tag WHERE id = ANY($1)`, ids)
		var rows int64
		if err == nil {
			rows = tag.RowsAffected()
		}
		span.End(rows, err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

const upsertPersonSQL = `
	INSERT INTO person (id, catalog, name)
	VALUES ($1,$2,$3)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

func scanPerson(row pgx.Row) (entities.Person, error) {
	var p entities.Person
	err := row.Scan(&p.ID, &p.Catalog, &p.Name)
	return p, err
}

func (PersonStore) Upsert(ctx context.Context, items []entities.Person) error {
	if len(items) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("person.upsert", zap.Int("count", len(items)))
		rows := make([][]any, len(items))
		for i, p := range items {
			rows[i] = []any{p.ID, p.Catalog, p.Name}
		}
		err := conn.BatchUpsert(ctx, upsertPersonSQL, rows)
		span.End(int64(len(items)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

func (PersonStore) ListForCatalog(ctx context.Context, catalog string) ([]entities.Person, error) {
	var out []entities.Person
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("person.list_for_catalog", zap.String("catalog", catalog))
		rows, err := conn.Query(ctx, `SELECT id, catalog, name FROM person WHERE catalog = $1`, catalog)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()
		for rows.Next() {
			p, scanErr := scanPerson(rows)
			if scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, p)
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

func (PersonStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("person.delete", zap.Int("count", len(ids)))
		tag, err := conn.Exec(ctx, `DELETE FROM person WHERE id = ANY($1)`, ids)
		var rows int64
		if err == nil {
			rows = tag.RowsAffected()
		}
		span.End(rows, err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}
