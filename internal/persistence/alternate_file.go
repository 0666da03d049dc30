package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/domain/entities"
	respath "github.com/turahe/mediacore/internal/domain/path"
	"github.com/turahe/mediacore/internal/pipeline"
	"github.com/turahe/mediacore/pkg/tracing"
)

// AlternateFileStore implements pipeline.AlternateFileRepo against
// alternate_file, joined through media_file/media_item for the path
// prefix each alternate's bytes live under.
type AlternateFileStore struct{}

const alternateFileColumns = `
	af.id, mi.catalog, mi.id, af.media_file, af.type, af.mimetype, af.width, af.height,
	af.duration, af.frame_rate, af.bit_rate, af.file_size, af.file_name, af.local, af.stored, af.required`

const alternateFileFrom = `
	FROM alternate_file af
	JOIN media_file mf ON mf.id = af.media_file
	JOIN media_item mi ON mi.id = mf.media`

const upsertAlternateFileSQL = `
	INSERT INTO alternate_file (
		id, media_file, type, mimetype, width, height, duration, frame_rate, bit_rate,
		file_size, file_name, local, stored, required
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (id) DO UPDATE SET
		mimetype = EXCLUDED.mimetype, width = EXCLUDED.width, height = EXCLUDED.height,
		duration = EXCLUDED.duration, frame_rate = EXCLUDED.frame_rate, bit_rate = EXCLUDED.bit_rate,
		file_size = EXCLUDED.file_size, file_name = EXCLUDED.file_name, local = EXCLUDED.local,
		stored = EXCLUDED.stored, required = EXCLUDED.required`

func alternateFileArgs(a entities.AlternateFile) []any {
	return []any{
		a.ID, a.MediaFile, string(a.Type), a.Mimetype, a.Width, a.Height, a.Duration, a.FrameRate, a.BitRate,
		a.FileSize, a.FileName, a.Local, a.Stored, a.Required,
	}
}

func scanAlternateFileRow(row pgx.Row) (pipeline.AlternateFileRow, error) {
	var a entities.AlternateFile
	var catalog, item string
	var kind string

	err := row.Scan(
		&a.ID, &catalog, &item, &a.MediaFile, &kind, &a.Mimetype, &a.Width, &a.Height,
		&a.Duration, &a.FrameRate, &a.BitRate, &a.FileSize, &a.FileName, &a.Local, &a.Stored, &a.Required,
	)
	if err != nil {
		return pipeline.AlternateFileRow{}, err
	}
	a.Type = entities.AlternateFileType(kind)

	return pipeline.AlternateFileRow{
		Alternate: a,
		Path:      respath.FilePath{Catalog: catalog, Item: item, File: a.MediaFile, FileName: a.FileName},
	}, nil
}

func scanAlternateFile(row pgx.Row) (entities.AlternateFile, error) {
	r, err := scanAlternateFileRow(row)
	return r.Alternate, err
}

func (AlternateFileStore) Upsert(ctx context.Context, alternates []entities.AlternateFile) error {
	if len(alternates) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("alternate_file.upsert", zap.Int("count", len(alternates)))
		rows := make([][]any, len(alternates))
		for i, a := range alternates {
			rows[i] = alternateFileArgs(a)
		}
		err := conn.BatchUpsert(ctx, upsertAlternateFileSQL, rows)
		span.End(int64(len(alternates)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

func (AlternateFileStore) ListForCatalog(ctx context.Context, catalog string) ([]pipeline.AlternateFileRow, error) {
	var out []pipeline.AlternateFileRow
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("alternate_file.list_for_catalog", zap.String("catalog", catalog))
		rows, err := conn.Query(ctx, `SELECT `+alternateFileColumns+alternateFileFrom+` WHERE mi.catalog = $1`, catalog)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()

		for rows.Next() {
			r, scanErr := scanAlternateFileRow(rows)
			if scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, r)
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

func (AlternateFileStore) ListForMediaFile(ctx context.Context, mediaFileID string) ([]entities.AlternateFile, error) {
	var out []entities.AlternateFile
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("alternate_file.list_for_media_file", zap.String("media_file", mediaFileID))
		rows, err := conn.Query(ctx, `SELECT `+alternateFileColumns+alternateFileFrom+` WHERE af.media_file = $1`, mediaFileID)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()

		for rows.Next() {
			a, scanErr := scanAlternateFile(rows)
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
