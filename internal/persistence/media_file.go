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

// MediaFileStore implements pipeline.MediaFileRepo against media_file,
// joined back to media_item and catalog for the catalog/item ids every
// MediaFilePath needs.
type MediaFileStore struct{}

const mediaFileColumns = `
	mf.id, mi.catalog, mf.media, mf.uploaded, mf.process_version, mf.file_name, mf.file_size,
	mf.mimetype, mf.width, mf.height, mf.duration, mf.frame_rate, mf.bit_rate, mf.needs_metadata, mf.stored,
	mf.title, mf.description, mf.label, mf.category, mf.taken, mf.taken_zone,
	mf.longitude, mf.latitude, mf.altitude, mf.location, mf.city, mf.state, mf.country,
	mf.orientation, mf.make, mf.model, mf.lens, mf.photographer, mf.aperture,
	mf.shutter_speed, mf.iso, mf.focal_length, mf.rating`

const mediaFileFrom = `FROM media_file mf JOIN media_item mi ON mi.id = mf.media`

const upsertMediaFileSQL = `
	INSERT INTO media_file (
		id, media, uploaded, process_version, file_name, file_size, mimetype, width, height,
		duration, frame_rate, bit_rate, needs_metadata, stored,
		title, description, label, category, taken, taken_zone,
		longitude, latitude, altitude, location, city, state, country,
		orientation, make, model, lens, photographer, aperture, shutter_speed, iso, focal_length, rating
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
	          $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37)
	ON CONFLICT (id) DO UPDATE SET
		process_version = EXCLUDED.process_version, file_size = EXCLUDED.file_size,
		mimetype = EXCLUDED.mimetype, width = EXCLUDED.width, height = EXCLUDED.height,
		duration = EXCLUDED.duration, frame_rate = EXCLUDED.frame_rate, bit_rate = EXCLUDED.bit_rate,
		needs_metadata = EXCLUDED.needs_metadata, stored = EXCLUDED.stored,
		title = EXCLUDED.title, description = EXCLUDED.description, label = EXCLUDED.label,
		category = EXCLUDED.category, taken = EXCLUDED.taken, taken_zone = EXCLUDED.taken_zone,
		longitude = EXCLUDED.longitude, latitude = EXCLUDED.latitude, altitude = EXCLUDED.altitude,
		location = EXCLUDED.location, city = EXCLUDED.city, state = EXCLUDED.state, country = EXCLUDED.country,
		orientation = EXCLUDED.orientation, make = EXCLUDED.make, model = EXCLUDED.model, lens = EXCLUDED.lens,
		photographer = EXCLUDED.photographer, aperture = EXCLUDED.aperture, shutter_speed = EXCLUDED.shutter_speed,
		iso = EXCLUDED.iso, focal_length = EXCLUDED.focal_length, rating = EXCLUDED.rating`

func mediaFileArgs(f entities.MediaFile) []any {
	return []any{
		f.ID, f.MediaItem, f.Uploaded, f.ProcessVersion, f.FileName, f.FileSize, f.Mimetype, f.Width, f.Height,
		f.Duration, f.FrameRate, f.BitRate, f.NeedsMetadata, f.Stored,
		f.Title, f.Description, f.Label, f.Category, f.Taken, f.TakenZone,
		f.Longitude, f.Latitude, f.Altitude, f.Location, f.City, f.State, f.Country,
		f.Orientation, f.Make, f.Model, f.Lens, f.Photographer, f.Aperture, f.ShutterSpeed, f.ISO, f.FocalLength, f.Rating,
	}
}

func scanMediaFileRow(row pgx.Row) (pipeline.MediaFileRow, error) {
	var f entities.MediaFile
	var catalog string

	err := row.Scan(
		&f.ID, &catalog, &f.MediaItem, &f.Uploaded, &f.ProcessVersion, &f.FileName, &f.FileSize,
		&f.Mimetype, &f.Width, &f.Height, &f.Duration, &f.FrameRate, &f.BitRate, &f.NeedsMetadata, &f.Stored,
		&f.Title, &f.Description, &f.Label, &f.Category, &f.Taken, &f.TakenZone,
		&f.Longitude, &f.Latitude, &f.Altitude, &f.Location, &f.City, &f.State, &f.Country,
		&f.Orientation, &f.Make, &f.Model, &f.Lens, &f.Photographer, &f.Aperture,
		&f.ShutterSpeed, &f.ISO, &f.FocalLength, &f.Rating,
	)
	if err != nil {
		return pipeline.MediaFileRow{}, err
	}

	return pipeline.MediaFileRow{
		File: f,
		Path: respath.MediaFilePath{Catalog: catalog, Item: f.MediaItem, File: f.ID},
	}, nil
}

func (MediaFileStore) Upsert(ctx context.Context, files []entities.MediaFile) error {
	if len(files) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("media_file.upsert", zap.Int("count", len(files)))
		rows := make([][]any, len(files))
		for i, f := range files {
			rows[i] = mediaFileArgs(f)
		}
		err := conn.BatchUpsert(ctx, upsertMediaFileSQL, rows)
		span.End(int64(len(files)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

func (MediaFileStore) Get(ctx context.Context, id string) (pipeline.MediaFileRow, error) {
	var out pipeline.MediaFileRow
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("media_file.get", zap.String("id", id))
		row := conn.QueryRow(ctx, `SELECT `+mediaFileColumns+` `+mediaFileFrom+` WHERE mf.id = $1`, id)
		result, err := scanMediaFileRow(row)
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

func (MediaFileStore) queryRows(ctx context.Context, operation, where string, arg any) ([]pipeline.MediaFileRow, error) {
	var out []pipeline.MediaFileRow
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start(operation)
		rows, err := conn.Query(ctx, `SELECT `+mediaFileColumns+` `+mediaFileFrom+` WHERE `+where, arg)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()

		for rows.Next() {
			r, scanErr := scanMediaFileRow(rows)
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

func (s MediaFileStore) ListForCatalog(ctx context.Context, catalog string) ([]pipeline.MediaFileRow, error) {
	return s.queryRows(ctx, "media_file.list_for_catalog", "mi.catalog = $1", catalog)
}

func (s MediaFileStore) ListForItem(ctx context.Context, mediaItemID string) ([]pipeline.MediaFileRow, error) {
	return s.queryRows(ctx, "media_file.list_for_item", "mf.media = $1", mediaItemID)
}

func (s MediaFileStore) ListNewest(ctx context.Context, catalog string) ([]pipeline.MediaFileRow, error) {
	return s.queryRows(ctx, "media_file.list_newest", "mi.catalog = $1 AND mf.id = mi.media_file", catalog)
}

func (s MediaFileStore) ListPrunable(ctx context.Context, catalog string) ([]pipeline.MediaFileRow, error) {
	return s.queryRows(ctx, "media_file.list_prunable",
		"mi.catalog = $1 AND (mi.media_file IS NULL OR mf.id != mi.media_file)", catalog)
}

func (MediaFileStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("media_file.delete", zap.Int("count", len(ids)))
		tag, err := conn.Exec(ctx, `DELETE FROM media_file WHERE id = ANY($1)`, ids)
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
