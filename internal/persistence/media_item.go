package persistence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/internal/extractor"
	"github.com/turahe/mediacore/pkg/tracing"
)

// MediaItemStore implements pipeline.MediaItemRepo against media_item.
type MediaItemStore struct{}

const mediaItemColumns = `
	id, catalog, deleted, created, updated, datetime, taken_zone, public, media_file,
	overlay_file_name, overlay_title, overlay_description, overlay_label, overlay_category,
	overlay_location, overlay_city, overlay_state, overlay_country, overlay_make, overlay_model,
	overlay_lens, overlay_photographer, overlay_shutter_speed, overlay_orientation, overlay_iso,
	overlay_rating, overlay_longitude, overlay_latitude, overlay_altitude, overlay_aperture,
	overlay_focal_length, overlay_taken`

const upsertMediaItemSQL = `
	INSERT INTO media_item (` + mediaItemColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
	        $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32)
	ON CONFLICT (id) DO UPDATE SET
		catalog = EXCLUDED.catalog, deleted = EXCLUDED.deleted, updated = EXCLUDED.updated,
		datetime = EXCLUDED.datetime, taken_zone = EXCLUDED.taken_zone, public = EXCLUDED.public,
		media_file = EXCLUDED.media_file,
		overlay_file_name = EXCLUDED.overlay_file_name, overlay_title = EXCLUDED.overlay_title,
		overlay_description = EXCLUDED.overlay_description, overlay_label = EXCLUDED.overlay_label,
		overlay_category = EXCLUDED.overlay_category, overlay_location = EXCLUDED.overlay_location,
		overlay_city = EXCLUDED.overlay_city, overlay_state = EXCLUDED.overlay_state,
		overlay_country = EXCLUDED.overlay_country, overlay_make = EXCLUDED.overlay_make,
		overlay_model = EXCLUDED.overlay_model, overlay_lens = EXCLUDED.overlay_lens,
		overlay_photographer = EXCLUDED.overlay_photographer,
		overlay_shutter_speed = EXCLUDED.overlay_shutter_speed,
		overlay_orientation = EXCLUDED.overlay_orientation, overlay_iso = EXCLUDED.overlay_iso,
		overlay_rating = EXCLUDED.overlay_rating, overlay_longitude = EXCLUDED.overlay_longitude,
		overlay_latitude = EXCLUDED.overlay_latitude, overlay_altitude = EXCLUDED.overlay_altitude,
		overlay_aperture = EXCLUDED.overlay_aperture, overlay_focal_length = EXCLUDED.overlay_focal_length,
		overlay_taken = EXCLUDED.overlay_taken`

func mediaItemArgs(m entities.MediaItem) []any {
	o := m.Overlay
	return []any{
		m.ID, m.Catalog, m.Deleted, m.Created, m.Updated, m.Datetime, m.TakenZone, m.Public, m.SelectedFile,
		overlayRawStr(o.FileName), overlayRawStr(o.Title), overlayRawStr(o.Description), overlayRawStr(o.Label),
		overlayRawStr(o.Category), overlayRawStr(o.Location), overlayRawStr(o.City), overlayRawStr(o.State),
		overlayRawStr(o.Country), overlayRawStr(o.Make), overlayRawStr(o.Model), overlayRawStr(o.Lens),
		overlayRawStr(o.Photographer), overlayRawStr(o.ShutterSpeed), overlayRawInt(o.Orientation), overlayRawInt(o.ISO),
		overlayRawInt(o.Rating), overlayRawFloat(o.Longitude), overlayRawFloat(o.Latitude), overlayRawFloat(o.Altitude),
		overlayRawFloat(o.Aperture), overlayRawFloat(o.FocalLength), overlayRawTime(o.Taken),
	}
}

func scanMediaItem(row pgx.Row) (entities.MediaItem, error) {
	var m entities.MediaItem
	var fileName, title, description, label, category, location, city, state, country,
		makeField, model, lens, photographer, shutterSpeed *string
	var orientation, iso, rating *int
	var longitude, latitude, altitude, aperture, focalLength *float64
	var taken *time.Time

	err := row.Scan(
		&m.ID, &m.Catalog, &m.Deleted, &m.Created, &m.Updated, &m.Datetime, &m.TakenZone, &m.Public, &m.SelectedFile,
		&fileName, &title, &description, &label, &category,
		&location, &city, &state, &country, &makeField, &model,
		&lens, &photographer, &shutterSpeed, &orientation, &iso,
		&rating, &longitude, &latitude, &altitude, &aperture,
		&focalLength, &taken,
	)
	if err != nil {
		return entities.MediaItem{}, err
	}

	m.Overlay = entities.MediaItemOverlay{
		FileName:     overlayStr(fileName),
		Title:        overlayStr(title),
		Description:  overlayStr(description),
		Label:        overlayStr(label),
		Category:     overlayStr(category),
		Location:     overlayStr(location),
		City:         overlayStr(city),
		State:        overlayStr(state),
		Country:      overlayStr(country),
		Make:         overlayStr(makeField),
		Model:        overlayStr(model),
		Lens:         overlayStr(lens),
		Photographer: overlayStr(photographer),
		ShutterSpeed: overlayStr(shutterSpeed),
		Orientation:  overlayInt(orientation),
		ISO:          overlayInt(iso),
		Rating:       overlayInt(rating),
		Longitude:    overlayFloat(longitude),
		Latitude:     overlayFloat(latitude),
		Altitude:     overlayFloat(altitude),
		Aperture:     overlayFloat(aperture),
		FocalLength:  overlayFloat(focalLength),
		Taken:        overlayTime(taken),
	}
	return m, nil
}

// Upsert writes items in batches of 500 (pgxdb.BatchUpsert), the
// per-entity DAL contract spec.md §4.2 requires of every entity.
func (MediaItemStore) Upsert(ctx context.Context, items []entities.MediaItem) error {
	if len(items) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("media_item.upsert", zap.Int("count", len(items)))
		rows := make([][]any, len(items))
		for i, item := range items {
			rows[i] = mediaItemArgs(item)
		}
		err := conn.BatchUpsert(ctx, upsertMediaItemSQL, rows)
		span.End(int64(len(items)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

// ListDeleted returns every soft-deleted item, consulted by ServerStartup.
func (MediaItemStore) ListDeleted(ctx context.Context) ([]entities.MediaItem, error) {
	var out []entities.MediaItem
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("media_item.list_deleted")
		rows, err := conn.Query(ctx, `SELECT `+mediaItemColumns+` FROM media_item WHERE deleted`)
		if err != nil {
			span.End(0, err)
			return coreerrors.DbError(err)
		}
		defer rows.Close()

		for rows.Next() {
			m, scanErr := scanMediaItem(rows)
			if scanErr != nil {
				span.End(int64(len(out)), scanErr)
				return coreerrors.DbError(scanErr)
			}
			out = append(out, m)
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

// Delete permanently removes items; ON DELETE CASCADE from media_file,
// alternate_file, and the link tables takes care of everything derived
// from them at the database level.
func (MediaItemStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("media_item.delete", zap.Int("count", len(ids)))
		tag, err := conn.Exec(ctx, `DELETE FROM media_item WHERE id = ANY($1)`, ids)
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

// reassignMediaFileSQL implements invariant 2: each item's selected file
// becomes the most recently uploaded fully-processed (process_version >
// 0, stored set) MediaFile belonging to it.
const reassignMediaFileSQL = `
	UPDATE media_item mi
	SET media_file = sub.id, updated = now()
	FROM (
		SELECT DISTINCT ON (media) media AS item_id, id
		FROM media_file
		WHERE process_version > 0 AND stored IS NOT NULL
		ORDER BY media, uploaded DESC
	) sub
	WHERE mi.id = sub.item_id AND mi.catalog = $1 AND mi.media_file IS DISTINCT FROM sub.id`

const clearMediaFileSQL = `
	UPDATE media_item mi
	SET media_file = NULL, updated = now()
	WHERE mi.catalog = $1 AND mi.media_file IS NOT NULL
	AND NOT EXISTS (
		SELECT 1 FROM media_file mf
		WHERE mf.media = mi.id AND mf.process_version > 0 AND mf.stored IS NOT NULL
	)`

// UpdateMediaFiles recomputes catalog's selected-file assignment and
// every affected item's datetime/taken_zone in one serializable
// transaction (invariants 2, 4, 5).
func (MediaItemStore) UpdateMediaFiles(ctx context.Context, catalog string) error {
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		return conn.Isolated(ctx, pgxdb.Serializable, func(ctx context.Context, tx *pgxdb.DbConnection) error {
			span := tracing.Start("media_item.update_media_files", zap.String("catalog", catalog))

			reassigned, err := tx.Exec(ctx, reassignMediaFileSQL, catalog)
			if err != nil {
				span.End(0, err)
				return coreerrors.DbError(err)
			}
			cleared, err := tx.Exec(ctx, clearMediaFileSQL, catalog)
			if err != nil {
				span.End(reassigned.RowsAffected(), err)
				return coreerrors.DbError(err)
			}

			affected, err := recomputeDerivedFields(ctx, tx, catalog, "")
			total := reassigned.RowsAffected() + cleared.RowsAffected() + int64(affected)
			span.End(total, err)
			return err
		})
	})
}

// Resync re-derives a single item's selected file and datetime/taken_zone
// after one of its MediaFiles changed state.
func (MediaItemStore) Resync(ctx context.Context, mediaItemID string) error {
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		return conn.Isolated(ctx, pgxdb.ReadCommitted, func(ctx context.Context, tx *pgxdb.DbConnection) error {
			span := tracing.Start("media_item.resync", zap.String("media_item", mediaItemID))

			_, err := tx.Exec(ctx, `
				UPDATE media_item mi
				SET media_file = sub.id, updated = now()
				FROM (
					SELECT media AS item_id, id
					FROM media_file
					WHERE media = $1 AND process_version > 0 AND stored IS NOT NULL
					ORDER BY uploaded DESC
					LIMIT 1
				) sub
				WHERE mi.id = sub.item_id AND mi.media_file IS DISTINCT FROM sub.id`, mediaItemID)
			if err != nil {
				span.End(0, err)
				return coreerrors.DbError(err)
			}

			_, err = tx.Exec(ctx, `
				UPDATE media_item mi
				SET media_file = NULL, updated = now()
				WHERE mi.id = $1 AND mi.media_file IS NOT NULL
				AND NOT EXISTS (
					SELECT 1 FROM media_file mf
					WHERE mf.media = mi.id AND mf.process_version > 0 AND mf.stored IS NOT NULL
				)`, mediaItemID)
			if err != nil {
				span.End(0, err)
				return coreerrors.DbError(err)
			}

			affected, err := recomputeDerivedFields(ctx, tx, "", mediaItemID)
			span.End(int64(affected), err)
			return err
		})
	})
}

// recomputeDerivedFields re-evaluates datetime/taken_zone for every item
// in catalog (or, when mediaItemID is set, just that one item) against
// its currently selected file, and writes the result back to every such
// row. Either catalog or mediaItemID must be non-empty.
func recomputeDerivedFields(ctx context.Context, tx *pgxdb.DbConnection, catalog, mediaItemID string) (int, error) {
	query := `
		SELECT mi.id, mi.created, mi.overlay_taken, mi.overlay_longitude, mi.overlay_latitude,
		       mf.id, mf.taken, mf.longitude, mf.latitude
		FROM media_item mi
		LEFT JOIN media_file mf ON mf.id = mi.media_file
		WHERE NOT mi.deleted AND `
	var arg any
	if mediaItemID != "" {
		query += `mi.id = $1`
		arg = mediaItemID
	} else {
		query += `mi.catalog = $1`
		arg = catalog
	}

	rows, err := tx.Query(ctx, query, arg)
	if err != nil {
		return 0, coreerrors.DbError(err)
	}

	type derived struct {
		id        string
		datetime  time.Time
		takenZone *string
	}
	var updates []derived

	for rows.Next() {
		var id string
		var created time.Time
		var overlayTaken *time.Time
		var overlayLon, overlayLat *float64
		var fileID *string
		var fileTaken *time.Time
		var fileLon, fileLat *float64

		if err := rows.Scan(&id, &created, &overlayTaken, &overlayLon, &overlayLat, &fileID, &fileTaken, &fileLon, &fileLat); err != nil {
			rows.Close()
			return 0, coreerrors.DbError(err)
		}

		taken := overlayTaken
		if taken == nil {
			taken = fileTaken
		}
		lon, lat := overlayLon, overlayLat
		if lon == nil {
			lon = fileLon
		}
		if lat == nil {
			lat = fileLat
		}

		var takenZone *string
		if lon != nil && lat != nil {
			if zone, ok := extractor.ResolveTimezone(*lon, *lat); ok {
				takenZone = &zone
			}
		}

		datetime := created
		if taken != nil {
			loc := time.UTC
			if takenZone != nil {
				if l, err := time.LoadLocation(*takenZone); err == nil {
					loc = l
				}
			}
			t := *taken
			inLoc := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
			datetime = inLoc.UTC()
		}

		updates = append(updates, derived{id: id, datetime: datetime, takenZone: takenZone})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, coreerrors.DbError(err)
	}
	rows.Close()

	for _, u := range updates {
		if _, err := tx.Exec(ctx, `UPDATE media_item SET datetime = $1, taken_zone = $2, updated = now() WHERE id = $3`,
			u.datetime, u.takenZone, u.id); err != nil {
			return 0, coreerrors.DbError(err)
		}
	}
	return len(updates), nil
}
