package pipeline

import (
	"context"
	"image"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/internal/queue"
)

// buildAlternate builds every AlternateSpec a MediaFile is missing for
// one mime group ("image" or "video"). Video alternates go through
// Locks.EnterExpensiveTask first since extractPosterFrame/transcodeVideo
// shell out to ffmpeg and are the only CPU-heavy step in this pipeline;
// image resizing is comparatively cheap and runs on whichever lane
// dispatched the task.
func buildAlternate(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, t queue.Task) error {
		task, ok := t.(queue.BuildAlternate)
		if !ok {
			return nil
		}

		row, err := deps.MediaFiles.Get(ctx, task.MediaFile)
		if err != nil {
			return err
		}

		missing, err := missingAlternates(ctx, deps, row)
		if err != nil {
			return err
		}
		var specs []AlternateSpec
		for _, spec := range missing {
			if mimeGroup(spec.Mimetype) == task.MimeGroup {
				specs = append(specs, spec)
			}
		}
		if len(specs) == 0 {
			return nil
		}

		if task.MimeGroup == "video" {
			release, err := deps.Locks.EnterExpensiveTask(ctx)
			if err != nil {
				return err
			}
			defer release()
		}

		guard := deps.Locks.MediaItem(row.File.MediaItem)
		defer guard.Release()
		ops := newMediaFileOps(deps.Stores, guard.Lock().FileOps(row.File.ID), deps.TempDir)

		source, err := ensureLocalCopy(ctx, ops, row)
		if err != nil {
			return err
		}
		defer os.Remove(source)

		remote, err := deps.Stores.Remote(ctx, row.Path.Catalog)
		if err != nil {
			return err
		}

		built := make([]entities.AlternateFile, 0, len(specs))
		for _, spec := range specs {
			alt, err := buildOneAlternate(ctx, ops, source, row, spec, task.MimeGroup)
			if err != nil {
				return err
			}
			defer os.Remove(alt.localPath)

			store := deps.Stores.Local
			if !storeLocally(spec.Type) {
				store = remote
			}
			if err := store.Push(ctx, alt.localPath, row.Path.File(alt.file.FileName), spec.Mimetype); err != nil {
				return err
			}
			built = append(built, alt.file)
		}

		if err := deps.AlternateFiles.Upsert(ctx, built); err != nil {
			return err
		}
		return deps.MediaItems.Resync(ctx, row.File.MediaItem)
	}
}

type builtAlternate struct {
	file      entities.AlternateFile
	localPath string
}

// buildOneAlternate renders spec's bytes to a temp file and returns the
// AlternateFile row describing it, without pushing it anywhere.
func buildOneAlternate(ctx context.Context, ops *MediaFileOps, source string, row MediaFileRow, spec AlternateSpec, group string) (builtAlternate, error) {
	now := time.Now()
	fileName := uuid.NewString() + alternateExtension(spec)

	var decodeSource = source
	if group == "video" {
		posterPath := ops.tempDir + "/" + uuid.NewString() + "-poster.jpg"
		if err := extractPosterFrame(ctx, source, posterPath); err != nil {
			return builtAlternate{}, err
		}
		defer os.Remove(posterPath)
		decodeSource = posterPath
	}

	if spec.Type == entities.AlternateReencode && group == "video" {
		dst := ops.tempDir + "/" + fileName
		if err := transcodeVideo(ctx, source, dst, maxInt(row.File.Width, row.File.Height)); err != nil {
			return builtAlternate{}, err
		}
		info, err := os.Stat(dst)
		if err != nil {
			return builtAlternate{}, err
		}
		return builtAlternate{
			file: entities.AlternateFile{
				ID: uuid.NewString(), MediaFile: row.File.ID, Type: spec.Type, Mimetype: spec.Mimetype,
				Width: row.File.Width, Height: row.File.Height, FileSize: info.Size(), FileName: fileName,
				Local: storeLocally(spec.Type), Stored: &now, Required: true,
			},
			localPath: dst,
		}, nil
	}

	decoded, err := ops.cache.Decode(ctx, func(ctx context.Context) (any, error) {
		return decodeImage(decodeSource)
	})
	if err != nil {
		return builtAlternate{}, err
	}
	img := decoded.(image.Image)

	var resized image.Image
	if spec.Type == entities.AlternateReencode {
		resized = img
	} else {
		size := spec.Width
		if spec.Height > size {
			size = spec.Height
		}
		r, err := ops.cache.Resize(ctx, size, func(ctx context.Context) (any, error) {
			return resizeToFit(img, size), nil
		})
		if err != nil {
			return builtAlternate{}, err
		}
		resized = r.(image.Image)
	}

	dst := ops.tempDir + "/" + fileName
	if err := encodeJPEG(resized, dst); err != nil {
		return builtAlternate{}, err
	}
	info, err := os.Stat(dst)
	if err != nil {
		return builtAlternate{}, err
	}
	bounds := resized.Bounds()

	return builtAlternate{
		file: entities.AlternateFile{
			ID: uuid.NewString(), MediaFile: row.File.ID, Type: spec.Type, Mimetype: spec.Mimetype,
			Width: bounds.Dx(), Height: bounds.Dy(), FileSize: info.Size(), FileName: fileName,
			Local: storeLocally(spec.Type), Stored: &now, Required: true,
		},
		localPath: dst,
	}, nil
}

func alternateExtension(spec AlternateSpec) string {
	if spec.Mimetype == "video/mp4" {
		return ".mp4"
	}
	return ".jpg"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
