package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/domain/entities"
)

// FileMetadata is the extractor's output for one uploaded file: the
// file-derived attributes plus the preserved-opaque EXIF payload that
// MapExif later turns into a typed entities.Metadata.
type FileMetadata struct {
	FileName  string
	FileSize  int64
	Mimetype  string
	Width     int
	Height    int
	Duration  *float64
	BitRate   *float64
	FrameRate *float64
	Uploaded  time.Time

	ParseVersion ParseVersion
	Exif         json.RawMessage
}

// probeStream is the subset of ffprobe's -show_streams/-show_format
// JSON this extractor reads.
type probeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// RunExiftool shells out to exiftool against a local file path and
// returns its grouped-JSON stdout verbatim; a non-zero exit becomes a
// coreerrors.IoError carrying stderr.
func RunExiftool(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "exiftool", "-n", "-g", "-struct", "-c", "%.6f", "-json", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, coreerrors.IoError(errWithStderr(err, stderr.String()))
	}

	var results []json.RawMessage
	if err := json.Unmarshal(stdout.Bytes(), &results); err != nil {
		return nil, coreerrors.JsonError(err)
	}
	if len(results) == 0 {
		return nil, coreerrors.IoError(errWithStderr(nil, "exiftool returned no results"))
	}
	return results[0], nil
}

// RunFFprobe shells out to ffprobe against a local file path and
// returns the parsed stream/format summary used for width/height and
// video metrics.
func RunFFprobe(ctx context.Context, path string) (*probeOutput, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-show_streams", "-show_format", "-output_format", "json", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, coreerrors.IoError(errWithStderr(err, stderr.String()))
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, coreerrors.JsonError(err)
	}
	return &out, nil
}

func errWithStderr(cause error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if cause == nil {
		return coreerrors.InvalidData(stderr)
	}
	if stderr == "" {
		return cause
	}
	return coreerrors.InvalidData(stderr)
}

// Extract runs exiftool (and, for video mimetypes, ffprobe) against a
// local temp-store copy of an uploaded file and returns the combined
// file metadata. mimetype sniffing uses gabriel-vasile/mimetype rather
// than trusting the client-supplied content type, matching the
// original's essence_str() normalization at ingest time.
func Extract(ctx context.Context, path string, fileSize int64, fileName string) (FileMetadata, error) {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return FileMetadata{}, coreerrors.IoError(err)
	}
	mt := detected.String()
	if idx := strings.IndexByte(mt, ';'); idx >= 0 {
		mt = mt[:idx]
	}

	fm := FileMetadata{
		FileName:     fileName,
		FileSize:     fileSize,
		Mimetype:     mt,
		Uploaded:     time.Now().UTC(),
		ParseVersion: ParseVersionCurrent,
	}

	exifJSON, err := RunExiftool(ctx, path)
	if err != nil {
		return FileMetadata{}, err
	}
	fm.Exif = exifJSON

	if strings.HasPrefix(mt, "video/") {
		probe, err := RunFFprobe(ctx, path)
		if err != nil {
			return FileMetadata{}, err
		}
		applyProbe(&fm, probe)
	} else {
		if raw, err := parseRawExif(exifJSON); err == nil {
			if w, ok := raw.float("File:ImageWidth", "EXIF:ExifImageWidth"); ok {
				fm.Width = int(w)
			}
			if h, ok := raw.float("File:ImageHeight", "EXIF:ExifImageHeight"); ok {
				fm.Height = int(h)
			}
		}
	}

	return fm, nil
}

func applyProbe(fm *FileMetadata, probe *probeOutput) {
	if d, ok := parseFloatString(probe.Format.Duration); ok {
		fm.Duration = &d
	}
	if b, ok := parseFloatString(probe.Format.BitRate); ok {
		fm.BitRate = &b
	}
	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		fm.Width = s.Width
		fm.Height = s.Height
		if rate, ok := parseFrameRate(s.RFrameRate); ok {
			fm.FrameRate = &rate
		}
		break
	}
}

func parseFloatString(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	return leadingFloat(s)
}

func parseFrameRate(s string) (float64, bool) {
	before, after, ok := strings.Cut(s, "/")
	if !ok {
		return leadingFloat(s)
	}
	num, ok1 := leadingFloat(before)
	den, ok2 := leadingFloat(after)
	if !ok1 || !ok2 || den == 0 {
		return 0, false
	}
	return num / den, true
}

// ApplyToMediaFile maps FileMetadata plus its decoded Exif onto a
// MediaFile, the Go equivalent of Metadata::apply_to_media_file.
func ApplyToMediaFile(fm FileMetadata, file *entities.MediaFile) error {
	file.Uploaded = fm.Uploaded
	file.FileName = fm.FileName
	file.FileSize = fm.FileSize
	file.Mimetype = fm.Mimetype
	file.Width = fm.Width
	file.Height = fm.Height
	file.Duration = fm.Duration
	file.FrameRate = fm.FrameRate
	file.BitRate = fm.BitRate

	metadata, err := MapExif(fm.ParseVersion, fm.Exif, fm.Mimetype)
	if err != nil {
		return err
	}
	file.Metadata = metadata
	file.NeedsMetadata = false
	return nil
}
