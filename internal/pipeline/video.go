package pipeline

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/turahe/mediacore/internal/coreerrors"
)

// transcodeVideo reencodes source into an MP4 (h264/aac) at dst, scaled
// so its longest edge is at most maxEdge pixels (no upscaling). It
// shells out to ffmpeg the same way internal/extractor shells out to
// ffprobe/exiftool: this process never links a media codec library.
func transcodeVideo(ctx context.Context, source, dst string, maxEdge int) error {
	scale := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", maxEdge, maxEdge)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", source,
		"-vf", scale,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dst,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errWithOutput(err, out)
	}
	return nil
}

// extractPosterFrame grabs a single frame near the start of source and
// writes it to dst as a jpeg, used as the decode source for video
// thumbnails since Go has no native video decoder.
func extractPosterFrame(ctx context.Context, source, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-ss", "00:00:01.000",
		"-i", source,
		"-frames:v", "1",
		dst,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errWithOutput(err, out)
	}
	return nil
}

func errWithOutput(cause error, out []byte) error {
	return coreerrors.Wrap(coreerrors.CodeUnsupportedMedia, cause, "ffmpeg: "+string(out))
}
