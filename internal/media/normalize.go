package media

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"video-recognizer/internal/models"
)

// Canonical profile expected by the recognition service.
const (
	CanonicalHeight = 240
	CanonicalFPS    = 30
	CanonicalFormat = "AVI"
	CanonicalCodec  = "XVID"
)

// NormalizeResult carries the stream metadata of the source file and of the
// produced canonical file. Both fields are populated on every successful
// call, pass-through or not.
type NormalizeResult struct {
	Original    models.MediaInfo
	Normalized  models.MediaInfo
	PassThrough bool
}

// CanonicalWidth computes the canonical frame width for a source of the
// given dimensions: height is fixed at 240 and width preserves the source
// aspect ratio.
func CanonicalWidth(srcWidth, srcHeight int) int {
	return int(math.Round(CanonicalHeight * float64(srcWidth) / float64(srcHeight)))
}

// IsCanonicalContainer reports whether path already uses the canonical
// container format.
func IsCanonicalContainer(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".avi")
}

// Normalize probes inputPath and produces a canonical copy at outputPath.
// A source already in the canonical container is copied through unchanged;
// everything else is re-encoded. The source file is never mutated. The
// normalized metadata is obtained by probing the output file, so both paths
// report the same field set.
func (t *Transcoder) Normalize(ctx context.Context, inputPath, outputPath string) (NormalizeResult, error) {
	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return NormalizeResult{}, fmt.Errorf("%w: %s", ErrSourceNotFound, inputPath)
		}
		return NormalizeResult{}, &TransformError{Path: inputPath, Err: err}
	}

	src, err := t.Probe(ctx, inputPath)
	if err != nil {
		return NormalizeResult{}, err
	}

	passThrough := IsCanonicalContainer(inputPath)
	if passThrough {
		if err := copyFile(inputPath, outputPath); err != nil {
			return NormalizeResult{}, &TransformError{Path: inputPath, Err: err}
		}
	} else {
		width := CanonicalWidth(src.Width, src.Height)
		if err := t.transcode(ctx, inputPath, outputPath, width); err != nil {
			return NormalizeResult{}, err
		}
	}

	out, err := t.Probe(ctx, outputPath)
	if err != nil {
		return NormalizeResult{}, err
	}

	normalized := models.MediaInfo{
		FPS:         out.FrameRate,
		Width:       out.Width,
		Height:      out.Height,
		Duration:    out.Duration,
		Format:      CanonicalFormat,
		Codec:       out.Codec,
		AspectRatio: float64(src.Width) / float64(src.Height),
	}
	if !passThrough {
		// ffprobe reports the xvid encoder's codec as mpeg4; keep the
		// profile's name for re-encoded files.
		normalized.Codec = CanonicalCodec
	}

	return NormalizeResult{
		Original: models.MediaInfo{
			FPS:      src.FrameRate,
			Width:    src.Width,
			Height:   src.Height,
			Duration: src.Duration,
			Format:   formatFromExt(inputPath),
			Codec:    src.Codec,
		},
		Normalized:  normalized,
		PassThrough: passThrough,
	}, nil
}

// transcodeArgs constructs the ffmpeg argument slice producing the canonical
// profile: 240p at the source aspect ratio, 30fps, XVID at quality 2.
func transcodeArgs(inputPath, outputPath string, width int) []string {
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", width, CanonicalHeight),
		"-r", strconv.Itoa(CanonicalFPS),
		"-c:v", "libxvid",
		"-q:v", "2",
		"-pix_fmt", "yuv420p",
		"-y",
		outputPath,
	}
}

func (t *Transcoder) transcode(ctx context.Context, inputPath, outputPath string, width int) error {
	_, stderr, err := t.run(ctx, t.ffmpeg, transcodeArgs(inputPath, outputPath, width))
	if err != nil {
		return &TransformError{Path: inputPath, Stderr: lastLine(stderr), Err: err}
	}
	return nil
}

func formatFromExt(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return strings.ToUpper(ext)
}

// lastLine trims ffmpeg's stderr down to its final non-empty line, which
// carries the actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
