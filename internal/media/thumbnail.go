package media

import (
	"context"

	"github.com/disintegration/imaging"
)

const thumbnailWidth = 320

func thumbnailArgs(videoPath, outputPath string) []string {
	return []string{
		"-i", videoPath,
		"-frames:v", "1",
		"-y",
		outputPath,
	}
}

// ExtractThumbnail pulls the first frame of videoPath, downscales it and
// writes it to outputPath as PNG. Thumbnails are cosmetic; callers treat
// failures as non-fatal.
func (t *Transcoder) ExtractThumbnail(ctx context.Context, videoPath, outputPath string) error {
	_, stderr, err := t.run(ctx, t.ffmpeg, thumbnailArgs(videoPath, outputPath))
	if err != nil {
		return &TransformError{Path: videoPath, Stderr: lastLine(stderr), Err: err}
	}

	img, err := imaging.Open(outputPath)
	if err != nil {
		return err
	}
	img = imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	return imaging.Save(img, outputPath)
}
