package media

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SanitizeFilename replaces spaces so the original name is safe to use as a
// storage key.
func SanitizeFilename(name string) string {
	return strings.ReplaceAll(filepath.Base(name), " ", "_")
}

// UploadPath returns the working path for an uploaded file. Paths are
// namespaced by video id so concurrent batch submissions of identically
// named files never collide.
func UploadPath(workDir string, id uuid.UUID, filename string) string {
	return filepath.Join(workDir, id.String()+"_"+SanitizeFilename(filename))
}

// NormalizedPath returns the canonical output path for a video. The canonical
// container is always AVI, regardless of the upload's original extension.
func NormalizedPath(workDir string, id uuid.UUID) string {
	return filepath.Join(workDir, id.String()+"_normalized.avi")
}

// ThumbnailPath returns the working path for a video's poster frame.
func ThumbnailPath(workDir string, id uuid.UUID) string {
	return filepath.Join(workDir, id.String()+"_thumb.png")
}
