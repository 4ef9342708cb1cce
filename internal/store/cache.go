package store

import "github.com/google/uuid"

// VideoCacheKey is the redis key under which a video's response is cached.
// Shared between the read path (handlers) and the writers that must
// invalidate it (pipeline, feedback).
func VideoCacheKey(id uuid.UUID) string {
	return "video:" + id.String()
}
