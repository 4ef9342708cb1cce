package media

import (
	"errors"
	"fmt"
)

// ErrSourceNotFound is returned when a normalization source path does not
// exist on disk.
var ErrSourceNotFound = errors.New("source video not found")

// ProbeError indicates ffprobe exited non-zero or produced output that could
// not be parsed.
type ProbeError struct {
	Path   string
	Detail string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("probe %s: %s", e.Path, e.Detail)
	}
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// TransformError indicates ffmpeg failed to re-encode a file to the
// canonical format.
type TransformError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *TransformError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("transform %s: %s", e.Path, e.Stderr)
	}
	return fmt.Sprintf("transform %s: %v", e.Path, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
