package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested record does not exist. It is
// distinct from ErrUnavailable, which covers transport-level failures
// reaching the store.
var (
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("store unavailable")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
