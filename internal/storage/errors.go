package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that the requested key does not exist in the bucket.
	ErrNotFound = errors.New("object not found")
	// ErrStoreUnavailable wraps any transport, auth or server failure from the backend.
	ErrStoreUnavailable = errors.New("object store unavailable")
)

// unavailable tags a backend error with ErrStoreUnavailable while keeping the cause inspectable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
