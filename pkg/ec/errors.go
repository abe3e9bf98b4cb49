package ec

import (
	"errors"
	"fmt"
)

// The available protocol errors.
var (
	// ErrNotReady is returned when the dock reports zero bridge devices and
	// is likely still booting up. It is the only retryable discovery error.
	ErrNotReady = errors.New("no bridge devices detected, dock may be booting up")

	// ErrUnsupportedDock is returned when the dock type is not recognized.
	ErrUnsupportedDock = errors.New("unsupported dock type")

	// ErrBusy is returned when the dock has a pending update and is
	// unavailable for new operations.
	ErrBusy = errors.New("dock has a pending update")

	// ErrNotFound is returned by transports when the dock has detached.
	ErrNotFound = errors.New("device not found")
)

// SizeMismatchError is returned when a structure buffer has an unexpected length.
type SizeMismatchError struct {
	What     string
	Expected int
	Actual   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("invalid %s size: expected %d, got %d", e.What, e.Expected, e.Actual)
}

// WriteRejectedError is returned when the dock rejects a firmware chunk.
type WriteRejectedError struct {
	Chunk int
	Code  byte
}

func (e *WriteRejectedError) Error() string {
	return fmt.Sprintf("dock response '%d' to chunk[%d]: failed to write firmware", e.Code, e.Chunk)
}
