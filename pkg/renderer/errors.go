package renderer

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrInvalidConfig is returned for render parameters rejected before any allocation
	ErrInvalidConfig = errors.New("invalid render configuration")

	// ErrBackendUnavailable is returned when the selected backend cannot run in this build or
	// on this machine
	ErrBackendUnavailable = errors.New("render backend unavailable")

	// ErrCancelled is returned when a frame is abandoned through its context
	ErrCancelled = errors.New("render cancelled")

	// ErrNotInitialized is returned when a backend renders before Init
	ErrNotInitialized = errors.New("render backend not initialized")
)

// PartitionError reports the failure of one CPU partition, identified by its tile and pixel range
type PartitionError struct {
	TileID int
	Bounds image.Rectangle
	Err    error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %d %v failed: %v", e.TileID, e.Bounds, e.Err)
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}
