package renderer

import (
	"context"

	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// Backend renders frames of one scene at one configuration. Init may be called again with a
// new configuration or scene; it discards all state of the previous one. A backend is used by
// one goroutine at a time.
type Backend interface {
	// Name identifies the backend in logs
	Name() string

	// Init validates the configuration and scene and allocates everything a frame needs
	Init(cfg Config, scn *scene.Scene) error

	// RenderFrame renders cfg.SamplesPerPixel samples per pixel using the given frame seed.
	// The returned buffer is owned by the caller and is never a partial frame.
	RenderFrame(ctx context.Context, frameSeed uint32) (*PixelBuffer, error)

	// Close releases the backend's resources
	Close() error
}

// FrameSeed derives the seed of the given frame from a base seed
func FrameSeed(base uint32, frame int) uint32 {
	return base + uint32(frame)*0x9E3779B9
}
