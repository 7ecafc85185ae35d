package renderer

import (
	"fmt"
	"runtime"
	"strings"
)

// BackendKind selects the render backend of a session
type BackendKind int

const (
	BackendCPU BackendKind = iota
	BackendGPU
)

func (b BackendKind) String() string {
	switch b {
	case BackendCPU:
		return "cpu"
	case BackendGPU:
		return "gpu"
	default:
		return fmt.Sprintf("BackendKind(%d)", int(b))
	}
}

// ParseBackend converts a backend name ("cpu" or "gpu") to a BackendKind
func ParseBackend(name string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cpu":
		return BackendCPU, nil
	case "gpu":
		return BackendGPU, nil
	default:
		return BackendCPU, fmt.Errorf("%w: unknown backend %q (want cpu or gpu)", ErrInvalidConfig, name)
	}
}

// Config holds the render parameters. It is read-only while a backend renders; changing it
// requires initializing the backend again.
type Config struct {
	Width           int         // Image width in pixels
	Height          int         // Image height in pixels
	SamplesPerPixel int         // Number of rays per pixel per frame
	MaxBounces      int         // Maximum ray bounce depth
	NumWorkers      int         // CPU workers (0 = use CPU count)
	Backend         BackendKind // Backend selected for the session
	Seed            uint32      // Base random seed; each frame derives its own from it
}

// DefaultConfig returns the default render parameters
func DefaultConfig() Config {
	return Config{
		Width:           640,
		Height:          360,
		SamplesPerPixel: 20,
		MaxBounces:      50,
		NumWorkers:      1,
		Backend:         BackendCPU,
		Seed:            42,
	}
}

// Validate rejects configurations before any resource is allocated
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: image size must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.SamplesPerPixel <= 0:
		return fmt.Errorf("%w: samples per pixel must be positive, got %d", ErrInvalidConfig, c.SamplesPerPixel)
	case c.MaxBounces < 0:
		return fmt.Errorf("%w: max bounces must not be negative, got %d", ErrInvalidConfig, c.MaxBounces)
	case c.NumWorkers < 0:
		return fmt.Errorf("%w: worker count must not be negative, got %d", ErrInvalidConfig, c.NumWorkers)
	case c.Backend != BackendCPU && c.Backend != BackendGPU:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, c.Backend)
	}
	return nil
}

// EffectiveWorkers returns the worker count actually used: at least one, at most one per row
func (c Config) EffectiveWorkers() int {
	workers := c.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return max(1, min(workers, c.Height))
}
