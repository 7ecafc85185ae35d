package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-gpu-raytracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	MaxPasses int    // Number of frames to accumulate
	Seed      uint32 // Base seed; pass n renders with FrameSeed(Seed, n)
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		MaxPasses: 8,
		Seed:      42,
	}
}

// ProgressiveRaytracer refines an image by accumulating frames from any backend. Each pass
// renders one frame with a fresh seed and folds it into the running average.
type ProgressiveRaytracer struct {
	backend       Backend
	width, height int
	samples       int // Samples per pixel of one frame
	config        ProgressiveConfig
	currentPass   int            // Progressive state
	pixelStats    [][]PixelStats // Accumulated linear radiance (global image coordinates)
	logger        core.Logger    // Logger for rendering output
}

// NewProgressiveRaytracer creates a progressive driver for an initialized backend rendering
// frames of the given configuration
func NewProgressiveRaytracer(backend Backend, cfg Config, config ProgressiveConfig, logger core.Logger) *ProgressiveRaytracer {
	if logger == nil {
		logger = core.NopLogger{}
	}

	// Initialize shared pixel statistics array (global image coordinates)
	pixelStats := make([][]PixelStats, cfg.Height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, cfg.Width)
	}

	return &ProgressiveRaytracer{
		backend:     backend,
		width:       cfg.Width,
		height:      cfg.Height,
		samples:     cfg.SamplesPerPixel,
		config:      config,
		currentPass: 0,
		pixelStats:  pixelStats,
		logger:      logger,
	}
}

// RenderPass renders one frame, accumulates it and returns the refined image
func (pr *ProgressiveRaytracer) RenderPass(ctx context.Context, passNumber int) (*PixelBuffer, RenderStats, error) {
	pr.currentPass = passNumber

	frame, err := pr.backend.RenderFrame(ctx, FrameSeed(pr.config.Seed, passNumber))
	if err != nil {
		return nil, RenderStats{}, err
	}
	if frame.Width != pr.width || frame.Height != pr.height {
		return nil, RenderStats{}, fmt.Errorf("%s backend returned a %dx%d frame, expected %dx%d",
			pr.backend.Name(), frame.Width, frame.Height, pr.width, pr.height)
	}

	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			pr.pixelStats[y][x].AddFrame(frame.At(x, y), pr.samples)
		}
	}

	buf, stats := pr.assembleCurrentImage()
	return buf, stats, nil
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Buffer     *PixelBuffer
	Stats      RenderStats
	IsLast     bool
}

// RenderProgressive renders with channel-based communication (idiomatic Go)
// Returns channels for events. The caller should read from these channels in separate goroutines.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		pr.logger.Printf("Starting progressive rendering with %d passes on the %s backend...\n",
			pr.config.MaxPasses, pr.backend.Name())

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			// Check if the caller gave up before starting this pass
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
				return
			default:
			}

			startTime := time.Now()

			buf, stats, err := pr.RenderPass(ctx, pass)
			if err != nil {
				errChan <- err
				return
			}

			stats.Duration = time.Since(startTime)
			pr.logger.Printf("Pass %d completed in %v (total: %d samples/pixel)\n",
				pass, stats.Duration, int(stats.AverageSamples))

			result := PassResult{
				PassNumber: pass,
				Buffer:     buf,
				Stats:      stats,
				IsLast:     pass == pr.config.MaxPasses,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled while publishing pass %d\n", pass)
				errChan <- fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
				return
			}
		}
	}()

	return passChan, errChan
}

// assembleCurrentImage creates an image from the accumulated pixel stats and calculates
// render statistics in a single pass
func (pr *ProgressiveRaytracer) assembleCurrentImage() (*PixelBuffer, RenderStats) {
	buf := NewPixelBuffer(pr.width, pr.height)

	stats := RenderStats{
		TotalPixels: pr.width * pr.height,
		MaxSamples:  pr.samples * pr.config.MaxPasses,
	}

	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			pixel := &pr.pixelStats[y][x]
			buf.Set(x, y, finalColor(pixel.GetColor()))
			stats.TotalSamples += pixel.SampleCount
		}
	}

	stats.finalize()
	return buf, stats
}
