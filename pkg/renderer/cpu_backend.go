package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// CPUState is the lifecycle of a CPU frame
type CPUState int

const (
	CPUIdle         CPUState = iota // No frame in flight
	CPUDispatched                   // Tiles submitted to the workers
	CPUAccumulating                 // Collecting tile results
	CPUComplete                     // Every tile reported done; the buffer is readable
)

func (s CPUState) String() string {
	switch s {
	case CPUIdle:
		return "idle"
	case CPUDispatched:
		return "dispatched"
	case CPUAccumulating:
		return "accumulating"
	case CPUComplete:
		return "complete"
	default:
		return fmt.Sprintf("CPUState(%d)", int(s))
	}
}

// CPURenderer renders frames with a pool of workers, one horizontal band per worker
type CPURenderer struct {
	mu         sync.Mutex
	cfg        Config
	raytracer  *Raytracer
	tiles      []*Tile
	workerPool *WorkerPool
	state      CPUState
	lastStats  RenderStats
	logger     core.Logger
}

// NewCPURenderer creates a CPU backend; Init must be called before rendering
func NewCPURenderer(logger core.Logger) *CPURenderer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &CPURenderer{logger: logger}
}

// Name returns "cpu"
func (c *CPURenderer) Name() string {
	return BackendCPU.String()
}

// Init builds the tile grid and starts the worker pool. A running pool from a previous Init
// is stopped first.
func (c *CPURenderer) Init(cfg Config, scn *scene.Scene) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if scn == nil {
		return fmt.Errorf("%w: no scene", ErrInvalidConfig)
	}
	if err := scn.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPool()

	c.cfg = cfg
	c.raytracer = NewRaytracer(scn, cfg)
	c.tiles = NewBandGrid(cfg.Width, cfg.Height, cfg.EffectiveWorkers())
	c.workerPool = NewWorkerPool(NewTileRenderer(c.raytracer), len(c.tiles), len(c.tiles))
	c.workerPool.Start()
	c.state = CPUIdle

	c.logger.Printf("CPU backend: %dx%d, %d spp, %d bounces, %d workers\n",
		cfg.Width, cfg.Height, cfg.SamplesPerPixel, cfg.MaxBounces, c.workerPool.GetNumWorkers())
	return nil
}

// RenderFrame renders one frame. The first partition failure cancels the others and is
// returned; no buffer is returned unless every partition completed.
func (c *CPURenderer) RenderFrame(ctx context.Context, frameSeed uint32) (*PixelBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.workerPool == nil {
		return nil, ErrNotInitialized
	}

	startTime := time.Now()
	frameCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := NewPixelBuffer(c.cfg.Width, c.cfg.Height)

	// Submit all tiles as tasks
	c.state = CPUDispatched
	for taskID, tile := range c.tiles {
		c.workerPool.SubmitTask(TileTask{
			Ctx:       frameCtx,
			Tile:      tile,
			FrameSeed: frameSeed,
			TaskID:    taskID,
			Output:    out,
		})
	}

	// Wait for every tile, even after a failure, so no worker still writes into the buffer
	c.state = CPUAccumulating
	stats := RenderStats{MaxSamples: c.cfg.SamplesPerPixel}
	var firstErr error
	for i := 0; i < len(c.tiles); i++ {
		result, ok := c.workerPool.GetResult()
		if !ok {
			c.state = CPUIdle
			return nil, errors.New("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
				cancel()
			}
			continue
		}
		stats.merge(result.Stats)
		stats.Partitions = append(stats.Partitions, result.Stats.Partitions...)
	}

	if firstErr != nil {
		c.state = CPUIdle
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return nil, firstErr
	}

	stats.finalize()
	stats.Duration = time.Since(startTime)
	c.lastStats = stats
	c.state = CPUComplete
	return out, nil
}

// State returns the lifecycle state of the most recent frame
func (c *CPURenderer) State() CPUState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastStats returns the statistics of the last completed frame
func (c *CPURenderer) LastStats() RenderStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStats
}

// Close stops the worker pool
func (c *CPURenderer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPool()
	c.state = CPUIdle
	return nil
}

func (c *CPURenderer) stopPool() {
	if c.workerPool != nil {
		c.workerPool.Stop()
		c.workerPool = nil
	}
}
