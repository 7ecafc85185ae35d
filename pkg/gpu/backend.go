package gpu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/renderer"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// PipelineState is the lifecycle of the GPU backend
type PipelineState int

const (
	StateUninitialized PipelineState = iota // No buffers or pipeline
	StateInitialized                        // Resources allocated, ready for a frame
	StateDispatch                           // Frame submitted
	StateReadback                           // Copying the output buffer back
)

func (s PipelineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateDispatch:
		return "dispatch"
	case StateReadback:
		return "readback"
	default:
		return fmt.Sprintf("PipelineState(%d)", int(s))
	}
}

// GPURenderer renders each frame with a single compute dispatch. Buffers, bind group and
// pipeline are built by Init and live until the next Init or Close; a frame only rewrites the
// params block.
type GPURenderer struct {
	mu sync.Mutex

	logger       core.Logger
	shaders      ShaderSource
	locator      string
	emulate      bool
	spirv        bool
	fenceTimeout time.Duration

	hw  hardware
	res *resources

	cfg         renderer.Config
	sphereCount int
	cameraBlock []byte
	sceneBlock  []byte
	frame       uint32
	state       PipelineState
}

var _ renderer.Backend = (*GPURenderer)(nil)

// NewGPURenderer creates a GPU backend. No device is opened until Init.
func NewGPURenderer(opts ...Option) *GPURenderer {
	r := &GPURenderer{
		logger:       core.NopLogger{},
		shaders:      EmbeddedShaders{},
		locator:      KernelLocator,
		fenceTimeout: DefaultFenceTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns "gpu"
func (r *GPURenderer) Name() string {
	return renderer.BackendGPU.String()
}

// State returns the current pipeline state
func (r *GPURenderer) State() PipelineState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Emulated reports whether frames run on the Emulator
func (r *GPURenderer) Emulated() bool {
	return r.emulate
}

// Init loads the kernel, encodes the camera and scene, and rebuilds every device resource.
// Resources of a previous Init are destroyed first, so a new image size never reuses an
// output buffer of the old one.
func (r *GPURenderer) Init(cfg renderer.Config, scn *scene.Scene) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if scn == nil {
		return fmt.Errorf("%w: no scene", renderer.ErrInvalidConfig)
	}
	if err := scn.Validate(); err != nil {
		return fmt.Errorf("%w: %v", renderer.ErrInvalidConfig, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroyResources()
	r.state = StateUninitialized
	r.cfg = renderer.Config{}
	r.sphereCount = 0
	r.cameraBlock = nil
	r.sceneBlock = nil

	kernel, err := r.shaders.Load(r.locator)
	if err != nil {
		return resourceErr("shader", err)
	}

	r.cfg = cfg
	r.sphereCount = len(scn.Spheres)
	r.cameraBlock = EncodeCamera(scn.CameraFor(cfg.Width, cfg.Height))
	r.sceneBlock = EncodeScene(scn)
	r.frame = 0

	if r.emulate {
		r.logger.Printf("GPU backend: emulating kernel, %dx%d, %d spp, %d bounces, %d spheres\n",
			cfg.Width, cfg.Height, cfg.SamplesPerPixel, cfg.MaxBounces, r.sphereCount)
		r.state = StateInitialized
		return nil
	}

	if err := r.openDevice(); err != nil {
		return err
	}
	if err := r.createResources(kernel); err != nil {
		r.destroyResources()
		return err
	}

	gx, gy := DispatchSize(cfg.Width, cfg.Height)
	r.logger.Printf("GPU backend: %dx%d, %d spp, %d bounces, %d spheres, %dx%d workgroups\n",
		cfg.Width, cfg.Height, cfg.SamplesPerPixel, cfg.MaxBounces, r.sphereCount, gx, gy)
	r.state = StateInitialized
	return nil
}

// RenderFrame writes the params block for this frame, dispatches the kernel and reads the
// output buffer back
func (r *GPURenderer) RenderFrame(ctx context.Context, frameSeed uint32) (*renderer.PixelBuffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateUninitialized {
		return nil, renderer.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", renderer.ErrCancelled, err)
	}

	params := NewParams(r.cfg, r.sphereCount, frameSeed, r.frame).Encode()
	r.frame++

	r.state = StateDispatch
	defer func() { r.state = StateInitialized }()

	var texels []float32
	var err error
	if r.emulate {
		texels, err = r.emulateFrame(ctx, params)
	} else {
		texels, err = r.dispatch(params)
	}
	if err != nil {
		return nil, err
	}

	if want := r.cfg.Width * r.cfg.Height * 4; len(texels) != want {
		return nil, resourceErr("readback", fmt.Errorf("got %d values, want %d", len(texels), want))
	}
	return &renderer.PixelBuffer{Width: r.cfg.Width, Height: r.cfg.Height, Pix: texels}, nil
}

func (r *GPURenderer) emulateFrame(ctx context.Context, params []byte) ([]float32, error) {
	em, err := NewEmulator(params, r.cameraBlock, r.sceneBlock)
	if err != nil {
		return nil, resourceErr("emulator", err)
	}
	r.state = StateReadback
	texels, err := em.Dispatch(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", renderer.ErrCancelled, err)
		}
		return nil, resourceErr("emulator", err)
	}
	return texels, nil
}

// Close destroys every resource and releases the device unless it belongs to a host
func (r *GPURenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyResources()
	r.closeDevice()
	r.state = StateUninitialized
	return nil
}
