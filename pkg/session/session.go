// Package session ties a render configuration and a scene to one backend for its lifetime.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/gpu"
	"github.com/df07/go-gpu-raytracer/pkg/renderer"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// Option configures a Session
type Option func(*options)

type options struct {
	logger      core.Logger
	cpuFallback bool
	gpuOptions  []gpu.Option
}

// WithLogger sets the logger shared by the session and its backend
func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCPUFallback switches to the CPU backend when the GPU backend cannot be initialized
func WithCPUFallback() Option {
	return func(o *options) {
		o.cpuFallback = true
	}
}

// WithGPUOptions passes options to the GPU backend
func WithGPUOptions(opts ...gpu.Option) Option {
	return func(o *options) {
		o.gpuOptions = append(o.gpuOptions, opts...)
	}
}

// Session renders one scene at one configuration. The backend is chosen once by Open and
// never changes afterwards.
type Session struct {
	cfg      renderer.Config
	scene    *scene.Scene
	backend  renderer.Backend
	fellBack bool
	logger   core.Logger
}

// Open validates the configuration, creates the selected backend and initializes it
func Open(cfg renderer.Config, scn *scene.Scene, opts ...Option) (*Session, error) {
	o := options{logger: core.NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scn == nil {
		return nil, fmt.Errorf("%w: no scene", renderer.ErrInvalidConfig)
	}

	s := &Session{cfg: cfg, scene: scn, logger: o.logger}

	var backend renderer.Backend
	switch cfg.Backend {
	case renderer.BackendGPU:
		backend = gpu.NewGPURenderer(append([]gpu.Option{gpu.WithLogger(o.logger)}, o.gpuOptions...)...)
	default:
		backend = renderer.NewCPURenderer(o.logger)
	}

	err := backend.Init(cfg, scn)
	if err != nil && cfg.Backend == renderer.BackendGPU && o.cpuFallback && canFallBack(err) {
		o.logger.Printf("GPU backend unavailable, falling back to CPU: %v\n", err)
		backend.Close()
		backend = renderer.NewCPURenderer(o.logger)
		s.fellBack = true
		err = backend.Init(cfg, scn)
	}
	if err != nil {
		backend.Close()
		return nil, err
	}

	s.backend = backend
	return s, nil
}

// canFallBack reports whether the CPU backend may succeed where the GPU backend failed
func canFallBack(err error) bool {
	return errors.Is(err, gpu.ErrResource) || errors.Is(err, renderer.ErrBackendUnavailable)
}

// Backend returns the name of the backend in use
func (s *Session) Backend() string {
	return s.backend.Name()
}

// FellBack reports whether the session runs on the CPU after the GPU backend failed
func (s *Session) FellBack() bool {
	return s.fellBack
}

// Config returns the session configuration
func (s *Session) Config() renderer.Config {
	return s.cfg
}

// Render renders a single frame with the configured seed
func (s *Session) Render(ctx context.Context) (*renderer.PixelBuffer, error) {
	return s.backend.RenderFrame(ctx, renderer.FrameSeed(s.cfg.Seed, 0))
}

// Progressive accumulates the given number of frames, publishing the refined image after
// each one
func (s *Session) Progressive(ctx context.Context, passes int) (<-chan renderer.PassResult, <-chan error) {
	config := renderer.ProgressiveConfig{MaxPasses: max(passes, 1), Seed: s.cfg.Seed}
	pr := renderer.NewProgressiveRaytracer(s.backend, s.cfg, config, s.logger)
	return pr.RenderProgressive(ctx)
}

// Close releases the backend
func (s *Session) Close() error {
	return s.backend.Close()
}
