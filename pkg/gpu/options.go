package gpu

import (
	"time"

	"github.com/df07/go-gpu-raytracer/pkg/core"
)

// DefaultFenceTimeout bounds the wait for one frame's submission
const DefaultFenceTimeout = 5 * time.Second

// Option configures a GPURenderer
type Option func(*GPURenderer)

// WithLogger sets the logger used for device and pipeline messages
func WithLogger(logger core.Logger) Option {
	return func(r *GPURenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithShaderSource replaces the embedded kernel, e.g. with DirShaders while iterating on it
func WithShaderSource(source ShaderSource) Option {
	return func(r *GPURenderer) {
		if source != nil {
			r.shaders = source
		}
	}
}

// WithKernel changes the locator the kernel is loaded from
func WithKernel(locator string) Option {
	return func(r *GPURenderer) {
		r.locator = locator
	}
}

// WithEmulation runs the kernel on the Emulator instead of a device. Buffers are encoded
// and the kernel source is loaded exactly as for a device.
func WithEmulation() Option {
	return func(r *GPURenderer) {
		r.emulate = true
	}
}

// WithSPIRV compiles the kernel to SPIR-V with naga before handing it to the device, instead
// of passing WGSL through
func WithSPIRV() Option {
	return func(r *GPURenderer) {
		r.spirv = true
	}
}

// WithFenceTimeout bounds how long a frame waits for the device.
// If d <= 0, DefaultFenceTimeout is used.
func WithFenceTimeout(d time.Duration) Option {
	return func(r *GPURenderer) {
		if d > 0 {
			r.fenceTimeout = d
		}
	}
}
