//go:build nogpu

package gpu

import (
	"fmt"

	"github.com/df07/go-gpu-raytracer/pkg/renderer"
	"github.com/gogpu/gpucontext"
)

// Built without device support: only WithEmulation renders.

type hardware struct{}

type resources struct{}

// SetDeviceProvider is unavailable without device support
func (r *GPURenderer) SetDeviceProvider(gpucontext.DeviceProvider) error {
	return fmt.Errorf("%w: built with nogpu", renderer.ErrBackendUnavailable)
}

func (r *GPURenderer) openDevice() error {
	return fmt.Errorf("%w: built with nogpu", renderer.ErrBackendUnavailable)
}

func (r *GPURenderer) createResources(string) error {
	return nil
}

func (r *GPURenderer) destroyResources() {}

func (r *GPURenderer) closeDevice() {}

func (r *GPURenderer) dispatch([]byte) ([]float32, error) {
	return nil, fmt.Errorf("%w: built with nogpu", renderer.ErrBackendUnavailable)
}

// AdapterName always returns "" without device support
func (r *GPURenderer) AdapterName() string {
	return ""
}
