//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// InstanceFactory creates HAL instances. Every hal.Backend satisfies it, as does the noop
// API used in tests.
type InstanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// hardware is the device the backend dispatches on
type hardware struct {
	api      InstanceFactory
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
	external bool // true when using a host device (don't destroy on Close)
}

// WithAPI opens devices from the given factory instead of the registered Vulkan backend
func WithAPI(api InstanceFactory) Option {
	return func(r *GPURenderer) {
		r.hw.api = api
	}
}

// SetDeviceProvider switches the backend to a device shared by the host application. The
// provider must also implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. Resources built on a previous device are destroyed; call Init afterwards.
func (r *GPURenderer) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return resourceErr("device", errors.New("provider does not expose HAL types"))
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return resourceErr("device", errors.New("provider HalDevice is not hal.Device"))
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return resourceErr("device", errors.New("provider HalQueue is not hal.Queue"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroyResources()
	r.closeDevice()

	r.hw.device = device
	r.hw.queue = queue
	r.hw.adapter = "host device"
	r.hw.external = true
	r.state = StateUninitialized
	r.logger.Printf("GPU backend: switched to shared GPU device\n")
	return nil
}

// openDevice opens a device unless one is already open
func (r *GPURenderer) openDevice() error {
	if r.hw.device != nil {
		return nil
	}

	api := r.hw.api
	if api == nil {
		backend, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return resourceErr("device", errors.New("vulkan backend not available"))
		}
		api = backend
	}

	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return resourceErr("device", fmt.Errorf("create instance: %w", err))
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return resourceErr("device", errors.New("no GPU adapters found"))
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return resourceErr("device", fmt.Errorf("open device: %w", err))
	}

	r.hw.instance = instance
	r.hw.device = openDev.Device
	r.hw.queue = openDev.Queue
	r.hw.adapter = selected.Info.Name
	r.logger.Printf("GPU backend: opened adapter %q\n", selected.Info.Name)
	return nil
}

func (r *GPURenderer) closeDevice() {
	if !r.hw.external {
		if r.hw.device != nil {
			r.hw.device.Destroy()
		}
		if r.hw.instance != nil {
			r.hw.instance.Destroy()
		}
	}
	r.hw.device = nil
	r.hw.queue = nil
	r.hw.instance = nil
	r.hw.adapter = ""
	r.hw.external = false
}

// AdapterName returns the name of the open adapter, or "" without a device
func (r *GPURenderer) AdapterName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hw.adapter
}
