//go:build !nogpu

package gpu

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// resources is everything Init allocates on the device. It is destroyed as a whole.
type resources struct {
	params  hal.Buffer
	camera  hal.Buffer
	scene   hal.Buffer
	output  hal.Buffer
	staging hal.Buffer

	sceneSize  uint64
	outputSize uint64

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
	bindGroup  hal.BindGroup
}

// createResources allocates the buffers, uploads the camera and scene blocks, and builds the
// pipeline for the kernel source. On error the caller destroys whatever was created.
func (r *GPURenderer) createResources(kernel string) error {
	device, queue := r.hw.device, r.hw.queue
	res := &resources{
		sceneSize:  uint64(len(r.sceneBlock)),
		outputSize: OutputSize(r.cfg.Width, r.cfg.Height),
	}
	r.res = res

	buffers := []struct {
		dst   *hal.Buffer
		label string
		size  uint64
		usage gputypes.BufferUsage
	}{
		{&res.params, "pathtrace_params", ParamsSize, gputypes.BufferUsageUniform | gputypes.BufferUsageMapWrite},
		{&res.camera, "pathtrace_camera", CameraSize, gputypes.BufferUsageUniform | gputypes.BufferUsageMapWrite},
		{&res.scene, "pathtrace_scene", res.sceneSize, gputypes.BufferUsageStorage | gputypes.BufferUsageMapWrite},
		{&res.output, "pathtrace_output", res.outputSize, gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc},
		{&res.staging, "pathtrace_staging", res.outputSize, gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst},
	}
	for _, b := range buffers {
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{Label: b.label, Size: b.size, Usage: b.usage})
		if err != nil {
			return resourceErr("buffer", fmt.Errorf("create %s: %w", b.label, err))
		}
		*b.dst = buf
	}

	// HAL-level writes need MapWrite buffers; CopyDst alone stays device local
	if err := queue.WriteBuffer(res.camera, 0, r.cameraBlock); err != nil {
		return resourceErr("upload", fmt.Errorf("write camera: %w", err))
	}
	if err := queue.WriteBuffer(res.scene, 0, r.sceneBlock); err != nil {
		return resourceErr("upload", fmt.Errorf("write scene: %w", err))
	}

	source := hal.ShaderSource{WGSL: kernel}
	if r.spirv {
		words, err := CompileSPIRV(kernel)
		if err != nil {
			return resourceErr("shader", err)
		}
		source = hal.ShaderSource{SPIRV: words}
	}
	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{Label: "pathtrace", Source: source})
	if err != nil {
		return resourceErr("shader", fmt.Errorf("compile pathtrace shader: %w", err))
	}
	res.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "pathtrace_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: BindingParams, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: BindingCamera, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: BindingScene, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: BindingOutput, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return resourceErr("bind group layout", err)
	}
	res.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "pathtrace_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{res.bindLayout},
	})
	if err != nil {
		return resourceErr("pipeline layout", err)
	}
	res.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "pathtrace_pipeline", Layout: res.pipeLayout,
		Compute: hal.ComputeState{Module: res.shader, EntryPoint: "main"},
	})
	if err != nil {
		return resourceErr("pipeline", err)
	}
	res.pipeline = pipeline

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "pathtrace_bind", Layout: res.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: BindingParams, Resource: gputypes.BufferBinding{Buffer: res.params.NativeHandle(), Offset: 0, Size: ParamsSize}},
			{Binding: BindingCamera, Resource: gputypes.BufferBinding{Buffer: res.camera.NativeHandle(), Offset: 0, Size: CameraSize}},
			{Binding: BindingScene, Resource: gputypes.BufferBinding{Buffer: res.scene.NativeHandle(), Offset: 0, Size: res.sceneSize}},
			{Binding: BindingOutput, Resource: gputypes.BufferBinding{Buffer: res.output.NativeHandle(), Offset: 0, Size: res.outputSize}},
		},
	})
	if err != nil {
		return resourceErr("bind group", err)
	}
	res.bindGroup = bindGroup

	return nil
}

// destroyResources releases everything createResources made, in reverse order
func (r *GPURenderer) destroyResources() {
	res := r.res
	r.res = nil
	if res == nil || r.hw.device == nil {
		return
	}
	device := r.hw.device
	if res.bindGroup != nil {
		device.DestroyBindGroup(res.bindGroup)
	}
	if res.pipeline != nil {
		device.DestroyComputePipeline(res.pipeline)
	}
	if res.pipeLayout != nil {
		device.DestroyPipelineLayout(res.pipeLayout)
	}
	if res.bindLayout != nil {
		device.DestroyBindGroupLayout(res.bindLayout)
	}
	if res.shader != nil {
		device.DestroyShaderModule(res.shader)
	}
	for _, buf := range []hal.Buffer{res.staging, res.output, res.scene, res.camera, res.params} {
		if buf != nil {
			device.DestroyBuffer(buf)
		}
	}
}

// dispatch runs one frame: params upload, one compute pass, copy to staging, wait for the
// submission, map the staging buffer back
func (r *GPURenderer) dispatch(params []byte) ([]float32, error) {
	res := r.res
	if res == nil {
		return nil, resourceErr("dispatch", fmt.Errorf("no resources"))
	}
	device, queue := r.hw.device, r.hw.queue

	if err := queue.WriteBuffer(res.params, 0, params); err != nil {
		return nil, resourceErr("upload", fmt.Errorf("write params: %w", err))
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "pathtrace_encoder"})
	if err != nil {
		return nil, resourceErr("dispatch", fmt.Errorf("create command encoder: %w", err))
	}
	if err := encoder.BeginEncoding("pathtrace"); err != nil {
		return nil, resourceErr("dispatch", fmt.Errorf("begin encoding: %w", err))
	}

	groupsX, groupsY := DispatchSize(r.cfg.Width, r.cfg.Height)
	computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "pathtrace_pass"})
	computePass.SetPipeline(res.pipeline)
	computePass.SetBindGroup(0, res.bindGroup, nil)
	computePass.Dispatch(groupsX, groupsY, 1)
	computePass.End()

	encoder.CopyBufferToBuffer(res.output, res.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: res.outputSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, resourceErr("dispatch", fmt.Errorf("end encoding: %w", err))
	}
	defer device.FreeCommandBuffer(cmdBuf)

	submission, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return nil, resourceErr("dispatch", fmt.Errorf("submit: %w", err))
	}
	if err := waitForSubmission(queue, submission, r.fenceTimeout); err != nil {
		return nil, resourceErr("dispatch", err)
	}

	r.state = StateReadback
	mapping, err := device.MapBuffer(res.staging, 0, res.outputSize)
	if err != nil {
		return nil, resourceErr("readback", fmt.Errorf("map staging buffer: %w", err))
	}
	readback := make([]byte, res.outputSize)
	copy(readback, unsafe.Slice((*byte)(mapping.Ptr), res.outputSize))
	if err := device.UnmapBuffer(res.staging); err != nil {
		return nil, resourceErr("readback", fmt.Errorf("unmap staging buffer: %w", err))
	}
	return DecodeFloats(readback), nil
}

// waitForSubmission polls the queue until the submission has completed or the timeout passes
func waitForSubmission(queue hal.Queue, submission uint64, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for queue.PollCompleted() < submission {
		if time.Now().After(deadline) {
			return fmt.Errorf("wait for GPU: submission %d not complete after %v", submission, timeout)
		}
		time.Sleep(50 * time.Microsecond)
	}
	return nil
}
