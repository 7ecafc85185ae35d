package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/df07/go-gpu-raytracer/pkg/geometry"
	"github.com/df07/go-gpu-raytracer/pkg/renderer"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// LayoutVersion identifies the buffer layout shared with the path tracing kernel. Any change
// to the bindings or to the field order of a block below must bump it, together with the
// kernel source.
//
//	binding 0  uniform            Params   8 × u32
//	binding 1  uniform            Camera   8 × vec4<f32>
//	binding 2  read-only storage  Scene    sky_top, sky_bottom, then 3 × vec4<f32> per sphere
//	binding 3  storage            Output   array<vec4<f32>>, width × height, row-major
const LayoutVersion = 1

// Binding slots of the kernel's single bind group
const (
	BindingParams = 0
	BindingCamera = 1
	BindingScene  = 2
	BindingOutput = 3
)

// Block sizes in bytes
const (
	ParamsSize      = 8 * 4
	CameraSize      = geometry.CameraBlockFloats * 4
	SphereSize      = scene.SphereStride * 4
	SkyHeaderSize   = scene.SkyHeaderFloats * 4
	OutputTexelSize = 4 * 4
)

// WorkgroupSize is the edge of the kernel's square workgroup
const WorkgroupSize = 8

// Params is the per-frame uniform block. Only this block changes between frames.
type Params struct {
	Width           uint32
	Height          uint32
	SamplesPerPixel uint32
	MaxBounces      uint32
	SphereCount     uint32
	Seed            uint32
	LayoutVersion   uint32
	Frame           uint32
}

// NewParams builds the params block of one frame
func NewParams(cfg renderer.Config, sphereCount int, seed uint32, frame uint32) Params {
	return Params{
		Width:           uint32(cfg.Width),
		Height:          uint32(cfg.Height),
		SamplesPerPixel: uint32(cfg.SamplesPerPixel),
		MaxBounces:      uint32(cfg.MaxBounces),
		SphereCount:     uint32(sphereCount),
		Seed:            seed,
		LayoutVersion:   LayoutVersion,
		Frame:           frame,
	}
}

// Encode serializes the block in field order, little-endian
func (p Params) Encode() []byte {
	buf := make([]byte, ParamsSize)
	fields := [...]uint32{p.Width, p.Height, p.SamplesPerPixel, p.MaxBounces, p.SphereCount, p.Seed, p.LayoutVersion, p.Frame}
	for i, v := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// DecodeParams parses a params block
func DecodeParams(data []byte) (Params, error) {
	if len(data) != ParamsSize {
		return Params{}, fmt.Errorf("params block is %d bytes, want %d", len(data), ParamsSize)
	}
	u := func(i int) uint32 { return binary.LittleEndian.Uint32(data[i*4:]) }
	p := Params{
		Width:           u(0),
		Height:          u(1),
		SamplesPerPixel: u(2),
		MaxBounces:      u(3),
		SphereCount:     u(4),
		Seed:            u(5),
		LayoutVersion:   u(6),
		Frame:           u(7),
	}
	if p.LayoutVersion != LayoutVersion {
		return Params{}, fmt.Errorf("params block has layout version %d, want %d", p.LayoutVersion, LayoutVersion)
	}
	return p, nil
}

// EncodeFloats serializes float32 values little-endian
func EncodeFloats(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeFloats parses little-endian float32 values
func DecodeFloats(data []byte) []float32 {
	values := make([]float32, len(data)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return values
}

// EncodeCamera serializes the camera block
func EncodeCamera(camera *geometry.Camera) []byte {
	block := camera.Flatten()
	return EncodeFloats(block[:])
}

// EncodeScene serializes the scene block. It always holds at least one sphere slot.
func EncodeScene(scn *scene.Scene) []byte {
	return EncodeFloats(scn.Flatten())
}

// OutputSize returns the byte size of the output buffer for an image
func OutputSize(width, height int) uint64 {
	return uint64(width) * uint64(height) * OutputTexelSize
}

// DispatchSize returns the workgroup counts covering an image
func DispatchSize(width, height int) (x, y uint32) {
	return uint32((width + WorkgroupSize - 1) / WorkgroupSize), uint32((height + WorkgroupSize - 1) / WorkgroupSize)
}
