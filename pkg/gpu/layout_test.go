package gpu

import (
	"strings"
	"testing"

	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/geometry"
	"github.com/df07/go-gpu-raytracer/pkg/renderer"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

func TestParams_EncodeDecode(t *testing.T) {
	cfg := renderer.Config{Width: 640, Height: 360, SamplesPerPixel: 20, MaxBounces: 50}
	p := NewParams(cfg, 4, 99, 3)

	data := p.Encode()
	if len(data) != ParamsSize {
		t.Fatalf("Expected %d bytes, got %d", ParamsSize, len(data))
	}
	// width is the first little-endian word
	if data[0] != 0x80 || data[1] != 0x02 {
		t.Errorf("Width encoded as %x %x, want 80 02", data[0], data[1])
	}

	got, err := DecodeParams(data)
	if err != nil {
		t.Fatalf("DecodeParams failed: %v", err)
	}
	if got != p {
		t.Errorf("Decoded %+v, want %+v", got, p)
	}
	if got.LayoutVersion != LayoutVersion {
		t.Errorf("Layout version %d, want %d", got.LayoutVersion, LayoutVersion)
	}
}

func TestDecodeParams_Rejects(t *testing.T) {
	stale := NewParams(renderer.Config{Width: 1, Height: 1}, 0, 0, 0)
	stale.LayoutVersion = LayoutVersion + 1

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"short", make([]byte, ParamsSize-4), "bytes"},
		{"long", make([]byte, ParamsSize+4), "bytes"},
		{"version", stale.Encode(), "layout version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeParams(tt.data)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestEncodeCamera(t *testing.T) {
	camera := geometry.NewCamera(geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 2,
		VFov:        90,
		Aperture:    0.5,
	})
	data := EncodeCamera(camera)
	if len(data) != CameraSize {
		t.Fatalf("Expected %d bytes, got %d", CameraSize, len(data))
	}
	floats := DecodeFloats(data)
	block := camera.Flatten()
	for i := range block {
		if floats[i] != block[i] {
			t.Errorf("Float %d: got %f, want %f", i, floats[i], block[i])
		}
	}
}

func TestEncodeScene(t *testing.T) {
	tests := []struct {
		name    string
		scene   *scene.Scene
		spheres int
	}{
		{"default", scene.NewDefaultScene(), 5},
		{"single", scene.NewSingleSphereScene(), 1},
		{"empty keeps one slot", scene.NewScene("empty", geometry.CameraConfig{VFov: 40, AspectRatio: 1}), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeScene(tt.scene)
			want := SkyHeaderSize + tt.spheres*SphereSize
			if len(data) != want {
				t.Errorf("Expected %d bytes, got %d", want, len(data))
			}
		})
	}
}

func TestEncodeScene_SphereFields(t *testing.T) {
	scn := scene.NewDefaultScene()
	floats := DecodeFloats(EncodeScene(scn))

	for i, sphere := range scn.Spheres {
		entry := floats[scene.SkyHeaderFloats+i*scene.SphereStride:]
		if entry[3] != float32(sphere.Radius) {
			t.Errorf("Sphere %d radius %f, want %f", i, entry[3], sphere.Radius)
		}
		if entry[7] != float32(sphere.Material.Kind) {
			t.Errorf("Sphere %d kind %f, want %d", i, entry[7], sphere.Material.Kind)
		}
	}
}

func TestDispatchSize(t *testing.T) {
	tests := []struct {
		width, height int
		x, y          uint32
	}{
		{1, 1, 1, 1},
		{8, 8, 1, 1},
		{9, 8, 2, 1},
		{640, 360, 80, 45},
		{641, 361, 81, 46},
	}
	for _, tt := range tests {
		x, y := DispatchSize(tt.width, tt.height)
		if x != tt.x || y != tt.y {
			t.Errorf("DispatchSize(%d, %d) = (%d, %d), want (%d, %d)", tt.width, tt.height, x, y, tt.x, tt.y)
		}
	}
}

func TestOutputSize(t *testing.T) {
	if got := OutputSize(4, 4); got != 256 {
		t.Errorf("OutputSize(4, 4) = %d, want 256", got)
	}
	if got := OutputSize(640, 360); got != 640*360*16 {
		t.Errorf("OutputSize(640, 360) = %d, want %d", got, 640*360*16)
	}
}
