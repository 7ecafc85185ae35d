package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-gpu-raytracer/pkg/core"
)

func TestRaytracer_RayColor_ZeroDepthIsBlack(t *testing.T) {
	rt := NewRaytracer(singleSphereScene(), testConfig(4, 4, 1, 0, 1))
	sampler := core.NewPCGSampler(1)

	for _, dir := range []core.Vec3{{X: 0, Y: 0, Z: -1}, {X: 0, Y: 1, Z: 0}} {
		c := rt.RayColor(core.NewRay(core.Vec3{}, dir), 0, sampler)
		if !c.Equals(core.Vec3{}) {
			t.Errorf("Depth 0 should gather no light, got %v for direction %v", c, dir)
		}
	}
}

func TestRaytracer_RayColor_MissReturnsSky(t *testing.T) {
	scn := singleSphereScene()
	rt := NewRaytracer(scn, testConfig(4, 4, 1, 5, 1))

	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0))
	c := rt.RayColor(ray, 5, core.NewPCGSampler(1))
	if !c.Equals(scn.SkyTop) {
		t.Errorf("Expected sky top %v, got %v", scn.SkyTop, c)
	}
}

func TestRaytracer_RayColor_OneBounceAttenuatesSky(t *testing.T) {
	// A diffuse hit scatters once and then sees the sky: color is albedo times a sky color
	scn := singleSphereScene()
	rt := NewRaytracer(scn, testConfig(4, 4, 1, 2, 1))
	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1))

	for seed := uint32(0); seed < 50; seed++ {
		c := rt.RayColor(ray, 2, core.NewPCGSampler(seed))
		for _, v := range []float64{c.X, c.Y, c.Z} {
			if v < 0 || v > 0.5+1e-12 {
				t.Fatalf("Seed %d: component %f outside [0, albedo]", seed, v)
			}
		}
	}
}

func TestRaytracer_SamplePixel_Deterministic(t *testing.T) {
	rt := NewRaytracer(singleSphereScene(), testConfig(8, 8, 4, 5, 1))

	a := rt.SamplePixel(3, 4, 99)
	b := rt.SamplePixel(3, 4, 99)
	if !a.Equals(b) {
		t.Errorf("Same pixel and seed should give the same color: %v vs %v", a, b)
	}

	c := rt.SamplePixel(3, 4, 100)
	if a.Equals(c) {
		t.Error("Different frame seeds should decorrelate the samples")
	}
}

func TestFinalColor(t *testing.T) {
	tests := []struct {
		input, expected core.Vec3
	}{
		{core.NewVec3(0.25, 1, 0), core.NewVec3(0.5, 1, 0)},
		{core.NewVec3(4, -1, 0.81), core.NewVec3(1, 0, 0.9)},
	}
	for _, tt := range tests {
		got := finalColor(tt.input)
		if got.Subtract(tt.expected).Length() > 1e-12 {
			t.Errorf("finalColor(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
	if math.IsNaN(finalColor(core.NewVec3(-1, -1, -1)).X) {
		t.Error("Negative input must clamp before the square root")
	}
}
