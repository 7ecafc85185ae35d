package material

import (
	"math/rand"
	"testing"

	"github.com/df07/go-gpu-raytracer/pkg/core"
)

func TestNewMetal_FuzzClamp(t *testing.T) {
	tests := []struct {
		name         string
		inputFuzz    float64
		expectedFuzz float64
	}{
		{"Valid fuzz 0.0", 0.0, 0.0},
		{"Valid fuzz 0.5", 0.5, 0.5},
		{"Valid fuzz 1.0", 1.0, 1.0},
		{"Clamp above 1.0", 1.5, 1.0},
		{"Clamp below 0.0", -0.5, 0.0},
		{"Clamp large positive", 10.0, 1.0},
		{"Clamp large negative", -10.0, 0.0},
	}

	albedo := core.NewVec3(0.8, 0.8, 0.8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metal := NewMetal(albedo, tt.inputFuzz)
			if metal.Fuzz != tt.expectedFuzz {
				t.Errorf("Expected fuzz %f, got %f", tt.expectedFuzz, metal.Fuzz)
			}
			if metal.Kind != KindMetal {
				t.Errorf("Expected kind metal, got %v", metal.Kind)
			}
		})
	}
}

func TestMetal_PerfectReflection(t *testing.T) {
	albedo := core.NewVec3(0.9, 0.9, 0.9)
	metal := NewMetal(albedo, 0.0)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	// Ray hitting surface at 45 degrees
	rayIn := core.NewRay(core.NewVec3(0, 1, 1), core.NewVec3(0, -1, -1).Normalize())
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 0, 1),
		FrontFace: true,
		Material:  metal,
	}

	scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
	if !didScatter {
		t.Fatal("Metal should scatter")
	}

	// incident (0, -1, -1) normalized reflects to (0, -0.707, 0.707)
	expected := core.NewVec3(0, -1, 1).Normalize()
	actual := scatter.Scattered.Direction.Normalize()

	tolerance := 1e-10
	if actual.Subtract(expected).Length() > tolerance {
		t.Errorf("Perfect reflection failed: expected %v, got %v", expected, actual)
	}

	if !scatter.Attenuation.Equals(albedo) {
		t.Errorf("Attenuation should equal albedo: expected %v, got %v", albedo, scatter.Attenuation)
	}

	if !scatter.Scattered.Origin.Equals(hit.Point) {
		t.Errorf("Scattered ray should start at the hit point, got %v", scatter.Scattered.Origin)
	}
}

func TestMetal_FuzzyReflection(t *testing.T) {
	albedo := core.NewVec3(0.8, 0.8, 0.8)
	metal := NewMetal(albedo, 0.5)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	rayIn := core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1))
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 0, 1),
	}

	directions := make([]core.Vec3, 10)
	for i := 0; i < 10; i++ {
		scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
		if !didScatter {
			t.Fatalf("Metal should scatter on iteration %d", i)
		}
		directions[i] = scatter.Scattered.Direction.Normalize()
	}

	allSame := true
	for i := 1; i < len(directions); i++ {
		if directions[i].Subtract(directions[0]).Length() > 1e-10 {
			allSame = false
			break
		}
	}
	if allSame {
		t.Error("Fuzzy metal should produce varying reflection directions")
	}
}

func TestMetal_AbsorbsBelowSurface(t *testing.T) {
	normal := core.NewVec3(0, 0, 1)
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: normal,
	}

	// Grazing ray: with fuzz the perturbed reflection regularly dips below the surface
	rayIn := core.NewRay(core.NewVec3(-1, 0, 0.01), core.NewVec3(1, 0, -0.01).Normalize())

	for _, fuzz := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
		metal := NewMetal(core.NewVec3(0.8, 0.8, 0.8), fuzz)
		sampler := core.NewRandomSampler(rand.New(rand.NewSource(123)))

		absorbed := 0
		for i := 0; i < 1000; i++ {
			scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
			below := scatter.Scattered.Direction.Dot(normal) <= 0
			if below == didScatter {
				t.Fatalf("fuzz %.2f: scatter=%t but dot(scattered, normal)=%f",
					fuzz, didScatter, scatter.Scattered.Direction.Dot(normal))
			}
			if !didScatter {
				absorbed++
			}
		}

		if fuzz == 1.0 && absorbed == 0 {
			t.Error("Expected some rays to be absorbed with high fuzz at grazing angle")
		}
		if fuzz == 0 && absorbed != 0 {
			t.Errorf("Perfect mirror should never absorb an incoming ray, absorbed %d", absorbed)
		}
	}
}

func TestMetal_ConsumesSphereSampleWithoutFuzz(t *testing.T) {
	// The kernel always draws the perturbation, so the CPU path must too
	metal := NewMetal(core.NewVec3(1, 1, 1), 0)
	hit := HitRecord{Normal: core.NewVec3(0, 1, 0)}
	rayIn := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))

	used := core.NewPCGSampler(5)
	metal.Scatter(rayIn, hit, used)

	reference := core.NewPCGSampler(5)
	core.RandomInUnitSphere(reference)

	if used.NextUint32() != reference.NextUint32() {
		t.Error("Metal scatter should consume exactly one unit-sphere sample")
	}
}
