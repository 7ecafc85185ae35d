package core

import (
	"math"
	"math/rand"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// PCGSampler is a 32-bit PCG stream. The compute kernel runs the same generator, so a
// pixel seeded with PixelSeed draws the same numbers on both backends.
type PCGSampler struct {
	state uint32
}

// NewPCGSampler creates a sampler starting from the given state
func NewPCGSampler(state uint32) *PCGSampler {
	return &PCGSampler{state: state}
}

// PCGHash is the PCG-RXS-M-XS output permutation applied to a single word
func PCGHash(input uint32) uint32 {
	state := input*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// PixelSeed derives the initial stream state of one pixel from the frame seed
func PixelSeed(frameSeed uint32, pixelIndex int) uint32 {
	return PCGHash(uint32(pixelIndex) + PCGHash(frameSeed))
}

// NextUint32 advances the stream and returns the next word
func (p *PCGSampler) NextUint32() uint32 {
	p.state = p.state*747796405 + 2891336453
	word := ((p.state >> ((p.state >> 28) + 4)) ^ p.state) * 277803737
	return (word >> 22) ^ word
}

// Get1D returns a float in [0, 1) built from the top 24 bits, exact in float32 too
func (p *PCGSampler) Get1D() float64 {
	return float64(p.NextUint32()>>8) / 16777216.0
}

// Get2D returns two values in [0, 1), X drawn first
func (p *PCGSampler) Get2D() Vec2 {
	x := p.Get1D()
	y := p.Get1D()
	return NewVec2(x, y)
}

// Get3D returns three values in [0, 1), drawn in X, Y, Z order
func (p *PCGSampler) Get3D() Vec3 {
	x := p.Get1D()
	y := p.Get1D()
	z := p.Get1D()
	return NewVec3(x, y, z)
}

// RandomInUnitSphere returns a point strictly inside the unit sphere by rejection sampling
// the [-1,1]³ cube. Each attempt consumes one Get3D.
func RandomInUnitSphere(sampler Sampler) Vec3 {
	for {
		s := sampler.Get3D()
		p := NewVec3(2*s.X-1, 2*s.Y-1, 2*s.Z-1)
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}

// RandomUnitVector returns a direction uniformly distributed on the unit sphere
func RandomUnitVector(sampler Sampler) Vec3 {
	for {
		p := RandomInUnitSphere(sampler)
		// the origin itself would normalize to zero
		if p.LengthSquared() > 0 {
			return p.Normalize()
		}
	}
}

// SamplePointInUnitDisk generates a random point in a unit disk using concentric mapping
// This avoids rejection sampling by mapping a square uniformly to a disk
func SamplePointInUnitDisk(sample Vec2) Vec3 {
	// Map sample to [-1,1]² and handle degeneracy at the origin
	uOffset := NewVec2(2*sample.X-1, 2*sample.Y-1)
	if uOffset.X == 0 && uOffset.Y == 0 {
		return NewVec3(0, 0, 0)
	}

	// Apply concentric mapping to point
	var theta, r float64
	if math.Abs(uOffset.X) > math.Abs(uOffset.Y) {
		r = uOffset.X
		theta = math.Pi / 4 * (uOffset.Y / uOffset.X)
	} else {
		r = uOffset.Y
		theta = math.Pi/2 - math.Pi/4*(uOffset.X/uOffset.Y)
	}

	return NewVec3(r*math.Cos(theta), r*math.Sin(theta), 0)
}
