package gpu

import (
	"context"
	"fmt"
	"sync"

	"github.com/chewxy/math32"
	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/material"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// Emulator runs the path tracing kernel on the CPU. It reads the same encoded buffers a
// device would receive and evaluates every invocation in float32, so it stands in for the
// device in tests and on machines without a usable adapter.
type Emulator struct {
	params    Params
	camera    emuCamera
	skyTop    vec3
	skyBottom vec3
	spheres   []emuSphere
}

type vec3 struct {
	x, y, z float32
}

func (a vec3) add(b vec3) vec3    { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3) sub(b vec3) vec3    { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) mul(s float32) vec3 { return vec3{a.x * s, a.y * s, a.z * s} }
func (a vec3) mulVec(b vec3) vec3 { return vec3{a.x * b.x, a.y * b.y, a.z * b.z} }
func (a vec3) dot(b vec3) float32 { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) length() float32    { return math32.Sqrt(a.dot(a)) }
func (a vec3) negate() vec3       { return vec3{-a.x, -a.y, -a.z} }
func (a vec3) div(s float32) vec3 { return vec3{a.x / s, a.y / s, a.z / s} }
func (a vec3) clamp01() vec3      { return vec3{clamp01(a.x), clamp01(a.y), clamp01(a.z)} }
func (a vec3) sqrt() vec3         { return vec3{math32.Sqrt(a.x), math32.Sqrt(a.y), math32.Sqrt(a.z)} }
func (a vec3) nearZero() bool     { return abs32(a.x) < 1e-8 && abs32(a.y) < 1e-8 && abs32(a.z) < 1e-8 }
func (a vec3) normalizeSafe() vec3 {
	l := a.length()
	if l == 0 {
		return vec3{}
	}
	return a.div(l)
}

func abs32(v float32) float32 { return math32.Abs(v) }

func clamp01(v float32) float32 {
	return math32.Min(math32.Max(v, 0), 1)
}

type emuCamera struct {
	origin, u, v, w                 vec3
	lowerLeft, horizontal, vertical vec3
	lensRadius                      float32
}

type emuSphere struct {
	center vec3
	radius float32
	albedo vec3
	kind   material.Kind
	fuzz   float32
	ior    float32
}

// NewEmulator decodes the params, camera and scene blocks
func NewEmulator(params, camera, sceneBlock []byte) (*Emulator, error) {
	p, err := DecodeParams(params)
	if err != nil {
		return nil, err
	}
	if len(camera) != CameraSize {
		return nil, fmt.Errorf("camera block is %d bytes, want %d", len(camera), CameraSize)
	}
	if len(sceneBlock) < SkyHeaderSize+SphereSize || (len(sceneBlock)-SkyHeaderSize)%SphereSize != 0 {
		return nil, fmt.Errorf("scene block is %d bytes, not a sky header plus whole sphere slots", len(sceneBlock))
	}
	slots := (len(sceneBlock) - SkyHeaderSize) / SphereSize
	if int(p.SphereCount) > slots {
		return nil, fmt.Errorf("params name %d spheres but the scene block holds %d", p.SphereCount, slots)
	}

	cam := DecodeFloats(camera)
	at := func(block []float32, i int) vec3 { return vec3{block[i], block[i+1], block[i+2]} }

	e := &Emulator{
		params: p,
		camera: emuCamera{
			origin:     at(cam, 0),
			u:          at(cam, 4),
			v:          at(cam, 8),
			w:          at(cam, 12),
			lowerLeft:  at(cam, 16),
			horizontal: at(cam, 20),
			vertical:   at(cam, 24),
			lensRadius: cam[28],
		},
	}

	block := DecodeFloats(sceneBlock)
	e.skyTop = at(block, 0)
	e.skyBottom = at(block, 4)
	e.spheres = make([]emuSphere, p.SphereCount)
	for i := range e.spheres {
		entry := block[scene.SkyHeaderFloats+i*scene.SphereStride:]
		e.spheres[i] = emuSphere{
			center: at(entry, 0),
			radius: entry[3],
			albedo: at(entry, 4),
			kind:   material.Kind(uint32(entry[7])),
			fuzz:   entry[8],
			ior:    entry[9],
		}
	}
	return e, nil
}

// Params returns the decoded params block
func (e *Emulator) Params() Params {
	return e.params
}

// Dispatch evaluates every invocation of a ⌈W/8⌉×⌈H/8⌉ dispatch and returns the output
// buffer as RGBA float32 texels. Rows of workgroups run concurrently.
func (e *Emulator) Dispatch(ctx context.Context) ([]float32, error) {
	width, height := int(e.params.Width), int(e.params.Height)
	output := make([]float32, width*height*4)
	groupsX, groupsY := DispatchSize(width, height)

	var wg sync.WaitGroup
	for gy := uint32(0); gy < groupsY; gy++ {
		wg.Add(1)
		go func(gy uint32) {
			defer wg.Done()
			for gx := uint32(0); gx < groupsX; gx++ {
				if ctx.Err() != nil {
					return
				}
				for ly := uint32(0); ly < WorkgroupSize; ly++ {
					for lx := uint32(0); lx < WorkgroupSize; lx++ {
						e.invoke(gx*WorkgroupSize+lx, gy*WorkgroupSize+ly, output)
					}
				}
			}
		}(gy)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return output, nil
}

// invoke is one kernel invocation at global id (x, y)
func (e *Emulator) invoke(x, y uint32, output []float32) {
	p := e.params
	if x >= p.Width || y >= p.Height {
		return
	}
	index := y*p.Width + x
	rng := core.NewPCGSampler(core.PCGHash(index + core.PCGHash(p.Seed)))

	width := float32(p.Width)
	height := float32(p.Height)
	var color vec3

	for s := uint32(0); s < p.SamplesPerPixel; s++ {
		jx := randF32(rng)
		jy := randF32(rng)
		lx := randF32(rng)
		ly := randF32(rng)

		u := (float32(x) + jx) / width
		v := (float32(p.Height-1-y) + jy) / height

		dx, dy := sampleUnitDisk(lx, ly)
		dx *= e.camera.lensRadius
		dy *= e.camera.lensRadius
		offset := e.camera.u.mul(dx).add(e.camera.v.mul(dy))
		origin := e.camera.origin.add(offset)
		dir := e.camera.lowerLeft.add(e.camera.horizontal.mul(u)).add(e.camera.vertical.mul(v)).sub(origin)

		color = color.add(e.trace(origin, dir, rng))
	}

	color = color.div(float32(p.SamplesPerPixel)).clamp01().sqrt()
	texel := output[index*4 : index*4+4]
	texel[0], texel[1], texel[2], texel[3] = color.x, color.y, color.z, 1
}

type emuHit struct {
	t      float32
	point  vec3
	normal vec3
	front  bool
	sphere *emuSphere
}

func (e *Emulator) hitScene(origin, dir vec3) (emuHit, bool) {
	var hit emuHit
	found := false
	closest := float32(scene.TMax)
	for i := range e.spheres {
		if e.hitSphere(&e.spheres[i], origin, dir, closest, &hit) {
			found = true
			closest = hit.t
		}
	}
	return hit, found
}

func (e *Emulator) hitSphere(s *emuSphere, origin, dir vec3, tMax float32, hit *emuHit) bool {
	const tMin = float32(scene.TMin)

	oc := origin.sub(s.center)
	a := dir.dot(dir)
	halfB := oc.dot(dir)
	c := oc.dot(oc) - s.radius*s.radius
	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return false
	}
	sqrtD := math32.Sqrt(discriminant)

	root := (-halfB - sqrtD) / a
	if root <= tMin || root >= tMax {
		root = (-halfB + sqrtD) / a
		if root <= tMin || root >= tMax {
			return false
		}
	}

	point := origin.add(dir.mul(root))
	outward := point.sub(s.center).mul(1 / s.radius)
	front := dir.dot(outward) < 0

	hit.t = root
	hit.point = point
	hit.front = front
	hit.sphere = s
	if front {
		hit.normal = outward
	} else {
		hit.normal = outward.negate()
	}
	return true
}

func (e *Emulator) sky(dir vec3) vec3 {
	unit := dir.normalizeSafe()
	t := 0.5 * (unit.y + 1)
	return e.skyBottom.mul(1 - t).add(e.skyTop.mul(t))
}

func (e *Emulator) trace(origin, dir vec3, rng *core.PCGSampler) vec3 {
	throughput := vec3{1, 1, 1}

	for depth := e.params.MaxBounces; depth > 0; depth-- {
		hit, ok := e.hitScene(origin, dir)
		if !ok {
			return throughput.mulVec(e.sky(dir))
		}

		s := hit.sphere
		var scattered vec3
		attenuation := s.albedo

		switch s.kind {
		case material.KindLambertian:
			scattered = hit.normal.add(randomUnitVector(rng))
			if scattered.nearZero() {
				scattered = hit.normal
			}
		case material.KindMetal:
			reflected := reflectDir(dir.normalizeSafe(), hit.normal)
			scattered = reflected.add(randomInUnitSphere(rng).mul(s.fuzz))
			if scattered.dot(hit.normal) <= 0 {
				return vec3{}
			}
		default:
			ratio := s.ior
			if hit.front {
				ratio = 1 / s.ior
			}
			unit := dir.normalizeSafe()
			cosTheta := math32.Min(-unit.dot(hit.normal), 1)
			sinTheta := math32.Sqrt(math32.Max(0, 1-cosTheta*cosTheta))
			switch {
			case ratio*sinTheta > 1:
				scattered = reflectDir(unit, hit.normal)
			case reflectance(cosTheta, ratio) > randF32(rng):
				scattered = reflectDir(unit, hit.normal)
			default:
				perp := unit.add(hit.normal.mul(cosTheta)).mul(ratio)
				par := hit.normal.mul(-math32.Sqrt(abs32(1 - perp.dot(perp))))
				scattered = perp.add(par)
			}
			attenuation = vec3{1, 1, 1}
		}

		throughput = throughput.mulVec(attenuation)
		origin = hit.point
		dir = scattered
	}

	return vec3{}
}

func randF32(rng *core.PCGSampler) float32 {
	return float32(rng.NextUint32()>>8) / 16777216.0
}

func randomInUnitSphere(rng *core.PCGSampler) vec3 {
	for {
		x := randF32(rng)
		y := randF32(rng)
		z := randF32(rng)
		p := vec3{2*x - 1, 2*y - 1, 2*z - 1}
		if p.dot(p) < 1 {
			return p
		}
	}
}

func randomUnitVector(rng *core.PCGSampler) vec3 {
	for {
		p := randomInUnitSphere(rng)
		if p.dot(p) > 0 {
			return p.div(p.length())
		}
	}
}

func sampleUnitDisk(sx, sy float32) (float32, float32) {
	ox, oy := 2*sx-1, 2*sy-1
	if ox == 0 && oy == 0 {
		return 0, 0
	}
	var r, theta float32
	if abs32(ox) > abs32(oy) {
		r = ox
		theta = math32.Pi / 4 * (oy / ox)
	} else {
		r = oy
		theta = math32.Pi/2 - math32.Pi/4*(ox/oy)
	}
	return r * math32.Cos(theta), r * math32.Sin(theta)
}

func reflectDir(v, n vec3) vec3 {
	return v.sub(n.mul(2 * v.dot(n)))
}

func reflectance(cosine, ratio float32) float32 {
	r0 := (1 - ratio) / (1 + ratio)
	r0 = r0 * r0
	return r0 + (1-r0)*math32.Pow(1-cosine, 5)
}
