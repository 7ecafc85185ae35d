package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/geometry"
	"github.com/df07/go-gpu-raytracer/pkg/material"
)

// Ray parameter range used for every scene query. The lower bound keeps scattered rays from
// re-hitting the surface they leave; the upper bound is finite so the kernel can share it.
const (
	TMin = 0.001
	TMax = 1e30
)

// Layout of the flattened scene block
const (
	SkyHeaderFloats = 8  // sky top and sky bottom, one vec4 each
	SphereStride    = 12 // center.xyz, radius, albedo.rgb, kind, fuzz, ior, pad, pad
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name         string
	Camera       *geometry.Camera
	CameraConfig geometry.CameraConfig
	Spheres      []*geometry.Sphere
	SkyTop       core.Vec3 // Background color straight up
	SkyBottom    core.Vec3 // Background color at and below the horizon
}

// NewScene creates an empty scene with the standard blue-to-white sky
func NewScene(name string, cameraConfig geometry.CameraConfig) *Scene {
	return &Scene{
		Name:         name,
		Camera:       geometry.NewCamera(cameraConfig),
		CameraConfig: cameraConfig,
		Spheres:      make([]*geometry.Sphere, 0),
		SkyTop:       core.NewVec3(0.5, 0.7, 1.0),
		SkyBottom:    core.NewVec3(1.0, 1.0, 1.0),
	}
}

// AddSphere adds a sphere to the scene
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat *material.Material) {
	s.Spheres = append(s.Spheres, geometry.NewSphere(center, radius, mat))
}

// Hit returns the nearest intersection in (tMin, tMax) by scanning every sphere and shrinking
// the search range on each closer hit
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	closestSoFar := tMax

	for _, sphere := range s.Spheres {
		if hit, ok := sphere.Hit(ray, tMin, closestSoFar); ok {
			closest = hit
			closestSoFar = hit.T
		}
	}

	return closest, closest != nil
}

// Background returns the sky color for a ray that escapes the scene
func (s *Scene) Background(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()
	t := 0.5 * (unitDirection.Y + 1.0)
	return s.SkyBottom.Multiply(1.0 - t).Add(s.SkyTop.Multiply(t))
}

// CameraFor returns the scene camera with its aspect ratio matched to the given image size
func (s *Scene) CameraFor(width, height int) *geometry.Camera {
	config := s.CameraConfig
	config.AspectRatio = float64(width) / float64(height)
	return geometry.NewCamera(config)
}

// Validate rejects scenes either backend would render as garbage
func (s *Scene) Validate() error {
	if s.Camera == nil {
		return errors.New("scene has no camera")
	}
	if !s.SkyTop.IsFinite() || !s.SkyBottom.IsFinite() {
		return errors.New("scene sky colors must be finite")
	}
	for i, sphere := range s.Spheres {
		if err := sphere.Validate(); err != nil {
			return fmt.Errorf("sphere %d: %w", i, err)
		}
	}
	return nil
}

// Flatten serializes the sky colors and every sphere with its material into the block read
// by the compute kernel. One zeroed sphere slot is emitted for an empty scene so the buffer
// is never zero-sized.
func (s *Scene) Flatten() []float32 {
	slots := max(len(s.Spheres), 1)
	block := make([]float32, SkyHeaderFloats+slots*SphereStride)

	putVec3(block[0:], s.SkyTop)
	putVec3(block[4:], s.SkyBottom)

	for i, sphere := range s.Spheres {
		entry := block[SkyHeaderFloats+i*SphereStride:]
		putVec3(entry, sphere.Center)
		entry[3] = float32(sphere.Radius)

		mat := sphere.Material
		putVec3(entry[4:], mat.Albedo)
		entry[7] = float32(mat.Kind)
		entry[8] = float32(mat.Fuzz)
		entry[9] = float32(mat.RefractiveIndex)
	}
	return block
}

func putVec3(dst []float32, v core.Vec3) {
	dst[0] = float32(v.X)
	dst[1] = float32(v.Y)
	dst[2] = float32(v.Z)
}
