package renderer

import (
	"context"
	"image"

	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/geometry"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// Raytracer traces the pixels of one image. It holds no mutable state, so a single instance
// is shared by every worker.
type Raytracer struct {
	scene           *scene.Scene
	camera          *geometry.Camera
	width           int
	height          int
	samplesPerPixel int
	maxBounces      int
}

// NewRaytracer creates a raytracer for the scene at the configured image size
func NewRaytracer(scn *scene.Scene, cfg Config) *Raytracer {
	return &Raytracer{
		scene:           scn,
		camera:          scn.CameraFor(cfg.Width, cfg.Height),
		width:           cfg.Width,
		height:          cfg.Height,
		samplesPerPixel: cfg.SamplesPerPixel,
		maxBounces:      cfg.MaxBounces,
	}
}

// RayColor returns the radiance carried back along the ray, following at most depth bounces
func (rt *Raytracer) RayColor(r core.Ray, depth int, sampler core.Sampler) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	hit, isHit := rt.scene.Hit(r, scene.TMin, scene.TMax)
	if !isHit {
		return rt.scene.Background(r)
	}

	scatter, didScatter := hit.Material.Scatter(r, *hit, sampler)
	if !didScatter {
		return core.Vec3{X: 0, Y: 0, Z: 0} // Material absorbed the ray
	}

	return scatter.Attenuation.MultiplyVec(rt.RayColor(scatter.Scattered, depth-1, sampler))
}

// SamplePixel averages samplesPerPixel paths through pixel (x, y) and returns the linear color.
// Every sample draws the pixel jitter, then the lens sample, then whatever the materials need,
// from the pixel's own stream.
func (rt *Raytracer) SamplePixel(x, y int, frameSeed uint32) core.Vec3 {
	sampler := core.NewPCGSampler(core.PixelSeed(frameSeed, y*rt.width+x))

	colorAccum := core.Vec3{X: 0, Y: 0, Z: 0}
	for sample := 0; sample < rt.samplesPerPixel; sample++ {
		jitter := sampler.Get2D()
		lens := sampler.Get2D()

		// Row 0 is the top of the image while t grows upward
		s := (float64(x) + jitter.X) / float64(rt.width)
		t := (float64(rt.height-1-y) + jitter.Y) / float64(rt.height)

		ray := rt.camera.GetRay(s, t, lens)
		colorAccum = colorAccum.Add(rt.RayColor(ray, rt.maxBounces, sampler))
	}

	return colorAccum.Multiply(1.0 / float64(rt.samplesPerPixel))
}

// RenderBounds renders the pixels inside bounds into the output buffer. The context is checked
// once per row; a cancelled render returns the context error and leaves the rows it skipped
// untouched.
func (rt *Raytracer) RenderBounds(ctx context.Context, bounds image.Rectangle, frameSeed uint32, out *PixelBuffer) (RenderStats, error) {
	stats := RenderStats{MaxSamples: rt.samplesPerPixel}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x, y, finalColor(rt.SamplePixel(x, y, frameSeed)))
			stats.TotalPixels++
			stats.TotalSamples += rt.samplesPerPixel
		}
	}

	stats.finalize()
	return stats, nil
}
