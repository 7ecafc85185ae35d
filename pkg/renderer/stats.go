package renderer

import (
	"image"
	"time"

	"github.com/df07/go-gpu-raytracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Samples per pixel requested
	Duration       time.Duration
	Partitions     []PartitionStats // Per-partition timings (CPU backend only)
}

// PartitionStats records how one CPU partition went
type PartitionStats struct {
	TileID   int
	Bounds   image.Rectangle
	Worker   int
	Duration time.Duration
}

func (s *RenderStats) finalize() {
	if s.TotalPixels > 0 {
		s.AverageSamples = float64(s.TotalSamples) / float64(s.TotalPixels)
	}
}

// merge folds the counters of a partition into the frame totals
func (s *RenderStats) merge(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.TotalSamples += other.TotalSamples
}

// PixelStats accumulates a pixel across progressive passes
type PixelStats struct {
	ColorAccum  core.Vec3 // Linear radiance weighted by sample count
	SampleCount int       // Number of samples taken
}

// AddFrame adds one frame's gamma-corrected pixel value rendered with the given sample count
func (ps *PixelStats) AddFrame(displayed core.Vec3, samples int) {
	// Undo the gamma 2 encoding so averaging happens in linear space
	ps.ColorAccum = ps.ColorAccum.Add(displayed.Square().Multiply(float64(samples)))
	ps.SampleCount += samples
}

// GetColor returns the current average linear color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}
