package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-gpu-raytracer/pkg/core"
)

// PixelBuffer is the RGBA float image both backends produce: Width×Height×4 values,
// row-major with the origin at the top left, every channel in [0,1] after gamma correction
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []float32
}

// NewPixelBuffer allocates a zeroed buffer
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// PixOffset returns the index of the first channel of pixel (x, y)
func (b *PixelBuffer) PixOffset(x, y int) int {
	return (y*b.Width + x) * 4
}

// At returns the RGB color of pixel (x, y)
func (b *PixelBuffer) At(x, y int) core.Vec3 {
	i := b.PixOffset(x, y)
	return core.NewVec3(float64(b.Pix[i]), float64(b.Pix[i+1]), float64(b.Pix[i+2]))
}

// Set writes an opaque pixel
func (b *PixelBuffer) Set(x, y int, c core.Vec3) {
	i := b.PixOffset(x, y)
	b.Pix[i+0] = float32(c.X)
	b.Pix[i+1] = float32(c.Y)
	b.Pix[i+2] = float32(c.Z)
	b.Pix[i+3] = 1
}

// Image converts the buffer to an 8-bit image
func (b *PixelBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			i := b.PixOffset(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(b.Pix[i+0]),
				G: toByte(b.Pix[i+1]),
				B: toByte(b.Pix[i+2]),
				A: toByte(b.Pix[i+3]),
			})
		}
	}
	return img
}

func toByte(v float32) uint8 {
	if v != v { // NaN
		return 0
	}
	return uint8(255*min(max(v, 0), 1) + 0.5)
}

// finalColor converts an averaged linear color to an output value: clamp, then gamma 2
func finalColor(linear core.Vec3) core.Vec3 {
	return linear.Clamp(0.0, 1.0).Sqrt()
}
