package renderer

import (
	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/geometry"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// testLogger implements core.Logger for testing by discarding all output
type testLogger struct{}

// Ensure testLogger implements core.Logger
var _ core.Logger = (*testLogger)(nil)

func (tl *testLogger) Printf(format string, args ...interface{}) {
	// Discard log output during tests
}

func testConfig(width, height, spp, bounces, workers int) Config {
	return Config{
		Width:           width,
		Height:          height,
		SamplesPerPixel: spp,
		MaxBounces:      bounces,
		NumWorkers:      workers,
		Backend:         BackendCPU,
		Seed:            7,
	}
}

// singleSphereScene is one Lambertian sphere of radius 0.5 at (0,0,-1)
func singleSphereScene() *scene.Scene {
	return scene.NewSingleSphereScene(geometry.CameraConfig{AspectRatio: 1})
}

func assertUnitRange(pix []float32) (int, float32) {
	for i, v := range pix {
		if v < 0 || v > 1 || v != v {
			return i, v
		}
	}
	return -1, 0
}
