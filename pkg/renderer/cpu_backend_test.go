package renderer

import (
	"context"
	"errors"
	"testing"
)

func TestCPURenderer_EndToEnd4x4(t *testing.T) {
	cpu := NewCPURenderer(&testLogger{})
	defer cpu.Close()

	if err := cpu.Init(testConfig(4, 4, 1, 1, 2), singleSphereScene()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	buf, err := cpu.RenderFrame(context.Background(), 12345)
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if len(buf.Pix) != 64 {
		t.Fatalf("Expected buffer length 64, got %d", len(buf.Pix))
	}
	if i, v := assertUnitRange(buf.Pix); i >= 0 {
		t.Errorf("Value %f at index %d outside [0,1]", v, i)
	}
	for i := 3; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 1 {
			t.Errorf("Alpha at index %d should be 1, got %f", i, buf.Pix[i])
		}
	}
	if cpu.State() != CPUComplete {
		t.Errorf("Expected state complete, got %v", cpu.State())
	}

	stats := cpu.LastStats()
	if stats.TotalPixels != 16 || stats.TotalSamples != 16 || len(stats.Partitions) != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestCPURenderer_WorkerCountDoesNotChangeImage(t *testing.T) {
	render := func(workers int) []float32 {
		cpu := NewCPURenderer(nil)
		defer cpu.Close()
		if err := cpu.Init(testConfig(9, 7, 2, 4, workers), singleSphereScene()); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		buf, err := cpu.RenderFrame(context.Background(), 5)
		if err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
		return buf.Pix
	}

	reference := render(1)
	for _, workers := range []int{2, 3, 7, 16} {
		got := render(workers)
		for i := range reference {
			if got[i] != reference[i] {
				t.Fatalf("%d workers: value %d differs (%f vs %f)", workers, i, got[i], reference[i])
			}
		}
	}
}

func TestCPURenderer_NotInitialized(t *testing.T) {
	cpu := NewCPURenderer(nil)
	if _, err := cpu.RenderFrame(context.Background(), 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestCPURenderer_InitRejectsBadInput(t *testing.T) {
	cpu := NewCPURenderer(nil)
	defer cpu.Close()

	if err := cpu.Init(testConfig(0, 4, 1, 1, 1), singleSphereScene()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero width, got %v", err)
	}

	scn := singleSphereScene()
	scn.Spheres[0].Radius = 0
	if err := cpu.Init(testConfig(4, 4, 1, 1, 1), scn); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for a degenerate scene, got %v", err)
	}
}

func TestCPURenderer_PartitionFailure(t *testing.T) {
	scn := singleSphereScene()
	cpu := NewCPURenderer(nil)
	defer cpu.Close()

	if err := cpu.Init(testConfig(4, 4, 1, 2, 2), scn); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// Break the scene after validation so a worker panics mid-frame
	scn.Spheres[0].Material = nil

	buf, err := cpu.RenderFrame(context.Background(), 1)
	if buf != nil {
		t.Error("A failed frame must not return a buffer")
	}
	var partitionErr *PartitionError
	if !errors.As(err, &partitionErr) {
		t.Fatalf("Expected PartitionError, got %v", err)
	}
	if partitionErr.Bounds.Dy() != 2 || partitionErr.Bounds.Dx() != 4 {
		t.Errorf("Expected a 4x2 band, got %v", partitionErr.Bounds)
	}
	if cpu.State() != CPUIdle {
		t.Errorf("Expected state idle after a failure, got %v", cpu.State())
	}
}

func TestCPURenderer_Cancelled(t *testing.T) {
	cpu := NewCPURenderer(nil)
	defer cpu.Close()
	if err := cpu.Init(testConfig(8, 8, 1, 1, 2), singleSphereScene()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf, err := cpu.RenderFrame(ctx, 1)
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", err)
	}
	if buf != nil {
		t.Error("A cancelled frame must not be reported as complete")
	}

	// The backend stays usable after a cancelled frame
	if _, err := cpu.RenderFrame(context.Background(), 1); err != nil {
		t.Errorf("RenderFrame after cancellation failed: %v", err)
	}
}

func TestCPURenderer_ReinitChangesSize(t *testing.T) {
	cpu := NewCPURenderer(nil)
	defer cpu.Close()

	sizes := [][2]int{{4, 4}, {6, 3}}
	for _, size := range sizes {
		if err := cpu.Init(testConfig(size[0], size[1], 1, 1, 2), singleSphereScene()); err != nil {
			t.Fatalf("Init %v failed: %v", size, err)
		}
		buf, err := cpu.RenderFrame(context.Background(), 1)
		if err != nil {
			t.Fatalf("RenderFrame %v failed: %v", size, err)
		}
		if len(buf.Pix) != size[0]*size[1]*4 {
			t.Errorf("Size %v: expected %d values, got %d", size, size[0]*size[1]*4, len(buf.Pix))
		}
	}
}

func TestCPUState_String(t *testing.T) {
	names := map[CPUState]string{
		CPUIdle:         "idle",
		CPUDispatched:   "dispatched",
		CPUAccumulating: "accumulating",
		CPUComplete:     "complete",
	}
	for state, want := range names {
		if state.String() != want {
			t.Errorf("Expected %q, got %q", want, state.String())
		}
	}
}
