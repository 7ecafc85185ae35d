package renderer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/df07/go-gpu-raytracer/pkg/scene"
)

// constantBackend returns frames whose pixels all hold the next value of a sequence
type constantBackend struct {
	width, height int
	values        []float32
	frames        int
	seeds         []uint32
	failAt        int // 1-based frame that fails, 0 = never
}

func (b *constantBackend) Name() string                          { return "constant" }
func (b *constantBackend) Init(cfg Config, _ *scene.Scene) error { return nil }
func (b *constantBackend) Close() error                          { return nil }

func (b *constantBackend) RenderFrame(ctx context.Context, seed uint32) (*PixelBuffer, error) {
	b.frames++
	b.seeds = append(b.seeds, seed)
	if b.frames == b.failAt {
		return nil, errors.New("device lost")
	}
	buf := NewPixelBuffer(b.width, b.height)
	v := b.values[(b.frames-1)%len(b.values)]
	for i := range buf.Pix {
		buf.Pix[i] = v
	}
	return buf, nil
}

func TestProgressiveRaytracer_AccumulatesInLinearSpace(t *testing.T) {
	backend := &constantBackend{width: 3, height: 2, values: []float32{0, 1}}
	cfg := testConfig(3, 2, 4, 1, 1)
	pr := NewProgressiveRaytracer(backend, cfg, ProgressiveConfig{MaxPasses: 2, Seed: 1}, &testLogger{})

	if _, _, err := pr.RenderPass(context.Background(), 1); err != nil {
		t.Fatalf("Pass 1 failed: %v", err)
	}
	buf, stats, err := pr.RenderPass(context.Background(), 2)
	if err != nil {
		t.Fatalf("Pass 2 failed: %v", err)
	}

	// Displayed 0 and 1 are linear 0 and 1; their mean 0.5 displays as sqrt(0.5)
	want := float32(math.Sqrt(0.5))
	for i := 0; i < len(buf.Pix); i += 4 {
		if math.Abs(float64(buf.Pix[i]-want)) > 1e-6 {
			t.Fatalf("Expected %f at %d, got %f", want, i, buf.Pix[i])
		}
		if buf.Pix[i+3] != 1 {
			t.Fatalf("Expected opaque alpha, got %f", buf.Pix[i+3])
		}
	}

	if stats.TotalSamples != 6*8 || stats.AverageSamples != 8 {
		t.Errorf("Expected 8 samples per pixel after two passes, got %+v", stats)
	}
}

func TestProgressiveRaytracer_RenderProgressive(t *testing.T) {
	backend := &constantBackend{width: 2, height: 2, values: []float32{0.5}}
	pr := NewProgressiveRaytracer(backend, testConfig(2, 2, 1, 1, 1), ProgressiveConfig{MaxPasses: 3, Seed: 9}, &testLogger{})

	passChan, errChan := pr.RenderProgressive(context.Background())

	var passes []PassResult
	for result := range passChan {
		passes = append(passes, result)
	}
	for err := range errChan {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(passes) != 3 {
		t.Fatalf("Expected 3 passes, got %d", len(passes))
	}
	for i, p := range passes {
		if p.PassNumber != i+1 {
			t.Errorf("Expected pass %d, got %d", i+1, p.PassNumber)
		}
		if p.IsLast != (i == 2) {
			t.Errorf("Pass %d IsLast = %t", p.PassNumber, p.IsLast)
		}
	}

	// Every pass asks for a fresh seed
	seen := map[uint32]bool{}
	for _, seed := range backend.seeds {
		if seen[seed] {
			t.Errorf("Seed %d reused", seed)
		}
		seen[seed] = true
	}
}

func TestProgressiveRaytracer_PropagatesBackendError(t *testing.T) {
	backend := &constantBackend{width: 2, height: 2, values: []float32{0.5}, failAt: 2}
	pr := NewProgressiveRaytracer(backend, testConfig(2, 2, 1, 1, 1), ProgressiveConfig{MaxPasses: 4}, nil)

	passChan, errChan := pr.RenderProgressive(context.Background())

	count := 0
	for range passChan {
		count++
	}
	err := <-errChan
	if err == nil || err.Error() != "device lost" {
		t.Errorf("Expected the backend error, got %v", err)
	}
	if count != 1 {
		t.Errorf("Expected one pass before the failure, got %d", count)
	}
}

func TestProgressiveRaytracer_Cancelled(t *testing.T) {
	backend := &constantBackend{width: 2, height: 2, values: []float32{0.5}}
	pr := NewProgressiveRaytracer(backend, testConfig(2, 2, 1, 1, 1), ProgressiveConfig{MaxPasses: 4}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	passChan, errChan := pr.RenderProgressive(ctx)
	for range passChan {
		t.Error("No pass should be published after cancellation")
	}
	if err := <-errChan; !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", err)
	}
}

// cancellingBackend cancels the render context while producing a given frame
type cancellingBackend struct {
	constantBackend
	cancel   context.CancelFunc
	cancelAt int
}

func (b *cancellingBackend) RenderFrame(ctx context.Context, seed uint32) (*PixelBuffer, error) {
	buf, err := b.constantBackend.RenderFrame(ctx, seed)
	if b.frames == b.cancelAt {
		b.cancel()
	}
	return buf, err
}

func TestProgressiveRaytracer_CancelledWhilePublishing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backend := &cancellingBackend{
		constantBackend: constantBackend{width: 2, height: 2, values: []float32{0.5}},
		cancel:          cancel,
		cancelAt:        2,
	}
	pr := NewProgressiveRaytracer(backend, testConfig(2, 2, 1, 1, 1), ProgressiveConfig{MaxPasses: 4}, nil)

	// Nothing reads passes until the error arrives, so pass 2 finds the channel full
	passChan, errChan := pr.RenderProgressive(ctx)
	if err := <-errChan; !errors.Is(err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}

	count := 0
	for range passChan {
		count++
	}
	if count != 1 {
		t.Errorf("Expected only the first pass to be published, got %d", count)
	}
	if backend.frames != 2 {
		t.Errorf("Expected rendering to stop after frame 2, got %d frames", backend.frames)
	}
}

func TestProgressiveRaytracer_RejectsWrongFrameSize(t *testing.T) {
	backend := &constantBackend{width: 3, height: 3, values: []float32{0.5}}
	pr := NewProgressiveRaytracer(backend, testConfig(2, 2, 1, 1, 1), DefaultProgressiveConfig(), nil)

	if _, _, err := pr.RenderPass(context.Background(), 1); err == nil {
		t.Error("Expected an error for a frame of the wrong size")
	}
}

func TestProgressiveRaytracer_WithCPUBackend(t *testing.T) {
	cfg := testConfig(4, 4, 1, 3, 2)
	cpu := NewCPURenderer(nil)
	defer cpu.Close()
	if err := cpu.Init(cfg, singleSphereScene()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	pr := NewProgressiveRaytracer(cpu, cfg, ProgressiveConfig{MaxPasses: 3, Seed: 3}, nil)
	passChan, errChan := pr.RenderProgressive(context.Background())

	var last PassResult
	for result := range passChan {
		last = result
	}
	if err := <-errChan; err != nil {
		t.Fatalf("Progressive render failed: %v", err)
	}
	if !last.IsLast || last.Stats.AverageSamples != 3 {
		t.Errorf("Expected a final pass with 3 samples per pixel, got %+v", last.Stats)
	}
	if i, v := assertUnitRange(last.Buffer.Pix); i >= 0 {
		t.Errorf("Value %f at index %d outside [0,1]", v, i)
	}
}

func TestFrameSeed_Distinct(t *testing.T) {
	seen := map[uint32]int{}
	for frame := 0; frame < 1000; frame++ {
		seed := FrameSeed(42, frame)
		if prev, ok := seen[seed]; ok {
			t.Fatalf("Frames %d and %d share seed %d", prev, frame, seed)
		}
		seen[seed] = frame
	}
}
