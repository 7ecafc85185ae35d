package renderer

import (
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"zero width", func(c *Config) { c.Width = 0 }, ErrInvalidConfig},
		{"negative height", func(c *Config) { c.Height = -4 }, ErrInvalidConfig},
		{"zero samples", func(c *Config) { c.SamplesPerPixel = 0 }, ErrInvalidConfig},
		{"negative bounces", func(c *Config) { c.MaxBounces = -1 }, ErrInvalidConfig},
		{"zero bounces allowed", func(c *Config) { c.MaxBounces = 0 }, nil},
		{"negative workers", func(c *Config) { c.NumWorkers = -2 }, ErrInvalidConfig},
		{"unknown backend", func(c *Config) { c.Backend = BackendKind(9) }, ErrBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Width != 640 || cfg.Height != 360 {
		t.Errorf("Expected 640x360, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.SamplesPerPixel != 20 || cfg.MaxBounces != 50 || cfg.NumWorkers != 1 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input   string
		want    BackendKind
		wantErr bool
	}{
		{"cpu", BackendCPU, false},
		{"GPU", BackendGPU, false},
		{" gpu ", BackendGPU, false},
		{"webgl", BackendCPU, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBackend(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackend(%q) error = %v, wantErr %t", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseBackend(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfig_EffectiveWorkers(t *testing.T) {
	tests := []struct {
		workers, height, want int
	}{
		{1, 100, 1},
		{8, 100, 8},
		{8, 3, 3},
	}

	for _, tt := range tests {
		cfg := testConfig(10, tt.height, 1, 1, tt.workers)
		if got := cfg.EffectiveWorkers(); got != tt.want {
			t.Errorf("workers=%d height=%d: expected %d, got %d", tt.workers, tt.height, tt.want, got)
		}
	}

	if got := testConfig(10, 100, 1, 1, 0).EffectiveWorkers(); got < 1 {
		t.Errorf("Auto worker count must be at least 1, got %d", got)
	}
}
