package radiosity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/df07/go-progressive-radiosity/pkg/renderer"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MaxIterations != 250 || cfg.Resolution != 600 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.BackgroundID != renderer.BackgroundID || cfg.ConvergenceThreshold != 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }, nil},
		{"negative iterations", func(c *Config) { c.MaxIterations = -1 }, ErrInvalidConfig},
		{"minimum resolution", func(c *Config) { c.Resolution = MinResolution }, nil},
		{"too small", func(c *Config) { c.Resolution = 8 }, ErrResolutionTooSmall},
		{"too large", func(c *Config) { c.Resolution = MaxResolution + 2 }, ErrResolutionTooLarge},
		{"odd", func(c *Config) { c.Resolution = 601 }, ErrOddResolution},
		{"background beyond 24 bits", func(c *Config) { c.BackgroundID = 1 << 24 }, ErrInvalidConfig},
		{"custom background", func(c *Config) { c.BackgroundID = 0 }, nil},
		{"negative threshold", func(c *Config) { c.ConvergenceThreshold = -0.1 }, ErrInvalidConfig},
		{"threshold of one", func(c *Config) { c.ConvergenceThreshold = 1 }, ErrInvalidConfig},
		{"small threshold", func(c *Config) { c.ConvergenceThreshold = 0.001 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigJSON(t *testing.T) {
	cfg := DefaultConfig()
	if err := json.Unmarshal([]byte(`{"maxIterations": 40, "convergenceThreshold": 0.01}`), &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if cfg.MaxIterations != 40 || cfg.ConvergenceThreshold != 0.01 {
		t.Errorf("fields not decoded: %+v", cfg)
	}
	if cfg.Resolution != 600 {
		t.Errorf("resolution %d, want default kept", cfg.Resolution)
	}
}
