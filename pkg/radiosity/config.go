package radiosity

import (
	"fmt"
	"log/slog"

	"github.com/df07/go-progressive-radiosity/pkg/renderer"
)

// Hemicube resolution limits. The form factor tables accept anything from
// MinTableResolution; solver configs are held to the tighter range.
const (
	MinTableResolution = 4
	MinResolution      = 16
	MaxResolution      = 4096
)

// Config contains configuration for a progressive refinement solve
type Config struct {
	MaxIterations        int          `json:"maxIterations"`        // Number of shoots before stopping
	Resolution           int          `json:"resolution"`           // Hemicube face width in pixels, even
	BackgroundID         uint32       `json:"backgroundId"`         // Item-buffer id of uncovered pixels
	ConvergenceThreshold float64      `json:"convergenceThreshold"` // Stop when unshot power falls to this fraction of the initial total (0 = never)
	Logger               *slog.Logger `json:"-"`                    // Nil discards all output
}

// DefaultConfig returns the fixed-budget settings of the classic solver
func DefaultConfig() Config {
	return Config{
		MaxIterations:        250,
		Resolution:           600,
		BackgroundID:         renderer.BackgroundID,
		ConvergenceThreshold: 0,
	}
}

// Validate checks every field and wraps the matching sentinel error
func (c Config) Validate() error {
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations %d is negative", ErrInvalidConfig, c.MaxIterations)
	}
	if c.Resolution < MinResolution {
		return fmt.Errorf("%w: %d < %d", ErrResolutionTooSmall, c.Resolution, MinResolution)
	}
	if c.Resolution > MaxResolution {
		return fmt.Errorf("%w: %d > %d", ErrResolutionTooLarge, c.Resolution, MaxResolution)
	}
	if c.Resolution%2 != 0 {
		return fmt.Errorf("%w: %d", ErrOddResolution, c.Resolution)
	}
	if c.BackgroundID > renderer.BackgroundID {
		return fmt.Errorf("%w: background id %#x exceeds 24 bits", ErrInvalidConfig, c.BackgroundID)
	}
	if c.ConvergenceThreshold < 0 || c.ConvergenceThreshold >= 1 {
		return fmt.Errorf("%w: convergence threshold %g outside [0,1)", ErrInvalidConfig, c.ConvergenceThreshold)
	}
	return nil
}
