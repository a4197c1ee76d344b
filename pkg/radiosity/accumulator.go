package radiosity

import (
	"fmt"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// Accumulator turns item-buffer pixels into energy transfers
type Accumulator struct {
	Background uint32 // Id of pixels where no gatherer is visible
}

// NewAccumulator creates an accumulator that skips the given background id
func NewAccumulator(background uint32) Accumulator {
	return Accumulator{Background: background}
}

// Accumulate uses the default white background id
func Accumulate(m *scene.Model, shotPower core.RGB, pixels []byte, table []float64, width, height int) (AccumulateStats, error) {
	return NewAccumulator(renderer.BackgroundID).Accumulate(m, shotPower, pixels, table, width, height)
}

// Accumulate distributes shotPower to every gatherer visible in pixels. For
// a pixel showing gatherer g with delta form factor dF, per channel:
//
//	g.Radiosity      += dF / g.Area * shotPower * reflectivity
//	parent.Unshot    += dF * shotPower * reflectivity
//
// Background and out-of-range ids are counted and skipped.
func (a Accumulator) Accumulate(m *scene.Model, shotPower core.RGB, pixels []byte, table []float64, width, height int) (AccumulateStats, error) {
	n := width * height
	if width <= 0 || height <= 0 || len(table) != n || len(pixels) != 3*n {
		return AccumulateStats{}, fmt.Errorf("%w: %dx%d with %d bytes and %d table entries",
			ErrBufferSize, width, height, len(pixels), len(table))
	}

	stats := AccumulateStats{Pixels: n}
	numGatherers := uint32(len(m.Gatherers))
	for i := 0; i < n; i++ {
		id := renderer.PixelID(pixels, i)
		if id == a.Background {
			stats.Background++
			continue
		}
		if id >= numGatherers {
			stats.OutOfRange++
			continue
		}

		dF := table[i]
		g := m.Gatherers[id]
		shooter := m.Shooters[g.Shooter]
		mult := dF / g.Area
		for c := range shotPower {
			reflected := shotPower[c] * g.Surface.Reflectivity[c]
			g.Radiosity[c] += mult * reflected
			shooter.UnshotPower[c] += dF * reflected
		}
		stats.Hits++
		stats.FormFactor += dF
	}
	return stats, nil
}
