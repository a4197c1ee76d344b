package radiosity

import (
	"time"

	"github.com/df07/go-progressive-radiosity/pkg/core"
)

// State of a Solver
type State int

const (
	StateIdle      State = iota // Built, no shoot yet
	StateRunning                // At least one shoot done
	StateConverged              // Unshot power fell below the threshold
	StateExhausted              // Iteration budget used up
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// AccumulateStats counts what one pixel buffer contributed
type AccumulateStats struct {
	Pixels     int     // Pixels examined
	Hits       int     // Pixels that transferred energy to a gatherer
	Background int     // Pixels showing no gatherer
	OutOfRange int     // Pixels whose id matches no gatherer
	FormFactor float64 // Sum of delta form factors over hits
}

// Add accumulates other into s
func (s *AccumulateStats) Add(other AccumulateStats) {
	s.Pixels += other.Pixels
	s.Hits += other.Hits
	s.Background += other.Background
	s.OutOfRange += other.OutOfRange
	s.FormFactor += other.FormFactor
}

// IterationStats describes one shoot
type IterationStats struct {
	Iteration   int      // 1-based
	Shooter     int      // Index of the selected shooter
	ShotPower   core.RGB // Unshot power distributed this iteration
	TotalUnshot float64  // R+G+B unshot power left over all shooters afterwards
	Accumulate  AccumulateStats
	Duration    time.Duration
}

// Result summarises a finished solve
type Result struct {
	State       State
	Iterations  int
	TotalUnshot float64
	Duration    time.Duration
}
