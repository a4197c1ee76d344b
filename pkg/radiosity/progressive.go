package radiosity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// Solver runs progressive refinement radiosity on a model. It owns the
// form factor tables, the quad set and the hemicube buffers, and mutates
// the model's patch energies in place. A Solver is not safe for concurrent use.
type Solver struct {
	model       *scene.Model
	config      Config
	tables      *DeltaFormFactors
	set         *renderer.QuadSet
	sampler     *Sampler
	accumulator Accumulator
	logger      *slog.Logger

	state         State
	iteration     int
	sampled       int // Iteration whose hemicube is held in the sampler buffers
	initialUnshot float64
	unshotSums    []float64 // Per-shooter R+G+B, reused by totalUnshot
}

// NewSolver validates the setup and prepares a solve. The model's energy
// must already be initialised from emission.
func NewSolver(m *scene.Model, rast renderer.Rasterizer, config Config) (*Solver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if uint64(len(m.Gatherers)) > uint64(config.BackgroundID) {
		return nil, fmt.Errorf("%w: %d gatherers, background id %#x",
			ErrTooManyGatherers, len(m.Gatherers), config.BackgroundID)
	}

	tables, err := NewDeltaFormFactors(config.Resolution)
	if err != nil {
		return nil, err
	}
	set, err := renderer.NewQuadSet(m.GathererQuads())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTooManyGatherers, err)
	}

	logger := core.LoggerOrNop(config.Logger)
	sampler, err := NewSampler(rast, set, tables, m.Radius, logger)
	if err != nil {
		return nil, err
	}

	s := &Solver{
		model:       m,
		config:      config,
		tables:      tables,
		set:         set,
		sampler:     sampler,
		accumulator: NewAccumulator(config.BackgroundID),
		logger:      logger,
		state:       StateIdle,
		unshotSums:  make([]float64, len(m.Shooters)),
	}
	s.initialUnshot = s.totalUnshot()

	logger.Info("radiosity solver ready",
		"shooters", len(m.Shooters),
		"gatherers", len(m.Gatherers),
		"resolution", config.Resolution,
		"formFactorSum", tables.Sum(),
		"unshot", s.initialUnshot)
	return s, nil
}

// State returns the current solver state
func (s *Solver) State() State {
	return s.state
}

// Iteration returns the number of shoots performed so far
func (s *Solver) Iteration() int {
	return s.iteration
}

// Model returns the model being solved
func (s *Solver) Model() *scene.Model {
	return s.model
}

// Tables returns the delta form factor tables
func (s *Solver) Tables() *DeltaFormFactors {
	return s.tables
}

// Faces returns the hemicube buffers of the most recent rendered shoot,
// which is SampledIteration. Shoots with nothing to distribute are not
// rendered and leave the buffers alone.
func (s *Solver) Faces() []Face {
	return s.sampler.Faces()
}

// SampledIteration returns the iteration whose hemicube Faces holds, or 0
// before the first rendered shoot
func (s *Solver) SampledIteration() int {
	return s.sampled
}

// Step performs one shoot: select the shooter with the most unshot power,
// zero its unshot power, render its hemicube and accumulate all five faces
// in order with the power it held.
func (s *Solver) Step() (IterationStats, error) {
	if s.state == StateConverged || s.state == StateExhausted {
		return IterationStats{}, fmt.Errorf("%w: state %s", ErrSolverFinished, s.state)
	}
	s.state = StateRunning
	start := time.Now()

	index := SelectShooter(s.model)
	shooter := s.model.Shooters[index]
	shotPower := shooter.UnshotPower
	shooter.UnshotPower = core.RGB{}

	s.iteration++
	stats := IterationStats{
		Iteration: s.iteration,
		Shooter:   index,
		ShotPower: shotPower,
	}

	// Nothing left to distribute: the hemicube would only add zeros
	if !shotPower.IsZero() {
		faces, err := s.sampler.Sample(shooter)
		if err != nil {
			return stats, fmt.Errorf("iteration %d, shooter %d: %w", s.iteration, index, err)
		}
		s.sampled = s.iteration
		for _, face := range faces {
			faceStats, err := s.accumulator.Accumulate(s.model, shotPower, face.Pixels, face.Table, face.Width, face.Height)
			if err != nil {
				return stats, fmt.Errorf("iteration %d, %s face: %w", s.iteration, face.Name, err)
			}
			s.logger.Debug("face accumulated",
				"iteration", s.iteration,
				"face", face.Name,
				"hits", faceStats.Hits,
				"background", faceStats.Background,
				"formFactor", faceStats.FormFactor)
			stats.Accumulate.Add(faceStats)
		}
	}

	stats.TotalUnshot = s.totalUnshot()
	stats.Duration = time.Since(start)

	if stats.Accumulate.OutOfRange > 0 {
		s.logger.Warn("pixels with unknown gatherer ids skipped",
			"iteration", s.iteration,
			"count", stats.Accumulate.OutOfRange)
	}
	s.logger.Info("iteration complete",
		"iteration", s.iteration,
		"shooter", index,
		"shot", shotPower.Sum(),
		"unshot", stats.TotalUnshot,
		"duration", stats.Duration)

	return stats, nil
}

// Run shoots until the iteration budget is used up or, with a positive
// convergence threshold, until the remaining unshot power falls to that
// fraction of the initial total. The callback, if any, sees every
// iteration. Vertex radiosities are computed before Run returns.
func (s *Solver) Run(callback func(IterationStats)) (Result, error) {
	return s.RunContext(context.Background(), func(stats IterationStats) error {
		if callback != nil {
			callback(stats)
		}
		return nil
	})
}

// RunContext is Run with cancellation between shoots. A callback error or
// a cancelled context stops the solve with the solver still running, so
// a later call can resume it.
func (s *Solver) RunContext(ctx context.Context, callback func(IterationStats) error) (Result, error) {
	if s.state == StateConverged || s.state == StateExhausted {
		return Result{State: s.state, Iterations: s.iteration}, fmt.Errorf("%w: state %s", ErrSolverFinished, s.state)
	}

	start := time.Now()
	s.logger.Info("starting progressive refinement",
		"maxIterations", s.config.MaxIterations,
		"threshold", s.config.ConvergenceThreshold)

	total := s.totalUnshot()
	partial := func() Result {
		return Result{State: s.state, Iterations: s.iteration, TotalUnshot: total, Duration: time.Since(start)}
	}

	for {
		if s.converged(total) {
			s.state = StateConverged
			break
		}
		if s.iteration >= s.config.MaxIterations {
			s.state = StateExhausted
			break
		}
		if err := ctx.Err(); err != nil {
			return partial(), err
		}

		stats, err := s.Step()
		if err != nil {
			return partial(), err
		}
		total = stats.TotalUnshot
		if callback != nil {
			if err := callback(stats); err != nil {
				return partial(), err
			}
		}
	}

	s.model.ComputeVertexRadiosities()

	result := partial()
	s.logger.Info("radiosity computation completed",
		"state", result.State,
		"iterations", result.Iterations,
		"unshot", result.TotalUnshot,
		"duration", result.Duration)
	return result, nil
}

func (s *Solver) converged(total float64) bool {
	threshold := s.config.ConvergenceThreshold
	return threshold > 0 && total <= threshold*s.initialUnshot
}

// totalUnshot sums R+G+B unshot power over all shooters
func (s *Solver) totalUnshot() float64 {
	for i, shooter := range s.model.Shooters {
		s.unshotSums[i] = shooter.UnshotPower.Sum()
	}
	return floats.Sum(s.unshotSums)
}
