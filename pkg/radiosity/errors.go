package radiosity

import (
	"errors"

	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// Setup errors abort a solve before or during refinement. Per-pixel
// anomalies are never reported as errors; they are counted in the stats.
var (
	ErrOddResolution      = errors.New("radiosity: hemicube resolution must be even")
	ErrResolutionTooSmall = errors.New("radiosity: hemicube resolution too small")
	ErrResolutionTooLarge = errors.New("radiosity: hemicube resolution too large")
	ErrPixelFormat        = errors.New("radiosity: render surface is not 24-bit RGB")
	ErrSurfaceSize        = errors.New("radiosity: render surface does not match hemicube resolution")
	ErrBufferSize         = errors.New("radiosity: pixel buffer does not match form factor table")
	ErrTooManyGatherers   = errors.New("radiosity: gatherer ids collide with the background id")
	ErrDegenerateShooter  = errors.New("radiosity: shooter has no room for a hemicube")
	ErrInvalidConfig      = errors.New("radiosity: invalid config")
	ErrSolverFinished     = errors.New("radiosity: solver has already finished")

	ErrViewport   = renderer.ErrViewport
	ErrEmptyModel = scene.ErrEmptyModel
)
