package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/geometry"
	"github.com/df07/go-progressive-radiosity/pkg/material"
)

// Model validation errors
var (
	ErrEmptyModel   = errors.New("scene: model has no patches")
	ErrInvalidModel = errors.New("scene: invalid model")
)

// ShooterQuad is a coarse patch used as an energy emitter
type ShooterQuad struct {
	Quad        geometry.Quad
	Centroid    mgl64.Vec3
	Normal      mgl64.Vec3 // Unit length, facing outward
	Area        float64
	UnshotPower core.RGB          // Energy received but not yet distributed
	Surface     *material.Surface // Shared, not owned
	Gatherers   []int             // Indices into Model.Gatherers of the child patches
}

// GathererQuad is a fine patch used as an energy receiver. Its index in
// Model.Gatherers is its item-buffer identifier.
type GathererQuad struct {
	Quad        geometry.Quad
	Area        float64
	Radiosity   core.RGB          // Accumulated outgoing light
	Shooter     int               // Index of the parent patch in Model.Shooters
	Surface     *material.Surface // Shared, not owned
	VertexIndex [4]int            // Indices into Model.Vertices, in quad vertex order
}

// Vertex is a lattice point shared by neighbouring gatherers. Its radiosity
// is only meaningful after ComputeVertexRadiosities.
type Vertex struct {
	Position  mgl64.Vec3
	Radiosity core.RGB
}

// ViewConfig describes a viewpoint for previews of the solved model
type ViewConfig struct {
	Eye    mgl64.Vec3
	LookAt mgl64.Vec3
	Up     mgl64.Vec3
	VFov   float64 // Vertical field of view in degrees
}

// Model owns every patch of a scene. It is built once, mutated in place by
// the radiosity solver, and read by the output writers afterwards.
type Model struct {
	Name      string
	Surfaces  []*material.Surface
	Shooters  []*ShooterQuad
	Gatherers []*GathererQuad
	Vertices  []Vertex
	Bounds    core.AABB
	Center    mgl64.Vec3
	Radius    float64 // Bounding sphere radius, used to size the far plane
	View      ViewConfig
}

// Shooter returns the parent shooter of gatherer g
func (m *Model) Shooter(g *GathererQuad) *ShooterQuad {
	return m.Shooters[g.Shooter]
}

// Validate checks the structural invariants of the model: every gatherer
// belongs to exactly one shooter, every shooter has at least one gatherer,
// all areas are positive, and there are at most MaxGatherers gatherers.
func (m *Model) Validate() error {
	if len(m.Shooters) == 0 || len(m.Gatherers) == 0 {
		return ErrEmptyModel
	}
	if len(m.Gatherers) > MaxGatherers {
		return fmt.Errorf("%w: %d gatherers, at most %d", ErrTooManyPatches, len(m.Gatherers), MaxGatherers)
	}
	if m.Radius <= 0 {
		return fmt.Errorf("%w: radius %g must be positive", ErrInvalidModel, m.Radius)
	}

	owner := make([]int, len(m.Gatherers))
	for i := range owner {
		owner[i] = -1
	}

	for s, shooter := range m.Shooters {
		if shooter.Surface == nil {
			return fmt.Errorf("%w: shooter %d has no surface", ErrInvalidModel, s)
		}
		if shooter.Area <= 0 {
			return fmt.Errorf("%w: shooter %d has area %g", ErrInvalidModel, s, shooter.Area)
		}
		if len(shooter.Gatherers) == 0 {
			return fmt.Errorf("%w: shooter %d has no gatherers", ErrInvalidModel, s)
		}
		for _, g := range shooter.Gatherers {
			if g < 0 || g >= len(m.Gatherers) {
				return fmt.Errorf("%w: shooter %d references gatherer %d out of range", ErrInvalidModel, s, g)
			}
			if owner[g] != -1 {
				return fmt.Errorf("%w: gatherer %d claimed by shooters %d and %d", ErrInvalidModel, g, owner[g], s)
			}
			owner[g] = s
		}
	}

	for g, gatherer := range m.Gatherers {
		if gatherer.Shooter != owner[g] {
			return fmt.Errorf("%w: gatherer %d parent %d does not match owner %d", ErrInvalidModel, g, gatherer.Shooter, owner[g])
		}
		if gatherer.Surface == nil {
			return fmt.Errorf("%w: gatherer %d has no surface", ErrInvalidModel, g)
		}
		if gatherer.Area <= 0 {
			return fmt.Errorf("%w: gatherer %d has area %g", ErrInvalidModel, g, gatherer.Area)
		}
		for _, vi := range gatherer.VertexIndex {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("%w: gatherer %d references vertex %d out of range", ErrInvalidModel, g, vi)
			}
		}
	}
	return nil
}

// InitializeEnergy sets every shooter's unshot power to area × emission and
// every gatherer's radiosity to its emission.
func (m *Model) InitializeEnergy() {
	for _, shooter := range m.Shooters {
		shooter.UnshotPower = shooter.Surface.Emission.Multiply(shooter.Area)
	}
	for _, gatherer := range m.Gatherers {
		gatherer.Radiosity = gatherer.Surface.Emission
	}
}

// TotalUnshotPower returns the channel-wise sum of unshot power over all shooters
func (m *Model) TotalUnshotPower() core.RGB {
	var total core.RGB
	for _, shooter := range m.Shooters {
		total = total.Add(shooter.UnshotPower)
	}
	return total
}

// ComputeVertexRadiosities sets each vertex's radiosity to the average of
// the gatherers that share it.
func (m *Model) ComputeVertexRadiosities() {
	sums := make([]core.RGB, len(m.Vertices))
	counts := make([]int, len(m.Vertices))

	for _, gatherer := range m.Gatherers {
		for _, vi := range gatherer.VertexIndex {
			sums[vi] = sums[vi].Add(gatherer.Radiosity)
			counts[vi]++
		}
	}

	for i := range m.Vertices {
		if counts[i] == 0 {
			m.Vertices[i].Radiosity = core.RGB{}
			continue
		}
		m.Vertices[i].Radiosity = sums[i].Multiply(1 / float64(counts[i]))
	}
}

// GathererQuads returns the vertex lists of all gatherers in id order
func (m *Model) GathererQuads() [][4]mgl64.Vec3 {
	quads := make([][4]mgl64.Vec3, len(m.Gatherers))
	for i, g := range m.Gatherers {
		quads[i] = g.Quad.V
	}
	return quads
}
