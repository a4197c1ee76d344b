package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/geometry"
	"github.com/df07/go-progressive-radiosity/pkg/material"
)

// Subdivision errors
var (
	ErrInvalidSubdivision = errors.New("scene: invalid subdivision config")
	ErrTooManyPatches     = errors.New("scene: subdivision exceeds the gatherer limit")
)

// MaxGatherers is the largest gatherer count whose item-buffer ids all stay
// below the reserved white background id.
const MaxGatherers = 1<<24 - 2

// SubdivisionConfig controls how input quads are split into patches.
// Sizes are maximum edge lengths in scene units; zero disables splitting.
type SubdivisionConfig struct {
	ShooterSize  float64 `json:"shooterSize"`  // Maximum edge length of a shooter patch
	GathererSize float64 `json:"gathererSize"` // Maximum edge length of a gatherer patch
	MaxGatherers int     `json:"maxGatherers"` // Build fails above this many gatherers (0 = MaxGatherers)
}

// Validate checks that sizes and the gatherer limit are non-negative
func (c SubdivisionConfig) Validate() error {
	if c.ShooterSize < 0 || c.GathererSize < 0 {
		return fmt.Errorf("%w: sizes must be non-negative (shooter %g, gatherer %g)",
			ErrInvalidSubdivision, c.ShooterSize, c.GathererSize)
	}
	if c.MaxGatherers < 0 {
		return fmt.Errorf("%w: max gatherers %d is negative", ErrInvalidSubdivision, c.MaxGatherers)
	}
	return nil
}

// GathererLimit returns the effective gatherer cap
func (c SubdivisionConfig) GathererLimit() int {
	if c.MaxGatherers > 0 && c.MaxGatherers < MaxGatherers {
		return c.MaxGatherers
	}
	return MaxGatherers
}

// IsZero reports whether neither size is set
func (c SubdivisionConfig) IsZero() bool {
	return c.ShooterSize == 0 && c.GathererSize == 0
}

// Or returns c with its sizes taken from fallback when neither is set,
// and likewise for the gatherer limit
func (c SubdivisionConfig) Or(fallback SubdivisionConfig) SubdivisionConfig {
	out := c
	if c.IsZero() {
		out.ShooterSize, out.GathererSize = fallback.ShooterSize, fallback.GathererSize
	}
	if out.MaxGatherers == 0 {
		out.MaxGatherers = fallback.MaxGatherers
	}
	return out
}

type inputQuad struct {
	quad    geometry.Quad
	surface *material.Surface
}

// patchGrid is the subdivision of one input quad: su×sv shooters, each
// split into gu×gv gatherers
type patchGrid struct {
	su, sv, gu, gv int
}

func (g patchGrid) gatherers() int {
	return g.su * g.gu * g.sv * g.gv
}

// Builder collects input polygons and turns them into a Model of shooter
// and gatherer patches.
type Builder struct {
	name     string
	config   SubdivisionConfig
	surfaces []*material.Surface
	byName   map[string]*material.Surface
	quads    []inputQuad
	view     *ViewConfig
}

// NewBuilder creates a builder with the given subdivision settings
func NewBuilder(name string, config SubdivisionConfig) *Builder {
	return &Builder{
		name:   name,
		config: config,
		byName: make(map[string]*material.Surface),
	}
}

// AddSurface registers a surface. Names must be unique.
func (b *Builder) AddSurface(s *material.Surface) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if existing, ok := b.byName[s.Name]; ok {
		if existing == s {
			return nil
		}
		return fmt.Errorf("%w: duplicate surface %q", ErrInvalidModel, s.Name)
	}
	b.byName[s.Name] = s
	b.surfaces = append(b.surfaces, s)
	return nil
}

// Surface looks up a registered surface by name
func (b *Builder) Surface(name string) (*material.Surface, bool) {
	s, ok := b.byName[name]
	return s, ok
}

// AddQuad adds an input polygon. The surface is registered if needed.
func (b *Builder) AddQuad(q geometry.Quad, s *material.Surface) error {
	if s == nil {
		return fmt.Errorf("%w: quad %d has no surface", ErrInvalidModel, len(b.quads))
	}
	if q.IsDegenerate() {
		return fmt.Errorf("%w: quad %d is degenerate", ErrInvalidModel, len(b.quads))
	}
	if err := b.AddSurface(s); err != nil {
		return err
	}
	b.quads = append(b.quads, inputQuad{quad: q, surface: s})
	return nil
}

// SetView sets the preview viewpoint stored in the model
func (b *Builder) SetView(v ViewConfig) {
	b.view = &v
}

// Build subdivides every input quad, initialises patch energy from emission
// and returns the validated model.
func (b *Builder) Build() (*Model, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if len(b.quads) == 0 {
		return nil, ErrEmptyModel
	}

	// Count before allocating anything
	limit := b.config.GathererLimit()
	grids := make([]patchGrid, len(b.quads))
	total := 0
	for i, in := range b.quads {
		grids[i] = b.grid(in.quad)
		total += grids[i].gatherers()
		if total > limit {
			return nil, fmt.Errorf("%w: more than %d gatherers (shooter size %g, gatherer size %g)",
				ErrTooManyPatches, limit, b.config.ShooterSize, b.config.GathererSize)
		}
	}

	m := &Model{
		Name:     b.name,
		Surfaces: b.surfaces,
	}

	for i, in := range b.quads {
		b.subdivide(m, in, grids[i])
	}

	bounds := core.EmptyAABB()
	for _, v := range m.Vertices {
		bounds = bounds.Extend(v.Position)
	}
	m.Bounds = bounds
	m.Center = bounds.Center()
	m.Radius = bounds.BoundingRadius()

	if b.view != nil {
		m.View = *b.view
	} else {
		m.View = defaultView(m.Center, m.Radius)
	}

	m.InitializeEnergy()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// grid returns the shooter and gatherer divisions of q
func (b *Builder) grid(q geometry.Quad) patchGrid {
	su, sv := q.Divisions(b.config.ShooterSize)
	gu, gv := q.Divisions(b.config.GathererSize)
	return patchGrid{
		su: su,
		sv: sv,
		gu: max(1, ceilDiv(gu, su)),
		gv: max(1, ceilDiv(gv, sv)),
	}
}

// subdivide splits one input quad into a shooter grid, and each shooter
// cell into an equal number of gatherers. Lattice points are shared within
// the input quad only; separate input quads never share vertices.
func (b *Builder) subdivide(m *Model, in inputQuad, grid patchGrid) {
	su, sv, gu, gv := grid.su, grid.sv, grid.gu, grid.gv

	nu, nv := su*gu, sv*gv
	stride := nu + 1
	base := len(m.Vertices)
	for _, p := range in.quad.GridPoints(nu, nv) {
		m.Vertices = append(m.Vertices, Vertex{Position: p})
	}
	at := func(i, j int) int { return base + j*stride + i }
	cell := func(i0, j0, i1, j1 int) ([4]int, geometry.Quad) {
		idx := [4]int{at(i0, j0), at(i1, j0), at(i1, j1), at(i0, j1)}
		return idx, geometry.NewQuad(
			m.Vertices[idx[0]].Position,
			m.Vertices[idx[1]].Position,
			m.Vertices[idx[2]].Position,
			m.Vertices[idx[3]].Position,
		)
	}

	for sj := 0; sj < sv; sj++ {
		for si := 0; si < su; si++ {
			_, sq := cell(si*gu, sj*gv, (si+1)*gu, (sj+1)*gv)
			shooterIndex := len(m.Shooters)
			shooter := &ShooterQuad{
				Quad:     sq,
				Centroid: sq.Centroid(),
				Normal:   sq.Normal(),
				Area:     sq.Area(),
				Surface:  in.surface,
			}

			for gj := 0; gj < gv; gj++ {
				for gi := 0; gi < gu; gi++ {
					i, j := si*gu+gi, sj*gv+gj
					idx, gq := cell(i, j, i+1, j+1)
					shooter.Gatherers = append(shooter.Gatherers, len(m.Gatherers))
					m.Gatherers = append(m.Gatherers, &GathererQuad{
						Quad:        gq,
						Area:        gq.Area(),
						Shooter:     shooterIndex,
						Surface:     in.surface,
						VertexIndex: idx,
					})
				}
			}
			m.Shooters = append(m.Shooters, shooter)
		}
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// defaultView looks at the model from outside its bounding sphere along +Z
func defaultView(center mgl64.Vec3, radius float64) ViewConfig {
	return ViewConfig{
		Eye:    center.Sub(mgl64.Vec3{0, 0, 3 * radius}),
		LookAt: center,
		Up:     mgl64.Vec3{0, 1, 0},
		VFov:   40,
	}
}
