package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/geometry"
	"github.com/df07/go-progressive-radiosity/pkg/material"
)

// CornellSubdivision is the recommended patch size for the Cornell scenes
var CornellSubdivision = SubdivisionConfig{ShooterSize: 100, GathererSize: 25}

// NewCornellScene creates the classic Cornell box with its two blocks,
// using the measured geometry of the original box (units of millimetres).
func NewCornellScene(config SubdivisionConfig) (*Model, error) {
	b := newCornellBuilder("cornell", config)
	if err := addCornellRoom(b); err != nil {
		return nil, err
	}
	if err := addCornellBlocks(b); err != nil {
		return nil, err
	}
	return b.Build()
}

// NewCornellEmptyScene creates the Cornell box without the blocks
func NewCornellEmptyScene(config SubdivisionConfig) (*Model, error) {
	b := newCornellBuilder("cornell-empty", config)
	if err := addCornellRoom(b); err != nil {
		return nil, err
	}
	return b.Build()
}

func newCornellBuilder(name string, config SubdivisionConfig) *Builder {
	b := NewBuilder(name, config.Or(CornellSubdivision))
	b.SetView(ViewConfig{
		Eye:    mgl64.Vec3{278, 273, -800}, // Position camera outside the box looking in
		LookAt: mgl64.Vec3{278, 273, 0},
		Up:     mgl64.Vec3{0, 1, 0},
		VFov:   39.3,
	})
	return b
}

var (
	cornellWhite = material.NewLambertian("white", core.NewRGB(0.73, 0.73, 0.73))
	cornellRed   = material.NewLambertian("red", core.NewRGB(0.63, 0.065, 0.05))
	cornellGreen = material.NewLambertian("green", core.NewRGB(0.14, 0.45, 0.091))
	cornellLight = material.NewEmissive("light", core.NewRGB(17, 12, 4), core.Gray(0.78))
)

func quad(coords ...float64) geometry.Quad {
	v := func(i int) mgl64.Vec3 { return mgl64.Vec3{coords[3*i], coords[3*i+1], coords[3*i+2]} }
	return geometry.NewQuad(v(0), v(1), v(2), v(3))
}

func addCornellRoom(b *Builder) error {
	walls := []struct {
		quad    geometry.Quad
		surface *material.Surface
	}{
		// Floor
		{quad(552.8, 0, 0, 0, 0, 0, 0, 0, 559.2, 549.6, 0, 559.2), cornellWhite},
		// Ceiling
		{quad(556, 548.8, 0, 556, 548.8, 559.2, 0, 548.8, 559.2, 0, 548.8, 0), cornellWhite},
		// Back wall
		{quad(549.6, 0, 559.2, 0, 0, 559.2, 0, 548.8, 559.2, 556, 548.8, 559.2), cornellWhite},
		// Right wall (green)
		{quad(0, 0, 559.2, 0, 0, 0, 0, 548.8, 0, 0, 548.8, 559.2), cornellGreen},
		// Left wall (red)
		{quad(552.8, 0, 0, 549.6, 0, 559.2, 556, 548.8, 559.2, 556, 548.8, 0), cornellRed},
		// Light, just below the ceiling so the two never tie in depth
		{quad(343, 548.0, 227, 343, 548.0, 332, 213, 548.0, 332, 213, 548.0, 227), cornellLight},
	}

	for _, w := range walls {
		if err := b.AddQuad(w.quad, w.surface); err != nil {
			return err
		}
	}
	return nil
}

func addCornellBlocks(b *Builder) error {
	faces := []geometry.Quad{
		// Short block
		quad(130, 165, 65, 82, 165, 225, 240, 165, 272, 290, 165, 114),
		quad(290, 0, 114, 290, 165, 114, 240, 165, 272, 240, 0, 272),
		quad(130, 0, 65, 130, 165, 65, 290, 165, 114, 290, 0, 114),
		quad(82, 0, 225, 82, 165, 225, 130, 165, 65, 130, 0, 65),
		quad(240, 0, 272, 240, 165, 272, 82, 165, 225, 82, 0, 225),
		// Tall block
		quad(423, 330, 247, 265, 330, 296, 314, 330, 456, 472, 330, 406),
		quad(423, 0, 247, 423, 330, 247, 472, 330, 406, 472, 0, 406),
		quad(472, 0, 406, 472, 330, 406, 314, 330, 456, 314, 0, 456),
		quad(314, 0, 456, 314, 330, 456, 265, 330, 296, 265, 0, 296),
		quad(265, 0, 296, 265, 330, 296, 423, 330, 247, 423, 0, 247),
	}

	for _, f := range faces {
		if err := b.AddQuad(f, cornellWhite); err != nil {
			return err
		}
	}
	return nil
}
