package renderer

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/geometry"
	"github.com/df07/go-progressive-radiosity/pkg/material"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// facingMinusZ returns a square of half-size s in the plane z whose normal points to -Z
func facingMinusZ(s, z float64) geometry.Quad {
	return geometry.NewQuad(
		mgl64.Vec3{-s, -s, z}, mgl64.Vec3{-s, s, z},
		mgl64.Vec3{s, s, z}, mgl64.Vec3{s, -s, z})
}

func newPreviewModel(t *testing.T, reversed bool) *scene.Model {
	t.Helper()
	red := material.NewEmissive("red", core.NewRGB(1, 0, 0), core.Gray(0))
	green := material.NewEmissive("green", core.NewRGB(0, 1, 0), core.Gray(0))

	b := scene.NewBuilder("preview", scene.SubdivisionConfig{})
	quads := []struct {
		q geometry.Quad
		s *material.Surface
	}{
		{facingMinusZ(0.5, -1), red}, // Near
		{facingMinusZ(1, 0), green},  // Far
	}
	if reversed {
		quads[0], quads[1] = quads[1], quads[0]
	}
	for _, q := range quads {
		if err := b.AddQuad(q.q, q.s); err != nil {
			t.Fatalf("AddQuad failed: %v", err)
		}
	}
	b.SetView(scene.ViewConfig{
		Eye:    mgl64.Vec3{0, 0, -10},
		LookAt: mgl64.Vec3{0, 0, 0},
		Up:     mgl64.Vec3{0, 1, 0},
		VFov:   40,
	})
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func rgb8(p *Preview, x, y int) [3]uint8 {
	r, g, b, _ := p.Image().At(x, y).RGBA()
	return [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

func TestPreviewPainterOrder(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		m := newPreviewModel(t, reversed)
		config := DefaultPreviewConfig()
		config.Width, config.Height = 64, 64
		config.Background = core.Gray(0)

		p, err := NewPreview(m, config)
		if err != nil {
			t.Fatalf("NewPreview failed: %v", err)
		}
		defer p.Close()

		if p.Drawn != 2 || p.Culled != 0 {
			t.Errorf("drawn %d, culled %d; want 2, 0", p.Drawn, p.Culled)
		}
		if got := rgb8(p, 32, 32); got != [3]uint8{255, 0, 0} {
			t.Errorf("reversed=%v: centre = %v, want the near red patch", reversed, got)
		}
		// Inside the far patch but outside the near one
		if got := rgb8(p, 32, 25); got != [3]uint8{0, 255, 0} {
			t.Errorf("reversed=%v: pixel above centre = %v, want the far green patch", reversed, got)
		}
		if got := rgb8(p, 1, 1); got != [3]uint8{0, 0, 0} {
			t.Errorf("reversed=%v: corner = %v, want background", reversed, got)
		}
	}
}

func TestPreviewCullsBackFaces(t *testing.T) {
	m := newPreviewModel(t, false)
	m.View.Eye = mgl64.Vec3{0, 0, 10} // Behind both patches

	config := DefaultPreviewConfig()
	config.Width, config.Height = 32, 32
	p, err := NewPreview(m, config)
	if err != nil {
		t.Fatalf("NewPreview failed: %v", err)
	}
	defer p.Close()

	if p.Drawn != 0 || p.Culled != 2 {
		t.Errorf("drawn %d, culled %d; want 0, 2", p.Drawn, p.Culled)
	}
}

func TestPreviewAutoExposure(t *testing.T) {
	m, err := scene.NewCornellEmptyScene(scene.SubdivisionConfig{ShooterSize: 1000, GathererSize: 1000})
	if err != nil {
		t.Fatalf("NewCornellEmptyScene failed: %v", err)
	}
	for _, g := range m.Gatherers {
		if !g.Surface.IsEmitter() {
			g.Radiosity = core.Gray(0.25)
		}
	}

	config := DefaultPreviewConfig()
	config.Width, config.Height = 48, 48
	p, err := NewPreview(m, config)
	if err != nil {
		t.Fatalf("NewPreview failed: %v", err)
	}
	defer p.Close()

	if p.Exposure != 4 {
		t.Errorf("exposure = %g, want 4", p.Exposure)
	}
	if p.Drawn != len(m.Gatherers) {
		t.Errorf("drawn %d of %d patches", p.Drawn, len(m.Gatherers))
	}
	// The back wall fills the centre of the Cornell view
	if got := rgb8(p, 24, 24); got != [3]uint8{255, 255, 255} {
		t.Errorf("centre = %v, want full white", got)
	}

	var buf bytes.Buffer
	if err := p.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding preview PNG: %v", err)
	}
	if img.Bounds().Dx() != 48 || img.Bounds().Dy() != 48 {
		t.Errorf("PNG size = %v, want 48x48", img.Bounds())
	}
}

func TestPreviewInvalidSize(t *testing.T) {
	m := newPreviewModel(t, false)
	config := DefaultPreviewConfig()
	config.Width = 0
	if _, err := NewPreview(m, config); err == nil {
		t.Error("expected error for zero width")
	}
}
