package radiosity

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/geometry"
	"github.com/df07/go-progressive-radiosity/pkg/material"
	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// newTwoSquareModel returns two facing unit squares, each one shooter
// split into four gatherers of area 0.25
func newTwoSquareModel(t *testing.T) *scene.Model {
	t.Helper()
	floor := material.NewLambertian("floor", core.Gray(0.5))
	ceiling := material.NewLambertian("ceiling", core.NewRGB(0.2, 0.4, 0.6))

	b := scene.NewBuilder("two-squares", scene.SubdivisionConfig{GathererSize: 0.5})
	if err := b.AddQuad(geometry.NewQuadFromEdges(
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}), floor); err != nil {
		t.Fatalf("AddQuad failed: %v", err)
	}
	if err := b.AddQuad(geometry.NewQuadFromEdges(
		mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}), ceiling); err != nil {
		t.Fatalf("AddQuad failed: %v", err)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

type patchEnergy struct {
	radiosity []core.RGB
	unshot    []core.RGB
}

func snapshotEnergy(m *scene.Model) patchEnergy {
	var e patchEnergy
	for _, g := range m.Gatherers {
		e.radiosity = append(e.radiosity, g.Radiosity)
	}
	for _, s := range m.Shooters {
		e.unshot = append(e.unshot, s.UnshotPower)
	}
	return e
}

// fillPixels returns an RGB8 buffer with pixel i showing ids[i]
func fillPixels(ids ...uint32) []byte {
	buf := make([]byte, 0, 3*len(ids))
	for _, id := range ids {
		c := renderer.IDToRGB(id)
		buf = append(buf, c[0], c[1], c[2])
	}
	return buf
}

// fakeRasterizer records render calls and fills every read with one id
type fakeRasterizer struct {
	width, height int
	bits          [3]int
	fill          uint32
	cameras       []renderer.Camera
	viewports     []image.Rectangle
}

func newFakeRasterizer(size int, fill uint32) *fakeRasterizer {
	return &fakeRasterizer{width: size, height: size, bits: [3]int{8, 8, 8}, fill: fill}
}

func (f *fakeRasterizer) Size() (int, int) { return f.width, f.height }

func (f *fakeRasterizer) ColorBits() (int, int, int) { return f.bits[0], f.bits[1], f.bits[2] }

func (f *fakeRasterizer) Render(set *renderer.QuadSet, cam renderer.Camera, viewport image.Rectangle) error {
	f.cameras = append(f.cameras, cam)
	f.viewports = append(f.viewports, viewport)
	return nil
}

func (f *fakeRasterizer) ReadPixels(dst []byte, rect image.Rectangle) error {
	c := renderer.IDToRGB(f.fill)
	for i := 0; i < rect.Dx()*rect.Dy(); i++ {
		dst[3*i], dst[3*i+1], dst[3*i+2] = c[0], c[1], c[2]
	}
	return nil
}
