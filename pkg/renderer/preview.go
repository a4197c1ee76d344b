package renderer

import (
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// PreviewConfig controls the shaded preview of a solved model
type PreviewConfig struct {
	Width, Height int
	Exposure      float64  // Radiosity scale before clamping (0 = auto)
	Gamma         float64  // Display gamma (0 = linear)
	Background    core.RGB // Colour behind the model
	CullBackFaces bool     // Skip patches facing away from the eye
}

// DefaultPreviewConfig returns sensible default values
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:         512,
		Height:        512,
		Exposure:      0,
		Gamma:         2.2,
		Background:    core.Gray(0.05),
		CullBackFaces: true,
	}
}

// Preview is a flat-shaded image of every gatherer's radiosity, seen from
// the model's view and drawn back to front.
type Preview struct {
	dc       *gg.Context
	Exposure float64 // Exposure actually applied
	Drawn    int     // Patches drawn
	Culled   int     // Patches skipped (behind the eye or back-facing)
}

type previewPatch struct {
	points   [4][2]float64
	color    core.RGB
	distance float64
}

// NewPreview draws the gatherers of m into a new image
func NewPreview(m *scene.Model, config PreviewConfig) (*Preview, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("%w: preview %dx%d", ErrSurfaceSize, config.Width, config.Height)
	}

	view := m.View
	dist := view.LookAt.Sub(view.Eye).Len()
	near := max(1e-3*m.Radius, 1e-9)
	cam := NewPerspectiveCamera(view.Eye, view.LookAt, view.Up, view.VFov,
		float64(config.Width)/float64(config.Height), near, dist+2*m.Radius)
	if !cam.IsValid() {
		return nil, fmt.Errorf("%w: preview view %+v", ErrCamera, view)
	}
	mvp := cam.ViewProjection()

	p := &Preview{
		dc:       gg.NewContext(config.Width, config.Height),
		Exposure: config.Exposure,
	}
	if p.Exposure <= 0 {
		p.Exposure = AutoExposure(m)
	}

	patches := make([]previewPatch, 0, len(m.Gatherers))
	for _, g := range m.Gatherers {
		centroid := g.Quad.Centroid()
		if config.CullBackFaces && g.Quad.Normal().Dot(view.Eye.Sub(centroid)) <= 0 {
			p.Culled++
			continue
		}

		patch := previewPatch{color: g.Radiosity, distance: centroid.Sub(view.Eye).Len()}
		visible := true
		for k, v := range g.Quad.V {
			clip := mvp.Mul4x1(v.Vec4(1))
			if clip.W() < near {
				visible = false
				break
			}
			patch.points[k] = toPreviewPixel(clip, config.Width, config.Height)
		}
		if !visible {
			p.Culled++
			continue
		}
		patches = append(patches, patch)
	}

	// Painter's algorithm: farthest first
	sort.SliceStable(patches, func(i, j int) bool {
		return patches[i].distance > patches[j].distance
	})

	bg := config.Background
	p.dc.ClearWithColor(gg.RGB(bg[core.R], bg[core.G], bg[core.B]))
	for _, patch := range patches {
		c := patch.color.ToneMap(p.Exposure, config.Gamma)
		p.dc.SetRGB(float64(c[0])/255, float64(c[1])/255, float64(c[2])/255)
		p.dc.MoveTo(patch.points[0][0], patch.points[0][1])
		for _, pt := range patch.points[1:] {
			p.dc.LineTo(pt[0], pt[1])
		}
		p.dc.ClosePath()
		if err := p.dc.Fill(); err != nil {
			return nil, fmt.Errorf("failed to fill preview patch: %w", err)
		}
		p.Drawn++
	}

	return p, nil
}

// toPreviewPixel maps clip coordinates to image pixels with y pointing down
func toPreviewPixel(clip mgl64.Vec4, width, height int) [2]float64 {
	x := clip.X() / clip.W()
	y := clip.Y() / clip.W()
	return [2]float64{
		(x + 1) * 0.5 * float64(width),
		(1 - y) * 0.5 * float64(height),
	}
}

// AutoExposure returns the exposure that maps the brightest reflecting
// patch to full intensity, letting light sources saturate
func AutoExposure(m *scene.Model) float64 {
	var brightest, brightestAny float64
	for _, g := range m.Gatherers {
		peak := g.Radiosity.Max()
		brightestAny = max(brightestAny, peak)
		if !g.Surface.IsEmitter() {
			brightest = max(brightest, peak)
		}
	}
	switch {
	case brightest > 0:
		return 1 / brightest
	case brightestAny > 0:
		return 1 / brightestAny
	default:
		return 1
	}
}

// Image returns the rendered preview
func (p *Preview) Image() image.Image {
	return p.dc.Image()
}

// SavePNG writes the preview to a PNG file
func (p *Preview) SavePNG(path string) error {
	return p.dc.SavePNG(path)
}

// EncodePNG writes the preview as PNG to w
func (p *Preview) EncodePNG(w io.Writer) error {
	return p.dc.EncodePNG(w)
}

// Close releases the drawing context
func (p *Preview) Close() error {
	return p.dc.Close()
}
