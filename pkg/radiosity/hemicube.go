package radiosity

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// FaceKind distinguishes the full top face from the half-height sides
type FaceKind int

const (
	TopFace FaceKind = iota
	SideFace
)

func (k FaceKind) String() string {
	if k == TopFace {
		return "top"
	}
	return "side"
}

// NumFaces is the number of rendered hemicube faces: the top, then the
// four sides in vertex order
const NumFaces = 5

// Face is one rendered hemicube face paired with its form factor table
type Face struct {
	Index    int    // 0 for the top, 1..4 for the sides
	Name     string // "top", "side1".."side4"
	Kind     FaceKind
	Camera   renderer.Camera
	Viewport image.Rectangle
	Pixels   []byte    // RGB8 read back from the viewport, bottom row first
	Table    []float64 // Delta form factor per pixel
	Width    int
	Height   int
}

// HemicubeCameras returns the five cameras of a hemicube on the shooter's
// centroid: the top face looks along the normal with v0→v1 as up, and side
// face f looks along v[f-1]−v[f mod 4] with the normal as up. The near plane
// sits at half the hemicube width and the far plane at twice the scene radius.
func HemicubeCameras(shooter *scene.ShooterQuad, radius float64) ([NumFaces]renderer.Camera, error) {
	var cams [NumFaces]renderer.Camera

	width := shooter.Quad.HemicubeWidth()
	if width <= 0 {
		return cams, fmt.Errorf("%w: hemicube width %g", ErrDegenerateShooter, width)
	}
	near := width / 2
	far := 2 * radius

	c, n, v := shooter.Centroid, shooter.Normal, shooter.Quad.V

	cams[0] = renderer.Camera{
		Eye:    c,
		Center: c.Add(n),
		Up:     v[1].Sub(v[0]),
		Frustum: renderer.Frustum{
			Left: -near, Right: near,
			Bottom: -near, Top: near,
			Near: near, Far: far,
		},
	}

	for f := 1; f <= 4; f++ {
		cams[f] = renderer.Camera{
			Eye:    c,
			Center: c.Add(v[f-1].Sub(v[f%4])),
			Up:     n,
			Frustum: renderer.Frustum{
				Left: -near, Right: near,
				Bottom: 0, Top: near,
				Near: near, Far: far,
			},
		}
	}

	for i, cam := range cams {
		if !cam.IsValid() {
			return cams, fmt.Errorf("%w: face %d camera %+v", ErrDegenerateShooter, i, cam)
		}
	}
	return cams, nil
}

// Sampler renders the five hemicube faces of a shooter into reusable buffers
type Sampler struct {
	rast   renderer.Rasterizer
	set    *renderer.QuadSet
	radius float64
	faces  [NumFaces]Face
	logger *slog.Logger
}

// NewSampler checks that rast can hold exact 24-bit ids at the resolution
// of tables and allocates one buffer per face
func NewSampler(rast renderer.Rasterizer, set *renderer.QuadSet, tables *DeltaFormFactors, radius float64, logger *slog.Logger) (*Sampler, error) {
	if r, g, b := rast.ColorBits(); r != 8 || g != 8 || b != 8 {
		return nil, fmt.Errorf("%w: R = %d bits, G = %d bits, B = %d bits", ErrPixelFormat, r, g, b)
	}
	w := tables.Width
	if sw, sh := rast.Size(); sw != w || sh != w {
		return nil, fmt.Errorf("%w: surface %dx%d, hemicube %dx%d", ErrSurfaceSize, sw, sh, w, w)
	}

	s := &Sampler{
		rast:   rast,
		set:    set,
		radius: radius,
		logger: core.LoggerOrNop(logger),
	}

	for i := range s.faces {
		face := Face{Index: i, Width: w}
		if i == 0 {
			face.Name, face.Kind = "top", TopFace
			face.Height = w
			face.Table = tables.Top
		} else {
			face.Name, face.Kind = fmt.Sprintf("side%d", i), SideFace
			face.Height = tables.SideHeight()
			face.Table = tables.Side
		}
		face.Viewport = image.Rect(0, 0, face.Width, face.Height)
		face.Pixels = make([]byte, 3*face.Width*face.Height)
		if len(face.Table) != face.Width*face.Height {
			return nil, fmt.Errorf("%w: %s table has %d entries for %dx%d",
				ErrBufferSize, face.Name, len(face.Table), face.Width, face.Height)
		}
		s.faces[i] = face
	}
	return s, nil
}

// Sample renders and reads back every face for shooter, in face order. The
// returned faces share the sampler's buffers and stay valid until the next call.
func (s *Sampler) Sample(shooter *scene.ShooterQuad) ([]Face, error) {
	cams, err := HemicubeCameras(shooter, s.radius)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("sampling hemicube",
		"near", cams[0].Frustum.Near,
		"far", cams[0].Frustum.Far)

	for i := range s.faces {
		face := &s.faces[i]
		face.Camera = cams[i]
		if err := s.rast.Render(s.set, face.Camera, face.Viewport); err != nil {
			return nil, fmt.Errorf("failed to render %s face: %w", face.Name, err)
		}
		if err := s.rast.ReadPixels(face.Pixels, face.Viewport); err != nil {
			return nil, fmt.Errorf("failed to read %s face: %w", face.Name, err)
		}
	}
	return s.faces[:], nil
}

// Faces returns the buffers of the most recent Sample call
func (s *Sampler) Faces() []Face {
	return s.faces[:]
}

// AtlasFaces converts faces for renderer.HemicubeAtlas
func AtlasFaces(faces []Face) []renderer.AtlasFace {
	out := make([]renderer.AtlasFace, len(faces))
	for i, f := range faces {
		out[i] = renderer.AtlasFace{Pixels: f.Pixels, Width: f.Width, Height: f.Height}
	}
	return out
}
