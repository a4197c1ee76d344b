package renderer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/core"
)

// Rasterizer errors
var (
	ErrViewport    = errors.New("renderer: viewport outside render surface")
	ErrBufferSize  = errors.New("renderer: destination buffer too small")
	ErrSurfaceSize = errors.New("renderer: invalid render surface size")
	ErrCamera      = errors.New("renderer: invalid camera")
)

// Rasterizer draws flat-coloured quads into a depth-buffered RGB surface.
// Implementations must write exact colours: no blending, dithering,
// anti-aliasing or shading, so that item-buffer identifiers survive
// the round trip.
type Rasterizer interface {
	// Size returns the dimensions of the render surface
	Size() (width, height int)
	// ColorBits returns the precision of each colour channel
	ColorBits() (r, g, b int)
	// Render clears the whole surface to the background and draws every
	// quad of set seen by cam into viewport. It returns once drawing is complete.
	Render(set *QuadSet, cam Camera, viewport image.Rectangle) error
	// ReadPixels copies rect into dst as tightly packed RGB8 rows,
	// row 0 being the bottom row of rect
	ReadPixels(dst []byte, rect image.Rectangle) error
}

// RasterizerOption configures a SoftwareRasterizer
type RasterizerOption func(*SoftwareRasterizer)

// WithWorkers sets the number of parallel tile workers (0 = use CPU count)
func WithWorkers(n int) RasterizerOption {
	return func(r *SoftwareRasterizer) { r.numWorkers = n }
}

// WithTileSize sets the edge length of the tiles handed to workers
func WithTileSize(size int) RasterizerOption {
	return func(r *SoftwareRasterizer) { r.tileSize = size }
}

// WithBackground sets the clear colour
func WithBackground(c [3]uint8) RasterizerOption {
	return func(r *SoftwareRasterizer) { r.background = c }
}

// WithLogger sets the logger used for per-render debug output
func WithLogger(l *slog.Logger) RasterizerOption {
	return func(r *SoftwareRasterizer) { r.logger = core.LoggerOrNop(l) }
}

// SoftwareRasterizer is a CPU Rasterizer. Quads are clipped against the
// near and far planes in homogeneous space, split into triangles and
// filled at pixel centres using the top-left rule and a "less" depth test.
// Output is identical for any number of workers.
type SoftwareRasterizer struct {
	width, height int
	color         []byte    // RGB8, row-major, row 0 at the bottom
	depth         []float64 // Normalised device depth per pixel
	background    [3]uint8
	numWorkers    int
	tileSize      int
	logger        *slog.Logger

	triangles []screenTriangle // Reused between renders
	stats     RenderStats
}

// NewSoftwareRasterizer creates a rasterizer with a width×height surface
func NewSoftwareRasterizer(width, height int, opts ...RasterizerOption) (*SoftwareRasterizer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceSize, width, height)
	}

	r := &SoftwareRasterizer{
		width:      width,
		height:     height,
		color:      make([]byte, 3*width*height),
		depth:      make([]float64, width*height),
		background: BackgroundColor,
		tileSize:   64,
		logger:     core.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.clear()
	return r, nil
}

// Size returns the dimensions of the render surface
func (r *SoftwareRasterizer) Size() (width, height int) {
	return r.width, r.height
}

// ColorBits returns 8 bits for every channel
func (r *SoftwareRasterizer) ColorBits() (red, green, blue int) {
	return 8, 8, 8
}

// Stats returns the statistics of the most recent Render call
func (r *SoftwareRasterizer) Stats() RenderStats {
	return r.stats
}

// Render clears the surface and draws the quads of set into viewport
func (r *SoftwareRasterizer) Render(set *QuadSet, cam Camera, viewport image.Rectangle) error {
	if viewport.Empty() || !viewport.In(r.bounds()) {
		return fmt.Errorf("%w: %v not within %v", ErrViewport, viewport, r.bounds())
	}
	if !cam.IsValid() {
		return fmt.Errorf("%w: %+v", ErrCamera, cam)
	}

	r.clear()
	r.stats = RenderStats{Quads: set.Len()}
	r.setup(set, cam.ViewProjection(), viewport)

	tiles := NewTileGrid(viewport, r.tileSize)
	filled := FillTiles(tiles, r.numWorkers, r.fillTile)
	r.stats.Merge(filled)

	r.logger.Debug("item buffer rendered",
		"quads", r.stats.Quads,
		"clipped", r.stats.Clipped,
		"triangles", r.stats.Triangles,
		"fragments", r.stats.Fragments,
		"tiles", r.stats.Tiles)
	return nil
}

// ReadPixels copies rect into dst as RGB8 rows, bottom row first
func (r *SoftwareRasterizer) ReadPixels(dst []byte, rect image.Rectangle) error {
	if rect.Empty() || !rect.In(r.bounds()) {
		return fmt.Errorf("%w: %v not within %v", ErrViewport, rect, r.bounds())
	}
	rowBytes := 3 * rect.Dx()
	if need := rowBytes * rect.Dy(); len(dst) < need {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferSize, len(dst), need)
	}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		src := 3 * (y*r.width + rect.Min.X)
		row := y - rect.Min.Y
		copy(dst[row*rowBytes:(row+1)*rowBytes], r.color[src:src+rowBytes])
	}
	return nil
}

func (r *SoftwareRasterizer) bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

func (r *SoftwareRasterizer) clear() {
	for i := 0; i < len(r.color); i += 3 {
		r.color[i], r.color[i+1], r.color[i+2] = r.background[0], r.background[1], r.background[2]
	}
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}
}

// screenVertex is a vertex in viewport pixel coordinates with NDC depth
type screenVertex struct {
	x, y, z float64
}

// screenTriangle is a counter-clockwise triangle ready for filling
type screenTriangle struct {
	v      [3]screenVertex
	area   float64         // Twice the signed area, always positive
	bounds image.Rectangle // Candidate pixels, clamped to the viewport
	color  [3]uint8
}

// setup transforms, clips and projects every quad into screen triangles
func (r *SoftwareRasterizer) setup(set *QuadSet, mvp mgl64.Mat4, viewport image.Rectangle) {
	r.triangles = r.triangles[:0]

	var poly, scratch []mgl64.Vec4
	for i := 0; i < set.Len(); i++ {
		q := set.Quad(i)
		poly = poly[:0]
		for _, v := range q {
			poly = append(poly, mvp.Mul4x1(v.Vec4(1)))
		}

		// Near plane: z + w >= 0; far plane: w - z >= 0
		poly, scratch = clipPolygon(poly, scratch[:0], func(v mgl64.Vec4) float64 { return v.Z() + v.W() })
		poly, scratch = clipPolygon(poly, scratch[:0], func(v mgl64.Vec4) float64 { return v.W() - v.Z() })
		if len(poly) < 3 {
			r.stats.Clipped++
			continue
		}

		before := len(r.triangles)
		screen := make([]screenVertex, len(poly))
		for k, v := range poly {
			screen[k] = toScreen(v, viewport)
		}
		for k := 1; k+1 < len(screen); k++ {
			if tri, ok := newScreenTriangle(screen[0], screen[k], screen[k+1], set.Color(i), viewport); ok {
				r.triangles = append(r.triangles, tri)
			}
		}
		if len(r.triangles) == before {
			r.stats.Clipped++
		}
	}
	r.stats.Triangles = len(r.triangles)
}

// clipPolygon clips a convex polygon against the half-space dist(v) >= 0
// (Sutherland–Hodgman). The result is written to out, and the input slice
// is returned as scratch space for the next call.
func clipPolygon(in, out []mgl64.Vec4, dist func(mgl64.Vec4) float64) (clipped, scratch []mgl64.Vec4) {
	if len(in) == 0 {
		return out, in
	}
	prev := in[len(in)-1]
	prevDist := dist(prev)
	for _, cur := range in {
		curDist := dist(cur)
		if curDist >= 0 {
			if prevDist < 0 {
				out = append(out, lerp4(prev, cur, prevDist/(prevDist-curDist)))
			}
			out = append(out, cur)
		} else if prevDist >= 0 {
			out = append(out, lerp4(prev, cur, prevDist/(prevDist-curDist)))
		}
		prev, prevDist = cur, curDist
	}
	return out, in
}

func lerp4(a, b mgl64.Vec4, t float64) mgl64.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

// toScreen performs the perspective divide and viewport transform
func toScreen(v mgl64.Vec4, viewport image.Rectangle) screenVertex {
	invW := 1 / v.W()
	return screenVertex{
		x: float64(viewport.Min.X) + (v.X()*invW+1)*0.5*float64(viewport.Dx()),
		y: float64(viewport.Min.Y) + (v.Y()*invW+1)*0.5*float64(viewport.Dy()),
		z: v.Z() * invW,
	}
}

// edge returns twice the signed area of (a, b, p); positive when p is to
// the left of a→b with y pointing up
func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// isTopLeft reports whether edge a→b of a counter-clockwise triangle is a
// top or left edge, which own the pixel centres lying exactly on them
func isTopLeft(a, b screenVertex) bool {
	return (a.y == b.y && b.x < a.x) || b.y < a.y
}

func newScreenTriangle(a, b, c screenVertex, color [3]uint8, viewport image.Rectangle) (screenTriangle, bool) {
	area := edge(a, b, c.x, c.y)
	if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return screenTriangle{}, false
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}

	minX := math.Min(a.x, math.Min(b.x, c.x))
	maxX := math.Max(a.x, math.Max(b.x, c.x))
	minY := math.Min(a.y, math.Min(b.y, c.y))
	maxY := math.Max(a.y, math.Max(b.y, c.y))

	// Pixel (x, y) is sampled at (x+0.5, y+0.5)
	bounds := image.Rect(
		clampInt(math.Ceil(minX-0.5), viewport.Min.X, viewport.Max.X),
		clampInt(math.Ceil(minY-0.5), viewport.Min.Y, viewport.Max.Y),
		clampInt(math.Floor(maxX-0.5)+1, viewport.Min.X, viewport.Max.X),
		clampInt(math.Floor(maxY-0.5)+1, viewport.Min.Y, viewport.Max.Y),
	)
	if bounds.Empty() {
		return screenTriangle{}, false
	}

	return screenTriangle{
		v:      [3]screenVertex{a, b, c},
		area:   area,
		bounds: bounds,
		color:  color,
	}, true
}

func clampInt(v float64, lo, hi int) int {
	if v <= float64(lo) {
		return lo
	}
	if v >= float64(hi) {
		return hi
	}
	return int(v)
}

// fillTile draws every triangle overlapping tile, in submission order
func (r *SoftwareRasterizer) fillTile(tile *Tile) RenderStats {
	stats := RenderStats{Tiles: 1}
	for i := range r.triangles {
		tri := &r.triangles[i]
		region := tri.bounds.Intersect(tile.Bounds)
		if region.Empty() {
			continue
		}
		stats.Fragments += r.fillTriangle(tri, region)
	}
	return stats
}

func (r *SoftwareRasterizer) fillTriangle(tri *screenTriangle, region image.Rectangle) int {
	v0, v1, v2 := tri.v[0], tri.v[1], tri.v[2]
	tl0, tl1, tl2 := isTopLeft(v1, v2), isTopLeft(v2, v0), isTopLeft(v0, v1)
	invArea := 1 / tri.area

	written := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		py := float64(y) + 0.5
		for x := region.Min.X; x < region.Max.X; x++ {
			px := float64(x) + 0.5

			w0 := edge(v1, v2, px, py)
			w1 := edge(v2, v0, px, py)
			w2 := edge(v0, v1, px, py)
			if !inside(w0, tl0) || !inside(w1, tl1) || !inside(w2, tl2) {
				continue
			}

			z := (w0*v0.z + w1*v1.z + w2*v2.z) * invArea
			idx := y*r.width + x
			if !(z < r.depth[idx]) {
				continue
			}
			r.depth[idx] = z
			r.color[3*idx], r.color[3*idx+1], r.color[3*idx+2] = tri.color[0], tri.color[1], tri.color[2]
			written++
		}
	}
	return written
}

func inside(w float64, topLeft bool) bool {
	return w > 0 || (w == 0 && topLeft)
}
