package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quad is a planar convex quadrilateral given by four vertices in
// counter-clockwise order when seen from the front.
type Quad struct {
	V [4]mgl64.Vec3
}

// NewQuad creates a quad from four ordered vertices
func NewQuad(v0, v1, v2, v3 mgl64.Vec3) Quad {
	return Quad{V: [4]mgl64.Vec3{v0, v1, v2, v3}}
}

// NewQuadFromEdges creates a parallelogram from a corner point and two edge vectors.
// The normal points along u × v.
func NewQuadFromEdges(corner, u, v mgl64.Vec3) Quad {
	return NewQuad(corner, corner.Add(u), corner.Add(u).Add(v), corner.Add(v))
}

// Centroid returns the average of the four vertices
func (q Quad) Centroid() mgl64.Vec3 {
	return q.V[0].Add(q.V[1]).Add(q.V[2]).Add(q.V[3]).Mul(0.25)
}

// diagonalCross returns (v2-v0) × (v3-v1), whose length is twice the area
// of a planar quad and whose direction is the front-facing normal.
func (q Quad) diagonalCross() mgl64.Vec3 {
	return q.V[2].Sub(q.V[0]).Cross(q.V[3].Sub(q.V[1]))
}

// Normal returns the unit front-facing normal, or the zero vector for a degenerate quad
func (q Quad) Normal() mgl64.Vec3 {
	n := q.diagonalCross()
	length := n.Len()
	if length == 0 {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / length)
}

// Area returns the area of the (planar) quad
func (q Quad) Area() float64 {
	return 0.5 * q.diagonalCross().Len()
}

// IsDegenerate reports whether the quad has no usable area
func (q Quad) IsDegenerate() bool {
	return q.Area() < 1e-12
}

// Bilerp returns the point at parametric coordinates (s, t) in [0,1]²,
// where s runs along v0→v1 and t along v0→v3.
func (q Quad) Bilerp(s, t float64) mgl64.Vec3 {
	a := q.V[0].Mul((1 - s) * (1 - t))
	b := q.V[1].Mul(s * (1 - t))
	c := q.V[2].Mul(s * t)
	d := q.V[3].Mul((1 - s) * t)
	return a.Add(b).Add(c).Add(d)
}

// GridPoints returns the (nu+1)×(nv+1) lattice of bilinear sample points,
// row-major with s varying fastest.
func (q Quad) GridPoints(nu, nv int) []mgl64.Vec3 {
	points := make([]mgl64.Vec3, 0, (nu+1)*(nv+1))
	for j := 0; j <= nv; j++ {
		t := float64(j) / float64(nv)
		for i := 0; i <= nu; i++ {
			s := float64(i) / float64(nu)
			points = append(points, q.Bilerp(s, t))
		}
	}
	return points
}

// Subdivide splits the quad into an nu×nv grid of sub-quads with the same
// orientation, row-major with the u direction varying fastest.
func (q Quad) Subdivide(nu, nv int) []Quad {
	nu, nv = max(nu, 1), max(nv, 1)
	points := q.GridPoints(nu, nv)
	stride := nu + 1

	quads := make([]Quad, 0, nu*nv)
	for j := 0; j < nv; j++ {
		for i := 0; i < nu; i++ {
			quads = append(quads, NewQuad(
				points[j*stride+i],
				points[j*stride+i+1],
				points[(j+1)*stride+i+1],
				points[(j+1)*stride+i],
			))
		}
	}
	return quads
}

// Divisions returns how many pieces are needed along each parametric
// direction so that no edge is longer than maxEdge, capped at MaxDivisions.
// A non-positive maxEdge means no subdivision.
func (q Quad) Divisions(maxEdge float64) (nu, nv int) {
	if maxEdge <= 0 {
		return 1, 1
	}
	lenU := math.Max(q.V[1].Sub(q.V[0]).Len(), q.V[2].Sub(q.V[3]).Len())
	lenV := math.Max(q.V[3].Sub(q.V[0]).Len(), q.V[2].Sub(q.V[1]).Len())
	return divisions(lenU, maxEdge), divisions(lenV, maxEdge)
}

// MaxDivisions bounds the pieces per direction returned by Divisions
const MaxDivisions = 1 << 24

func divisions(length, maxEdge float64) int {
	n := math.Ceil(length/maxEdge - 1e-9)
	if n >= MaxDivisions {
		return MaxDivisions
	}
	return max(1, int(n))
}

// HemicubeWidth returns the width of a hemicube centred on the centroid
// whose footprint stays inside the quad: √2 times the smallest distance
// from the centroid to an edge.
func (q Quad) HemicubeWidth() float64 {
	centroid := q.Centroid()
	minHeight := math.Inf(1)
	for i := 0; i < 4; i++ {
		a, b := q.V[i], q.V[(i+1)%4]
		edge := b.Sub(a).Len()
		if edge == 0 {
			continue
		}
		h := 2 * TriangleArea(centroid, a, b) / edge
		minHeight = math.Min(minHeight, h)
	}
	if math.IsInf(minHeight, 1) {
		return 0
	}
	return math.Sqrt2 * minHeight
}

// TriangleArea returns the area of the triangle defined by the three vertices
func TriangleArea(a, b, c mgl64.Vec3) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Len()
}
