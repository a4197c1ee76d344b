package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frustum holds the extents of a perspective view volume. Left, Right,
// Bottom and Top are measured on the near plane.
type Frustum struct {
	Left, Right float64
	Bottom, Top float64
	Near, Far   float64
}

// Camera positions a perspective view volume in the scene
type Camera struct {
	Eye     mgl64.Vec3 // Centre of projection
	Center  mgl64.Vec3 // Point the camera looks at
	Up      mgl64.Vec3 // Up direction, need not be orthogonal to the view direction
	Frustum Frustum
}

// NewPerspectiveCamera creates a symmetric camera from a vertical field of
// view in degrees and a width/height aspect ratio
func NewPerspectiveCamera(eye, center, up mgl64.Vec3, vfov, aspect, near, far float64) Camera {
	top := near * math.Tan(mgl64.DegToRad(vfov)/2)
	right := top * aspect
	return Camera{
		Eye:    eye,
		Center: center,
		Up:     up,
		Frustum: Frustum{
			Left: -right, Right: right,
			Bottom: -top, Top: top,
			Near: near, Far: far,
		},
	}
}

// View returns the world-to-eye transform
func (c Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye, c.Center, c.Up)
}

// Projection returns the eye-to-clip transform
func (c Camera) Projection() mgl64.Mat4 {
	f := c.Frustum
	return mgl64.Frustum(f.Left, f.Right, f.Bottom, f.Top, f.Near, f.Far)
}

// ViewProjection returns the combined world-to-clip transform
func (c Camera) ViewProjection() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Forward returns the unit viewing direction
func (c Camera) Forward() mgl64.Vec3 {
	return c.Center.Sub(c.Eye).Normalize()
}

// IsValid reports whether the camera defines a usable projection
func (c Camera) IsValid() bool {
	f := c.Frustum
	if f.Near <= 0 || f.Far <= f.Near || f.Right == f.Left || f.Top == f.Bottom {
		return false
	}
	forward := c.Center.Sub(c.Eye)
	if forward.Len() == 0 {
		return false
	}
	return forward.Cross(c.Up).Len() > 0
}
