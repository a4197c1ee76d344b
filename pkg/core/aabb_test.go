package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewAABBFromPoints(t *testing.T) {
	box := NewAABBFromPoints(
		mgl64.Vec3{1, -2, 3},
		mgl64.Vec3{-1, 4, 0},
		mgl64.Vec3{0, 0, 5},
	)

	if box.Min != (mgl64.Vec3{-1, -2, 0}) {
		t.Errorf("Expected min {-1 -2 0}, got %v", box.Min)
	}
	if box.Max != (mgl64.Vec3{1, 4, 5}) {
		t.Errorf("Expected max {1 4 5}, got %v", box.Max)
	}
	if !box.IsValid() {
		t.Error("Expected box to be valid")
	}
}

func TestAABB_Empty(t *testing.T) {
	if EmptyAABB().IsValid() {
		t.Error("Expected empty box to be invalid")
	}
	if r := EmptyAABB().BoundingRadius(); r != 0 {
		t.Errorf("Expected zero radius for empty box, got %f", r)
	}
	if box := NewAABBFromPoints(); box != (AABB{}) {
		t.Errorf("Expected zero box for no points, got %v", box)
	}
}

func TestAABB_BoundingSphere(t *testing.T) {
	box := NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 2, 2})

	if c := box.Center(); c != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("Expected center {1 1 1}, got %v", c)
	}
	expected := math.Sqrt(3)
	if r := box.BoundingRadius(); math.Abs(r-expected) > 1e-12 {
		t.Errorf("Expected radius %f, got %f", expected, r)
	}
}

func TestAABB_UnionAndExpand(t *testing.T) {
	a := NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := NewAABB(mgl64.Vec3{2, -1, 0}, mgl64.Vec3{3, 0, 4})

	u := a.Union(b)
	if u.Min != (mgl64.Vec3{0, -1, 0}) || u.Max != (mgl64.Vec3{3, 1, 4}) {
		t.Errorf("Unexpected union %v", u)
	}
	if axis := u.LongestAxis(); axis != 2 {
		t.Errorf("Expected longest axis 2, got %d", axis)
	}

	e := a.Expand(0.5)
	if e.Min != (mgl64.Vec3{-0.5, -0.5, -0.5}) || e.Max != (mgl64.Vec3{1.5, 1.5, 1.5}) {
		t.Errorf("Unexpected expanded box %v", e)
	}
}
