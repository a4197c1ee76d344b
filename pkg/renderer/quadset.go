package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrTooManyQuads is returned when a set holds more quads than the item
// buffer can identify
var ErrTooManyQuads = errors.New("renderer: too many quads for a 24-bit item buffer")

// QuadSet is an immutable list of quads uploaded once and drawn many times.
// Quad i is drawn with the colour IDToRGB(i).
type QuadSet struct {
	quads  [][4]mgl64.Vec3
	colors [][3]uint8
}

// NewQuadSet copies the given quads into a drawable set
func NewQuadSet(quads [][4]mgl64.Vec3) (*QuadSet, error) {
	if len(quads) >= MaxQuads {
		return nil, fmt.Errorf("%w: %d quads, at most %d", ErrTooManyQuads, len(quads), MaxQuads-1)
	}

	set := &QuadSet{
		quads:  make([][4]mgl64.Vec3, len(quads)),
		colors: make([][3]uint8, len(quads)),
	}
	copy(set.quads, quads)
	for i := range set.colors {
		set.colors[i] = IDToRGB(uint32(i))
	}
	return set, nil
}

// Len returns the number of quads in the set
func (s *QuadSet) Len() int {
	return len(s.quads)
}

// Quad returns the vertices of quad i
func (s *QuadSet) Quad(i int) [4]mgl64.Vec3 {
	return s.quads[i]
}

// Color returns the item-buffer colour of quad i
func (s *QuadSet) Color(i int) [3]uint8 {
	return s.colors[i]
}
