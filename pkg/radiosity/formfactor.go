package radiosity

import (
	"fmt"
	"math"
)

// DeltaFormFactors holds the per-pixel form factors of a hemicube with
// half-width 1 and its top face at height 1. Only one side face is stored;
// the other three are identical by symmetry.
type DeltaFormFactors struct {
	Width int       // Pixels across a face
	Top   []float64 // Width×Width, row-major, row = y
	Side  []float64 // (Width/2)×Width, row-major, row = z from the base upwards
}

// NewDeltaFormFactors computes the tables for a face width in pixels
func NewDeltaFormFactors(width int) (*DeltaFormFactors, error) {
	if width < MinTableResolution {
		return nil, fmt.Errorf("%w: %d < %d", ErrResolutionTooSmall, width, MinTableResolution)
	}
	if width%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrOddResolution, width)
	}

	d := &DeltaFormFactors{
		Width: width,
		Top:   make([]float64, width*width),
		Side:  make([]float64, width/2*width),
	}

	dp := 2 / float64(width) // Pixel width
	dA := dp * dp            // Pixel area

	for py := 0; py < width; py++ {
		y := -1 + (float64(py)+0.5)*dp
		for px := 0; px < width; px++ {
			x := -1 + (float64(px)+0.5)*dp
			r := x*x + y*y + 1
			d.Top[py*width+px] = dA / (math.Pi * r * r)
		}
	}

	for pz := 0; pz < width/2; pz++ {
		z := (float64(pz) + 0.5) * dp
		for py := 0; py < width; py++ {
			y := -1 + (float64(py)+0.5)*dp
			r := y*y + z*z + 1
			d.Side[pz*width+py] = dA * z / (math.Pi * r * r)
		}
	}

	return d, nil
}

// SideHeight returns the number of rows in the side table
func (d *DeltaFormFactors) SideHeight() int {
	return d.Width / 2
}

// TopAt returns the top-face entry at column x, row y
func (d *DeltaFormFactors) TopAt(x, y int) float64 {
	return d.Top[y*d.Width+x]
}

// SideAt returns the side-face entry at column y, row z
func (d *DeltaFormFactors) SideAt(y, z int) float64 {
	return d.Side[z*d.Width+y]
}

// Sum returns the total form factor of the whole hemicube, which tends to 1
// as the resolution grows
func (d *DeltaFormFactors) Sum() float64 {
	var top, side float64
	for _, f := range d.Top {
		top += f
	}
	for _, f := range d.Side {
		side += f
	}
	return top + 4*side
}
