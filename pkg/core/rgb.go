package core

import "math"

// Channel indices for readability.
const (
	R = 0
	G = 1
	B = 2
)

// RGB holds one value per colour channel. It is used for reflectivity,
// emission, radiosity and power alike.
type RGB [3]float64

// NewRGB creates a new RGB triple
func NewRGB(r, g, b float64) RGB {
	return RGB{r, g, b}
}

// Gray returns an RGB triple with the same value in every channel
func Gray(v float64) RGB {
	return RGB{v, v, v}
}

// Add returns the channel-wise sum of two triples
func (c RGB) Add(other RGB) RGB {
	return RGB{c[R] + other[R], c[G] + other[G], c[B] + other[B]}
}

// Subtract returns the channel-wise difference of two triples
func (c RGB) Subtract(other RGB) RGB {
	return RGB{c[R] - other[R], c[G] - other[G], c[B] - other[B]}
}

// Multiply returns the triple scaled by a scalar
func (c RGB) Multiply(scalar float64) RGB {
	return RGB{c[R] * scalar, c[G] * scalar, c[B] * scalar}
}

// MultiplyRGB returns the channel-wise product of two triples
func (c RGB) MultiplyRGB(other RGB) RGB {
	return RGB{c[R] * other[R], c[G] * other[G], c[B] * other[B]}
}

// Sum returns R+G+B
func (c RGB) Sum() float64 {
	return c[R] + c[G] + c[B]
}

// Max returns the largest channel value
func (c RGB) Max() float64 {
	return max(c[R], c[G], c[B])
}

// IsZero reports whether every channel is exactly zero
func (c RGB) IsZero() bool {
	return c[R] == 0 && c[G] == 0 && c[B] == 0
}

// Luminance returns the perceptual luminance of an RGB color
// Uses standard luminance weights: 0.299*R + 0.587*G + 0.114*B
func (c RGB) Luminance() float64 {
	return 0.299*c[R] + 0.587*c[G] + 0.114*c[B]
}

// Clamp returns a triple with channels clamped to [min, max]
func (c RGB) Clamp(minVal, maxVal float64) RGB {
	return RGB{
		max(minVal, min(maxVal, c[R])),
		max(minVal, min(maxVal, c[G])),
		max(minVal, min(maxVal, c[B])),
	}
}

// GammaCorrect applies gamma correction to color values
func (c RGB) GammaCorrect(gamma float64) RGB {
	invGamma := 1.0 / gamma
	return RGB{
		math.Pow(c[R], invGamma),
		math.Pow(c[G], invGamma),
		math.Pow(c[B], invGamma),
	}
}

// ApproxEqual reports whether every channel differs by at most tolerance
func (c RGB) ApproxEqual(other RGB, tolerance float64) bool {
	for ch := range c {
		if math.Abs(c[ch]-other[ch]) > tolerance {
			return false
		}
	}
	return true
}

// ToneMap converts a linear triple to 8-bit display values using a simple
// exposure scale, clamp and gamma curve.
func (c RGB) ToneMap(exposure, gamma float64) [3]uint8 {
	mapped := c.Multiply(exposure).Clamp(0, 1)
	if gamma > 0 {
		mapped = mapped.GammaCorrect(gamma)
	}
	return [3]uint8{
		uint8(math.Round(mapped[R] * 255)),
		uint8(math.Round(mapped[G] * 255)),
		uint8(math.Round(mapped[B] * 255)),
	}
}
