package renderer

import "image"

// RenderStats contains statistics about a single item-buffer render
type RenderStats struct {
	Quads     int // Quads submitted
	Clipped   int // Quads entirely outside the near/far range or viewport
	Triangles int // Screen triangles set up after clipping
	Fragments int // Pixels written after the depth test
	Tiles     int // Tiles filled by the worker pool
}

// Merge accumulates the per-tile counters of other into s
func (s *RenderStats) Merge(other RenderStats) {
	s.Fragments += other.Fragments
	s.Tiles += other.Tiles
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img in [0,1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 0xffff
		}
	}
	return total / float64(pixels)
}
