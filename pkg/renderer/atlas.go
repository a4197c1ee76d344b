package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// ErrEmptyAtlas is returned when no face has pixels
var ErrEmptyAtlas = errors.New("renderer: no faces to compose")

// AtlasFace is one read-back item buffer: tightly packed RGB8 rows with
// row 0 at the bottom
type AtlasFace struct {
	Pixels        []byte
	Width, Height int
}

// AtlasOptions controls how item buffers are turned into a debug image
type AtlasOptions struct {
	Scale      int  // Integer upscale factor (nearest neighbour)
	HashColors bool // Spread neighbouring identifiers over distinct hues
}

// HemicubeAtlas stacks the faces vertically, in order, into a single image
// upscaled by opts.Scale
func HemicubeAtlas(faces []AtlasFace, opts AtlasOptions) (*image.RGBA, error) {
	width, height := 0, 0
	for i, f := range faces {
		if len(f.Pixels) < 3*f.Width*f.Height {
			return nil, fmt.Errorf("%w: face %d has %d bytes for %dx%d", ErrBufferSize, i, len(f.Pixels), f.Width, f.Height)
		}
		width = max(width, f.Width)
		height += f.Height
	}
	if width == 0 || height == 0 {
		return nil, ErrEmptyAtlas
	}

	atlas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(atlas, atlas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	top := 0
	for _, f := range faces {
		for y := 0; y < f.Height; y++ {
			row := top + f.Height - 1 - y // Flip to a top-left origin
			for x := 0; x < f.Width; x++ {
				i := y*f.Width + x
				atlas.SetRGBA(x, row, atlasColor(f.Pixels, i, opts.HashColors))
			}
		}
		top += f.Height
	}

	scale := max(opts.Scale, 1)
	if scale == 1 {
		return atlas, nil
	}
	scaled := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), atlas, atlas.Bounds(), draw.Src, nil)
	return scaled, nil
}

func atlasColor(pixels []byte, i int, hash bool) color.RGBA {
	if !hash {
		return color.RGBA{pixels[3*i], pixels[3*i+1], pixels[3*i+2], 255}
	}
	id := PixelID(pixels, i)
	if id == BackgroundID {
		return color.RGBA{A: 255}
	}
	// Knuth multiplicative hash of the identifier
	h := id * 2654435761
	return color.RGBA{uint8(h >> 24), uint8(h >> 16), uint8(h >> 8), 255}
}

// SaveAtlasPNG writes an atlas image to a PNG file
func SaveAtlasPNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
