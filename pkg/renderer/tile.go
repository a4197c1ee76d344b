package renderer

import "image"

// Tile is a rectangular region of the render surface filled by one worker
type Tile struct {
	ID     int             // Unique tile identifier
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1), bottom-left origin
}

// NewTile creates a new tile with the specified bounds
func NewTile(id int, bounds image.Rectangle) *Tile {
	return &Tile{ID: id, Bounds: bounds}
}

// NewTileGrid creates a grid of tiles covering the given region
func NewTileGrid(region image.Rectangle, tileSize int) []*Tile {
	if tileSize <= 0 {
		tileSize = max(region.Dx(), region.Dy(), 1)
	}

	var tiles []*Tile
	tileID := 0

	// Calculate number of tiles in each dimension
	tilesX := (region.Dx() + tileSize - 1) / tileSize // Ceiling division
	tilesY := (region.Dy() + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := region.Min.X + tileX*tileSize
			y0 := region.Min.Y + tileY*tileSize
			x1 := min(x0+tileSize, region.Max.X) // Don't exceed region bounds
			y1 := min(y0+tileSize, region.Max.Y)

			tiles = append(tiles, NewTile(tileID, image.Rect(x0, y0, x1, y1)))
			tileID++
		}
	}

	return tiles
}
