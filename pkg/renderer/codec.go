package renderer

// Item-buffer identifiers are packed into 24-bit RGB colours with red as the
// least significant byte. The largest identifier is reserved for the
// background, which is cleared to white.
const (
	// BackgroundID is the identifier decoded from an uncovered pixel
	BackgroundID uint32 = 1<<24 - 1
	// MaxQuads is the number of distinct quad identifiers available
	MaxQuads = int(BackgroundID)
)

// BackgroundColor is the clear colour of an item buffer
var BackgroundColor = IDToRGB(BackgroundID)

// IDToRGB encodes an identifier as an RGB colour. Only the low 24 bits are kept.
func IDToRGB(id uint32) [3]uint8 {
	return [3]uint8{uint8(id), uint8(id >> 8), uint8(id >> 16)}
}

// RGBToID decodes an RGB colour back into its identifier
func RGBToID(c [3]uint8) uint32 {
	return (uint32(c[2])<<8|uint32(c[1]))<<8 | uint32(c[0])
}

// PixelID decodes the identifier of pixel i in a tightly packed RGB8 buffer
func PixelID(pixels []byte, i int) uint32 {
	p := pixels[3*i : 3*i+3 : 3*i+3]
	return RGBToID([3]uint8{p[0], p[1], p[2]})
}
