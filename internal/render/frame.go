// Package render draws the PPU's visible state into an RGB framebuffer:
// a background pass per nametable through a scrolled viewport, then the
// sprite pass in reverse OAM order.
package render

const (
	// FrameWidth and FrameHeight are the visible NES picture dimensions.
	FrameWidth  = 256
	FrameHeight = 240
)

// Frame is a 256x240 framebuffer of row-major RGB triples.
type Frame struct {
	Data []uint8
}

// NewFrame returns a zeroed framebuffer.
func NewFrame() *Frame {
	return &Frame{
		Data: make([]uint8, FrameWidth*FrameHeight*3),
	}
}

// SetPixel writes one RGB pixel. Coordinates outside the frame are
// ignored, so callers can draw sprites that hang off the edges.
func (f *Frame) SetPixel(x, y int, rgb Color) {
	if x < 0 || x >= FrameWidth || y < 0 || y >= FrameHeight {
		return
	}
	base := (y*FrameWidth + x) * 3
	f.Data[base] = rgb.R
	f.Data[base+1] = rgb.G
	f.Data[base+2] = rgb.B
}

// Pixel returns the RGB value at (x, y), for tests.
func (f *Frame) Pixel(x, y int) Color {
	base := (y*FrameWidth + x) * 3
	return Color{f.Data[base], f.Data[base+1], f.Data[base+2]}
}
