package render

import (
	"fmt"

	"famicore/internal/cartridge"
	"famicore/internal/ppu"
)

// viewport is the pixel region of a nametable that is visible this frame.
type viewport struct {
	x1, y1, x2, y2 int
}

// Render draws one full frame: the main nametable shifted by -scroll, the
// secondary nametable filling the strip the scroll exposed, then sprites
// back to front.
func Render(p *ppu.PPU, frame *Frame) {
	scrollX := int(p.Scroll.X)
	scrollY := int(p.Scroll.Y)

	main, second := nametables(p)

	renderNametable(p, frame, main,
		viewport{scrollX, scrollY, FrameWidth, FrameHeight},
		-scrollX, -scrollY)

	if scrollX > 0 {
		renderNametable(p, frame, second,
			viewport{0, 0, scrollX, FrameHeight},
			FrameWidth-scrollX, 0)
	} else if scrollY > 0 {
		renderNametable(p, frame, second,
			viewport{0, 0, FrameWidth, scrollY},
			0, FrameHeight-scrollY)
	}

	renderSprites(p, frame)
}

// nametables picks the visible and adjacent 1KB nametable slices for the
// current mirroring mode and PPUCTRL base address.
func nametables(p *ppu.PPU) ([]uint8, []uint8) {
	base := p.Ctrl.NametableAddr()

	switch p.Mirroring {
	case cartridge.Vertical:
		if base == 0x2000 || base == 0x2800 {
			return p.Vram[0:0x400], p.Vram[0x400:0x800]
		}
		return p.Vram[0x400:0x800], p.Vram[0:0x400]

	case cartridge.Horizontal:
		if base == 0x2000 || base == 0x2400 {
			return p.Vram[0:0x400], p.Vram[0x400:0x800]
		}
		return p.Vram[0x400:0x800], p.Vram[0:0x400]

	default:
		panic(fmt.Sprintf("render: unsupported mirroring %v", p.Mirroring))
	}
}

// renderNametable draws the 960 background tiles of one nametable,
// clipping to the viewport and translating by (shiftX, shiftY).
func renderNametable(p *ppu.PPU, frame *Frame, nametable []uint8, view viewport, shiftX, shiftY int) {
	bank := p.Ctrl.BackgroundPatternAddr()
	attributeTable := nametable[0x3C0:0x400]

	for i := 0; i < 0x3C0; i++ {
		tileColumn := i % 32
		tileRow := i / 32
		tileIdx := uint16(nametable[i])
		tile := p.ChrRom[bank+tileIdx*16 : bank+tileIdx*16+16]
		palette := backgroundPalette(p, attributeTable, tileColumn, tileRow)

		for y := 0; y < 8; y++ {
			upper := tile[y]
			lower := tile[y+8]

			for x := 7; x >= 0; x-- {
				value := (lower&1)<<1 | upper&1
				upper >>= 1
				lower >>= 1

				var rgb Color
				if value == 0 {
					rgb = SystemPalette[p.PaletteTable[0]]
				} else {
					rgb = SystemPalette[palette[value]]
				}

				pixelX := tileColumn*8 + x
				pixelY := tileRow*8 + y
				if pixelX >= view.x1 && pixelX < view.x2 &&
					pixelY >= view.y1 && pixelY < view.y2 {
					frame.SetPixel(pixelX+shiftX, pixelY+shiftY, rgb)
				}
			}
		}
	}
}

// renderSprites walks OAM back to front so lower-indexed sprites land on
// top. Pixel value 0 is transparent and leaves the background showing.
func renderSprites(p *ppu.PPU, frame *Frame) {
	bank := p.Ctrl.SpritePatternAddr()

	for i := len(p.OamData) - 4; i >= 0; i -= 4 {
		tileY := int(p.OamData[i])
		tileIdx := uint16(p.OamData[i+1])
		attributes := p.OamData[i+2]
		tileX := int(p.OamData[i+3])

		flipVertical := attributes>>7&1 == 1
		flipHorizontal := attributes>>6&1 == 1
		palette := spritePalette(p, attributes&0b11)

		tile := p.ChrRom[bank+tileIdx*16 : bank+tileIdx*16+16]

		for y := 0; y < 8; y++ {
			upper := tile[y]
			lower := tile[y+8]

			for x := 7; x >= 0; x-- {
				value := (lower&1)<<1 | upper&1
				upper >>= 1
				lower >>= 1
				if value == 0 {
					continue
				}
				rgb := SystemPalette[palette[value]]

				px, py := x, y
				if flipHorizontal {
					px = 7 - x
				}
				if flipVertical {
					py = 7 - y
				}
				frame.SetPixel(tileX+px, tileY+py, rgb)
			}
		}
	}
}

// backgroundPalette resolves the 4-color palette for a background tile
// from the attribute table: one byte per 4x4 tile block, two bits per 2x2
// quadrant.
func backgroundPalette(p *ppu.PPU, attributeTable []uint8, tileColumn, tileRow int) [4]uint8 {
	attrByte := attributeTable[tileRow/4*8+tileColumn/4]

	var paletteIdx uint8
	switch [2]int{tileColumn % 4 / 2, tileRow % 4 / 2} {
	case [2]int{0, 0}:
		paletteIdx = attrByte & 0b11
	case [2]int{1, 0}:
		paletteIdx = attrByte >> 2 & 0b11
	case [2]int{0, 1}:
		paletteIdx = attrByte >> 4 & 0b11
	case [2]int{1, 1}:
		paletteIdx = attrByte >> 6 & 0b11
	}

	start := 1 + int(paletteIdx)*4
	return [4]uint8{
		p.PaletteTable[0],
		p.PaletteTable[start],
		p.PaletteTable[start+1],
		p.PaletteTable[start+2],
	}
}

// spritePalette resolves one of the four sprite palettes. Entry 0 is
// unused, sprite pixel 0 is transparent.
func spritePalette(p *ppu.PPU, paletteIdx uint8) [4]uint8 {
	start := 0x11 + int(paletteIdx)*4
	return [4]uint8{
		0,
		p.PaletteTable[start],
		p.PaletteTable[start+1],
		p.PaletteTable[start+2],
	}
}
