// Package ppu implements the picture processing unit's register file and
// addressable state: nametable VRAM, OAM, palette memory and the pattern
// banks, plus the per-scanline tick that raises VBlank and NMI.
package ppu

import (
	"famicore/internal/cartridge"
)

const (
	cyclesPerScanline = 341
	vblankScanline    = 241
	scanlinesPerFrame = 262
)

// PPU holds all state addressable through the 0x2000-0x2007 register
// window together with the tables the renderer consumes. The renderer only
// reads; every mutation goes through the register methods or Tick.
type PPU struct {
	// ChrRom is pattern memory: two 4KB banks of 2-bit-per-pixel tiles.
	ChrRom []uint8
	// Vram is 2KB of physical nametable storage.
	Vram [2048]uint8
	// PaletteTable holds the 32 background/sprite color indices.
	PaletteTable [32]uint8
	// OamData holds 64 sprites, 4 bytes each: Y, tile, attributes, X.
	OamData [256]uint8

	Mirroring cartridge.Mirroring

	Ctrl   ControlRegister
	Mask   MaskRegister
	Status StatusRegister
	Scroll ScrollRegister
	Addr   AddrRegister

	oamAddr      uint8
	internalBuf  uint8 // PPUDATA read buffer
	scanline     uint16
	cycles       uint
	nmiInterrupt bool
}

// New creates a PPU over the given pattern memory and mirroring mode.
func New(chrRom []uint8, mirroring cartridge.Mirroring) *PPU {
	return &PPU{
		ChrRom:    chrRom,
		Mirroring: mirroring,
		Addr:      NewAddrRegister(),
	}
}

// Tick advances the PPU by the given number of PPU cycles and returns
// whether a frame completed. Scanline 241 enters VBlank and raises the NMI
// latch when enabled; the frame wraps after scanline 261, clearing
// VBlank, sprite zero hit and the latch. A single call may cross several
// scanlines.
func (p *PPU) Tick(cycles uint) bool {
	p.cycles += cycles
	frameDone := false

	for p.cycles >= cyclesPerScanline {
		if p.isSpriteZeroHit(p.cycles) {
			p.Status.SetSpriteZeroHit(true)
		}

		p.cycles -= cyclesPerScanline
		p.scanline++

		if p.scanline == vblankScanline {
			p.Status.SetVBlank(true)
			p.Status.SetSpriteZeroHit(false)
			if p.Ctrl.GenerateVBlankNMI() {
				p.nmiInterrupt = true
			}
		}

		if p.scanline >= scanlinesPerFrame {
			p.scanline = 0
			p.nmiInterrupt = false
			p.Status.SetSpriteZeroHit(false)
			p.Status.SetVBlank(false)
			frameDone = true
		}
	}
	return frameDone
}

// isSpriteZeroHit approximates the sprite zero hit: the sweep position has
// reached sprite 0 while sprites are visible.
func (p *PPU) isSpriteZeroHit(cycles uint) bool {
	y := uint16(p.OamData[0])
	x := uint(p.OamData[3])
	return y == p.scanline && x <= cycles && p.Mask.ShowSprites()
}

// NMIPending reports whether the NMI latch is raised, without clearing it.
func (p *PPU) NMIPending() bool {
	return p.nmiInterrupt
}

// TakeNMI returns and clears the NMI latch.
func (p *PPU) TakeNMI() bool {
	pending := p.nmiInterrupt
	p.nmiInterrupt = false
	return pending
}

// WriteCtrl updates PPUCTRL. Enabling NMI generation while already inside
// VBlank raises the latch immediately.
func (p *PPU) WriteCtrl(value uint8) {
	before := p.Ctrl.GenerateVBlankNMI()
	p.Ctrl.Update(value)
	if !before && p.Ctrl.GenerateVBlankNMI() && p.Status.InVBlank() {
		p.nmiInterrupt = true
	}
}

// WriteMask updates PPUMASK.
func (p *PPU) WriteMask(value uint8) {
	p.Mask.Update(value)
}

// ReadStatus returns PPUSTATUS and applies its read side effects: VBlank
// clears and both write latches reset.
func (p *PPU) ReadStatus() uint8 {
	snapshot := p.Status.Snapshot()
	p.Status.SetVBlank(false)
	p.Addr.ResetLatch()
	p.Scroll.ResetLatch()
	return snapshot
}

// WriteOamAddr sets OAMADDR.
func (p *PPU) WriteOamAddr(value uint8) {
	p.oamAddr = value
}

// WriteOamData writes OAMDATA at OAMADDR and advances it.
func (p *PPU) WriteOamData(value uint8) {
	p.OamData[p.oamAddr] = value
	p.oamAddr++
}

// ReadOamData reads OAMDATA at OAMADDR. Reads do not advance the address.
func (p *PPU) ReadOamData() uint8 {
	return p.OamData[p.oamAddr]
}

// WriteOamDMA copies a full 256-byte page into OAM starting at OAMADDR.
func (p *PPU) WriteOamDMA(data *[256]uint8) {
	for _, b := range data {
		p.OamData[p.oamAddr] = b
		p.oamAddr++
	}
}

// WriteScroll writes one PPUSCROLL component.
func (p *PPU) WriteScroll(value uint8) {
	p.Scroll.Write(value)
}

// WriteAddr writes one PPUADDR byte.
func (p *PPU) WriteAddr(value uint8) {
	p.Addr.Update(value)
}

// WriteData writes PPUDATA at the current VRAM address and increments it
// by the control register's step. Pattern memory is read-only; writes
// into it are ignored.
func (p *PPU) WriteData(value uint8) {
	addr := p.Addr.Get()

	switch {
	case addr < 0x2000:
		// CHR ROM, not writable.

	case addr < 0x3000:
		p.Vram[p.mirrorVramAddr(addr)] = value

	case addr < 0x3F00:
		p.Vram[p.mirrorVramAddr(addr-0x1000)] = value

	default:
		p.writePalette(addr, value)
	}

	p.incrementVramAddr()
}

// ReadData reads PPUDATA at the current VRAM address and increments it.
// CHR and nametable reads go through the one-byte internal buffer; palette
// reads are direct.
func (p *PPU) ReadData() uint8 {
	addr := p.Addr.Get()
	p.incrementVramAddr()

	switch {
	case addr < 0x2000:
		result := p.internalBuf
		p.internalBuf = p.ChrRom[addr]
		return result

	case addr < 0x3000:
		result := p.internalBuf
		p.internalBuf = p.Vram[p.mirrorVramAddr(addr)]
		return result

	case addr < 0x3F00:
		result := p.internalBuf
		p.internalBuf = p.Vram[p.mirrorVramAddr(addr-0x1000)]
		return result

	default:
		return p.readPalette(addr)
	}
}

func (p *PPU) incrementVramAddr() {
	p.Addr.Increment(p.Ctrl.VRAMAddrIncrement())
}

// mirrorVramAddr folds a nametable address in 0x2000-0x2FFF onto the 2KB
// of physical VRAM according to the cartridge mirroring mode.
func (p *PPU) mirrorVramAddr(addr uint16) uint16 {
	index := (addr & 0x0FFF)
	nametable := index / 0x400

	switch p.Mirroring {
	case cartridge.Vertical:
		// 0x2000/0x2800 share the first half, 0x2400/0x2C00 the second.
		if nametable >= 2 {
			return index - 0x800
		}
		return index

	case cartridge.Horizontal:
		// 0x2000/0x2400 share the first half, 0x2800/0x2C00 the second.
		switch nametable {
		case 1, 2:
			return index - 0x400
		case 3:
			return index - 0x800
		default:
			return index
		}

	default:
		return index
	}
}

// paletteIndex resolves a palette address to its table slot, applying the
// hardware mirror of 0x3F10/0x3F14/0x3F18/0x3F1C onto the background set.
func paletteIndex(addr uint16) uint16 {
	index := (addr - 0x3F00) & 0x1F
	if index == 0x10 || index == 0x14 || index == 0x18 || index == 0x1C {
		index -= 0x10
	}
	return index
}

func (p *PPU) readPalette(addr uint16) uint8 {
	return p.PaletteTable[paletteIndex(addr)]
}

func (p *PPU) writePalette(addr uint16, value uint8) {
	p.PaletteTable[paletteIndex(addr)] = value
}

// Scanline returns the current scanline, for hosts and tests.
func (p *PPU) Scanline() uint16 {
	return p.scanline
}
