package ppu

// ControlRegister is PPUCTRL (0x2000).
//
//	7  bit  0
//	---- ----
//	VPHB SINN
//	|||| ||||
//	|||| ||++- Base nametable address
//	|||| ||    (0 = 0x2000; 1 = 0x2400; 2 = 0x2800; 3 = 0x2C00)
//	|||| |+--- VRAM address increment per CPU access of PPUDATA
//	|||| |     (0: add 1, going across; 1: add 32, going down)
//	|||| +---- Sprite pattern table address for 8x8 sprites
//	|||+------ Background pattern table address (0: 0x0000; 1: 0x1000)
//	||+------- Sprite size (0: 8x8; 1: 8x16)
//	|+-------- PPU master/slave select
//	+--------- Generate an NMI at the start of vertical blanking
type ControlRegister uint8

const (
	CtrlNametable1            ControlRegister = 1 << 0
	CtrlNametable2            ControlRegister = 1 << 1
	CtrlVRAMAddIncrement      ControlRegister = 1 << 2
	CtrlSpritePatternAddr     ControlRegister = 1 << 3
	CtrlBackgroundPatternAddr ControlRegister = 1 << 4
	CtrlSpriteSize            ControlRegister = 1 << 5
	CtrlMasterSlaveSelect     ControlRegister = 1 << 6
	CtrlGenerateNMI           ControlRegister = 1 << 7
)

// NametableAddr returns the base address of the selected nametable.
func (c ControlRegister) NametableAddr() uint16 {
	switch c & 0x03 {
	case 0:
		return 0x2000
	case 1:
		return 0x2400
	case 2:
		return 0x2800
	default:
		return 0x2C00
	}
}

// VRAMAddrIncrement returns the PPUDATA address step: 1 across, 32 down.
func (c ControlRegister) VRAMAddrIncrement() uint8 {
	if c&CtrlVRAMAddIncrement != 0 {
		return 32
	}
	return 1
}

// SpritePatternAddr returns the pattern bank for 8x8 sprites.
func (c ControlRegister) SpritePatternAddr() uint16 {
	if c&CtrlSpritePatternAddr != 0 {
		return 0x1000
	}
	return 0
}

// BackgroundPatternAddr returns the pattern bank for background tiles.
func (c ControlRegister) BackgroundPatternAddr() uint16 {
	if c&CtrlBackgroundPatternAddr != 0 {
		return 0x1000
	}
	return 0
}

// SpriteSize returns the sprite height in pixels.
func (c ControlRegister) SpriteSize() uint8 {
	if c&CtrlSpriteSize != 0 {
		return 16
	}
	return 8
}

// GenerateVBlankNMI reports whether an NMI fires at the start of VBlank.
func (c ControlRegister) GenerateVBlankNMI() bool {
	return c&CtrlGenerateNMI != 0
}

// Update replaces the register contents.
func (c *ControlRegister) Update(data uint8) {
	*c = ControlRegister(data)
}

// MaskRegister is PPUMASK (0x2001).
//
//	7  bit  0
//	---- ----
//	BGRs bMmG
//	|||| ||||
//	|||| |||+- Greyscale
//	|||| ||+-- Show background in leftmost 8 pixels
//	|||| |+--- Show sprites in leftmost 8 pixels
//	|||| +---- Show background
//	|||+------ Show sprites
//	||+------- Emphasize red
//	|+-------- Emphasize green
//	+--------- Emphasize blue
type MaskRegister uint8

const (
	MaskGreyscale          MaskRegister = 1 << 0
	MaskLeftmostBackground MaskRegister = 1 << 1
	MaskLeftmostSprites    MaskRegister = 1 << 2
	MaskShowBackground     MaskRegister = 1 << 3
	MaskShowSprites        MaskRegister = 1 << 4
	MaskEmphasizeRed       MaskRegister = 1 << 5
	MaskEmphasizeGreen     MaskRegister = 1 << 6
	MaskEmphasizeBlue      MaskRegister = 1 << 7
)

// ShowBackground reports whether background rendering is enabled.
func (m MaskRegister) ShowBackground() bool {
	return m&MaskShowBackground != 0
}

// ShowSprites reports whether sprite rendering is enabled.
func (m MaskRegister) ShowSprites() bool {
	return m&MaskShowSprites != 0
}

// Greyscale reports whether greyscale output is selected.
func (m MaskRegister) Greyscale() bool {
	return m&MaskGreyscale != 0
}

// Update replaces the register contents.
func (m *MaskRegister) Update(data uint8) {
	*m = MaskRegister(data)
}

// StatusRegister is PPUSTATUS (0x2002). Only the top three bits carry
// state: sprite overflow, sprite zero hit and VBlank.
type StatusRegister uint8

const (
	StatusSpriteOverflow StatusRegister = 1 << 5
	StatusSpriteZeroHit  StatusRegister = 1 << 6
	StatusVBlank         StatusRegister = 1 << 7
)

// SetVBlank sets or clears the VBlank flag.
func (s *StatusRegister) SetVBlank(v bool) {
	s.set(StatusVBlank, v)
}

// SetSpriteZeroHit sets or clears the sprite zero hit flag.
func (s *StatusRegister) SetSpriteZeroHit(v bool) {
	s.set(StatusSpriteZeroHit, v)
}

// SetSpriteOverflow sets or clears the sprite overflow flag.
func (s *StatusRegister) SetSpriteOverflow(v bool) {
	s.set(StatusSpriteOverflow, v)
}

// InVBlank reports whether the VBlank flag is set.
func (s StatusRegister) InVBlank() bool {
	return s&StatusVBlank != 0
}

// Snapshot returns the raw register byte.
func (s StatusRegister) Snapshot() uint8 {
	return uint8(s)
}

func (s *StatusRegister) set(flag StatusRegister, v bool) {
	if v {
		*s |= flag
	} else {
		*s &^= flag
	}
}

// ScrollRegister is PPUSCROLL (0x2005). Writes alternate between the X and
// Y component; the latch tracks which comes next.
type ScrollRegister struct {
	X     uint8
	Y     uint8
	latch bool
}

// Write stores one scroll component and flips the latch.
func (s *ScrollRegister) Write(data uint8) {
	if !s.latch {
		s.X = data
	} else {
		s.Y = data
	}
	s.latch = !s.latch
}

// ResetLatch makes the next write set the X component again.
func (s *ScrollRegister) ResetLatch() {
	s.latch = false
}

// AddrRegister is PPUADDR (0x2006). The CPU writes the high byte first,
// then the low byte; addresses mirror down into the 14-bit PPU space.
type AddrRegister struct {
	hi    uint8
	lo    uint8
	hiPtr bool
}

// NewAddrRegister returns an address register expecting the high byte.
func NewAddrRegister() AddrRegister {
	return AddrRegister{hiPtr: true}
}

// Get returns the current VRAM address.
func (a *AddrRegister) Get() uint16 {
	return uint16(a.hi)<<8 | uint16(a.lo)
}

func (a *AddrRegister) set(value uint16) {
	a.hi = uint8(value >> 8)
	a.lo = uint8(value & 0xFF)
}

// Update stores one address byte and flips the write latch.
func (a *AddrRegister) Update(data uint8) {
	if a.hiPtr {
		a.hi = data
	} else {
		a.lo = data
	}
	if a.Get() > 0x3FFF {
		a.set(a.Get() & 0x3FFF)
	}
	a.hiPtr = !a.hiPtr
}

// Increment advances the address by the control register's step.
func (a *AddrRegister) Increment(step uint8) {
	lo := a.lo
	a.lo += step
	if lo > a.lo {
		a.hi++
	}
	if a.Get() > 0x3FFF {
		a.set(a.Get() & 0x3FFF)
	}
}

// ResetLatch makes the next write set the high byte again.
func (a *AddrRegister) ResetLatch() {
	a.hiPtr = true
}
