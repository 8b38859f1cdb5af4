package ppu

import (
	"testing"

	"famicore/internal/cartridge"
)

func testPPU() *PPU {
	return New(make([]uint8, 0x2000), cartridge.Horizontal)
}

func TestWriteDataIncrementsAddressByOne(t *testing.T) {
	p := testPPU()
	p.WriteAddr(0x23)
	p.WriteAddr(0x05)
	p.WriteData(0x66)

	if p.Addr.Get() != 0x2306 {
		t.Errorf("Expected address 0x2306, got 0x%04X", p.Addr.Get())
	}
	if p.Vram[0x0305] != 0x66 {
		t.Errorf("Expected VRAM write at 0x0305, got 0x%02X", p.Vram[0x0305])
	}
}

func TestWriteDataIncrementsAddressBy32(t *testing.T) {
	p := testPPU()
	p.WriteCtrl(0x04) // 32-byte increment
	p.WriteAddr(0x23)
	p.WriteAddr(0x05)
	p.WriteData(0x66)

	if p.Addr.Get() != 0x2325 {
		t.Errorf("Expected address 0x2325, got 0x%04X", p.Addr.Get())
	}
}

func TestReadDataIsBuffered(t *testing.T) {
	p := testPPU()
	p.Vram[0x0305] = 0x66
	p.Vram[0x0306] = 0x77

	p.WriteAddr(0x23)
	p.WriteAddr(0x05)

	p.ReadData() // stale buffer
	if got := p.ReadData(); got != 0x66 {
		t.Errorf("Expected 0x66, got 0x%02X", got)
	}
	if got := p.ReadData(); got != 0x77 {
		t.Errorf("Expected 0x77, got 0x%02X", got)
	}
}

func TestReadDataCHRIsBuffered(t *testing.T) {
	chr := make([]uint8, 0x2000)
	chr[0x0100] = 0xAB
	p := New(chr, cartridge.Horizontal)

	p.WriteAddr(0x01)
	p.WriteAddr(0x00)

	p.ReadData()
	if got := p.ReadData(); got != 0xAB {
		t.Errorf("Expected 0xAB, got 0x%02X", got)
	}
}

func TestPaletteReadIsDirect(t *testing.T) {
	p := testPPU()
	p.PaletteTable[0x01] = 0x34

	p.WriteAddr(0x3F)
	p.WriteAddr(0x01)

	if got := p.ReadData(); got != 0x34 {
		t.Errorf("Expected direct palette read 0x34, got 0x%02X", got)
	}
}

func TestPaletteMirrorQuirk(t *testing.T) {
	p := testPPU()

	for _, addr := range []uint16{0x3F10, 0x3F14, 0x3F18, 0x3F1C} {
		p.WriteAddr(uint8(addr >> 8))
		p.WriteAddr(uint8(addr & 0xFF))
		p.WriteData(0x42)

		base := (addr - 0x10 - 0x3F00) & 0x1F
		if p.PaletteTable[base] != 0x42 {
			t.Errorf("write 0x%04X: Expected mirror down to slot 0x%02X", addr, base)
		}
	}
}

func TestAddressMirrorsDownAbove3FFF(t *testing.T) {
	p := testPPU()
	p.WriteAddr(0x7F)
	p.WriteAddr(0xFF)

	if p.Addr.Get() != 0x3FFF {
		t.Errorf("Expected address mirrored to 0x3FFF, got 0x%04X", p.Addr.Get())
	}
}

func TestStatusReadClearsVBlankAndLatches(t *testing.T) {
	p := testPPU()
	p.Status.SetVBlank(true)
	p.WriteAddr(0x21) // half-written address
	p.Scroll.Write(0x10)

	status := p.ReadStatus()
	if status&0x80 == 0 {
		t.Error("Expected VBlank set in returned status")
	}
	if p.Status.InVBlank() {
		t.Error("Expected VBlank cleared after read")
	}

	// Both latches reset: next address write is the high byte again.
	p.WriteAddr(0x23)
	p.WriteAddr(0x05)
	if p.Addr.Get() != 0x2305 {
		t.Errorf("Expected address latch reset, got 0x%04X", p.Addr.Get())
	}
	p.Scroll.Write(0x20)
	if p.Scroll.X != 0x20 {
		t.Errorf("Expected scroll latch reset (X written), got X=0x%02X Y=0x%02X", p.Scroll.X, p.Scroll.Y)
	}
}

func TestScrollLatchAlternates(t *testing.T) {
	p := testPPU()
	p.WriteScroll(0x15)
	p.WriteScroll(0x25)

	if p.Scroll.X != 0x15 || p.Scroll.Y != 0x25 {
		t.Errorf("Expected X=0x15 Y=0x25, got X=0x%02X Y=0x%02X", p.Scroll.X, p.Scroll.Y)
	}
}

func TestVRAMHorizontalMirroring(t *testing.T) {
	p := New(make([]uint8, 0x2000), cartridge.Horizontal)

	// 0x2000 and 0x2400 share the first physical half.
	p.WriteAddr(0x24)
	p.WriteAddr(0x05)
	p.WriteData(0x66)

	p.WriteAddr(0x28)
	p.WriteAddr(0x05)
	p.WriteData(0x77)

	if p.Vram[0x0005] != 0x66 {
		t.Errorf("Expected 0x2405 in first half, got 0x%02X", p.Vram[0x0005])
	}
	if p.Vram[0x0405] != 0x77 {
		t.Errorf("Expected 0x2805 in second half, got 0x%02X", p.Vram[0x0405])
	}
}

func TestVRAMVerticalMirroring(t *testing.T) {
	p := New(make([]uint8, 0x2000), cartridge.Vertical)

	// 0x2000 and 0x2800 share the first physical half.
	p.WriteAddr(0x28)
	p.WriteAddr(0x05)
	p.WriteData(0x66)

	p.WriteAddr(0x2C)
	p.WriteAddr(0x05)
	p.WriteData(0x77)

	if p.Vram[0x0005] != 0x66 {
		t.Errorf("Expected 0x2805 in first half, got 0x%02X", p.Vram[0x0005])
	}
	if p.Vram[0x0405] != 0x77 {
		t.Errorf("Expected 0x2C05 in second half, got 0x%02X", p.Vram[0x0405])
	}
}

func TestMirrorRegionFoldsDown(t *testing.T) {
	p := New(make([]uint8, 0x2000), cartridge.Horizontal)

	// 0x3005 behaves as 0x2005.
	p.WriteAddr(0x30)
	p.WriteAddr(0x05)
	p.WriteData(0x66)

	if p.Vram[0x0005] != 0x66 {
		t.Errorf("Expected 0x3005 to fold onto 0x2005, got 0x%02X", p.Vram[0x0005])
	}
}

func TestOAMReadWrite(t *testing.T) {
	p := testPPU()
	p.WriteOamAddr(0x10)
	p.WriteOamData(0x66)
	p.WriteOamData(0x77)

	p.WriteOamAddr(0x10)
	if got := p.ReadOamData(); got != 0x66 {
		t.Errorf("Expected 0x66, got 0x%02X", got)
	}
	// Reads do not advance OAMADDR.
	if got := p.ReadOamData(); got != 0x66 {
		t.Errorf("Expected repeated read 0x66, got 0x%02X", got)
	}
}

func TestOAMDMAWrapsAroundOamAddr(t *testing.T) {
	p := testPPU()
	var page [256]uint8
	for i := range page {
		page[i] = uint8(i)
	}

	p.WriteOamAddr(0x10)
	p.WriteOamDMA(&page)

	if p.OamData[0x10] != 0x00 {
		t.Errorf("Expected OAM[0x10]=0x00, got 0x%02X", p.OamData[0x10])
	}
	if p.OamData[0x0F] != 0xFF {
		t.Errorf("Expected wrap to OAM[0x0F]=0xFF, got 0x%02X", p.OamData[0x0F])
	}
}

func TestTickDrainsMultipleScanlines(t *testing.T) {
	p := testPPU()
	p.WriteCtrl(0x80)

	// One call spanning five scanlines.
	p.Tick(5 * 341)
	if p.Scanline() != 5 {
		t.Errorf("Expected scanline 5, got %d", p.Scanline())
	}

	// One call spanning the rest of the frame and into the next: VBlank
	// comes and goes, leaving a completed frame.
	if !p.Tick(260 * 341) {
		t.Error("Expected frame completion")
	}
	if p.Scanline() != 3 {
		t.Errorf("Expected scanline 3 of the next frame, got %d", p.Scanline())
	}
	// The wrap cleared the latch along with VBlank.
	if p.NMIPending() {
		t.Error("Expected NMI latch cleared by the frame wrap")
	}
	if p.Status.InVBlank() {
		t.Error("Expected VBlank cleared by the frame wrap")
	}
}

func TestTickEntersVBlankAndRaisesNMI(t *testing.T) {
	p := testPPU()
	p.WriteCtrl(0x80)

	for i := 0; i < 241; i++ {
		p.Tick(113)
		p.Tick(113)
		p.Tick(115)
	}

	if !p.Status.InVBlank() {
		t.Error("Expected VBlank at scanline 241")
	}
	if !p.NMIPending() {
		t.Error("Expected NMI pending")
	}
}

func TestTickNoNMIWhenDisabled(t *testing.T) {
	p := testPPU()

	for i := 0; i < 241; i++ {
		p.Tick(113)
		p.Tick(113)
		p.Tick(115)
	}

	if !p.Status.InVBlank() {
		t.Error("Expected VBlank at scanline 241")
	}
	if p.NMIPending() {
		t.Error("Expected no NMI with generation disabled")
	}
}

func TestTickWrapsFrame(t *testing.T) {
	p := testPPU()
	p.WriteCtrl(0x80)

	frameDone := false
	for i := 0; i < 262; i++ {
		if p.Tick(113) || p.Tick(113) || p.Tick(115) {
			frameDone = true
		}
	}

	if !frameDone {
		t.Error("Expected frame completion after 262 scanlines")
	}
	if p.Scanline() != 0 {
		t.Errorf("Expected scanline wrapped to 0, got %d", p.Scanline())
	}
	if p.Status.InVBlank() {
		t.Error("Expected VBlank cleared at frame wrap")
	}
	if p.NMIPending() {
		t.Error("Expected NMI latch cleared at frame wrap")
	}
}

func TestWriteCtrlDuringVBlankRaisesNMI(t *testing.T) {
	p := testPPU()
	p.Status.SetVBlank(true)

	p.WriteCtrl(0x80)

	if !p.NMIPending() {
		t.Error("Expected NMI raised when enabling generation inside VBlank")
	}
}

func TestTakeNMIClears(t *testing.T) {
	p := testPPU()
	p.Status.SetVBlank(true)
	p.WriteCtrl(0x80)

	if !p.TakeNMI() {
		t.Fatal("Expected pending NMI")
	}
	if p.TakeNMI() {
		t.Error("Expected TakeNMI to clear the latch")
	}
}

func TestControlRegisterAccessors(t *testing.T) {
	var c ControlRegister
	c.Update(0x00)
	if c.NametableAddr() != 0x2000 {
		t.Errorf("Expected 0x2000, got 0x%04X", c.NametableAddr())
	}
	if c.VRAMAddrIncrement() != 1 {
		t.Errorf("Expected increment 1, got %d", c.VRAMAddrIncrement())
	}

	c.Update(0x07)
	if c.NametableAddr() != 0x2C00 {
		t.Errorf("Expected 0x2C00, got 0x%04X", c.NametableAddr())
	}
	if c.VRAMAddrIncrement() != 32 {
		t.Errorf("Expected increment 32, got %d", c.VRAMAddrIncrement())
	}

	c.Update(0x18)
	if c.SpritePatternAddr() != 0x1000 {
		t.Errorf("Expected sprite bank 0x1000, got 0x%04X", c.SpritePatternAddr())
	}
	if c.BackgroundPatternAddr() != 0x1000 {
		t.Errorf("Expected background bank 0x1000, got 0x%04X", c.BackgroundPatternAddr())
	}

	if c.SpriteSize() != 8 {
		t.Errorf("Expected 8-pixel sprites, got %d", c.SpriteSize())
	}
	c.Update(0x20)
	if c.SpriteSize() != 16 {
		t.Errorf("Expected 16-pixel sprites, got %d", c.SpriteSize())
	}
}

func TestMaskRegisterAccessors(t *testing.T) {
	var m MaskRegister
	m.Update(0x19)

	if !m.Greyscale() {
		t.Error("Expected greyscale enabled")
	}
	if !m.ShowBackground() {
		t.Error("Expected background shown")
	}
	if !m.ShowSprites() {
		t.Error("Expected sprites shown")
	}

	m.Update(0x00)
	if m.Greyscale() || m.ShowBackground() || m.ShowSprites() {
		t.Error("Expected all mask bits cleared")
	}
}

func TestStatusRegisterBits(t *testing.T) {
	var s StatusRegister
	s.SetSpriteOverflow(true)
	s.SetSpriteZeroHit(true)

	snapshot := s.Snapshot()
	if snapshot&0x20 == 0 {
		t.Errorf("Expected sprite overflow bit, got 0x%02X", snapshot)
	}
	if snapshot&0x40 == 0 {
		t.Errorf("Expected sprite zero hit bit, got 0x%02X", snapshot)
	}

	s.SetSpriteOverflow(false)
	if s.Snapshot()&0x20 != 0 {
		t.Error("Expected sprite overflow cleared")
	}
}
