package bus

import (
	"testing"

	"famicore/internal/cartridge"
	"famicore/internal/ppu"
)

func testBus() *Bus {
	prg := make([]uint8, 0x8000)
	chr := make([]uint8, 0x2000)
	return New(cartridge.New(prg, chr, cartridge.Vertical))
}

func TestRAMMirroring(t *testing.T) {
	b := testBus()
	b.Write(0x0000, 0x42)

	for _, mirror := range []uint16{0x0000, 0x0800, 0x1000, 0x1800} {
		if got := b.Read(mirror); got != 0x42 {
			t.Errorf("Read(0x%04X): Expected 0x42, got 0x%02X", mirror, got)
		}
	}

	b.Write(0x1FFF, 0x7F)
	if got := b.Read(0x07FF); got != 0x7F {
		t.Errorf("Expected mirror write at 0x1FFF to land at 0x07FF, got 0x%02X", got)
	}
}

func TestPRGReadAndBankMirroring(t *testing.T) {
	prg := make([]uint8, 0x4000) // single 16KB bank
	prg[0x0000] = 0x11
	prg[0x3FFF] = 0x22
	b := New(cartridge.New(prg, make([]uint8, 0x2000), cartridge.Vertical))

	if got := b.Read(0x8000); got != 0x11 {
		t.Errorf("Read(0x8000): Expected 0x11, got 0x%02X", got)
	}
	// The single bank repeats at 0xC000.
	if got := b.Read(0xC000); got != 0x11 {
		t.Errorf("Read(0xC000): Expected 0x11, got 0x%02X", got)
	}
	if got := b.Read(0xFFFF); got != 0x22 {
		t.Errorf("Read(0xFFFF): Expected 0x22, got 0x%02X", got)
	}
}

func TestPRGTwoBanksNotMirrored(t *testing.T) {
	prg := make([]uint8, 0x8000)
	prg[0x0000] = 0x11
	prg[0x4000] = 0x33
	b := New(cartridge.New(prg, make([]uint8, 0x2000), cartridge.Vertical))

	if got := b.Read(0x8000); got != 0x11 {
		t.Errorf("Read(0x8000): Expected 0x11, got 0x%02X", got)
	}
	if got := b.Read(0xC000); got != 0x33 {
		t.Errorf("Read(0xC000): Expected 0x33, got 0x%02X", got)
	}
}

func TestROMWriteIgnored(t *testing.T) {
	b := testBus()
	b.Write(0x8000, 0x55)

	if got := b.Read(0x8000); got != 0x00 {
		t.Errorf("Expected ROM write ignored, got 0x%02X", got)
	}
}

func TestUnmappedSpace(t *testing.T) {
	b := testBus()
	if got := b.Read(0x4000); got != 0 {
		t.Errorf("Expected unmapped read to return 0, got 0x%02X", got)
	}
	// Must not panic.
	b.Write(0x4000, 0xFF)
}

func TestPPURegisterMirroring(t *testing.T) {
	b := testBus()

	// PPUCTRL via its base address and via a mirror 8 and 0x1FF8 bytes up.
	b.Write(0x2000, 0x80)
	if !b.PPU().Ctrl.GenerateVBlankNMI() {
		t.Error("Expected PPUCTRL write at 0x2000 to reach the PPU")
	}
	b.Write(0x2008, 0x00)
	if b.PPU().Ctrl.GenerateVBlankNMI() {
		t.Error("Expected PPUCTRL write at mirror 0x2008 to reach the PPU")
	}
	b.Write(0x3FF8, 0x80)
	if !b.PPU().Ctrl.GenerateVBlankNMI() {
		t.Error("Expected PPUCTRL write at mirror 0x3FF8 to reach the PPU")
	}
}

func TestPPUDataThroughBus(t *testing.T) {
	b := testBus()

	// Write 0x66 to VRAM 0x2305 through PPUADDR/PPUDATA.
	b.Write(0x2006, 0x23)
	b.Write(0x2006, 0x05)
	b.Write(0x2007, 0x66)

	// Read it back: first read is the stale buffer.
	b.Write(0x2006, 0x23)
	b.Write(0x2006, 0x05)
	b.Read(0x2007)
	if got := b.Read(0x2007); got != 0x66 {
		t.Errorf("Expected buffered VRAM read 0x66, got 0x%02X", got)
	}
}

func TestWriteOnlyRegistersReadAsZero(t *testing.T) {
	b := testBus()
	b.Write(0x2000, 0xFF)

	if got := b.Read(0x2000); got != 0 {
		t.Errorf("Expected write-only PPUCTRL to read 0, got 0x%02X", got)
	}
}

func TestRead16Write16(t *testing.T) {
	b := testBus()
	b.Write16(0x0010, 0xBEEF)

	if got := b.Read(0x0010); got != 0xEF {
		t.Errorf("Expected low byte first, got 0x%02X", got)
	}
	if got := b.Read(0x0011); got != 0xBE {
		t.Errorf("Expected high byte second, got 0x%02X", got)
	}
	if got := b.Read16(0x0010); got != 0xBEEF {
		t.Errorf("Expected 0xBEEF, got 0x%04X", got)
	}
}

func TestTickRatioAndCycleCount(t *testing.T) {
	b := testBus()
	b.Tick(2)

	if b.Cycles() != 2 {
		t.Errorf("Expected 2 CPU cycles, got %d", b.Cycles())
	}
	// 2 CPU cycles = 6 PPU cycles, not yet a full scanline.
	if b.PPU().Scanline() != 0 {
		t.Errorf("Expected scanline 0, got %d", b.PPU().Scanline())
	}

	// 114 more CPU cycles crosses the 341-PPU-cycle scanline boundary.
	b.Tick(100)
	b.Tick(14)
	if b.PPU().Scanline() != 1 {
		t.Errorf("Expected scanline 1, got %d", b.PPU().Scanline())
	}
}

// One 114-cycle tick is 342 PPU cycles, a whole scanline; the 3:1 ratio
// must hold for ticks larger than 85 CPU cycles too.
func TestTickLargeStepKeepsRatio(t *testing.T) {
	b := testBus()
	b.Tick(114)

	if b.PPU().Scanline() != 1 {
		t.Errorf("Expected scanline 1 after 342 PPU cycles, got %d", b.PPU().Scanline())
	}
}

func TestNMIDeliveredThroughBus(t *testing.T) {
	b := testBus()
	b.Write(0x2000, 0x80) // enable NMI generation

	// Advance to scanline 241.
	for i := 0; i < 241; i++ {
		b.Tick(114)
	}

	if !b.PollNMI() {
		t.Fatal("Expected pending NMI after VBlank start")
	}
	if b.PollNMI() {
		t.Error("Expected PollNMI to clear the pending NMI")
	}
}

func TestFrameCallbackOncePerFrame(t *testing.T) {
	b := testBus()
	frames := 0
	b.OnFrame(func(*ppu.PPU) { frames++ })

	// 262 scanlines of 114 CPU cycles is one full frame and a bit.
	for i := 0; i < 262; i++ {
		b.Tick(114)
	}

	if frames != 1 {
		t.Errorf("Expected 1 frame callback, got %d", frames)
	}
}

func TestOAMDMA(t *testing.T) {
	b := testBus()
	for i := 0; i < 256; i++ {
		b.Write(0x0200+uint16(i), uint8(i))
	}

	b.Write(0x4014, 0x02)

	if got := b.PPU().OamData[0]; got != 0x00 {
		t.Errorf("Expected OAM[0]=0x00, got 0x%02X", got)
	}
	if got := b.PPU().OamData[255]; got != 0xFF {
		t.Errorf("Expected OAM[255]=0xFF, got 0x%02X", got)
	}
}
