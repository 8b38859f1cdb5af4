// Package bus wires the CPU's view of the address space: 2KB of work RAM
// with its mirrors, the PPU register window, OAM DMA and cartridge PRG ROM.
package bus

import (
	"famicore/internal/cartridge"
	"famicore/internal/ppu"
)

const (
	ramStart       = 0x0000
	ramMirrorsEnd  = 0x1FFF
	ppuStart       = 0x2000
	ppuMirrorsEnd  = 0x3FFF
	oamDMARegister = 0x4014
	prgStart       = 0x8000
)

// Bus is the CPU's memory. Reads and writes are total over the 16-bit
// address space: ROM writes and unmapped accesses are ignored, unmapped
// reads return 0.
type Bus struct {
	cpuRAM [2048]uint8
	cart   *cartridge.Cartridge
	ppu    *ppu.PPU

	cycles        uint
	frameCallback func(*ppu.PPU)
}

// New builds a bus over the given cartridge.
func New(cart *cartridge.Cartridge) *Bus {
	return &Bus{
		cart: cart,
		ppu:  ppu.New(cart.CHR, cart.Mirroring),
	}
}

// OnFrame registers a callback invoked once per completed PPU frame, from
// within Tick. The PPU passed in is the live one; the callback must not
// retain it past the call.
func (b *Bus) OnFrame(callback func(*ppu.PPU)) {
	b.frameCallback = callback
}

// PPU exposes the bus's PPU for hosts and tests.
func (b *Bus) PPU() *ppu.PPU {
	return b.ppu
}

// Tick advances time by the given number of CPU cycles. The PPU runs three
// cycles for each CPU cycle; a completed frame triggers the frame callback.
func (b *Bus) Tick(cycles uint8) {
	b.cycles += uint(cycles)
	frameDone := b.ppu.Tick(3 * uint(cycles))
	if frameDone && b.frameCallback != nil {
		b.frameCallback(b.ppu)
	}
}

// PollNMI returns and clears the PPU's pending NMI.
func (b *Bus) PollNMI() bool {
	return b.ppu.TakeNMI()
}

// Cycles returns the total CPU cycles ticked so far.
func (b *Bus) Cycles() uint {
	return b.cycles
}

// Read returns the byte at address.
func (b *Bus) Read(address uint16) uint8 {
	switch {
	case address <= ramMirrorsEnd:
		return b.cpuRAM[address&0x07FF]

	case address <= ppuMirrorsEnd:
		return b.readPPURegister(ppuStart + address&0x0007)

	case address >= prgStart:
		return b.cart.ReadPRG(address)

	default:
		// APU and IO space, not mapped.
		return 0
	}
}

// Write stores value at address.
func (b *Bus) Write(address uint16, value uint8) {
	switch {
	case address <= ramMirrorsEnd:
		b.cpuRAM[address&0x07FF] = value

	case address <= ppuMirrorsEnd:
		b.writePPURegister(ppuStart+address&0x0007, value)

	case address == oamDMARegister:
		b.oamDMA(value)

	case address >= prgStart:
		// PRG ROM is not writable.

	default:
		// APU and IO space, not mapped.
	}
}

// Read16 reads a little-endian word at address.
func (b *Bus) Read16(address uint16) uint16 {
	lo := uint16(b.Read(address))
	hi := uint16(b.Read(address + 1))
	return hi<<8 | lo
}

// Write16 writes a little-endian word at address.
func (b *Bus) Write16(address uint16, value uint16) {
	b.Write(address, uint8(value&0xFF))
	b.Write(address+1, uint8(value>>8))
}

func (b *Bus) readPPURegister(register uint16) uint8 {
	switch register {
	case 0x2002:
		return b.ppu.ReadStatus()
	case 0x2004:
		return b.ppu.ReadOamData()
	case 0x2007:
		return b.ppu.ReadData()
	default:
		// PPUCTRL, PPUMASK, OAMADDR, PPUSCROLL and PPUADDR are write-only.
		return 0
	}
}

func (b *Bus) writePPURegister(register uint16, value uint8) {
	switch register {
	case 0x2000:
		b.ppu.WriteCtrl(value)
	case 0x2001:
		b.ppu.WriteMask(value)
	case 0x2003:
		b.ppu.WriteOamAddr(value)
	case 0x2004:
		b.ppu.WriteOamData(value)
	case 0x2005:
		b.ppu.WriteScroll(value)
	case 0x2006:
		b.ppu.WriteAddr(value)
	case 0x2007:
		b.ppu.WriteData(value)
	default:
		// PPUSTATUS is read-only.
	}
}

// oamDMA copies the 256-byte CPU page value<<8 into OAM.
func (b *Bus) oamDMA(page uint8) {
	var buf [256]uint8
	base := uint16(page) << 8
	for i := range buf {
		buf[i] = b.Read(base + uint16(i))
	}
	b.ppu.WriteOamDMA(&buf)
}
