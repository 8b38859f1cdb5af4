// Package cartridge holds cartridge memory and loads iNES images.
package cartridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Mirroring is the cartridge-declared rule for how the two physical
// nametable halves map to the four logical nametable slots.
type Mirroring uint8

const (
	Horizontal Mirroring = iota
	Vertical
	FourScreen
)

const (
	prgBankSize = 0x4000 // 16KB
	chrBankSize = 0x2000 // 8KB
)

// Cartridge supplies program memory, pattern memory and a mirroring mode.
// Bank switching is a mapper concern and is not modeled; only mapper 0
// (NROM) images load.
type Cartridge struct {
	PRG       []uint8
	CHR       []uint8
	Mirroring Mirroring
}

// iNES file header (16 bytes).
type inesHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

var inesMagic = [4]uint8{'N', 'E', 'S', 0x1A}

// New creates a cartridge from raw banks, for tests and embedding hosts.
func New(prg, chr []uint8, mirroring Mirroring) *Cartridge {
	return &Cartridge{PRG: prg, CHR: chr, Mirroring: mirroring}
}

// Load parses an iNES image.
func Load(r io.Reader) (*Cartridge, error) {
	var header inesHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("reading iNES header: %w", err)
	}
	if header.Magic != inesMagic {
		return nil, errors.New("not an iNES file")
	}
	if (header.Flags7>>2)&0x03 == 2 {
		return nil, errors.New("iNES 2.0 images are not supported")
	}

	mapper := (header.Flags7 & 0xF0) | (header.Flags6 >> 4)
	if mapper != 0 {
		return nil, fmt.Errorf("unsupported mapper %d", mapper)
	}

	mirroring := Horizontal
	if header.Flags6&0x01 != 0 {
		mirroring = Vertical
	}
	if header.Flags6&0x08 != 0 {
		mirroring = FourScreen
	}

	// Skip the 512-byte trainer if present.
	if header.Flags6&0x04 != 0 {
		if _, err := io.CopyN(io.Discard, r, 512); err != nil {
			return nil, fmt.Errorf("skipping trainer: %w", err)
		}
	}

	prg := make([]uint8, int(header.PRGROMSize)*prgBankSize)
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, fmt.Errorf("reading PRG ROM: %w", err)
	}

	// CHR size 0 means the cartridge carries CHR RAM; give it one blank bank.
	chr := make([]uint8, int(header.CHRROMSize)*chrBankSize)
	if header.CHRROMSize == 0 {
		chr = make([]uint8, chrBankSize)
	} else if _, err := io.ReadFull(r, chr); err != nil {
		return nil, fmt.Errorf("reading CHR ROM: %w", err)
	}

	return &Cartridge{PRG: prg, CHR: chr, Mirroring: mirroring}, nil
}

// LoadFile loads an iNES image from disk.
func LoadFile(path string) (*Cartridge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// ReadPRG reads program memory at a CPU address in 0x8000-0xFFFF. A single
// 16KB bank is mirrored across the whole window.
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	offset := address - 0x8000
	if len(c.PRG) == prgBankSize {
		offset %= prgBankSize
	}
	return c.PRG[offset]
}
