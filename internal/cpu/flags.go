package cpu

// Flags is the 6502 processor status register (P).
//
//	7 6 5 4 3 2 1 0
//	N V _ B D I Z C
//	| |   | | | | +--- Carry
//	| |   | | | +----- Zero
//	| |   | | +------- Interrupt disable
//	| |   | +--------- Decimal mode (unused on the NES)
//	| |   +----------- Break command
//	| +--------------- Overflow
//	+----------------- Negative
//
// Break and Break2 only matter in the snapshots pushed to the stack; the CPU
// never observes them as live state.
type Flags uint8

const (
	Carry            Flags = 1 << 0
	Zero             Flags = 1 << 1
	InterruptDisable Flags = 1 << 2
	DecimalMode      Flags = 1 << 3
	Break            Flags = 1 << 4
	Break2           Flags = 1 << 5
	Overflow         Flags = 1 << 6
	Negative         Flags = 1 << 7
)

// Insert sets the given flag bits.
func (f *Flags) Insert(flag Flags) {
	*f |= flag
}

// Remove clears the given flag bits.
func (f *Flags) Remove(flag Flags) {
	*f &^= flag
}

// Contains reports whether all the given flag bits are set.
func (f Flags) Contains(flag Flags) bool {
	return f&flag == flag
}

// Set sets or clears the given flag bits depending on value.
func (f *Flags) Set(flag Flags, value bool) {
	if value {
		f.Insert(flag)
	} else {
		f.Remove(flag)
	}
}
