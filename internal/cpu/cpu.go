// Package cpu implements the 6502 CPU core of the NES.
package cpu

import "fmt"

const (
	stackBase  uint16 = 0x0100
	stackReset uint8  = 0xFD

	nmiVector   uint16 = 0xFFFA
	resetVector uint16 = 0xFFFC

	// Programs loaded through Load are placed here. This is a bootstrap
	// convenience, not cartridge mapping.
	loadOrigin uint16 = 0x8600
)

// Memory is the CPU's view of the system bus: byte-addressed reads and
// writes over the full 16-bit space, little-endian 16-bit convenience
// accessors, clock propagation and NMI polling.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	Read16(address uint16) uint16
	Write16(address uint16, value uint16)

	// Tick advances the rest of the system by the given number of CPU cycles.
	Tick(cycles uint8)

	// PollNMI reports whether a non-maskable interrupt is pending and
	// clears the pending state.
	PollNMI() bool
}

// CPU is the 6502 processor. It owns nothing beyond its registers; all
// state it touches lives behind the Memory interface.
type CPU struct {
	A  uint8  // accumulator
	X  uint8  // index X
	Y  uint8  // index Y
	SP uint8  // stack pointer, offset into page 0x0100
	PC uint16 // program counter

	Status Flags

	memory Memory
}

// New creates a CPU in its power-up state. The program counter is loaded
// from the reset vector on Reset, not here.
func New(memory Memory) *CPU {
	return &CPU{
		SP:     stackReset,
		Status: InterruptDisable | Break2,
		memory: memory,
	}
}

// Reset restores registers, flags and the stack pointer to hardware
// defaults and loads the program counter from the reset vector.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP = stackReset
	c.Status = InterruptDisable | Break2
	c.PC = c.memory.Read16(resetVector)
}

// Load copies a program to the load origin and points the reset vector at
// it, so a following Reset starts executing the program.
func (c *CPU) Load(program []uint8) {
	for i, b := range program {
		c.memory.Write(loadOrigin+uint16(i), b)
	}
	c.memory.Write16(resetVector, loadOrigin)
}

// LoadAndRun loads a program, resets and runs it until BRK.
func (c *CPU) LoadAndRun(program []uint8) {
	c.Load(program)
	c.Reset()
	c.Run()
}

// operandAddress computes the effective address for the instruction at PC.
// PC must already point at the first operand byte.
func (c *CPU) operandAddress(mode AddressingMode) uint16 {
	if mode == Immediate {
		return c.PC
	}
	return c.absoluteAddress(mode, c.PC)
}

// absoluteAddress resolves an addressing mode against operand bytes at the
// given address. Zero-page indexed modes and the zero-page pointers of the
// indirect modes wrap at 8 bits and never carry into the high byte.
func (c *CPU) absoluteAddress(mode AddressingMode, addr uint16) uint16 {
	switch mode {
	case ZeroPage:
		return uint16(c.memory.Read(addr))

	case ZeroPageX:
		return uint16(c.memory.Read(addr) + c.X)

	case ZeroPageY:
		return uint16(c.memory.Read(addr) + c.Y)

	case Absolute:
		return c.memory.Read16(addr)

	case AbsoluteX:
		return c.memory.Read16(addr) + uint16(c.X)

	case AbsoluteY:
		return c.memory.Read16(addr) + uint16(c.Y)

	case IndirectX:
		ptr := c.memory.Read(addr) + c.X
		lo := uint16(c.memory.Read(uint16(ptr)))
		hi := uint16(c.memory.Read(uint16(ptr + 1)))
		return hi<<8 | lo

	case IndirectY:
		base := c.memory.Read(addr)
		lo := uint16(c.memory.Read(uint16(base)))
		hi := uint16(c.memory.Read(uint16(base + 1)))
		return (hi<<8 | lo) + uint16(c.Y)

	default:
		panic(fmt.Sprintf("cpu: addressing mode %d has no operand address", mode))
	}
}

// Stack operations. Push writes then decrements; pop increments then reads.
// The pointer wraps within page 0x0100.

func (c *CPU) push(value uint8) {
	c.memory.Write(stackBase+uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.memory.Read(stackBase + uint16(c.SP))
}

func (c *CPU) push16(value uint16) {
	c.push(uint8(value >> 8))
	c.push(uint8(value & 0xFF))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// setZN updates the Zero and Negative flags from a result value.
func (c *CPU) setZN(value uint8) {
	c.Status.Set(Zero, value == 0)
	c.Status.Set(Negative, value&0x80 != 0)
}

// setA writes the accumulator through the single flag-update path.
func (c *CPU) setA(value uint8) {
	c.A = value
	c.setZN(c.A)
}

// addToA adds data and the carry-in to the accumulator, setting Carry from
// the 9-bit intermediate sum and Overflow from
// (data ^ result) & (result ^ A) & 0x80 on the post-carry result.
func (c *CPU) addToA(data uint8) {
	sum := uint16(c.A) + uint16(data)
	if c.Status.Contains(Carry) {
		sum++
	}
	c.Status.Set(Carry, sum > 0xFF)

	result := uint8(sum)
	c.Status.Set(Overflow, (data^result)&(result^c.A)&0x80 != 0)
	c.setA(result)
}

// subFromA subtracts by adding the one's complement, reusing the ADC
// carry/overflow path exactly.
func (c *CPU) subFromA(data uint8) {
	c.addToA(^data)
}

// compareWith sets Carry when value <= register and Zero/Negative from the
// wrapping difference register - value.
func (c *CPU) compareWith(register, value uint8) {
	c.Status.Set(Carry, value <= register)
	c.setZN(register - value)
}

func (c *CPU) compare(mode AddressingMode, register uint8) {
	addr := c.operandAddress(mode)
	c.compareWith(register, c.memory.Read(addr))
}

// branch adds the signed relative operand to the post-operand program
// counter when the condition holds.
func (c *CPU) branch(condition bool) {
	if !condition {
		return
	}
	offset := int8(c.memory.Read(c.PC))
	c.PC = c.PC + 1 + uint16(offset)
}

// Loads and stores.

func (c *CPU) lda(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.setA(c.memory.Read(addr))
}

func (c *CPU) ldx(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.X = c.memory.Read(addr)
	c.setZN(c.X)
}

func (c *CPU) ldy(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.Y = c.memory.Read(addr)
	c.setZN(c.Y)
}

func (c *CPU) sta(mode AddressingMode) {
	c.memory.Write(c.operandAddress(mode), c.A)
}

func (c *CPU) stx(mode AddressingMode) {
	c.memory.Write(c.operandAddress(mode), c.X)
}

func (c *CPU) sty(mode AddressingMode) {
	c.memory.Write(c.operandAddress(mode), c.Y)
}

// Arithmetic and logic.

func (c *CPU) adc(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.addToA(c.memory.Read(addr))
}

func (c *CPU) sbc(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.subFromA(c.memory.Read(addr))
}

func (c *CPU) and(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.setA(c.A & c.memory.Read(addr))
}

func (c *CPU) ora(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.setA(c.A | c.memory.Read(addr))
}

func (c *CPU) eor(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.setA(c.A ^ c.memory.Read(addr))
}

func (c *CPU) bit(mode AddressingMode) {
	data := c.memory.Read(c.operandAddress(mode))
	c.Status.Set(Zero, c.A&data == 0)
	c.Status.Set(Negative, data&0x80 != 0)
	c.Status.Set(Overflow, data&0x40 != 0)
}

// Shifts and rotates. The memory variants return the shifted value so the
// combined unofficial opcodes can sequence them with the accumulator
// helpers instead of duplicating flag logic.

func (c *CPU) aslAcc() {
	c.Status.Set(Carry, c.A&0x80 != 0)
	c.setA(c.A << 1)
}

func (c *CPU) aslMem(mode AddressingMode) uint8 {
	addr := c.operandAddress(mode)
	data := c.memory.Read(addr)
	c.Status.Set(Carry, data&0x80 != 0)
	data <<= 1
	c.memory.Write(addr, data)
	c.setZN(data)
	return data
}

func (c *CPU) lsrAcc() {
	c.Status.Set(Carry, c.A&0x01 != 0)
	c.setA(c.A >> 1)
}

func (c *CPU) lsrMem(mode AddressingMode) uint8 {
	addr := c.operandAddress(mode)
	data := c.memory.Read(addr)
	c.Status.Set(Carry, data&0x01 != 0)
	data >>= 1
	c.memory.Write(addr, data)
	c.setZN(data)
	return data
}

func (c *CPU) rolAcc() {
	oldCarry := c.Status.Contains(Carry)
	c.Status.Set(Carry, c.A&0x80 != 0)
	data := c.A << 1
	if oldCarry {
		data |= 0x01
	}
	c.setA(data)
}

func (c *CPU) rolMem(mode AddressingMode) uint8 {
	addr := c.operandAddress(mode)
	data := c.memory.Read(addr)
	oldCarry := c.Status.Contains(Carry)
	c.Status.Set(Carry, data&0x80 != 0)
	data <<= 1
	if oldCarry {
		data |= 0x01
	}
	c.memory.Write(addr, data)
	c.setZN(data)
	return data
}

func (c *CPU) rorAcc() {
	oldCarry := c.Status.Contains(Carry)
	c.Status.Set(Carry, c.A&0x01 != 0)
	data := c.A >> 1
	if oldCarry {
		data |= 0x80
	}
	c.setA(data)
}

func (c *CPU) rorMem(mode AddressingMode) uint8 {
	addr := c.operandAddress(mode)
	data := c.memory.Read(addr)
	oldCarry := c.Status.Contains(Carry)
	c.Status.Set(Carry, data&0x01 != 0)
	data >>= 1
	if oldCarry {
		data |= 0x80
	}
	c.memory.Write(addr, data)
	c.setZN(data)
	return data
}

// Increments and decrements.

func (c *CPU) incMem(mode AddressingMode) uint8 {
	addr := c.operandAddress(mode)
	data := c.memory.Read(addr) + 1
	c.memory.Write(addr, data)
	c.setZN(data)
	return data
}

func (c *CPU) decMem(mode AddressingMode) uint8 {
	addr := c.operandAddress(mode)
	data := c.memory.Read(addr) - 1
	c.memory.Write(addr, data)
	c.setZN(data)
	return data
}

// Stack instructions.

func (c *CPU) pha() {
	c.push(c.A)
}

func (c *CPU) pla() {
	c.setA(c.pop())
}

// php pushes status with Break and Break2 forced set; the live status is
// untouched.
func (c *CPU) php() {
	flags := c.Status
	flags.Insert(Break | Break2)
	c.push(uint8(flags))
}

// plp restores status from the stack, then forces Break clear and Break2
// set; the two bits are not independently observable outside pushed
// snapshots.
func (c *CPU) plp() {
	c.Status = Flags(c.pop())
	c.Status.Remove(Break)
	c.Status.Insert(Break2)
}

// Control flow.

func (c *CPU) jmp(mode AddressingMode) {
	target := c.memory.Read16(c.PC)
	if mode == Absolute {
		c.PC = target
		return
	}

	// Indirect JMP reproduces the hardware defect: when the pointer's low
	// byte is 0xFF, the high byte of the destination is fetched from the
	// start of the same page instead of the next one.
	var dest uint16
	if target&0x00FF == 0x00FF {
		lo := uint16(c.memory.Read(target))
		hi := uint16(c.memory.Read(target & 0xFF00))
		dest = hi<<8 | lo
	} else {
		dest = c.memory.Read16(target)
	}
	c.PC = dest
}

func (c *CPU) jsr() {
	c.push16(c.PC + 2 - 1)
	c.PC = c.memory.Read16(c.PC)
}

func (c *CPU) rts() {
	c.PC = c.pop16() + 1
}

func (c *CPU) rti() {
	c.Status = Flags(c.pop())
	c.Status.Remove(Break)
	c.Status.Insert(Break2)
	c.PC = c.pop16()
}

// Unofficial opcodes. Each sequences primitives already defined above.

func (c *CPU) lax(mode AddressingMode) {
	addr := c.operandAddress(mode)
	c.setA(c.memory.Read(addr))
	c.X = c.A
}

func (c *CPU) aax(mode AddressingMode) {
	c.memory.Write(c.operandAddress(mode), c.A&c.X)
}

func (c *CPU) dcp(mode AddressingMode) {
	data := c.decMem(mode)
	c.compareWith(c.A, data)
}

func (c *CPU) isb(mode AddressingMode) {
	data := c.incMem(mode)
	c.subFromA(data)
}

func (c *CPU) slo(mode AddressingMode) {
	data := c.aslMem(mode)
	c.setA(c.A | data)
}

func (c *CPU) rla(mode AddressingMode) {
	data := c.rolMem(mode)
	c.setA(c.A & data)
}

func (c *CPU) sre(mode AddressingMode) {
	data := c.lsrMem(mode)
	c.setA(c.A ^ data)
}

func (c *CPU) rra(mode AddressingMode) {
	data := c.rorMem(mode)
	c.addToA(data)
}

// interruptNMI services a pending non-maskable interrupt: return address
// and a status snapshot (Break clear, Break2 set) go to the stack, further
// IRQs are disabled and execution continues at the NMI vector.
func (c *CPU) interruptNMI() {
	c.push16(c.PC)

	flags := c.Status
	flags.Set(Break, false)
	flags.Set(Break2, true)
	c.push(uint8(flags))

	c.Status.Insert(InterruptDisable)
	c.memory.Tick(2)
	c.PC = c.memory.Read16(nmiVector)
}

// Run executes instructions until a BRK is reached.
func (c *CPU) Run() {
	c.RunWithCallback(func(*CPU) {})
}

// RunWithCallback executes instructions until a BRK is reached, invoking
// callback once per instruction before fetch. The NMI line is polled at
// every instruction boundary, never only on some iterations.
func (c *CPU) RunWithCallback(callback func(*CPU)) {
	for {
		if c.memory.PollNMI() {
			c.interruptNMI()
		}

		callback(c)

		opcode := c.memory.Read(c.PC)
		c.PC++
		pcState := c.PC

		op := instructionTable[opcode]
		if op == nil {
			panic(fmt.Sprintf("cpu: opcode 0x%02X is not in the instruction table", opcode))
		}
		c.memory.Tick(op.Cycles)

		switch op.Name {
		case "ADC":
			c.adc(op.Mode)
		case "AND":
			c.and(op.Mode)
		case "ASL":
			if op.Mode == NoneAddressing {
				c.aslAcc()
			} else {
				c.aslMem(op.Mode)
			}
		case "BCC":
			c.branch(!c.Status.Contains(Carry))
		case "BCS":
			c.branch(c.Status.Contains(Carry))
		case "BEQ":
			c.branch(c.Status.Contains(Zero))
		case "BIT":
			c.bit(op.Mode)
		case "BMI":
			c.branch(c.Status.Contains(Negative))
		case "BNE":
			c.branch(!c.Status.Contains(Zero))
		case "BPL":
			c.branch(!c.Status.Contains(Negative))
		case "BRK":
			return
		case "BVC":
			c.branch(!c.Status.Contains(Overflow))
		case "BVS":
			c.branch(c.Status.Contains(Overflow))
		case "CLC":
			c.Status.Remove(Carry)
		case "CLD":
			c.Status.Remove(DecimalMode)
		case "CLI":
			c.Status.Remove(InterruptDisable)
		case "CLV":
			c.Status.Remove(Overflow)
		case "CMP":
			c.compare(op.Mode, c.A)
		case "CPX":
			c.compare(op.Mode, c.X)
		case "CPY":
			c.compare(op.Mode, c.Y)
		case "DEC":
			c.decMem(op.Mode)
		case "DEX":
			c.X--
			c.setZN(c.X)
		case "DEY":
			c.Y--
			c.setZN(c.Y)
		case "EOR":
			c.eor(op.Mode)
		case "INC":
			c.incMem(op.Mode)
		case "INX":
			c.X++
			c.setZN(c.X)
		case "INY":
			c.Y++
			c.setZN(c.Y)
		case "JMP":
			c.jmp(op.Mode)
		case "JSR":
			c.jsr()
		case "LDA":
			c.lda(op.Mode)
		case "LDX":
			c.ldx(op.Mode)
		case "LDY":
			c.ldy(op.Mode)
		case "LSR":
			if op.Mode == NoneAddressing {
				c.lsrAcc()
			} else {
				c.lsrMem(op.Mode)
			}
		case "NOP", "DOP", "TOP":
			// Only consume operand bytes.
		case "ORA":
			c.ora(op.Mode)
		case "PHA":
			c.pha()
		case "PHP":
			c.php()
		case "PLA":
			c.pla()
		case "PLP":
			c.plp()
		case "ROL":
			if op.Mode == NoneAddressing {
				c.rolAcc()
			} else {
				c.rolMem(op.Mode)
			}
		case "ROR":
			if op.Mode == NoneAddressing {
				c.rorAcc()
			} else {
				c.rorMem(op.Mode)
			}
		case "RTI":
			c.rti()
		case "RTS":
			c.rts()
		case "SBC":
			c.sbc(op.Mode)
		case "SEC":
			c.Status.Insert(Carry)
		case "SED":
			c.Status.Insert(DecimalMode)
		case "SEI":
			c.Status.Insert(InterruptDisable)
		case "STA":
			c.sta(op.Mode)
		case "STX":
			c.stx(op.Mode)
		case "STY":
			c.sty(op.Mode)
		case "TAX":
			c.X = c.A
			c.setZN(c.X)
		case "TAY":
			c.Y = c.A
			c.setZN(c.Y)
		case "TSX":
			c.X = c.SP
			c.setZN(c.X)
		case "TXA":
			c.setA(c.X)
		case "TXS":
			c.SP = c.X
		case "TYA":
			c.setA(c.Y)
		case "LAX":
			c.lax(op.Mode)
		case "AAX":
			c.aax(op.Mode)
		case "DCP":
			c.dcp(op.Mode)
		case "ISB":
			c.isb(op.Mode)
		case "SLO":
			c.slo(op.Mode)
		case "RLA":
			c.rla(op.Mode)
		case "SRE":
			c.sre(op.Mode)
		case "RRA":
			c.rra(op.Mode)
		default:
			panic(fmt.Sprintf("cpu: no handler for mnemonic %s (opcode 0x%02X)", op.Name, opcode))
		}

		// Instructions that jumped already set PC; everything else advances
		// past its operand bytes here, never both.
		if pcState == c.PC {
			c.PC += uint16(op.Length - 1)
		}
	}
}
