package cpu

import (
	"fmt"
	"log"

	"github.com/girisakar365/8085-mP/io"
)

// STEP_LIMIT is the default number of instructions a run may execute.
const STEP_LIMIT = 10000

// PSW flag bits.
const (
	FLAG_CY = uint8(1 << 0)
	FLAG_P  = uint8(1 << 2)
	FLAG_AC = uint8(1 << 4)
	FLAG_Z  = uint8(1 << 6)
	FLAG_S  = uint8(1 << 7)

	flagOnes = uint8(1 << 1) // Always set in the PSW.
)

// Flags is the condition flag set.
type Flags struct {
	S  bool // Sign
	Z  bool // Zero
	AC bool // Auxiliary carry
	P  bool // Parity (even)
	CY bool // Carry
}

// Byte returns the flags in PSW layout, S Z 0 AC 0 P 1 CY.
func (fl Flags) Byte() (value uint8) {
	value = flagOnes
	for _, bit := range []struct {
		set  bool
		mask uint8
	}{{fl.S, FLAG_S}, {fl.Z, FLAG_Z}, {fl.AC, FLAG_AC}, {fl.P, FLAG_P}, {fl.CY, FLAG_CY}} {
		if bit.set {
			value |= bit.mask
		}
	}
	return
}

// SetByte loads the flags from a PSW byte.
func (fl *Flags) SetByte(value uint8) {
	fl.S = value&FLAG_S != 0
	fl.Z = value&FLAG_Z != 0
	fl.AC = value&FLAG_AC != 0
	fl.P = value&FLAG_P != 0
	fl.CY = value&FLAG_CY != 0
}

// Test evaluates a branch condition.
func (fl Flags) Test(cond Condition) bool {
	switch cond {
	case COND_NZ:
		return !fl.Z
	case COND_Z:
		return fl.Z
	case COND_NC:
		return !fl.CY
	case COND_C:
		return fl.CY
	case COND_PO:
		return !fl.P
	case COND_PE:
		return fl.P
	case COND_P:
		return !fl.S
	case COND_M:
		return fl.S
	default:
		return true
	}
}

// Cpu is the simulation context of an 8085 processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register [8]uint8 // Register file by register code; REG_M is unused.
	PC       uint16   // Program counter.
	Prev     uint16   // Address of the last instruction completed by Step.
	SP       uint16   // Stack pointer.
	Flag     Flags    // Condition flags.
	Memory   Memory   // Address space.
	Port     io.Port  // Port space for IN and OUT.
	Stack    CallStack

	StepLimit int // Maximum instructions per run; zero selects STEP_LIMIT.

	Block string // Block being executed by RunBlocks.
	Index int    // Line index within Block.

	Ticks  int // Instructions executed in the current run.
	Cycles int // Cycles consumed in the current run.
}

// NewCpu creates a new CPU with an in-memory port bank.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Port: &io.Bank{},
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"A", "B", "C", "D", "E", "H", "L",
		"PC", "SP", "flags", "stack",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "A", "B", "C", "D", "E", "H", "L":
			strval = fmt.Sprintf("%02XH", cpu.Register[registerCode[reg]])
		case "PC":
			strval = fmt.Sprintf("%04XH", cpu.PC)
		case "SP":
			strval = fmt.Sprintf("%04XH", cpu.SP)
		case "flags":
			fl := cpu.Flag
			strval = fmt.Sprintf("S=%d Z=%d AC=%d P=%d CY=%d",
				bit(fl.S), bit(fl.Z), bit(fl.AC), bit(fl.P), bit(fl.CY))
		case "stack":
			ret, ok := cpu.Stack.Peek()
			switch {
			case !ok:
				strval = "----"
			case len(ret.Block) != 0:
				strval = fmt.Sprintf("%v+%d", ret.Block, ret.Index)
			default:
				strval = fmt.Sprintf("%04XH", ret.Address)
			}
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Reset the CPU state.
// - Clears the registers, flags, memory, and ports.
// - Sets PC and SP to 0000H.
// - Empties the call stack, and zeros statistics counters.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.PC = 0
	cpu.Prev = 0
	cpu.SP = 0
	cpu.Flag = Flags{}
	cpu.Memory.Reset()
	if cpu.Port != nil {
		cpu.Port.Reset()
	}
	cpu.Stack.Reset()
	cpu.Block = ""
	cpu.Index = 0
	cpu.Ticks = 0
	cpu.Cycles = 0
}

// Get reads a register by code. REG_M reads memory at HL.
func (cpu *Cpu) Get(reg uint8) uint8 {
	if reg == REG_M {
		return cpu.Memory.Read(cpu.Pair(PAIR_H))
	}
	return cpu.Register[reg]
}

// Set writes a register by code. REG_M writes memory at HL.
func (cpu *Cpu) Set(reg uint8, value uint8) {
	if reg == REG_M {
		cpu.Memory.Write(cpu.Pair(PAIR_H), value)
		return
	}
	cpu.Register[reg] = value
}

// Pair reads a register pair by code. PAIR_SP reads SP.
func (cpu *Cpu) Pair(rp uint8) uint16 {
	switch rp {
	case PAIR_B, PAIR_D, PAIR_H:
		return uint16(cpu.Register[rp*2])<<8 | uint16(cpu.Register[rp*2+1])
	default:
		return cpu.SP
	}
}

// SetPair writes both halves of a register pair. PAIR_SP writes SP.
func (cpu *Cpu) SetPair(rp uint8, value uint16) {
	switch rp {
	case PAIR_B, PAIR_D, PAIR_H:
		cpu.Register[rp*2] = uint8(value >> 8)
		cpu.Register[rp*2+1] = uint8(value)
	default:
		cpu.SP = value
	}
}

// PSW returns the accumulator and flags as a word.
func (cpu *Cpu) PSW() uint16 {
	return uint16(cpu.Register[REG_A])<<8 | uint16(cpu.Flag.Byte())
}

// SetPSW loads the accumulator and flags from a word.
func (cpu *Cpu) SetPSW(value uint16) {
	cpu.Register[REG_A] = uint8(value >> 8)
	cpu.Flag.SetByte(uint8(value))
}

// push a word onto the memory stack, high byte at SP-1.
func (cpu *Cpu) push(value uint16) {
	cpu.Memory.Write(cpu.SP-1, uint8(value>>8))
	cpu.Memory.Write(cpu.SP-2, uint8(value))
	cpu.SP -= 2
}

// pop a word from the memory stack.
func (cpu *Cpu) pop() (value uint16) {
	value = uint16(cpu.Memory.Read(cpu.SP)) | uint16(cpu.Memory.Read(cpu.SP+1))<<8
	cpu.SP += 2
	return
}

// MaxSteps returns the instruction budget of a run.
func (cpu *Cpu) MaxSteps() int {
	if cpu.StepLimit <= 0 {
		return STEP_LIMIT
	}
	return cpu.StepLimit
}
