package cpu

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Category is the closed set of instruction groups.
type Category int

//go:generate go tool stringer -linecomment -type=Category
const (
	CAT_DATA       = Category(0) // data
	CAT_ARITHMETIC = Category(1) // arithmetic
	CAT_LOGICAL    = Category(2) // logical
	CAT_BRANCH     = Category(3) // branch
	CAT_STACK      = Category(4) // stack
	CAT_PERIPHERAL = Category(5) // peripheral
)

// Shape is the operand pattern of an instruction.
type Shape int

//go:generate go tool stringer -linecomment -type=Shape
const (
	SHAPE_NONE       = Shape(0)  // none
	SHAPE_REG        = Shape(1)  // R
	SHAPE_REG_REG    = Shape(2)  // R,R
	SHAPE_REG_IMM8   = Shape(3)  // R,XXH
	SHAPE_PAIR       = Shape(4)  // RP
	SHAPE_PAIR_BD    = Shape(5)  // B|D
	SHAPE_PAIR_PSW   = Shape(6)  // RP|PSW
	SHAPE_PAIR_IMM16 = Shape(7)  // RP,XXXXH
	SHAPE_IMM8       = Shape(8)  // XXH
	SHAPE_ADDR16     = Shape(9)  // XXXXH
	SHAPE_PORT       = Shape(10) // PORT
	SHAPE_RST        = Shape(11) // N
)

// Operands returns the number of comma separated operands of the shape.
func (shape Shape) Operands() int {
	switch shape {
	case SHAPE_NONE:
		return 0
	case SHAPE_REG_REG, SHAPE_REG_IMM8, SHAPE_PAIR_IMM16:
		return 2
	default:
		return 1
	}
}

// Condition is a branch condition, in 8085 encoding order.
type Condition int

//go:generate go tool stringer -linecomment -type=Condition
const (
	COND_NZ     = Condition(0) // NZ
	COND_Z      = Condition(1) // Z
	COND_NC     = Condition(2) // NC
	COND_C      = Condition(3) // C
	COND_PO     = Condition(4) // PO
	COND_PE     = Condition(5) // PE
	COND_P      = Condition(6) // P
	COND_M      = Condition(7) // M
	COND_ALWAYS = Condition(8) // always
)

// Register codes, as encoded in opcodes.
const (
	REG_B = 0
	REG_C = 1
	REG_D = 2
	REG_E = 3
	REG_H = 4
	REG_L = 5
	REG_M = 6 // Memory at HL
	REG_A = 7
)

// Register pair codes, as encoded in opcodes.
const (
	PAIR_B   = 0
	PAIR_D   = 1
	PAIR_H   = 2
	PAIR_SP  = 3
	PAIR_PSW = 3 // PUSH and POP only
)

// RegisterName maps register codes to names.
var RegisterName = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}

var registerCode = map[string]uint8{
	"B": REG_B, "C": REG_C, "D": REG_D, "E": REG_E,
	"H": REG_H, "L": REG_L, "M": REG_M, "A": REG_A,
}

// RegisterCode returns the code of a register name.
func RegisterCode(name string) (reg uint8, ok bool) {
	reg, ok = registerCode[name]
	return
}

// Instruction is an immutable opcode table entry.
type Instruction struct {
	Mnemonic     string
	Category     Category
	Shape        Shape
	Cond         Condition
	Length       int              // Length in bytes, including operands.
	Cycles       int              // Cycles, or cycles when not taken.
	CyclesTaken  int              // Cycles for a taken conditional branch.
	CyclesMemory int              // Cycles when an operand is M.
	Hint         string           // Syntax hint.
	Codes        map[string]uint8 // Opcode by operand key.
}

// Opcode returns the opcode byte for an operand key.
func (inst *Instruction) Opcode(key string) (code uint8, err error) {
	code, ok := inst.Codes[key]
	if !ok {
		err = &ErrOperand{Operand: key, Expect: inst.Hint, Err: ErrSyntax}
		return
	}

	return
}

// CyclesFor returns the cycle count of an operand key. A conditional
// instruction reports the taken count when taken is set.
func (inst *Instruction) CyclesFor(key string, taken bool) int {
	if taken && inst.CyclesTaken != 0 {
		return inst.CyclesTaken
	}

	if inst.CyclesMemory != 0 {
		switch inst.Shape {
		case SHAPE_REG, SHAPE_REG_IMM8:
			if key == "M" {
				return inst.CyclesMemory
			}
		case SHAPE_REG_REG:
			if key[0] == 'M' || key[len(key)-1] == 'M' {
				return inst.CyclesMemory
			}
		}
	}

	return inst.Cycles
}

// Branch returns true for conditional and unconditional jumps, calls, and
// returns.
func (inst *Instruction) Branch() bool {
	return inst.Category == CAT_BRANCH
}

type decoding struct {
	inst *Instruction
	key  string
}

var (
	table  = map[string]*Instruction{}
	decode [256]decoding
)

func define(inst *Instruction) {
	if _, ok := table[inst.Mnemonic]; ok {
		panic("duplicate mnemonic " + inst.Mnemonic)
	}

	for key, code := range inst.Codes {
		if decode[code].inst != nil {
			panic(fmt.Sprintf("duplicate opcode 0x%02x for %v %v", code, inst.Mnemonic, key))
		}
		decode[code] = decoding{inst: inst, key: key}
	}

	table[inst.Mnemonic] = inst
}

func lengthOf(shape Shape) int {
	switch shape {
	case SHAPE_REG_IMM8, SHAPE_IMM8, SHAPE_PORT:
		return 2
	case SHAPE_PAIR_IMM16, SHAPE_ADDR16:
		return 3
	default:
		return 1
	}
}

// fixed defines an instruction with a single encoding.
func fixed(mnemonic string, cat Category, shape Shape, code uint8, cycles int, hint string) *Instruction {
	inst := &Instruction{
		Mnemonic: mnemonic,
		Category: cat,
		Shape:    shape,
		Cond:     COND_ALWAYS,
		Length:   lengthOf(shape),
		Cycles:   cycles,
		Hint:     hint,
		Codes:    map[string]uint8{"": code},
	}
	define(inst)
	return inst
}

// register defines an instruction over all registers, with the register
// code shifted into the opcode.
func register(mnemonic string, cat Category, shape Shape, base uint8, shift int, cycles, cyclesM int, hint string) {
	codes := map[string]uint8{}
	for r, name := range RegisterName {
		codes[name] = base | uint8(r)<<shift
	}
	define(&Instruction{
		Mnemonic:     mnemonic,
		Category:     cat,
		Shape:        shape,
		Cond:         COND_ALWAYS,
		Length:       lengthOf(shape),
		Cycles:       cycles,
		CyclesMemory: cyclesM,
		Hint:         hint,
		Codes:        codes,
	})
}

// pair defines an instruction over a set of register pairs.
func pair(mnemonic string, cat Category, shape Shape, pairs map[string]uint8, cycles int, hint string) {
	define(&Instruction{
		Mnemonic: mnemonic,
		Category: cat,
		Shape:    shape,
		Cond:     COND_ALWAYS,
		Length:   lengthOf(shape),
		Cycles:   cycles,
		Hint:     hint,
		Codes:    pairs,
	})
}

func pairs(base uint8, names ...string) (codes map[string]uint8) {
	codes = make(map[string]uint8, len(names))
	for n, name := range names {
		codes[name] = base | uint8(n)<<4
	}
	return
}

// branch defines the unconditional and conditional forms of a jump, call,
// or return family.
func branch(prefix string, always string, code uint8, base uint8, shape Shape, cycles, notTaken, taken int, operand string) {
	fixed(always, CAT_BRANCH, shape, code, cycles, always+operand)
	for cond := COND_NZ; cond < COND_ALWAYS; cond++ {
		mnemonic := prefix + cond.String()
		define(&Instruction{
			Mnemonic:    mnemonic,
			Category:    CAT_BRANCH,
			Shape:       shape,
			Cond:        cond,
			Length:      lengthOf(shape),
			Cycles:      notTaken,
			CyclesTaken: taken,
			Hint:        mnemonic + operand,
			Codes:       map[string]uint8{"": base | uint8(cond)<<3},
		})
	}
}

func init() {
	// Data transfer
	movs := map[string]uint8{}
	for d, dst := range RegisterName {
		for s, src := range RegisterName {
			if d == REG_M && s == REG_M {
				continue
			}
			movs[dst+","+src] = 0x40 | uint8(d)<<3 | uint8(s)
		}
	}
	define(&Instruction{
		Mnemonic:     "MOV",
		Category:     CAT_DATA,
		Shape:        SHAPE_REG_REG,
		Cond:         COND_ALWAYS,
		Length:       1,
		Cycles:       4,
		CyclesMemory: 7,
		Hint:         "MOV R,R",
		Codes:        movs,
	})
	register("MVI", CAT_DATA, SHAPE_REG_IMM8, 0x06, 3, 7, 10, "MVI R,XXH")
	pair("LXI", CAT_DATA, SHAPE_PAIR_IMM16, pairs(0x01, "B", "D", "H", "SP"), 10, "LXI RP,XXXXH")
	fixed("LDA", CAT_DATA, SHAPE_ADDR16, 0x3a, 13, "LDA XXXXH")
	fixed("STA", CAT_DATA, SHAPE_ADDR16, 0x32, 13, "STA XXXXH")
	fixed("LHLD", CAT_DATA, SHAPE_ADDR16, 0x2a, 16, "LHLD XXXXH")
	fixed("SHLD", CAT_DATA, SHAPE_ADDR16, 0x22, 16, "SHLD XXXXH")
	pair("LDAX", CAT_DATA, SHAPE_PAIR_BD, map[string]uint8{"B": 0x0a, "D": 0x1a}, 7, "LDAX B|D")
	pair("STAX", CAT_DATA, SHAPE_PAIR_BD, map[string]uint8{"B": 0x02, "D": 0x12}, 7, "STAX B|D")
	fixed("XCHG", CAT_DATA, SHAPE_NONE, 0xeb, 4, "XCHG")

	// Arithmetic
	register("ADD", CAT_ARITHMETIC, SHAPE_REG, 0x80, 0, 4, 7, "ADD R")
	register("ADC", CAT_ARITHMETIC, SHAPE_REG, 0x88, 0, 4, 7, "ADC R")
	register("SUB", CAT_ARITHMETIC, SHAPE_REG, 0x90, 0, 4, 7, "SUB R")
	register("SBB", CAT_ARITHMETIC, SHAPE_REG, 0x98, 0, 4, 7, "SBB R")
	fixed("ADI", CAT_ARITHMETIC, SHAPE_IMM8, 0xc6, 7, "ADI XXH")
	fixed("ACI", CAT_ARITHMETIC, SHAPE_IMM8, 0xce, 7, "ACI XXH")
	fixed("SUI", CAT_ARITHMETIC, SHAPE_IMM8, 0xd6, 7, "SUI XXH")
	fixed("SBI", CAT_ARITHMETIC, SHAPE_IMM8, 0xde, 7, "SBI XXH")
	register("INR", CAT_ARITHMETIC, SHAPE_REG, 0x04, 3, 4, 10, "INR R")
	register("DCR", CAT_ARITHMETIC, SHAPE_REG, 0x05, 3, 4, 10, "DCR R")
	pair("INX", CAT_ARITHMETIC, SHAPE_PAIR, pairs(0x03, "B", "D", "H", "SP"), 6, "INX RP")
	pair("DCX", CAT_ARITHMETIC, SHAPE_PAIR, pairs(0x0b, "B", "D", "H", "SP"), 6, "DCX RP")
	pair("DAD", CAT_ARITHMETIC, SHAPE_PAIR, pairs(0x09, "B", "D", "H", "SP"), 10, "DAD RP")
	fixed("DAA", CAT_ARITHMETIC, SHAPE_NONE, 0x27, 4, "DAA")

	// Logical
	register("ANA", CAT_LOGICAL, SHAPE_REG, 0xa0, 0, 4, 7, "ANA R")
	register("XRA", CAT_LOGICAL, SHAPE_REG, 0xa8, 0, 4, 7, "XRA R")
	register("ORA", CAT_LOGICAL, SHAPE_REG, 0xb0, 0, 4, 7, "ORA R")
	register("CMP", CAT_LOGICAL, SHAPE_REG, 0xb8, 0, 4, 7, "CMP R")
	fixed("ANI", CAT_LOGICAL, SHAPE_IMM8, 0xe6, 7, "ANI XXH")
	fixed("XRI", CAT_LOGICAL, SHAPE_IMM8, 0xee, 7, "XRI XXH")
	fixed("ORI", CAT_LOGICAL, SHAPE_IMM8, 0xf6, 7, "ORI XXH")
	fixed("CPI", CAT_LOGICAL, SHAPE_IMM8, 0xfe, 7, "CPI XXH")
	fixed("RLC", CAT_LOGICAL, SHAPE_NONE, 0x07, 4, "RLC")
	fixed("RRC", CAT_LOGICAL, SHAPE_NONE, 0x0f, 4, "RRC")
	fixed("RAL", CAT_LOGICAL, SHAPE_NONE, 0x17, 4, "RAL")
	fixed("RAR", CAT_LOGICAL, SHAPE_NONE, 0x1f, 4, "RAR")
	fixed("CMA", CAT_LOGICAL, SHAPE_NONE, 0x2f, 4, "CMA")
	fixed("CMC", CAT_LOGICAL, SHAPE_NONE, 0x3f, 4, "CMC")
	fixed("STC", CAT_LOGICAL, SHAPE_NONE, 0x37, 4, "STC")

	// Branch
	branch("J", "JMP", 0xc3, 0xc2, SHAPE_ADDR16, 10, 7, 10, " XXXXH|LABEL")
	branch("C", "CALL", 0xcd, 0xc4, SHAPE_ADDR16, 18, 9, 18, " XXXXH|LABEL")
	branch("R", "RET", 0xc9, 0xc0, SHAPE_NONE, 10, 6, 12, "")
	fixed("PCHL", CAT_BRANCH, SHAPE_NONE, 0xe9, 6, "PCHL")
	rst := map[string]uint8{}
	for n := range 8 {
		rst[fmt.Sprint(n)] = 0xc7 | uint8(n)<<3
	}
	define(&Instruction{
		Mnemonic: "RST",
		Category: CAT_BRANCH,
		Shape:    SHAPE_RST,
		Cond:     COND_ALWAYS,
		Length:   1,
		Cycles:   12,
		Hint:     "RST 0-7",
		Codes:    rst,
	})

	// Stack and machine control
	pair("PUSH", CAT_STACK, SHAPE_PAIR_PSW, pairs(0xc5, "B", "D", "H", "PSW"), 12, "PUSH RP|PSW")
	pair("POP", CAT_STACK, SHAPE_PAIR_PSW, pairs(0xc1, "B", "D", "H", "PSW"), 10, "POP RP|PSW")
	fixed("XTHL", CAT_STACK, SHAPE_NONE, 0xe3, 16, "XTHL")
	fixed("SPHL", CAT_STACK, SHAPE_NONE, 0xf9, 6, "SPHL")
	fixed("HLT", CAT_STACK, SHAPE_NONE, 0x76, 5, "HLT")
	fixed("NOP", CAT_STACK, SHAPE_NONE, 0x00, 4, "NOP")
	fixed("RST5.5", CAT_STACK, SHAPE_NONE, 0xcb, 4, "RST5.5")

	// Peripheral
	fixed("IN", CAT_PERIPHERAL, SHAPE_PORT, 0xdb, 10, "IN XXH")
	fixed("OUT", CAT_PERIPHERAL, SHAPE_PORT, 0xd3, 10, "OUT XXH")
}

// Lookup finds the opcode table entry of a mnemonic.
func Lookup(mnemonic string) (inst *Instruction, err error) {
	inst, ok := table[mnemonic]
	if !ok {
		err = ErrUnknownInstruction
		return
	}

	return
}

// Decode reverses an opcode byte into its table entry and operand key.
func Decode(code uint8) (inst *Instruction, key string, ok bool) {
	dec := decode[code]
	if dec.inst == nil {
		return
	}

	return dec.inst, dec.key, true
}

// Info returns a copy of the opcode table entry of a mnemonic.
func Info(mnemonic string) (info Instruction, err error) {
	inst, err := Lookup(mnemonic)
	if err != nil {
		return
	}

	info = *inst
	info.Codes = maps.Clone(inst.Codes)
	return
}

// Mnemonics iterates over the opcode table in mnemonic order.
func Mnemonics() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(table)))
}
