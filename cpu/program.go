package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode is a row of the assembled listing.
type Opcode struct {
	LineNo   int
	Text     string // Source line.
	Address  uint16
	Label    string
	Mnemonic string
	Operand  string
	Codes    []uint8
	Cycles   int
	Data     bool // Set for DB rows.
}

// String formats the row as a listing line.
func (op *Opcode) String() string {
	hex := make([]string, len(op.Codes))
	for n, code := range op.Codes {
		hex[n] = fmt.Sprintf("%02X", code)
	}

	label := op.Label
	if len(label) != 0 {
		label += ":"
	}

	cycles := ""
	if !op.Data {
		cycles = fmt.Sprint(op.Cycles)
	}

	return fmt.Sprintf("%04XH  %-8s %-4s %-12s %-8s %v",
		op.Address, label, op.Mnemonic, op.Operand, strings.Join(hex, " "), cycles)
}

// Program is an assembled listing.
type Program struct {
	Origin   uint16            // Entry address, at the first instruction.
	Opcodes  []Opcode          // Listing rows, in source order.
	Label    map[string]uint16 // Resolved labels.
	Warnings []string          // Non-fatal diagnostics.

	index map[uint16]int
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the listing row containing an address.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= int(op.Address) && int(addr) < int(op.Address)+len(op.Codes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr - op.Address),
			}
			break
		}
	}

	return
}

// At finds the instruction row starting at an address.
func (prog *Program) At(addr uint16) (op *Opcode, ok bool) {
	if prog.index == nil {
		prog.index = make(map[uint16]int, len(prog.Opcodes))
		for n, op := range prog.Opcodes {
			if !op.Data {
				prog.index[op.Address] = n
			}
		}
	}

	n, ok := prog.index[addr]
	if !ok {
		return
	}

	op = &prog.Opcodes[n]
	return
}

// Codes iterates over every assembled byte by address.
func (prog *Program) Codes() iter.Seq2[uint16, uint8] {
	return func(yield func(addr uint16, code uint8) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Address+uint16(n), code) {
					return
				}
			}
		}
	}
}

// Load writes the program image into memory. DB bytes are marked touched,
// instruction bytes are not.
func (prog *Program) Load(mem *Memory) (err error) {
	for _, op := range prog.Opcodes {
		if op.Data {
			for n, code := range op.Codes {
				mem.Write(op.Address+uint16(n), code)
			}
			continue
		}
		err = mem.Load(int(op.Address), op.Codes)
		if err != nil {
			return
		}
	}

	return
}

// Disassemble decodes the instruction at the start of code.
func Disassemble(code []uint8) (mnemonic string, operand string, length int, err error) {
	if len(code) == 0 {
		err = ErrMissingOperand
		return
	}

	inst, key, ok := Decode(code[0])
	if !ok {
		err = ErrOpcode{Code: code[0]}
		return
	}
	if len(code) < inst.Length {
		err = &ErrOperand{Operand: fmt.Sprintf("% X", code), Expect: inst.Hint, Err: ErrMissingOperand}
		return
	}

	mnemonic = inst.Mnemonic
	length = inst.Length

	var value uint16
	switch inst.Length {
	case 2:
		value = uint16(code[1])
	case 3:
		value = uint16(code[1]) | uint16(code[2])<<8
	}

	switch inst.Shape {
	case SHAPE_NONE:
	case SHAPE_REG, SHAPE_REG_REG, SHAPE_PAIR, SHAPE_PAIR_BD, SHAPE_PAIR_PSW, SHAPE_RST:
		operand = key
	case SHAPE_REG_IMM8:
		operand = fmt.Sprintf("%v,%02XH", key, value)
	case SHAPE_PAIR_IMM16:
		operand = fmt.Sprintf("%v,%04XH", key, value)
	case SHAPE_IMM8, SHAPE_PORT:
		operand = fmt.Sprintf("%02XH", value)
	case SHAPE_ADDR16:
		operand = fmt.Sprintf("%04XH", value)
	}

	return
}
