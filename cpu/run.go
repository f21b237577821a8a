package cpu

import (
	"fmt"
	"log"
)

// Fetch decodes the instruction at PC from memory.
func (cpu *Cpu) Fetch() (dec Decoded, err error) {
	pc := cpu.PC
	code := cpu.Memory.Read(pc)

	inst, key, ok := Decode(code)
	if !ok {
		err = ErrOpcode{Address: pc, Code: code}
		return
	}
	if int(pc)+inst.Length > MEMORY_SIZE {
		err = ErrInvalidMemoryAddress
		return
	}

	dec = Decoded{Instruction: inst, Key: key, Operand: key}
	switch inst.Length {
	case 2:
		dec.Value = uint16(cpu.Memory.Read(pc + 1))
	case 3:
		dec.Value = cpu.Memory.Read16(pc + 1)
	}
	if inst.Shape == SHAPE_RST {
		dec.Value = uint16(key[0]-'0') * 8
	}

	return
}

// Step executes one instruction from memory. If prog is not nil, PC must
// be the address of one of its instructions.
func (cpu *Cpu) Step(prog *Program) (flow Flow, err error) {
	pc := cpu.PC

	if prog != nil {
		if _, ok := prog.At(pc); !ok {
			err = ErrMissingReturn
			return
		}
	}

	dec, err := cpu.Fetch()
	if err != nil {
		return
	}

	flow, target, err := cpu.Execute(dec)
	if err != nil {
		return
	}

	if flow == FLOW_RESET {
		return
	}

	next := pc + uint16(dec.Length)
	switch flow {
	case FLOW_NEXT, FLOW_HALT:
		cpu.PC = next
	case FLOW_JUMP:
		if target == pc {
			err = ErrInfiniteLoop
			return
		}
		cpu.PC = target
	case FLOW_CALL:
		err = cpu.Stack.Push(Return{Address: next})
		if err != nil {
			return
		}
		cpu.push(next)
		cpu.PC = target
	case FLOW_RETURN:
		_, err = cpu.Stack.Pop()
		if err != nil {
			return
		}
		cpu.PC = cpu.pop()
	}

	cpu.Prev = pc

	return
}

// Run executes from PC until HLT, an error, or the step limit.
func (cpu *Cpu) Run(prog *Program) (err error) {
	cpu.Stack.Reset()
	cpu.Block = ""
	cpu.Ticks = 0
	cpu.Cycles = 0

	if cpu.Verbose {
		log.Printf("cpu: run from %04XH", cpu.PC)
	}

	limit := cpu.MaxSteps()
	for {
		if cpu.Ticks >= limit {
			err = ErrStepLimitExceeded
			return
		}

		var flow Flow
		flow, err = cpu.Step(prog)
		if err != nil || flow == FLOW_HALT || flow == FLOW_RESET {
			return
		}
	}
}

// RunBlocks executes a block program from its entry block until HLT or
// RST, an error, or the step limit. ORG and DB are executed as they are
// reached, writing DB bytes at the data pointer.
func (cpu *Cpu) RunBlocks(blocks *Blocks) (err error) {
	cpu.Stack.Reset()
	cpu.Block = blocks.Entry
	cpu.Index = 0
	cpu.Ticks = 0
	cpu.Cycles = 0

	if cpu.Verbose {
		log.Printf("cpu: run block %v", cpu.Block)
	}

	data := int(blocks.DataBase)
	limit := cpu.MaxSteps()
	for {
		lines, ok := blocks.Block[cpu.Block]
		if !ok {
			err = ErrLabelMissing(cpu.Block)
			return
		}
		if cpu.Index >= len(lines) {
			err = ErrAmbiguousHalt
			return
		}
		if cpu.Ticks >= limit {
			err = ErrStepLimitExceeded
			return
		}

		line := lines[cpu.Index]
		switch line.Mnemonic {
		case "ORG":
			var value uint16
			var label string
			value, label, err = validAddress(line.Operand)
			if err == nil && len(label) != 0 {
				err = &ErrOperand{Operand: label, Expect: "ORG XXXXH", Err: ErrSyntax}
			}
			if err != nil {
				return
			}
			data = int(value)
			cpu.Index += 1
			continue
		case "DB":
			var codes []uint8
			codes, err = dataBytes(line.Operand)
			if err != nil {
				return
			}
			if data+len(codes) > MEMORY_SIZE {
				err = ErrInvalidMemoryAddress
				return
			}
			for _, code := range codes {
				cpu.Memory.Write(uint16(data), code)
				data += 1
			}
			cpu.Index += 1
			continue
		}

		var dec Decoded
		dec, err = Validate(line.Mnemonic, line.Operand)
		if err != nil {
			return
		}

		// Branch targets are block labels, checked whether taken or not.
		if len(dec.Label) != 0 || (dec.Branch() && dec.Shape == SHAPE_ADDR16) {
			if _, ok := blocks.Block[dec.Label]; !ok || !dec.Branch() {
				label := dec.Label
				if len(label) == 0 {
					label = dec.Operand
				}
				err = ErrLabelMissing(label)
				return
			}
		}

		var flow Flow
		flow, _, err = cpu.Execute(dec)
		if err != nil {
			return
		}

		switch flow {
		case FLOW_NEXT:
			cpu.Index += 1
		case FLOW_HALT, FLOW_RESET:
			return
		case FLOW_JUMP:
			if dec.Mnemonic == "PCHL" {
				err = ErrLabelMissing(fmt.Sprintf("%04XH", cpu.Pair(PAIR_H)))
				return
			}
			if dec.Label == cpu.Block && cpu.Index == 0 {
				err = ErrInfiniteLoop
				return
			}
			cpu.Block, cpu.Index = dec.Label, 0
		case FLOW_CALL:
			if dec.Shape == SHAPE_RST {
				return
			}
			err = cpu.Stack.Push(Return{Block: cpu.Block, Index: cpu.Index + 1})
			if err != nil {
				return
			}
			cpu.Block, cpu.Index = dec.Label, 0
		case FLOW_RETURN:
			var ret Return
			ret, err = cpu.Stack.Pop()
			if err != nil {
				return
			}
			cpu.Block, cpu.Index = ret.Block, ret.Index
		}
	}
}
