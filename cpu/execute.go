package cpu

import (
	"log"
)

// Flow is the control transfer requested by an executed instruction.
type Flow int

//go:generate go tool stringer -linecomment -type=Flow
const (
	FLOW_NEXT   = Flow(0) // next
	FLOW_JUMP   = Flow(1) // jump
	FLOW_CALL   = Flow(2) // call
	FLOW_RETURN = Flow(3) // return
	FLOW_HALT   = Flow(4) // halt
	FLOW_RESET  = Flow(5) // reset
)

var pairCode = map[string]uint8{
	"B": PAIR_B, "D": PAIR_D, "H": PAIR_H, "SP": PAIR_SP, "PSW": PAIR_PSW,
}

// Execute performs the side effects of a decoded instruction. Branch
// conditions are evaluated against the flags before any mutation. Control
// transfers are returned as a flow and target address for the caller to
// complete.
func (cpu *Cpu) Execute(dec Decoded) (flow Flow, target uint16, err error) {
	inst := dec.Instruction
	taken := cpu.Flag.Test(inst.Cond)

	if cpu.Verbose {
		log.Printf("cpu: %04XH: %v %v", cpu.PC, inst.Mnemonic, dec.Operand)
	}

	switch inst.Category {
	case CAT_DATA:
		cpu.execData(dec)
	case CAT_ARITHMETIC:
		cpu.execArithmetic(dec)
	case CAT_LOGICAL:
		cpu.execLogical(dec)
	case CAT_BRANCH:
		if taken {
			flow, target = cpu.execBranch(dec)
		}
	case CAT_STACK:
		flow = cpu.execStack(dec)
	case CAT_PERIPHERAL:
		err = cpu.execPeripheral(dec)
	default:
		err = ErrOpcodeUnknown
	}
	if err != nil {
		return
	}

	cpu.Ticks += 1
	cpu.Cycles += dec.Timing(taken)

	if flow == FLOW_RESET {
		cpu.Reset()
	}

	return
}

func (cpu *Cpu) execData(dec Decoded) {
	a := &cpu.Register[REG_A]

	switch dec.Mnemonic {
	case "MOV":
		cpu.Set(registerCode[dec.Key[:1]], cpu.Get(registerCode[dec.Key[2:]]))
	case "MVI":
		cpu.Set(registerCode[dec.Key], uint8(dec.Value))
	case "LXI":
		cpu.SetPair(pairCode[dec.Key], dec.Value)
	case "LDA":
		*a = cpu.Memory.Read(dec.Value)
	case "STA":
		cpu.Memory.Write(dec.Value, *a)
	case "LHLD":
		cpu.SetPair(PAIR_H, cpu.Memory.Read16(dec.Value))
	case "SHLD":
		cpu.Memory.Write16(dec.Value, cpu.Pair(PAIR_H))
	case "LDAX":
		*a = cpu.Memory.Read(cpu.Pair(pairCode[dec.Key]))
	case "STAX":
		cpu.Memory.Write(cpu.Pair(pairCode[dec.Key]), *a)
	case "XCHG":
		de, hl := cpu.Pair(PAIR_D), cpu.Pair(PAIR_H)
		cpu.SetPair(PAIR_D, hl)
		cpu.SetPair(PAIR_H, de)
	}
}

func (cpu *Cpu) execArithmetic(dec Decoded) {
	a := &cpu.Register[REG_A]
	reg := registerCode[dec.Key]
	rp := pairCode[dec.Key]
	imm := uint8(dec.Value)

	switch dec.Mnemonic {
	case "ADD":
		*a = cpu.add(*a, cpu.Get(reg), false)
	case "ADC":
		*a = cpu.add(*a, cpu.Get(reg), cpu.Flag.CY)
	case "SUB":
		*a = cpu.sub(*a, cpu.Get(reg), false)
	case "SBB":
		*a = cpu.sub(*a, cpu.Get(reg), cpu.Flag.CY)
	case "ADI":
		*a = cpu.add(*a, imm, false)
	case "ACI":
		*a = cpu.add(*a, imm, cpu.Flag.CY)
	case "SUI":
		*a = cpu.sub(*a, imm, false)
	case "SBI":
		*a = cpu.sub(*a, imm, cpu.Flag.CY)
	case "INR":
		cpu.Set(reg, cpu.inr(cpu.Get(reg)))
	case "DCR":
		cpu.Set(reg, cpu.dcr(cpu.Get(reg)))
	case "INX":
		cpu.SetPair(rp, cpu.Pair(rp)+1)
	case "DCX":
		cpu.SetPair(rp, cpu.Pair(rp)-1)
	case "DAD":
		cpu.dad(cpu.Pair(rp))
	case "DAA":
		*a = cpu.daa(*a)
	}
}

func (cpu *Cpu) execLogical(dec Decoded) {
	a := &cpu.Register[REG_A]
	reg := registerCode[dec.Key]
	imm := uint8(dec.Value)

	switch dec.Mnemonic {
	case "ANA":
		*a = cpu.and(*a, cpu.Get(reg))
	case "XRA":
		*a = cpu.xor(*a, cpu.Get(reg))
	case "ORA":
		*a = cpu.or(*a, cpu.Get(reg))
	case "CMP":
		cpu.sub(*a, cpu.Get(reg), false)
	case "ANI":
		*a = cpu.and(*a, imm)
	case "XRI":
		*a = cpu.xor(*a, imm)
	case "ORI":
		*a = cpu.or(*a, imm)
	case "CPI":
		cpu.sub(*a, imm, false)
	case "RLC", "RRC", "RAL", "RAR":
		*a = cpu.rotate(dec.Mnemonic, *a)
	case "CMA":
		*a = ^*a
	case "CMC":
		cpu.Flag.CY = !cpu.Flag.CY
	case "STC":
		cpu.Flag.CY = true
	}
}

// execBranch resolves a taken branch.
func (cpu *Cpu) execBranch(dec Decoded) (flow Flow, target uint16) {
	switch dec.Mnemonic {
	case "PCHL":
		return FLOW_JUMP, cpu.Pair(PAIR_H)
	case "RST":
		return FLOW_CALL, dec.Value
	}

	switch dec.Mnemonic[0] {
	case 'J':
		flow, target = FLOW_JUMP, dec.Value
	case 'C':
		flow, target = FLOW_CALL, dec.Value
	case 'R':
		flow = FLOW_RETURN
	}
	return
}

func (cpu *Cpu) execStack(dec Decoded) (flow Flow) {
	switch dec.Mnemonic {
	case "PUSH":
		if dec.Key == "PSW" {
			cpu.push(cpu.PSW())
		} else {
			cpu.push(cpu.Pair(pairCode[dec.Key]))
		}
	case "POP":
		value := cpu.pop()
		if dec.Key == "PSW" {
			cpu.SetPSW(value)
		} else {
			cpu.SetPair(pairCode[dec.Key], value)
		}
	case "XTHL":
		top := cpu.Memory.Read16(cpu.SP)
		cpu.Memory.Write16(cpu.SP, cpu.Pair(PAIR_H))
		cpu.SetPair(PAIR_H, top)
	case "SPHL":
		cpu.SP = cpu.Pair(PAIR_H)
	case "HLT":
		flow = FLOW_HALT
	case "RST5.5":
		flow = FLOW_RESET
	case "NOP":
	}
	return
}

func (cpu *Cpu) execPeripheral(dec Decoded) (err error) {
	if cpu.Port == nil {
		err = ErrInvalidPortAddress
		return
	}

	port := uint8(dec.Value)
	switch dec.Mnemonic {
	case "IN":
		cpu.Register[REG_A] = cpu.Port.In(port)
	case "OUT":
		cpu.Port.Out(port, cpu.Register[REG_A])
	}
	return
}
