package cpu

import (
	"math/bits"
)

// setSZP sets sign, zero, and parity from a result.
func (cpu *Cpu) setSZP(result uint8) {
	cpu.Flag.S = result&0x80 != 0
	cpu.Flag.Z = result == 0
	cpu.Flag.P = bits.OnesCount8(result)%2 == 0
}

// add returns a + b + carry, setting all flags.
func (cpu *Cpu) add(a, b uint8, carry bool) (result uint8) {
	c := uint16(bit(carry))
	sum := uint16(a) + uint16(b) + c
	result = uint8(sum)

	cpu.Flag.CY = sum > 0xff
	cpu.Flag.AC = uint16(a&0xf)+uint16(b&0xf)+c > 0xf
	cpu.setSZP(result)
	return
}

// sub returns a - b - borrow, setting all flags. Carry is set when the
// subtrahend exceeds the minuend, and AC on a borrow out of bit 3.
func (cpu *Cpu) sub(a, b uint8, borrow bool) (result uint8) {
	c := int(bit(borrow))
	diff := int(a) - int(b) - c
	result = uint8(diff)

	cpu.Flag.CY = diff < 0
	cpu.Flag.AC = int(a&0xf)-int(b&0xf)-c < 0
	cpu.setSZP(result)
	return
}

func (cpu *Cpu) and(a, b uint8) (result uint8) {
	result = a & b
	cpu.Flag.CY = false
	cpu.Flag.AC = true
	cpu.setSZP(result)
	return
}

func (cpu *Cpu) xor(a, b uint8) (result uint8) {
	result = a ^ b
	cpu.Flag.CY = false
	cpu.Flag.AC = false
	cpu.setSZP(result)
	return
}

func (cpu *Cpu) or(a, b uint8) (result uint8) {
	result = a | b
	cpu.Flag.CY = false
	cpu.Flag.AC = false
	cpu.setSZP(result)
	return
}

// inr increments, leaving carry alone.
func (cpu *Cpu) inr(value uint8) (result uint8) {
	result = value + 1
	cpu.Flag.AC = value&0xf == 0xf
	cpu.setSZP(result)
	return
}

// dcr decrements, leaving carry alone.
func (cpu *Cpu) dcr(value uint8) (result uint8) {
	result = value - 1
	cpu.Flag.AC = value&0xf == 0
	cpu.setSZP(result)
	return
}

// daa adjusts the accumulator to packed BCD.
func (cpu *Cpu) daa(a uint8) (result uint8) {
	var correction uint8
	carry := cpu.Flag.CY

	lo := a & 0xf
	if cpu.Flag.AC || lo > 9 {
		correction |= 0x06
	}
	if carry || a > 0x99 {
		correction |= 0x60
		carry = true
	}

	result = a + correction
	cpu.Flag.AC = lo+correction&0xf > 0xf
	cpu.Flag.CY = carry
	cpu.setSZP(result)
	return
}

// rotate performs RLC, RRC, RAL, or RAR on the accumulator. Only carry is
// affected.
func (cpu *Cpu) rotate(mnemonic string, a uint8) (result uint8) {
	switch mnemonic {
	case "RLC":
		result = bits.RotateLeft8(a, 1)
		cpu.Flag.CY = a&0x80 != 0
	case "RRC":
		result = bits.RotateLeft8(a, -1)
		cpu.Flag.CY = a&0x01 != 0
	case "RAL":
		result = a<<1 | uint8(bit(cpu.Flag.CY))
		cpu.Flag.CY = a&0x80 != 0
	case "RAR":
		result = a>>1 | uint8(bit(cpu.Flag.CY))<<7
		cpu.Flag.CY = a&0x01 != 0
	}
	return
}

// dad adds a pair to HL. Only carry is affected.
func (cpu *Cpu) dad(value uint16) {
	sum := uint32(cpu.Pair(PAIR_H)) + uint32(value)
	cpu.SetPair(PAIR_H, uint16(sum))
	cpu.Flag.CY = sum > 0xffff
}
