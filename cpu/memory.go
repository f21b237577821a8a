package cpu

import (
	"iter"
	"maps"
	"slices"
)

// MEMORY_SIZE is the size of the 16-bit address space.
const MEMORY_SIZE = 0x10000

// Memory is the 64KiB address space, with a record of the addresses written
// since the last Forget.
type Memory struct {
	Data    [MEMORY_SIZE]uint8
	touched map[uint16]struct{}
}

// Read a byte.
func (mem *Memory) Read(addr uint16) uint8 {
	return mem.Data[addr]
}

// Write a byte, marking the address as touched.
func (mem *Memory) Write(addr uint16, value uint8) {
	if mem.touched == nil {
		mem.touched = make(map[uint16]struct{}, 16)
	}
	mem.Data[addr] = value
	mem.touched[addr] = struct{}{}
}

// Read16 reads a little-endian word.
func (mem *Memory) Read16(addr uint16) uint16 {
	return uint16(mem.Data[addr]) | uint16(mem.Data[addr+1])<<8
}

// Write16 writes a little-endian word.
func (mem *Memory) Write16(addr uint16, value uint16) {
	mem.Write(addr, uint8(value))
	mem.Write(addr+1, uint8(value>>8))
}

// Load copies data into memory at base without marking it touched.
// The entire range must fit in the address space.
func (mem *Memory) Load(base int, data []uint8) (err error) {
	if base < 0 || base+len(data) > MEMORY_SIZE {
		err = ErrInvalidMemoryAddress
		return
	}

	copy(mem.Data[base:], data)
	return
}

// Touched iterates, in address order, over the addresses written since the
// last Forget.
func (mem *Memory) Touched() iter.Seq2[uint16, uint8] {
	addrs := slices.Sorted(maps.Keys(mem.touched))
	return func(yield func(addr uint16, value uint8) bool) {
		for _, addr := range addrs {
			if !yield(addr, mem.Data[addr]) {
				return
			}
		}
	}
}

// Forget clears the touched record, leaving the contents.
func (mem *Memory) Forget() {
	clear(mem.touched)
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem.Data[:])
	mem.Forget()
}
