// Package io provides the I/O port space of the 8085 simulator.
//
// The processor reaches its 256 ports only through IN and OUT. Ports are
// plain byte registers: reading a port returns the last value written to it
// (or the value preset by the host), and no operation ever blocks on a host
// device.
package io

import (
	"iter"
)

// PORT_COUNT is the number of addressable ports.
const PORT_COUNT = 256

// Port defines the interface for the port space attached to the processor.
type Port interface {
	// Reset restores every port to zero.
	Reset()
	// In reads the byte latched on a port.
	In(port uint8) uint8
	// Out latches a byte on a port.
	Out(port uint8, value uint8)
}

// Bank is an in-memory Port. The zero value is ready for use.
type Bank struct {
	Data    [PORT_COUNT]uint8
	written [PORT_COUNT]bool
}

var _ Port = (*Bank)(nil)

// Reset clears all ports and the written marks.
func (bank *Bank) Reset() {
	clear(bank.Data[:])
	clear(bank.written[:])
}

// In reads a port.
func (bank *Bank) In(port uint8) uint8 {
	return bank.Data[port]
}

// Out writes a port and marks it as written.
func (bank *Bank) Out(port uint8, value uint8) {
	bank.Data[port] = value
	bank.written[port] = true
}

// Set presets a port without marking it written, as a host device would.
func (bank *Bank) Set(port uint8, value uint8) {
	bank.Data[port] = value
}

// Written iterates, in port order, over the ports written by OUT since the
// last Reset.
func (bank *Bank) Written() iter.Seq2[uint8, uint8] {
	return func(yield func(port uint8, value uint8) bool) {
		for n := range PORT_COUNT {
			if !bank.written[n] {
				continue
			}
			if !yield(uint8(n), bank.Data[n]) {
				return
			}
		}
	}
}
