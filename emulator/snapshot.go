package emulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/girisakar365/8085-mP/cpu"
	"github.com/girisakar365/8085-mP/internal"
)

// Snapshot is the processor state after a run.
type Snapshot struct {
	Register [8]uint8         // Register file by register code.
	PC       uint16           // Program counter.
	SP       uint16           // Stack pointer.
	Flag     cpu.Flags        // Condition flags.
	Memory   map[uint16]uint8 // Addresses written during the run.
	Port     map[uint8]uint8  // Ports written by OUT.
	Ticks    int              // Instructions executed.
	Cycles   int              // Cycles consumed.
}

// Snapshot captures the current processor state.
func (emu *Emulator) Snapshot() (snap *Snapshot) {
	snap = &Snapshot{
		Register: emu.Cpu.Register,
		PC:       emu.Cpu.PC,
		SP:       emu.Cpu.SP,
		Flag:     emu.Cpu.Flag,
		Memory:   maps.Collect(emu.Cpu.Memory.Touched()),
		Port:     maps.Collect(emu.Ports.Written()),
		Ticks:    emu.Cpu.Ticks,
		Cycles:   emu.Cpu.Cycles,
	}

	return
}

var snapshotRegisters = []uint8{
	cpu.REG_A, cpu.REG_B, cpu.REG_C, cpu.REG_D, cpu.REG_E, cpu.REG_H, cpu.REG_L,
}

// Registers iterates over the register names and values, A first.
func (snap *Snapshot) Registers() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, reg := range snapshotRegisters {
			if !yield(cpu.RegisterName[reg], fmt.Sprintf("%02XH", snap.Register[reg])) {
				return
			}
		}
		if !yield("PC", fmt.Sprintf("%04XH", snap.PC)) {
			return
		}
		yield("SP", fmt.Sprintf("%04XH", snap.SP))
	}
}

// Flags iterates over the flag names and values, in PSW bit order.
func (snap *Snapshot) Flags() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		fl := snap.Flag
		for _, item := range []struct {
			name  string
			value bool
		}{
			{"S", fl.S}, {"Z", fl.Z}, {"AC", fl.AC}, {"P", fl.P}, {"CY", fl.CY},
		} {
			value := "0"
			if item.value {
				value = "1"
			}
			if !yield(item.name, value) {
				return
			}
		}
	}
}

// Values iterates over the formatted registers, flags, touched memory and
// written ports.
func (snap *Snapshot) Values() iter.Seq2[string, string] {
	memory := internal.IterSeq2Map(internal.IterSeq2Sorted(snap.Memory),
		func(addr uint16, value uint8) (string, string) {
			return fmt.Sprintf("[%04XH]", addr), fmt.Sprintf("%02XH", value)
		})
	ports := internal.IterSeq2Map(internal.IterSeq2Sorted(snap.Port),
		func(port uint8, value uint8) (string, string) {
			return fmt.Sprintf("PORT %02XH", port), fmt.Sprintf("%02XH", value)
		})

	return internal.IterSeq2Concat(snap.Registers(), snap.Flags(), memory, ports)
}
