package emulator

import (
	"fmt"
	stdio "io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/girisakar365/8085-mP/cpu"
	"github.com/girisakar365/8085-mP/io"
)

// State is the persisted processor state. Values are XXH or XXXXH hex
// strings, keyed by register name, flag name, or address.
type State struct {
	Registers map[string]string `yaml:"registers"`
	Flags     map[string]int    `yaml:"flags"`
	Memory    map[string]string `yaml:"memory,omitempty"`
	Ports     map[string]string `yaml:"ports,omitempty"`
}

// State captures the full processor state. Only nonzero memory and ports
// are recorded.
func (emu *Emulator) State() (state *State) {
	snap := emu.Snapshot()

	state = &State{
		Registers: map[string]string{},
		Flags:     map[string]int{},
		Memory:    map[string]string{},
		Ports:     map[string]string{},
	}

	for name, value := range snap.Registers() {
		state.Registers[name] = value
	}
	for name, value := range snap.Flags() {
		state.Flags[name], _ = strconv.Atoi(value)
	}
	for addr, value := range emu.Cpu.Memory.Data[:] {
		if value != 0 {
			state.Memory[fmt.Sprintf("%04XH", addr)] = fmt.Sprintf("%02XH", value)
		}
	}
	for port := range io.PORT_COUNT {
		value := emu.Ports.In(uint8(port))
		if value != 0 {
			state.Ports[fmt.Sprintf("%02XH", port)] = fmt.Sprintf("%02XH", value)
		}
	}

	return
}

// parseHex parses an XXH style value of at most bitSize bits.
func parseHex(text string, bitSize int) (value uint64, err error) {
	text = strings.ToUpper(strings.TrimSpace(text))
	text = strings.TrimSuffix(text, "H")
	if len(text) == 0 {
		err = ErrStateValue
		return
	}

	value, err = strconv.ParseUint(text, 16, bitSize)
	if err != nil {
		err = ErrStateValue
	}

	return
}

// Restore resets the emulator and loads a persisted state.
func (emu *Emulator) Restore(state *State) (err error) {
	emu.Reset()

	var value uint64
	for name, text := range state.Registers {
		key := strings.ToUpper(name)
		switch key {
		case "PC", "SP":
			value, err = parseHex(text, 16)
			if err != nil {
				return &ErrState{Key: name, Value: text, Err: err}
			}
			if key == "PC" {
				emu.Cpu.PC = uint16(value)
			} else {
				emu.Cpu.SP = uint16(value)
			}
		case "A", "B", "C", "D", "E", "H", "L":
			value, err = parseHex(text, 8)
			if err != nil {
				return &ErrState{Key: name, Value: text, Err: err}
			}
			reg, _ := cpu.RegisterCode(key)
			emu.Cpu.Register[reg] = uint8(value)
		default:
			return &ErrState{Key: name, Value: text, Err: ErrStateRegister}
		}
	}

	for name, bit := range state.Flags {
		if bit != 0 && bit != 1 {
			return &ErrState{Key: name, Value: strconv.Itoa(bit), Err: ErrStateValue}
		}
		set := bit == 1
		switch strings.ToUpper(name) {
		case "S":
			emu.Cpu.Flag.S = set
		case "Z":
			emu.Cpu.Flag.Z = set
		case "AC":
			emu.Cpu.Flag.AC = set
		case "P":
			emu.Cpu.Flag.P = set
		case "CY":
			emu.Cpu.Flag.CY = set
		default:
			return &ErrState{Key: name, Value: strconv.Itoa(bit), Err: ErrStateFlag}
		}
	}

	var addr uint64
	for key, text := range state.Memory {
		addr, err = parseHex(key, 16)
		if err != nil {
			return &ErrState{Key: key, Value: text, Err: cpu.ErrInvalidMemoryAddress}
		}
		value, err = parseHex(text, 8)
		if err != nil {
			return &ErrState{Key: key, Value: text, Err: err}
		}
		emu.Cpu.Memory.Data[addr] = uint8(value)
	}

	for key, text := range state.Ports {
		addr, err = parseHex(key, 8)
		if err != nil {
			return &ErrState{Key: key, Value: text, Err: cpu.ErrInvalidPortAddress}
		}
		value, err = parseHex(text, 8)
		if err != nil {
			return &ErrState{Key: key, Value: text, Err: err}
		}
		emu.Ports.Set(uint8(addr), uint8(value))
	}

	return
}

// Save writes the state as YAML.
func (state *State) Save(w stdio.Writer) (err error) {
	data, err := yaml.Marshal(state)
	if err != nil {
		return
	}

	_, err = w.Write(data)

	return
}

// LoadState reads a YAML state.
func LoadState(r stdio.Reader) (state *State, err error) {
	state = &State{}
	err = yaml.NewDecoder(r).Decode(state)
	if err != nil {
		state = nil
	}

	return
}
