package emulator

import (
	"errors"
	stdio "io"
	"iter"
	"log"
	"maps"

	"github.com/girisakar365/8085-mP/cpu"
	"github.com/girisakar365/8085-mP/io"
)

// Emulator state. CPU + program + port bank.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the current program listing.
	Blocks   *cpu.Blocks  // Reference to the current block program, if any.

	Ports io.Bank // Port bank serving IN and OUT.

	Origin   uint16 // Address of the first assembled instruction.
	DataBase uint16 // Address of DB bytes before any ORG.

	defines map[string]string
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:      cpu.NewCpu(),
		Program:  &cpu.Program{},
		DataBase: cpu.DATA_BASE,
	}

	emu.Cpu.Port = &emu.Ports

	return
}

// Define adds an equate visible to every program assembled by the emulator.
func (emu *Emulator) Define(equ string, value string) {
	if emu.defines == nil {
		emu.defines = map[string]string{}
	}
	emu.defines[equ] = value
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return maps.All(emu.defines)
}

// Assemble source into the current program. On error the current program
// is left unchanged.
func (emu *Emulator) Assemble(source stdio.Reader) (prog *cpu.Program, err error) {
	asm := cpu.NewAssembler()
	asm.Verbose = emu.Verbose
	asm.Origin = emu.Origin
	asm.DataBase = emu.DataBase
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err = asm.Parse(source)
	if err != nil {
		return
	}

	emu.Program = prog
	emu.Blocks = nil

	return
}

// Load the current program into memory and point PC at its origin.
// Registers, flags and ports carry over from the previous run.
func (emu *Emulator) Load() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Memory.Forget()
	emu.Cpu.Stack.Reset()
	emu.Cpu.Block = ""
	emu.Cpu.Ticks = 0
	emu.Cpu.Cycles = 0

	err = emu.Program.Load(&emu.Cpu.Memory)
	if err != nil {
		return
	}

	emu.Cpu.PC = emu.Program.Origin

	return
}

// Execute assembles and runs source until HLT. The snapshot is returned
// whenever the program was assembled, even if the run failed.
func (emu *Emulator) Execute(source stdio.Reader) (snap *Snapshot, err error) {
	_, err = emu.Assemble(source)
	if err != nil {
		return
	}

	err = emu.Load()
	if err != nil {
		return
	}

	err = emu.Cpu.Run(emu.Program)
	snap = emu.Snapshot()
	if err != nil {
		err = emu.runtimeError(err)
	}

	return
}

// ExecuteBlocks organizes source into blocks and runs them from the entry
// block.
func (emu *Emulator) ExecuteBlocks(source stdio.Reader) (snap *Snapshot, err error) {
	blocks, err := cpu.BuildBlocks(source)
	if err != nil {
		return
	}
	blocks.DataBase = emu.DataBase

	if emu.Verbose {
		for _, warning := range blocks.Warnings {
			log.Printf("emulator: %v", warning)
		}
	}

	emu.Blocks = blocks
	emu.Program = &cpu.Program{}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Memory.Forget()

	err = emu.Cpu.RunBlocks(blocks)
	snap = emu.Snapshot()
	if err != nil {
		err = emu.runtimeError(err)
	}

	return
}

// Reset the processor to its power-on state, and forget the program.
func (emu *Emulator) Reset() (snap *Snapshot) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Program = &cpu.Program{}
	emu.Blocks = nil

	snap = emu.Snapshot()

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Blocks != nil {
		line, ok := emu.Blocks.Find(emu.Cpu.Block, emu.Cpu.Index)
		if !ok {
			return 0
		}
		return line.LineNo
	}

	dbg := emu.Program.Debug(emu.Cpu.PC)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick executes a single instruction of the loaded program.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	defer func() {
		if err != nil {
			err = emu.runtimeError(err)
		}
	}()

	if emu.Cpu.Ticks >= emu.Cpu.MaxSteps() {
		err = cpu.ErrStepLimitExceeded
		return
	}

	flow, err := emu.Cpu.Step(emu.Program)
	if err != nil {
		return
	}

	done = (flow == cpu.FLOW_HALT || flow == cpu.FLOW_RESET)

	return
}

// runtimeError locates err at the current execution point.
func (emu *Emulator) runtimeError(err error) error {
	rt := &ErrRuntime{Err: err}

	if emu.Blocks != nil {
		line, ok := emu.Blocks.Find(emu.Cpu.Block, emu.Cpu.Index)
		if !ok && errors.Is(err, cpu.ErrAmbiguousHalt) {
			// Fell off the end of the block; blame its last line.
			line, ok = emu.Blocks.Find(emu.Cpu.Block, emu.Cpu.Index-1)
		}
		if ok {
			rt.LineNo = line.LineNo
			rt.Line = line.Text
			rt.Instruction = line.Mnemonic
		}
	} else {
		dbg := emu.Program.Debug(emu.Cpu.PC)
		op := dbg.Opcode
		if op == nil && errors.Is(err, cpu.ErrMissingReturn) && emu.Cpu.Ticks > 0 {
			// Fell through past the listing; blame the last instruction run.
			op = emu.Program.Debug(emu.Cpu.Prev).Opcode
		}
		if op != nil {
			rt.LineNo = op.LineNo
			rt.Line = op.Text
			rt.Instruction = op.Mnemonic
		}
	}

	if inst, lookupErr := cpu.Lookup(rt.Instruction); lookupErr == nil {
		rt.Hint = inst.Hint
	}

	if emu.Verbose {
		log.Printf("emulator: %v", rt)
	}

	return rt
}
