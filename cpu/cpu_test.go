package cpu

import (
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// runSource assembles and runs a program from its origin.
func runSource(t *testing.T, limit int, lines ...string) (cpu *Cpu, err error) {
	asm := NewAssembler()
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	cpu = NewCpu()
	cpu.StepLimit = limit
	err = prog.Load(&cpu.Memory)
	if err != nil {
		t.Fatal(err)
	}

	cpu.PC = prog.Origin
	err = cpu.Run(prog)
	return
}

func TestFlags_Byte(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint8(0x02), Flags{}.Byte())
	assert.Equal(uint8(0xd7), Flags{S: true, Z: true, AC: true, P: true, CY: true}.Byte())
	assert.Equal(uint8(0x83), Flags{S: true, CY: true}.Byte())

	var fl Flags
	fl.SetByte(0x55)
	assert.Equal(Flags{Z: true, AC: true, P: true, CY: true}, fl)
}

func TestCpu_Pair(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.SetPair(PAIR_H, 0x2050)
	assert.Equal(uint8(0x20), cpu.Register[REG_H])
	assert.Equal(uint8(0x50), cpu.Register[REG_L])
	assert.Equal(uint16(0x2050), cpu.Pair(PAIR_H))

	cpu.Register[REG_D] = 0xab
	cpu.Register[REG_E] = 0xcd
	assert.Equal(uint16(0xabcd), cpu.Pair(PAIR_D))

	cpu.SetPair(PAIR_SP, 0xfffe)
	assert.Equal(uint16(0xfffe), cpu.SP)

	cpu.Set(REG_M, 0x77)
	assert.Equal(uint8(0x77), cpu.Memory.Read(0x2050))
	assert.Equal(uint8(0x77), cpu.Get(REG_M))
}

func TestCpu_Alu(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		a, b   uint8
		cy     bool
		wantA  uint8
		wantB  uint8
		flags  Flags
	}){
		{"ADD B", 0xff, 0x01, false, 0x00, 0x01, Flags{Z: true, AC: true, P: true, CY: true}},
		{"ADD B", 0x05, 0x03, false, 0x08, 0x03, Flags{}},
		{"ADC B", 0x0f, 0x00, true, 0x10, 0x00, Flags{AC: true}},
		{"ADI 80H", 0x80, 0x00, false, 0x00, 0x00, Flags{Z: true, P: true, CY: true}},
		{"SUB B", 0x05, 0x06, false, 0xff, 0x06, Flags{S: true, AC: true, P: true, CY: true}},
		{"SUB B", 0x3e, 0x3e, false, 0x00, 0x3e, Flags{Z: true, P: true}},
		{"SBB B", 0x10, 0x0f, true, 0x00, 0x0f, Flags{Z: true, AC: true, P: true}},
		{"SUI 01H", 0x00, 0x00, false, 0xff, 0x00, Flags{S: true, AC: true, P: true, CY: true}},
		{"ANA B", 0xf0, 0x3c, true, 0x30, 0x3c, Flags{AC: true, P: true}},
		{"XRA A", 0x5a, 0x00, true, 0x00, 0x00, Flags{Z: true, P: true}},
		{"ORA B", 0x80, 0x01, false, 0x81, 0x01, Flags{S: true, P: true}},
		{"CMP B", 0x10, 0x20, false, 0x10, 0x20, Flags{S: true, P: true, CY: true}},
		{"CPI 05H", 0x05, 0x00, false, 0x05, 0x00, Flags{Z: true, P: true}},
		{"INR B", 0x00, 0xff, true, 0x00, 0x00, Flags{Z: true, AC: true, P: true, CY: true}},
		{"DCR B", 0x00, 0x00, false, 0x00, 0xff, Flags{S: true, AC: true, P: true}},
		{"DAA", 0x9b, 0x00, false, 0x01, 0x00, Flags{AC: true, CY: true}},
		{"RLC", 0x80, 0x00, false, 0x01, 0x00, Flags{CY: true}},
		{"RRC", 0x01, 0x00, false, 0x80, 0x00, Flags{CY: true}},
		{"RAL", 0x80, 0x00, false, 0x00, 0x00, Flags{CY: true}},
		{"RAR", 0x01, 0x00, true, 0x80, 0x00, Flags{CY: true}},
		{"CMA", 0x55, 0x00, true, 0xaa, 0x00, Flags{CY: true}},
		{"CMC", 0x00, 0x00, true, 0x00, 0x00, Flags{}},
		{"STC", 0x00, 0x00, false, 0x00, 0x00, Flags{CY: true}},
		{"MOV B,A", 0x42, 0x00, false, 0x42, 0x42, Flags{}},
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.Register[REG_A] = entry.a
		cpu.Register[REG_B] = entry.b
		cpu.Flag.CY = entry.cy

		mnemonic, operand := splitInstruction(entry.source)
		dec, err := Validate(mnemonic, operand)
		if !assert.NoError(err, entry.source) {
			continue
		}
		flow, _, err := cpu.Execute(dec)
		assert.NoError(err, entry.source)
		assert.Equal(FLOW_NEXT, flow, entry.source)

		assert.Equal(entry.wantA, cpu.Register[REG_A], entry.source)
		assert.Equal(entry.wantB, cpu.Register[REG_B], entry.source)
		assert.Equal(entry.flags, cpu.Flag, entry.source)
	}
}

func TestCpu_Pairs(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.SetPair(PAIR_H, 0xffff)
	cpu.SetPair(PAIR_B, 0x0001)

	dec, _ := Validate("DAD", "B")
	cpu.Execute(dec)
	assert.Equal(uint16(0x0000), cpu.Pair(PAIR_H))
	assert.True(cpu.Flag.CY)
	assert.False(cpu.Flag.Z)

	dec, _ = Validate("DCX", "H")
	cpu.Flag = Flags{}
	cpu.Execute(dec)
	assert.Equal(uint16(0xffff), cpu.Pair(PAIR_H))
	assert.Equal(Flags{}, cpu.Flag)

	dec, _ = Validate("INX", "SP")
	cpu.Execute(dec)
	assert.Equal(uint16(0x0001), cpu.SP)
}

func TestCpu_Add(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"MVI A,05H",
		"MVI B,03H",
		"ADD B",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x08), cpu.Register[REG_A])
	assert.False(cpu.Flag.Z)
	assert.False(cpu.Flag.CY)
	assert.Equal(4, cpu.Ticks)
	assert.Equal(7+7+4+5, cpu.Cycles)
	assert.Equal(uint16(0x0006), cpu.PC)
}

func TestCpu_Memory(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"LXI H,2000H",
		"MVI M,09H",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x09), cpu.Memory.Read(0x2000))
	assert.Equal(map[uint16]uint8{0x2000: 0x09}, maps.Collect(cpu.Memory.Touched()))
}

func TestCpu_Transfer(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"LXI H,1234H",
		"SHLD 2050H",
		"MVI A,77H",
		"STA 2052H",
		"LXI D,2052H",
		"LDAX D",
		"MOV C,A",
		"XCHG",
		"LHLD 2050H",
		"LDA 2051H",
		"LXI B,2053H",
		"STAX B",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint16(0x1234), cpu.Pair(PAIR_H))
	assert.Equal(uint16(0x1234), cpu.Pair(PAIR_D))
	assert.Equal(uint8(0x12), cpu.Register[REG_A])
	assert.Equal(uint16(0x2053), cpu.Pair(PAIR_B))
	assert.Equal(map[uint16]uint8{
		0x2050: 0x34,
		0x2051: 0x12,
		0x2052: 0x77,
		0x2053: 0x12,
	}, maps.Collect(cpu.Memory.Touched()))
}

func TestCpu_CallReturn(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"LXI SP,3000H",
		"CALL SUB1",
		"HLT",
		"SUB1: MVI A,42H",
		"RET",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x42), cpu.Register[REG_A])
	assert.Equal(uint16(0x3000), cpu.SP)
	assert.True(cpu.Stack.Empty())
	assert.Equal(uint16(0x0007), cpu.PC)

	// Return address, high byte at SP-1.
	assert.Equal(uint8(0x00), cpu.Memory.Read(0x2fff))
	assert.Equal(uint8(0x06), cpu.Memory.Read(0x2ffe))
	assert.Equal(10+18+7+10+5, cpu.Cycles)
}

func TestCpu_Conditional(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"MVI B,03H",
		"LOOP: DCR B",
		"JNZ LOOP",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0), cpu.Register[REG_B])
	assert.True(cpu.Flag.Z)
	assert.Equal(8, cpu.Ticks)
	assert.Equal(7+3*4+2*10+7+5, cpu.Cycles)

	cpu, err = runSource(t, 0,
		"LXI SP,3000H",
		"XRA A",
		"CNZ SKIP",
		"RZ",
		"SKIP: HLT",
	)
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.Equal(10+4+9+12, cpu.Cycles)
}

func TestCpu_StackOps(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"LXI SP,3000H",
		"MVI A,80H",
		"ORA A",
		"PUSH PSW",
		"POP B",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x80), cpu.Register[REG_B])
	assert.Equal(uint8(0x82), cpu.Register[REG_C])
	assert.Equal(uint16(0x3000), cpu.SP)
	assert.Equal(uint8(0x80), cpu.Memory.Read(0x2fff))
	assert.Equal(uint8(0x82), cpu.Memory.Read(0x2ffe))

	cpu, err = runSource(t, 0,
		"LXI SP,3000H",
		"LXI B,5583H",
		"PUSH B",
		"POP PSW",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x55), cpu.Register[REG_A])
	assert.Equal(Flags{S: true, CY: true}, cpu.Flag)

	cpu, err = runSource(t, 0,
		"LXI SP,3000H",
		"LXI H,1234H",
		"LXI B,ABCDH",
		"PUSH B",
		"XTHL",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint16(0xabcd), cpu.Pair(PAIR_H))
	assert.Equal(uint16(0x2ffe), cpu.SP)
	assert.Equal(uint8(0x34), cpu.Memory.Read(0x2ffe))
	assert.Equal(uint8(0x12), cpu.Memory.Read(0x2fff))

	cpu, err = runSource(t, 0,
		"LXI H,4000H",
		"SPHL",
		"LXI H,DONE",
		"PCHL",
		"HLT",
		"DONE: MVI A,01H",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint16(0x4000), cpu.SP)
	assert.Equal(uint8(0x01), cpu.Register[REG_A])
}

func TestCpu_Ports(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"MVI A,5AH",
		"OUT 10H",
		"MVI A,00H",
		"IN 10H",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x5a), cpu.Register[REG_A])
	assert.Equal(uint8(0x5a), cpu.Port.In(0x10))
}

func TestCpu_Restart(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"JMP MAIN",
		"ORG 0008H",
		"MVI A,11H",
		"RET",
		"ORG 0100H",
		"MAIN: LXI SP,3000H",
		"RST 1",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x11), cpu.Register[REG_A])
	assert.Equal(uint16(0x0105), cpu.PC)
}

func TestCpu_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		limit int
		lines []string
		err   error
		kind  string
	}){
		{"bare-ret", 0, []string{"RET"}, ErrStackUnderflow, "StackUnderflow"},
		{"self-jump", 0, []string{"LOOP: JMP LOOP"}, ErrInfiniteLoop, "InfiniteLoop"},
		{"self-pchl", 0, []string{"LXI H,0003H", "PCHL"}, ErrInfiniteLoop, "InfiniteLoop"},
		{"runaway", 100, []string{"LOOP: INR A", "JMP LOOP"}, ErrStepLimitExceeded, "StepLimitExceeded"},
		{"no-halt", 0, []string{"MVI A,01H"}, ErrMissingReturn, "MissingReturn"},
		{"recursion", 0, []string{"LXI SP,F000H", "R: CALL R"}, ErrStackOverflow, "StackOverflow"},
	}

	for _, entry := range table {
		cpu, err := runSource(t, entry.limit, entry.lines...)
		assert.ErrorIs(err, entry.err, entry.name)
		assert.Equal(entry.kind, KindOf(err), entry.name)
		if entry.limit != 0 {
			assert.Equal(entry.limit, cpu.Ticks, entry.name)
		}
	}
}

func TestCpu_Fetch(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Memory.Load(0x100, []uint8{0xc3, 0x34, 0x12})
	cpu.PC = 0x100

	dec, err := cpu.Fetch()
	assert.NoError(err)
	assert.Equal("JMP", dec.Mnemonic)
	assert.Equal(uint16(0x1234), dec.Value)

	cpu.Memory.Load(0x200, []uint8{0xdd})
	cpu.PC = 0x200
	_, err = cpu.Fetch()
	assert.ErrorIs(err, ErrOpcodeUnknown)
	assert.Equal("UnknownInstruction", KindOf(err))

	cpu.Memory.Load(0xffff, []uint8{0xc3})
	cpu.PC = 0xffff
	_, err = cpu.Fetch()
	assert.ErrorIs(err, ErrInvalidMemoryAddress)
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runSource(t, 0,
		"LXI SP,3000H",
		"MVI A,80H",
		"ORA A",
		"OUT 01H",
		"STA 2000H",
		"HLT",
	)
	assert.NoError(err)

	cpu.Reset()
	cpu.Reset()
	assert.Equal([8]uint8{}, cpu.Register)
	assert.Equal(uint16(0), cpu.PC)
	assert.Equal(uint16(0), cpu.SP)
	assert.Equal(Flags{}, cpu.Flag)
	assert.Equal(uint8(0), cpu.Memory.Read(0x2000))
	assert.Equal(uint8(0), cpu.Port.In(0x01))
	assert.Empty(maps.Collect(cpu.Memory.Touched()))
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_ResetInstruction(t *testing.T) {
	assert := assert.New(t)

	for _, text := range []string{"RST5.5", "RST 5.5", "rst 5.5"} {
		dec, err := Validate(strings.Fields(text)[0], strings.Join(strings.Fields(text)[1:], " "))
		assert.NoError(err, text)
		assert.Equal("RST5.5", dec.Mnemonic, text)
		assert.Equal(uint8(0xcb), dec.Code(), text)
	}

	cpu, err := runSource(t, 0,
		"LXI SP,3000H",
		"MVI A,80H",
		"ORA A",
		"OUT 01H",
		"STA 2000H",
		"CALL RESET",
		"HLT",
		"RESET: RST 5.5",
	)
	assert.NoError(err)
	assert.Equal([8]uint8{}, cpu.Register)
	assert.Equal(uint16(0), cpu.PC)
	assert.Equal(uint16(0), cpu.SP)
	assert.Equal(Flags{}, cpu.Flag)
	assert.Equal(uint8(0), cpu.Memory.Read(0x2000))
	assert.Equal(uint8(0), cpu.Port.In(0x01))
	assert.Empty(maps.Collect(cpu.Memory.Touched()))
	assert.True(cpu.Stack.Empty())
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[REG_A] = 0x3c
	cpu.Flag.Z = true
	text := cpu.String()
	assert.Contains(text, "    A: 3CH\n")
	assert.Contains(text, "   PC: 0000H\n")
	assert.Contains(text, "flags: S=0 Z=1 AC=0 P=0 CY=0\n")
	assert.Contains(text, "stack: ----\n")
}
