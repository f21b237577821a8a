package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildBlocks(t *testing.T, lines ...string) *Blocks {
	t.Helper()
	blocks, err := BuildBlocks(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	return blocks
}

func runBlocks(t *testing.T, limit int, lines ...string) (cpu *Cpu, err error) {
	blocks := buildBlocks(t, lines...)
	cpu = NewCpu()
	cpu.StepLimit = limit
	err = cpu.RunBlocks(blocks)
	return
}

func TestBuildBlocks(t *testing.T) {
	assert := assert.New(t)

	blocks := buildBlocks(t,
		"MVI A,01H",
		"CALL SUB",
		"HLT",
		"SUB: INR A",
		"INNER: INR A",
		"RET",
		"TAIL: NOP",
	)

	assert.Equal("START", blocks.Entry)
	assert.Equal([]string{"START", "SUB", "INNER", "TAIL"}, blocks.Order)
	assert.Equal(3, len(blocks.Block["START"]))
	assert.Equal(3, len(blocks.Block["SUB"]))
	assert.Equal(2, len(blocks.Block["INNER"]))
	assert.Equal(1, len(blocks.Block["TAIL"]))

	line, ok := blocks.Find("INNER", 1)
	assert.True(ok)
	assert.Equal(6, line.LineNo)
	assert.Equal("RET", line.Mnemonic)

	_, ok = blocks.Find("INNER", 2)
	assert.False(ok)
}

func TestBuildBlocks_Entry(t *testing.T) {
	assert := assert.New(t)

	blocks := buildBlocks(t,
		"MAIN: MVI A,01H",
		"HLT",
	)
	assert.Equal("MAIN", blocks.Entry)
	assert.Equal([]string{"MAIN"}, blocks.Order)

	blocks = buildBlocks(t,
		"NOP",
		"START: NOP",
		"HLT",
		"START_1: HLT",
	)
	assert.Equal("START_2", blocks.Entry)
	assert.Equal([]string{"START_2", "START", "START_1"}, blocks.Order)
	assert.Equal(3, len(blocks.Block["START_2"]))

	blocks = buildBlocks(t,
		"X: NOP",
		"X: HLT",
		"HLT",
	)
	assert.Equal(2, len(blocks.Block["X"]))
	assert.Equal(1, len(blocks.Warnings))
}

func TestRunBlocks(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runBlocks(t, 0,
		"MVI A,05H",
		"MVI B,03H",
		"ADD B",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x08), cpu.Register[REG_A])
	assert.False(cpu.Flag.Z)
	assert.False(cpu.Flag.CY)

	cpu, err = runBlocks(t, 0,
		"MVI B,03H",
		"CALL COUNT",
		"CALL COUNT",
		"HLT",
		"COUNT: DCR B",
		"RNZ",
		"MVI A,FFH",
		"RET",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x01), cpu.Register[REG_B])
	assert.Equal(uint8(0x00), cpu.Register[REG_A])
	assert.True(cpu.Stack.Empty())
	assert.Equal("START", cpu.Block)
	assert.Equal(3, cpu.Index)
}

func TestRunBlocks_Loop(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runBlocks(t, 0,
		"MVI B,03H",
		"JMP LOOP",
		"LOOP: DCR B",
		"JNZ LOOP",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0), cpu.Register[REG_B])
	assert.Equal(9, cpu.Ticks)
}

func TestRunBlocks_Data(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runBlocks(t, 0,
		"DB 11H, 22H",
		"ORG 2000H",
		"DB 33H",
		"LDA C001H",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x22), cpu.Register[REG_A])
	assert.Equal(uint8(0x11), cpu.Memory.Read(0xc000))
	assert.Equal(uint8(0x33), cpu.Memory.Read(0x2000))
}

func TestRunBlocks_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		limit int
		lines []string
		err   error
		kind  string
		block string
		index int
	}){
		{"bare-ret", 0, []string{"RET"}, ErrStackUnderflow, "StackUnderflow", "START", 0},
		{"fall-off", 0, []string{"MVI A,01H"}, ErrAmbiguousHalt, "AmbiguousHalt", "START", 1},
		{"undefined", 0, []string{"XRA A", "JNZ NOWHERE", "HLT"}, ErrUndefinedLabel, "UndefinedLabel", "START", 1},
		{"address", 0, []string{"JMP 0000H"}, ErrUndefinedLabel, "UndefinedLabel", "START", 0},
		{"self", 0, []string{"LOOP: JMP LOOP"}, ErrInfiniteLoop, "InfiniteLoop", "LOOP", 0},
		{"runaway", 50, []string{"LOOP: INR A", "JMP LOOP"}, ErrStepLimitExceeded, "StepLimitExceeded", "LOOP", 0},
		{"recursion", 0, []string{"R: CALL R"}, ErrStackOverflow, "StackOverflow", "R", 0},
		{"syntax", 0, []string{"NOP", "MOV A"}, ErrMissingSeparator, "MissingSeparator", "START", 1},
	}

	for _, entry := range table {
		cpu, err := runBlocks(t, entry.limit, entry.lines...)
		assert.ErrorIs(err, entry.err, entry.name)
		assert.Equal(entry.kind, KindOf(err), entry.name)
		assert.Equal(entry.block, cpu.Block, entry.name)
		assert.Equal(entry.index, cpu.Index, entry.name)
	}
}

func TestRunBlocks_Restart(t *testing.T) {
	assert := assert.New(t)

	cpu, err := runBlocks(t, 0,
		"MVI A,01H",
		"RST 7",
		"MVI A,02H",
	)
	assert.NoError(err)
	assert.Equal(uint8(0x01), cpu.Register[REG_A])
}
