package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/girisakar365/8085-mP/emulator"
)

func doCommand(t *testing.T, args ...string) (output string, err error) {
	cfgFile, stateFile, verbose, blocks = "", "", false, false

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()

	output = buf.String()
	return
}

func writeSource(t *testing.T, name string, lines ...string) string {
	file := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(file, []byte(strings.Join(lines, "\n")), 0o644)
	assert.NoError(t, err)
	return file
}

func TestCommand_Run(t *testing.T) {
	assert := assert.New(t)

	add := writeSource(t, "add.asm", "MVI A, 05H", "ADI 03H", "STA 2000H", "HLT")
	sub := writeSource(t, "sub.asm", "MVI A, 05H", "SUI 06H", "HLT")

	output, err := doCommand(t, "run", add, sub)
	assert.NoError(err)
	assert.Contains(output, add+":\n")
	assert.Contains(output, "[2000H]: 08H")
	assert.Contains(output, sub+":\n")
	assert.Contains(output, "A: FFH")
	assert.Less(strings.Index(output, add), strings.Index(output, sub))
}

func TestCommand_RunError(t *testing.T) {
	assert := assert.New(t)

	loop := writeSource(t, "loop.asm", "LOOP: JMP LOOP")

	_, err := doCommand(t, "run", loop)
	assert.ErrorContains(err, "InfiniteLoop")
}

func TestCommand_State(t *testing.T) {
	assert := assert.New(t)

	state := filepath.Join(t.TempDir(), "state.yaml")
	inr := writeSource(t, "inr.asm", "INR B", "HLT")

	_, err := doCommand(t, "run", "--state", state, inr)
	assert.NoError(err)
	output, err := doCommand(t, "run", "--state", state, inr)
	assert.NoError(err)
	assert.Contains(output, "B: 02H")

	_, err = doCommand(t, "reset", "--state", state)
	assert.NoError(err)
	inf, err := os.Open(state)
	assert.NoError(err)
	defer inf.Close()
	saved, err := emulator.LoadState(inf)
	assert.NoError(err)
	assert.Equal("00H", saved.Registers["B"])
}

func TestCommand_Assemble(t *testing.T) {
	assert := assert.New(t)

	file := writeSource(t, "prog.asm", "START: MVI A, 05H", "HLT")

	output, err := doCommand(t, "assemble", file)
	assert.NoError(err)
	assert.Contains(output, "0000H")
	assert.Contains(output, "START")
	assert.Contains(output, "3E 05")

	bad := writeSource(t, "bad.asm", "MOV A, X")
	_, err = doCommand(t, "assemble", bad)
	assert.ErrorContains(err, "InvalidRegister")
}

func TestCommand_Info(t *testing.T) {
	assert := assert.New(t)

	output, err := doCommand(t, "info", "mvi")
	assert.NoError(err)
	assert.Contains(output, "MVI: MVI R,XXH")
	assert.Contains(output, "A: 3EH")

	output, err = doCommand(t, "info")
	assert.NoError(err)
	assert.Contains(output, "XTHL\n")

	_, err = doCommand(t, "info", "FOO")
	assert.ErrorContains(err, "UnknownInstruction")
}
