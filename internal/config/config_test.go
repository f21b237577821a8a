package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(NewConfig(""))
	assert.Equal(DefaultConfig(), CLIConfig)

	origin, err := CLIConfig.Origin()
	assert.NoError(err)
	assert.Equal(uint16(0x0000), origin)

	base, err := CLIConfig.DataBase()
	assert.NoError(err)
	assert.Equal(uint16(0xc000), base)
}

func TestNewConfig_File(t *testing.T) {
	assert := assert.New(t)

	cfgFile := filepath.Join(t.TempDir(), "sim8085.yaml")
	err := os.WriteFile(cfgFile, []byte(`
assembler:
  origin: 2000H
runtime:
  step_limit: 500
verbose: true
`), 0o644)
	assert.NoError(err)

	assert.NoError(NewConfig(cfgFile))
	assert.Equal("2000H", CLIConfig.Assembler.Origin)
	assert.Equal(defDataBase, CLIConfig.Assembler.DataBase)
	assert.Equal(500, CLIConfig.Runtime.StepLimit)
	assert.Equal(defStackDepth, CLIConfig.Runtime.StackDepth)
	assert.True(CLIConfig.Verbose)
}

func TestNewConfig_Env(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("SIM8085_RUNTIME_STACK_DEPTH", "8")
	t.Setenv("SIM8085_ASSEMBLER_DATA_BASE", "3000H")

	assert.NoError(NewConfig(""))
	assert.Equal(8, CLIConfig.Runtime.StackDepth)
	assert.Equal("3000H", CLIConfig.Assembler.DataBase)
	assert.Equal(defStepLimit, CLIConfig.Runtime.StepLimit)
}

func TestNewConfig_Errors(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	assert.Error(NewConfig(filepath.Join(dir, "missing.yaml")))
	assert.Error(NewConfig(dir))
}

func TestParseAddress(t *testing.T) {
	table := [](struct {
		text string
		addr uint16
		ok   bool
	}){
		{"0000H", 0x0000, true},
		{"c000h", 0xc000, true},
		{"FFFF", 0xffff, true},
		{"10000H", 0, false},
		{"XYZH", 0, false},
		{"", 0, false},
	}

	for _, entry := range table {
		assert := assert.New(t)

		addr, err := ParseAddress(entry.text)
		if entry.ok {
			assert.NoError(err, entry.text)
			assert.Equal(entry.addr, addr, entry.text)
		} else {
			assert.ErrorIs(err, ErrAddress, entry.text)
		}
	}
}
