package emulator

import (
	"errors"

	"github.com/girisakar365/8085-mP/cpu"
	"github.com/girisakar365/8085-mP/translate"
)

var f = translate.From

var (
	ErrStateRegister = errors.New(f("state register unknown"))
	ErrStateFlag     = errors.New(f("state flag unknown"))
	ErrStateValue    = errors.New(f("state value invalid"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo      int    // Source line, or 0 if unknown.
	Line        string // Source text.
	Instruction string // Mnemonic being executed.
	Hint        string // Syntax hint for the instruction.
	Err         error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return err.Err.Error()
	}
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// Kind names the error kind of the underlying error.
func (err *ErrRuntime) Kind() string {
	return cpu.KindOf(err.Err)
}

// ErrState indicates an entry of a persisted state that could not be restored.
type ErrState struct {
	Key   string
	Value string
	Err   error
}

func (err *ErrState) Error() string {
	return f("%v: %v: %v", err.Key, err.Value, err.Err)
}

func (err *ErrState) Unwrap() error {
	return err.Err
}
