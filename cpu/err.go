package cpu

import (
	"errors"

	"github.com/girisakar365/8085-mP/translate"
)

var f = translate.From

var (
	// Operand errors
	ErrSyntax                 = errors.New(f("syntax error"))
	ErrMissingSeparator       = errors.New(f("missing separator"))
	ErrMissingOperand         = errors.New(f("missing operand"))
	ErrInvalidRegister        = errors.New(f("invalid register"))
	ErrInvalidRegisterPair    = errors.New(f("invalid register pair"))
	ErrRegisterPairNotAllowed = errors.New(f("register pair not allowed"))
	ErrInvalidMemoryAddress   = errors.New(f("invalid memory address"))
	ErrInvalidPortAddress     = errors.New(f("invalid port address"))
	ErrInvalidImmediateData   = errors.New(f("invalid immediate data"))
	ErrUnexpectedOperand      = errors.New(f("unexpected operand"))

	// Assembler errors
	ErrUnknownInstruction = errors.New(f("unknown instruction"))
	ErrUndefinedLabel     = errors.New(f("undefined label"))
	ErrEquateSyntax       = errors.New(f("EQU syntax"))
	ErrEquateDuplicate    = errors.New(f("EQU duplicated"))

	// Runtime errors
	ErrStackUnderflow    = errors.New(f("stack underflow"))
	ErrStackOverflow     = errors.New(f("stack overflow"))
	ErrInfiniteLoop      = errors.New(f("infinite loop"))
	ErrMissingReturn     = errors.New(f("missing return"))
	ErrStepLimitExceeded = errors.New(f("step limit exceeded"))
	ErrAmbiguousHalt     = errors.New(f("ambiguous halt"))
	ErrOpcodeUnknown     = errors.New(f("opcode unknown"))
)

// kinds orders the sentinels by the name reported for them.
var kinds = []struct {
	err  error
	name string
}{
	{ErrMissingSeparator, "MissingSeparator"},
	{ErrMissingOperand, "MissingOperand"},
	{ErrInvalidRegisterPair, "InvalidRegisterPair"},
	{ErrRegisterPairNotAllowed, "RegisterPairNotAllowed"},
	{ErrInvalidRegister, "InvalidRegister"},
	{ErrInvalidMemoryAddress, "InvalidMemoryAddress"},
	{ErrInvalidPortAddress, "InvalidPortAddress"},
	{ErrInvalidImmediateData, "InvalidImmediateData"},
	{ErrUnexpectedOperand, "UnexpectedOperand"},
	{ErrUnknownInstruction, "UnknownInstruction"},
	{ErrUndefinedLabel, "UndefinedLabel"},
	{ErrStackUnderflow, "StackUnderflow"},
	{ErrStackOverflow, "StackOverflow"},
	{ErrInfiniteLoop, "InfiniteLoop"},
	{ErrMissingReturn, "MissingReturn"},
	{ErrStepLimitExceeded, "StepLimitExceeded"},
	{ErrAmbiguousHalt, "AmbiguousHalt"},
	{ErrOpcodeUnknown, "UnknownInstruction"},
	{ErrSyntax, "SyntaxError"},
	{ErrEquateSyntax, "SyntaxError"},
	{ErrEquateDuplicate, "SyntaxError"},
}

// KindOf returns the error kind name for presentation layers, or an empty
// string if err is not a simulator error.
func KindOf(err error) string {
	if err == nil {
		return ""
	}

	for _, kind := range kinds {
		if errors.Is(err, kind.err) {
			return kind.name
		}
	}

	return ""
}

// ErrOperand is a rejected operand, with the pattern that was expected in
// its place.
type ErrOperand struct {
	Operand string
	Expect  string
	Err     error
}

func (err *ErrOperand) Error() string {
	if len(err.Expect) == 0 {
		return f("'%v' %v", err.Operand, err.Err)
	}
	return f("'%v' %v, expected %v", err.Operand, err.Err, err.Expect)
}

func (err *ErrOperand) Unwrap() error {
	return err.Err
}

// ErrLine is an assembly error at a source line.
type ErrLine struct {
	LineNo      int
	Line        string
	Instruction string
	Hint        string
	Err         error
}

func (err *ErrLine) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrLine) Unwrap() error {
	return err.Err
}

// ErrOpcode is an undecodable byte fetched at an address.
type ErrOpcode struct {
	Address uint16
	Code    uint8
}

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x at %04XH", eo.Code, eo.Address)
}

func (eo ErrOpcode) Is(err error) bool {
	return err == ErrOpcodeUnknown
}

// ErrLabelMissing is a reference to a label that is not defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

func (el ErrLabelMissing) Is(err error) bool {
	return err == ErrUndefinedLabel
}

// ErrParseExpression is a $(...) expression that did not evaluate to an address.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

func (err ErrParseExpression) Is(target error) bool {
	return target == ErrSyntax
}
