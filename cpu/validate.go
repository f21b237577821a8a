package cpu

import (
	"regexp"
	"strconv"
	"strings"
)

// Decoded is a validated instruction with its operands resolved as far as
// possible without a label table.
type Decoded struct {
	*Instruction
	Key     string // Opcode table key of the register operands.
	Value   uint16 // Immediate, address, port, or restart vector.
	Label   string // Unresolved label in an address position.
	Operand string // Canonical operand text.
}

// Code returns the opcode byte.
func (dec Decoded) Code() uint8 {
	return dec.Codes[dec.Key]
}

// Bytes returns the encoded instruction, 16-bit operands low byte first.
func (dec Decoded) Bytes() (codes []uint8) {
	codes = append(codes, dec.Code())
	switch dec.Length {
	case 2:
		codes = append(codes, uint8(dec.Value))
	case 3:
		codes = append(codes, uint8(dec.Value), uint8(dec.Value>>8))
	}
	return
}

// Timing returns the cycle count, given whether a conditional was taken.
func (dec Decoded) Timing(taken bool) int {
	return dec.CyclesFor(dec.Key, taken)
}

var (
	reLabel = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
	reHex   = regexp.MustCompile(`^[0-9A-F]+H$`)
)

// IsLabel returns true if the word is usable as a label.
func IsLabel(word string) bool {
	_, err := Lookup(word)
	return reLabel.MatchString(word) && err != nil && !reHex.MatchString(word)
}

// Validate checks a mnemonic and its raw operand text, and resolves the
// operands. It does not mutate any state.
func Validate(mnemonic string, operand string) (dec Decoded, err error) {
	mnemonic = strings.ToUpper(strings.TrimSpace(mnemonic))
	operand = strings.ToUpper(strings.TrimSpace(operand))
	if mnemonic == "RST" && operand == "5.5" {
		mnemonic, operand = "RST5.5", ""
	}

	inst, err := Lookup(mnemonic)
	if err != nil {
		return
	}
	dec.Instruction = inst

	defer func() {
		if err != nil {
			if _, ok := err.(*ErrOperand); !ok {
				err = &ErrOperand{Operand: operand, Expect: inst.Hint, Err: err}
			}
		}
	}()

	var words []string
	switch inst.Shape.Operands() {
	case 0:
		if len(operand) != 0 {
			err = ErrUnexpectedOperand
			return
		}
	case 1:
		if len(operand) == 0 {
			err = ErrMissingOperand
			return
		}
		if strings.Contains(operand, ",") {
			err = ErrUnexpectedOperand
			return
		}
		words = []string{operand}
	case 2:
		if len(operand) == 0 {
			err = ErrMissingOperand
			return
		}
		words = strings.Split(operand, ",")
		if len(words) == 1 {
			err = ErrMissingSeparator
			return
		}
		if len(words) > 2 {
			err = ErrUnexpectedOperand
			return
		}
		for n, word := range words {
			words[n] = strings.TrimSpace(word)
			if len(words[n]) == 0 {
				err = ErrMissingOperand
				return
			}
		}
	}

	switch inst.Shape {
	case SHAPE_NONE:
	case SHAPE_REG:
		dec.Key, err = validRegister(words[0])
	case SHAPE_REG_REG:
		var dst, src string
		dst, err = validRegister(words[0])
		if err != nil {
			return
		}
		src, err = validRegister(words[1])
		if err != nil {
			return
		}
		dec.Key = dst + "," + src
		if _, ok := inst.Codes[dec.Key]; !ok {
			err = &ErrOperand{Operand: dec.Key, Expect: inst.Hint, Err: ErrInvalidRegister}
			return
		}
	case SHAPE_REG_IMM8:
		dec.Key, err = validRegister(words[0])
		if err != nil {
			return
		}
		dec.Value, err = validImmediate(words[1])
	case SHAPE_PAIR, SHAPE_PAIR_BD, SHAPE_PAIR_PSW:
		dec.Key, err = validPair(inst, words[0])
	case SHAPE_PAIR_IMM16:
		dec.Key, err = validPair(inst, words[0])
		if err != nil {
			return
		}
		dec.Value, dec.Label, err = validAddress(words[1])
	case SHAPE_IMM8:
		dec.Value, err = validImmediate(words[0])
	case SHAPE_ADDR16:
		dec.Value, dec.Label, err = validAddress(words[0])
	case SHAPE_PORT:
		dec.Value, err = validPort(words[0])
	case SHAPE_RST:
		word := words[0]
		if _, ok := inst.Codes[word]; !ok {
			err = &ErrOperand{Operand: word, Expect: "0-7", Err: ErrSyntax}
			return
		}
		dec.Key = word
		dec.Value = uint16(word[0]-'0') * 8
	}
	if err != nil {
		return
	}

	dec.Operand = strings.Join(words, ",")
	return
}

func validRegister(word string) (reg string, err error) {
	if len(word) != 1 {
		err = &ErrOperand{Operand: word, Expect: "R", Err: ErrSyntax}
		return
	}
	if _, ok := registerCode[word]; !ok {
		err = &ErrOperand{Operand: word, Expect: "A|B|C|D|E|H|L|M", Err: ErrInvalidRegister}
		return
	}

	reg = word
	return
}

func validPair(inst *Instruction, word string) (rp string, err error) {
	if _, ok := inst.Codes[word]; ok {
		rp = word
		return
	}

	expect := inst.Shape.String()
	switch {
	case inst.Shape == SHAPE_PAIR_BD && (word == "H" || word == "SP"):
		err = &ErrOperand{Operand: word, Expect: expect, Err: ErrRegisterPairNotAllowed}
	case len(word) == 1 || word == "SP" || word == "PSW":
		err = &ErrOperand{Operand: word, Expect: expect, Err: ErrInvalidRegisterPair}
	default:
		err = &ErrOperand{Operand: word, Expect: expect, Err: ErrSyntax}
	}
	return
}

// parseHex parses an XXH style literal body.
func parseHex(word string, bitSize int) (value uint64, ok bool) {
	if !reHex.MatchString(word) {
		return
	}
	value, err := strconv.ParseUint(word[:len(word)-1], 16, bitSize)
	ok = err == nil
	return
}

func validImmediate(word string) (value uint16, err error) {
	if len(word) != 3 {
		err = &ErrOperand{Operand: word, Expect: "XXH", Err: ErrSyntax}
		return
	}
	v, ok := parseHex(word, 8)
	if !ok {
		err = &ErrOperand{Operand: word, Expect: "XXH", Err: ErrInvalidImmediateData}
		return
	}

	value = uint16(v)
	return
}

func validPort(word string) (value uint16, err error) {
	if len(word) != 3 {
		err = &ErrOperand{Operand: word, Expect: "XXH", Err: ErrSyntax}
		return
	}
	v, ok := parseHex(word, 8)
	if !ok {
		err = &ErrOperand{Operand: word, Expect: "00H-FFH", Err: ErrInvalidPortAddress}
		return
	}

	value = uint16(v)
	return
}

// validAddress accepts an XXXXH literal, or a label to be resolved later.
func validAddress(word string) (value uint16, label string, err error) {
	if len(word) == 5 {
		v, ok := parseHex(word, 16)
		if ok {
			value = uint16(v)
			return
		}
	}

	if IsLabel(word) {
		label = word
		return
	}

	switch {
	case reHex.MatchString(word) && len(word) > 5:
		err = &ErrOperand{Operand: word, Expect: "0000H-FFFFH", Err: ErrInvalidMemoryAddress}
	case len(word) == 5 && strings.HasSuffix(word, "H"):
		err = &ErrOperand{Operand: word, Expect: "0000H-FFFFH", Err: ErrInvalidMemoryAddress}
	default:
		err = &ErrOperand{Operand: word, Expect: "XXXXH", Err: ErrSyntax}
	}
	return
}
