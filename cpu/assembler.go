package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// DATA_BASE is where DB places bytes when no ORG has been seen.
const DATA_BASE = 0xc000

// Assembler is a two pass assembler for 8085 source text.
type Assembler struct {
	Verbose  bool   // If set, verbosely logs the assembler actions.
	Origin   uint16 // Assembly address before any ORG.
	DataBase uint16 // Address of DB bytes before any ORG.

	predefine map[string]string // Predefines
	Label     map[string]uint16 // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
	Warnings  []string          // Warnings of the last Parse.
}

// NewAssembler creates an assembler with origin 0000H and DB at DATA_BASE.
func NewAssembler() (asm *Assembler) {
	asm = &Assembler{
		DataBase: DATA_BASE,
	}

	return
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// source is a pass 1 line.
type source struct {
	LineNo   int
	Text     string
	Labels   []string
	Mnemonic string
	Operand  string
	Address  uint16
	Length   int
}

var (
	reLabelDef = regexp.MustCompile(`^([A-Z_][A-Z0-9_]*)\s*:\s*`)
	reEquate   = regexp.MustCompile(`^([A-Z_][A-Z0-9_]*)\s+EQU\s+(\S+)$`)
	reParen    = regexp.MustCompile(`\$\([^\$]*\)`)
)

// cutLabels strips the comment of a source line, upper-cases it, and
// removes any leading label definitions.
func cutLabels(text string) (labels []string, line string) {
	line = strings.ToUpper(strings.TrimSpace(strings.SplitN(text, ";", 2)[0]))

	for {
		match := reLabelDef.FindStringSubmatch(line)
		if match == nil {
			break
		}
		labels = append(labels, match[1])
		line = line[len(match[0]):]
	}

	return
}

// splitInstruction splits a mnemonic from its operand text.
func splitInstruction(line string) (mnemonic string, operand string) {
	mnemonic = line
	if n := strings.IndexFunc(line, unicode.IsSpace); n >= 0 {
		mnemonic, operand = line[:n], strings.TrimSpace(line[n:])
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v, ok := parseHex(str, 16)
		if !ok {
			// Ignore non-numeric equates, such as registers.
			continue
		}
		pred[key] = starlark.MakeInt(int(v))
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(int(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 < 0 || st_int64 > 0xffff {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// parseLine splits a line into labels, mnemonic, and operand text, after
// equate and $(...) substitution. Equate definitions are recorded and
// produce no mnemonic.
func (asm *Assembler) parseLine(text string) (labels []string, mnemonic string, operand string, err error) {
	labels, line := cutLabels(text)

	if match := reEquate.FindStringSubmatch(line); match != nil {
		if len(labels) != 0 {
			err = ErrEquateSyntax
			return
		}
		name := match[1]
		if _, ok := asm.Equate[name]; ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[name] = match[2]
		return
	}

	mnemonic, operand = splitInstruction(line)
	if len(operand) == 0 {
		return
	}

	operand, err = asm.substitute(mnemonic, operand)
	if err != nil {
		return
	}

	// Check for equates in each operand position.
	words := strings.Split(operand, ",")
	for n, word := range words {
		word = strings.TrimSpace(word)
		equate, ok := asm.Equate[word]
		if ok {
			word = equate
		}
		words[n] = word
	}
	operand = strings.Join(words, ",")

	return
}

// substitute does the $() evaluations of an operand. Results are XXXXH in
// a 16-bit operand position, and XXH elsewhere when they fit.
func (asm *Assembler) substitute(mnemonic string, operand string) (text string, err error) {
	wide := -1
	if mnemonic == "ORG" {
		wide = 0
	} else if inst, _err := Lookup(mnemonic); _err == nil {
		switch inst.Shape {
		case SHAPE_ADDR16:
			wide = 0
		case SHAPE_PAIR_IMM16:
			wide = 1
		}
	}

	var out strings.Builder
	last := 0
	for _, loc := range reParen.FindAllStringIndex(operand, -1) {
		var value uint32
		value, err = asm.parenEval(operand[loc[0]+2 : loc[1]-1])
		if err != nil {
			return
		}

		out.WriteString(operand[last:loc[0]])
		if value > 0xff || strings.Count(out.String(), ",") == wide {
			fmt.Fprintf(&out, "%04XH", value)
		} else {
			fmt.Fprintf(&out, "%02XH", value)
		}
		last = loc[1]
	}
	out.WriteString(operand[last:])

	text = out.String()
	return
}

// dataBytes parses a DB operand list.
func dataBytes(operand string) (codes []uint8, err error) {
	if len(operand) == 0 {
		err = ErrMissingOperand
		return
	}
	for _, word := range strings.Split(operand, ",") {
		var value uint16
		value, err = validImmediate(strings.TrimSpace(word))
		if err != nil {
			return
		}
		codes = append(codes, uint8(value))
	}
	return
}

// Parse parses an input stream into an assembled Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var lines []source
	var current source

	defer func() {
		if err != nil {
			hint := ""
			if inst, _err := Lookup(current.Mnemonic); _err == nil {
				hint = inst.Hint
			}
			err = &ErrLine{
				LineNo:      current.LineNo,
				Line:        current.Text,
				Instruction: current.Mnemonic,
				Hint:        hint,
				Err:         err,
			}
		}
	}()

	asm.Label = make(map[string]uint16, 16)
	asm.Equate = maps.Clone(asm.predefine)
	if asm.Equate == nil {
		asm.Equate = make(map[string]string)
	}
	asm.Warnings = nil

	bind := func(label string, addr uint16) {
		if _, ok := asm.Label[label]; ok {
			asm.warn(current.LineNo, f("label %v redefined, first definition kept", label))
			return
		}
		asm.Label[label] = addr
	}

	// Pass 1: addresses and labels.
	scanner := bufio.NewScanner(input)
	address := int(asm.Origin)
	data := int(asm.DataBase)
	org := false
	entry := -1

	// Labels on their own line are listed on the next row at their address.
	var pending []string
	var pendingAt int
	carry := func(addr uint16) {
		if len(pending) != 0 && int(addr) == pendingAt {
			current.Labels = append(pending, current.Labels...)
		}
		pending = nil
	}

	var lineno int
	for scanner.Scan() {
		lineno += 1
		current = source{LineNo: lineno, Text: scanner.Text()}

		if asm.Verbose {
			log.Printf("asm: %v: %v\n", lineno, current.Text)
		}

		current.Labels, current.Mnemonic, current.Operand, err = asm.parseLine(current.Text)
		if err != nil {
			return
		}

		switch current.Mnemonic {
		case "":
			for _, label := range current.Labels {
				bind(label, uint16(address))
			}
			if len(pending) == 0 {
				pendingAt = address
			}
			pending = append(pending, current.Labels...)
			continue
		case "ORG":
			var value uint16
			var label string
			value, label, err = validAddress(current.Operand)
			if err == nil && len(label) != 0 {
				err = &ErrOperand{Operand: label, Expect: "ORG XXXXH", Err: ErrSyntax}
			}
			if err != nil {
				return
			}
			address = int(value)
			org = true
			pending = nil
			for _, label := range current.Labels {
				bind(label, uint16(address))
			}
			continue
		case "DB":
			var codes []uint8
			codes, err = dataBytes(current.Operand)
			if err != nil {
				return
			}
			at := &data
			if org {
				at = &address
			}
			current.Address = uint16(*at)
			current.Length = len(codes)
			for _, label := range current.Labels {
				bind(label, current.Address)
			}
			carry(current.Address)
			*at += len(codes)
			if *at > MEMORY_SIZE {
				err = ErrInvalidMemoryAddress
				return
			}
		default:
			var inst *Instruction
			inst, err = Lookup(current.Mnemonic)
			if err != nil {
				return
			}
			current.Address = uint16(address)
			current.Length = inst.Length
			for _, label := range current.Labels {
				bind(label, current.Address)
			}
			carry(current.Address)
			if entry < 0 {
				entry = address
			}
			address += inst.Length
			if address > MEMORY_SIZE {
				err = ErrInvalidMemoryAddress
				return
			}
		}

		lines = append(lines, current)
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	// Pass 2: encoding.
	prog = &Program{
		Origin: asm.Origin,
		Label:  maps.Clone(asm.Label),
	}
	if entry >= 0 {
		prog.Origin = uint16(entry)
	}
	written := make(map[uint16]int, 64)
	for _, line := range lines {
		current = line

		op := Opcode{
			LineNo:   line.LineNo,
			Text:     line.Text,
			Address:  line.Address,
			Mnemonic: line.Mnemonic,
		}
		if len(line.Labels) != 0 {
			op.Label = line.Labels[0]
		}

		if line.Mnemonic == "DB" {
			op.Data = true
			op.Operand = line.Operand
			op.Codes, err = dataBytes(line.Operand)
			if err != nil {
				prog = nil
				return
			}
		} else {
			var dec Decoded
			dec, err = Validate(line.Mnemonic, line.Operand)
			if err != nil {
				prog = nil
				return
			}
			if len(dec.Label) != 0 {
				addr, ok := asm.Label[dec.Label]
				if !ok {
					err = ErrLabelMissing(dec.Label)
					prog = nil
					return
				}
				dec.Value = addr
			}
			op.Mnemonic = dec.Mnemonic
			op.Operand = dec.Operand
			op.Codes = dec.Bytes()
			op.Cycles = dec.Timing(false)
		}

		for n := range op.Codes {
			addr := op.Address + uint16(n)
			if prior, ok := written[addr]; ok {
				asm.warn(line.LineNo, f("address %04XH overlaps line %d", addr, prior))
			}
			written[addr] = line.LineNo
		}

		prog.Opcodes = append(prog.Opcodes, op)
	}

	prog.Warnings = slices.Clone(asm.Warnings)

	return
}

func (asm *Assembler) warn(lineno int, text string) {
	text = f("line %d: %v", lineno, text)
	if asm.Verbose {
		log.Printf("asm: warning: %v", text)
	}
	asm.Warnings = append(asm.Warnings, text)
}
