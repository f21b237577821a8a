package cpu

import (
	"bufio"
	"fmt"
	"io"
	"slices"
)

// ENTRY_BLOCK names the implicit block of an unlabelled first line.
const ENTRY_BLOCK = "START"

// BlockLine is a source line of a block.
type BlockLine struct {
	LineNo   int
	Text     string
	Mnemonic string
	Operand  string
}

// Blocks is a program organized as label indexed instruction lists. Each
// block runs from its label to the next RET or HLT at or after it, or to
// the end of input, so blocks may overlap.
type Blocks struct {
	Entry    string                 // Block executed first.
	Order    []string               // Block labels in source order.
	Block    map[string][]BlockLine // Lines by block label.
	DataBase uint16                 // Initial DB pointer.
	Warnings []string               // Non-fatal diagnostics.
}

// Find returns the block line at a position, if any.
func (blocks *Blocks) Find(label string, index int) (line BlockLine, ok bool) {
	lines, ok := blocks.Block[label]
	if !ok || index < 0 || index >= len(lines) {
		ok = false
		return
	}

	return lines[index], true
}

// BuildBlocks organizes source text into blocks.
func BuildBlocks(input io.Reader) (blocks *Blocks, err error) {
	type start struct {
		label  string
		index  int
		lineno int
	}

	var flat []BlockLine
	var starts []start

	scanner := bufio.NewScanner(input)
	var lineno int
	for scanner.Scan() {
		lineno += 1
		text := scanner.Text()

		labels, line := cutLabels(text)
		for _, label := range labels {
			starts = append(starts, start{label: label, index: len(flat), lineno: lineno})
		}
		if len(line) == 0 {
			continue
		}

		mnemonic, operand := splitInstruction(line)
		flat = append(flat, BlockLine{
			LineNo:   lineno,
			Text:     text,
			Mnemonic: mnemonic,
			Operand:  operand,
		})
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	if len(starts) == 0 || (len(flat) > 0 && starts[0].index != 0) {
		name := ENTRY_BLOCK
		for n := 1; slices.ContainsFunc(starts, func(s start) bool { return s.label == name }); n++ {
			name = fmt.Sprintf("%v_%d", ENTRY_BLOCK, n)
		}
		starts = slices.Insert(starts, 0, start{label: name})
	}

	blocks = &Blocks{
		Entry:    starts[0].label,
		Block:    make(map[string][]BlockLine, len(starts)),
		DataBase: DATA_BASE,
	}

	for _, s := range starts {
		if _, ok := blocks.Block[s.label]; ok {
			blocks.Warnings = append(blocks.Warnings,
				f("line %d: label %v redefined, first definition kept", s.lineno, s.label))
			continue
		}

		end := len(flat)
		for n := s.index; n < len(flat); n++ {
			if flat[n].Mnemonic == "RET" || flat[n].Mnemonic == "HLT" {
				end = n + 1
				break
			}
		}

		blocks.Order = append(blocks.Order, s.label)
		blocks.Block[s.label] = flat[s.index:end]
	}

	return
}
