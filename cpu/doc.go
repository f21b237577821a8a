// Package cpu implements the 8085 processor and assembler of the simulator.
//
// The processor consists of seven 8-bit registers (A, B, C, D, E, H, L), the
// 16-bit PC and SP, five condition flags, a 64KiB memory, and 256 I/O ports.
// Programs execute either linearly from encoded memory at PC, or as label
// indexed blocks of source lines. Both modes share the same validator and
// instruction semantics, and bound calls with an explicit call stack.
//
// The assembler is a two pass assembler supporting labels, ORG, DB, EQU
// equates, and compile-time $(...) expression evaluation.
package cpu
