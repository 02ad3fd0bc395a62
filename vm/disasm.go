package vm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Disassemble returns a human-readable listing of the unit.
func (u *Unit) Disassemble() string {
	return u.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable listing with a name header.
func (u *Unit) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Noc Bytecode (%d instructions)\n\n", len(u.Code)))

	if len(u.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, c := range u.Constants {
			display := truncate(c.Repr(), 40)
			sb.WriteString(fmt.Sprintf(";   [%3d] %-6s %s\n", i, c.TypeName(), display))
		}
		sb.WriteString("\n")
	}

	// Function entry points, for labels in the code listing
	labels := make(map[int][]string)
	if len(u.Symbols) > 0 {
		sb.WriteString("; Symbols:\n")
		for i := range u.Symbols {
			s := &u.Symbols[i]
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, s))
			if s.Kind == SymbolFunction {
				labels[s.Entry] = append(labels[s.Entry], s.Name)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("; Code:\n")
	for pc := range u.Code {
		for _, l := range labels[pc] {
			sb.WriteString(l + ":\n")
		}
		sb.WriteString(fmt.Sprintf("%04d  %s\n", pc, u.DisassembleInstruction(pc)))
	}
	return sb.String()
}

// DisassembleInstruction returns a human-readable representation of the
// instruction at pc, annotated with the constant or symbol it refers to.
func (u *Unit) DisassembleInstruction(pc int) string {
	if pc < 0 || pc >= len(u.Code) {
		return "<end of code>"
	}
	ins := u.Code[pc]
	switch GetOpcodeInfo(ins.Op).Operand {
	case OperandConst:
		if v, err := u.Constant(ins.Operand); err == nil {
			display := truncate(v.Repr(), 20)
			return fmt.Sprintf("%-14s ; %s", ins, display)
		}
	case OperandSymbol:
		if s, err := u.Symbol(ins.Operand); err == nil {
			return fmt.Sprintf("%-14s ; %s", ins, s.Name)
		}
	}
	return ins.String()
}

// DisassembleToLines returns the code listing as a slice of lines.
func (u *Unit) DisassembleToLines() []string {
	lines := make([]string, 0, len(u.Code))
	for pc := range u.Code {
		lines = append(lines, fmt.Sprintf("%04d  %s", pc, u.DisassembleInstruction(pc)))
	}
	return lines
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
