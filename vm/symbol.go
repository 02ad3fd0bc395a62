package vm

import "fmt"

// SymbolKind says what a symbol table entry refers to.
type SymbolKind uint8

const (
	// SymbolOpcode refers to an instruction dispatched through the opcode table.
	SymbolOpcode SymbolKind = iota
	// SymbolFunction refers to an entry point in the unit's code.
	SymbolFunction
	// SymbolPrimitive refers to a builtin registered with the machine.
	SymbolPrimitive
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolOpcode:
		return "opcode"
	case SymbolFunction:
		return "function"
	case SymbolPrimitive:
		return "primitive"
	default:
		return fmt.Sprintf("SymbolKind(%d)", k)
	}
}

// Symbol is one entry of a unit's symbol table. Exactly one of Instr,
// Entry or Primitive is meaningful, selected by Kind.
type Symbol struct {
	Name string
	Kind SymbolKind

	Instr     Instruction // SymbolOpcode
	Entry     int         // SymbolFunction: program counter of the first instruction
	Primitive string      // SymbolPrimitive: registry name
}

// OpcodeSymbol returns a symbol that dispatches ins.
func OpcodeSymbol(name string, ins Instruction) Symbol {
	return Symbol{Name: name, Kind: SymbolOpcode, Instr: ins}
}

// FunctionSymbol returns a symbol that runs the code starting at entry.
func FunctionSymbol(name string, entry int) Symbol {
	return Symbol{Name: name, Kind: SymbolFunction, Entry: entry}
}

// PrimitiveSymbol returns a symbol that calls the named primitive.
func PrimitiveSymbol(name, primitive string) Symbol {
	return Symbol{Name: name, Kind: SymbolPrimitive, Primitive: primitive}
}

func (s *Symbol) String() string {
	switch s.Kind {
	case SymbolOpcode:
		return fmt.Sprintf("%s (opcode %s)", s.Name, s.Instr)
	case SymbolFunction:
		return fmt.Sprintf("%s (function @%d)", s.Name, s.Entry)
	case SymbolPrimitive:
		return fmt.Sprintf("%s (primitive %s)", s.Name, s.Primitive)
	default:
		return s.Name
	}
}
