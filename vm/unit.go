package vm

import "fmt"

// Unit is a loaded bytecode unit: code, constant pool and symbol table.
// The machine treats a Unit as read-only while running it.
type Unit struct {
	Constants []Value
	Symbols   []Symbol
	Code      []Instruction
}

// NewUnit creates an empty unit.
func NewUnit() *Unit {
	return &Unit{
		Constants: make([]Value, 0, 8),
		Code:      make([]Instruction, 0, 64),
	}
}

// AddConstant adds v to the pool and returns its index. Scalar constants
// already present are reused; strings and quotes always get a new slot so
// each literal keeps its own identity.
func (u *Unit) AddConstant(v Value) int {
	if !v.IsString() && !v.IsQuote() {
		for i, c := range u.Constants {
			if Identical(c, v) {
				return i
			}
		}
	}
	u.Constants = append(u.Constants, v)
	return len(u.Constants) - 1
}

// AddSymbol appends s to the symbol table and returns its index.
func (u *Unit) AddSymbol(s Symbol) int {
	u.Symbols = append(u.Symbols, s)
	return len(u.Symbols) - 1
}

// Symbol returns a pointer to the table entry at index. The pointer stays
// valid as long as the table is not appended to.
func (u *Unit) Symbol(index int) (*Symbol, error) {
	if index < 0 || index >= len(u.Symbols) {
		return nil, newError(InvalidOperand, "symbol index %d out of range (%d symbols)", index, len(u.Symbols))
	}
	return &u.Symbols[index], nil
}

// Constant returns the constant at index.
func (u *Unit) Constant(index int) (Value, error) {
	if index < 0 || index >= len(u.Constants) {
		return Value{}, newError(InvalidOperand, "constant index %d out of range (%d constants)", index, len(u.Constants))
	}
	return u.Constants[index], nil
}

// Emit appends an instruction without operand and returns its offset.
func (u *Unit) Emit(op Opcode) int {
	return u.EmitWithOperand(op, 0)
}

// EmitWithOperand appends an instruction and returns its offset.
func (u *Unit) EmitWithOperand(op Opcode, operand int) int {
	u.Code = append(u.Code, Instruction{Op: op, Operand: operand})
	return len(u.Code) - 1
}

// EmitConstant adds v to the pool and emits a PUSH_CONST for it.
func (u *Unit) EmitConstant(v Value) int {
	return u.EmitWithOperand(OpPushConst, u.AddConstant(v))
}

// CurrentOffset returns the offset the next instruction will get.
func (u *Unit) CurrentOffset() int {
	return len(u.Code)
}

// Validate checks that every opcode is defined and every operand refers to
// an existing constant or symbol, and that function symbols point into the
// code. Loaders call it once so handlers can report bad operands as errors
// instead of trusting them.
func (u *Unit) Validate() error {
	for pc, ins := range u.Code {
		if !ins.Op.Valid() {
			return fmt.Errorf("pc %d: unknown opcode 0x%02X", pc, byte(ins.Op))
		}
		switch GetOpcodeInfo(ins.Op).Operand {
		case OperandConst:
			if ins.Operand < 0 || ins.Operand >= len(u.Constants) {
				return fmt.Errorf("pc %d: %s: constant index %d out of range", pc, ins.Op, ins.Operand)
			}
		case OperandSymbol:
			if ins.Operand < 0 || ins.Operand >= len(u.Symbols) {
				return fmt.Errorf("pc %d: %s: symbol index %d out of range", pc, ins.Op, ins.Operand)
			}
		case OperandCount:
			if ins.Operand < 0 {
				return fmt.Errorf("pc %d: %s: negative count %d", pc, ins.Op, ins.Operand)
			}
		}
	}
	for i, s := range u.Symbols {
		switch s.Kind {
		case SymbolFunction:
			if s.Entry < 0 || s.Entry > len(u.Code) {
				return fmt.Errorf("symbol %d (%s): entry %d outside code", i, s.Name, s.Entry)
			}
		case SymbolOpcode:
			if !s.Instr.Op.Valid() {
				return fmt.Errorf("symbol %d (%s): unknown opcode 0x%02X", i, s.Name, byte(s.Instr.Op))
			}
		case SymbolPrimitive:
			if s.Primitive == "" {
				return fmt.Errorf("symbol %d (%s): empty primitive name", i, s.Name)
			}
		default:
			return fmt.Errorf("symbol %d (%s): unknown kind %d", i, s.Name, s.Kind)
		}
	}
	return nil
}
