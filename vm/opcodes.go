package vm

import "fmt"

// Opcode identifies an instruction kind. The numbering is the unit format's
// and must not change.
type Opcode uint8

const (
	OpCallSymbol  Opcode = iota // Dispatch symbol: CALL_SYMBOL <symbol>
	OpPushConst                 // Push constant: PUSH_CONST <constant>
	OpReturn                    // Return from function
	OpCreateQuote               // Build quote from top n: CREATE_QUOTE <n>
	OpPopR                      // Reserved (return stack)
	OpPushR                     // Reserved (return stack)
	OpUnquote                   // Apply quote on top
	OpPushSymbol                // Push symbol reference: PUSH_SYM <symbol>
	OpDup                       // Duplicate top
	OpPop                       // Drop top
	OpZap                       // Clear the stack
	OpCat                       // Concatenate two strings
	OpRotNM                     // Rotate window: n r ROT_NM

	// Arithmetic and comparison
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpExp
	OpGreater
	OpLess
	OpGreaterEq
	OpLessEq
	OpEqual

	// Boolean
	OpAnd
	OpOr

	opcodeCount
)

// OperandKind describes what an instruction operand means.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandConst
	OperandSymbol
	OperandCount
)

// OpcodeInfo provides metadata about each opcode for disassembly,
// validation and error messages.
type OpcodeInfo struct {
	Name     string      // Mnemonic
	Spelling string      // Source-level spelling, used in error messages
	Operand  OperandKind // Meaning of the operand
}

var opcodeInfoTable = [opcodeCount]OpcodeInfo{
	OpCallSymbol:  {"CALL_SYMBOL", "call", OperandSymbol},
	OpPushConst:   {"PUSH_CONST", "const", OperandConst},
	OpReturn:      {"RETURN", "return", OperandNone},
	OpCreateQuote: {"CREATE_QUOTE", "quote", OperandCount},
	OpPopR:        {"POPR", "popr", OperandNone},
	OpPushR:       {"PUSHR", "pushr", OperandNone},
	OpUnquote:     {"UNQUOTE", "unquote", OperandNone},
	OpPushSymbol:  {"PUSH_SYM", "sym", OperandSymbol},
	OpDup:         {"DUP", "dup", OperandNone},
	OpPop:         {"POP", "pop", OperandNone},
	OpZap:         {"ZAP", "zap", OperandNone},
	OpCat:         {"CAT", "cat", OperandNone},
	OpRotNM:       {"ROT_NM", "rotNM", OperandNone},

	OpAdd:       {"ADD", "+", OperandNone},
	OpSub:       {"SUB", "-", OperandNone},
	OpMul:       {"MUL", "*", OperandNone},
	OpDiv:       {"DIV", "/", OperandNone},
	OpExp:       {"EXP", "^", OperandNone},
	OpGreater:   {"GT", ">", OperandNone},
	OpLess:      {"LT", "<", OperandNone},
	OpGreaterEq: {"GE", ">=", OperandNone},
	OpLessEq:    {"LE", "<=", OperandNone},
	OpEqual:     {"EQ", "==", OperandNone},

	OpAnd: {"AND", "and", OperandNone},
	OpOr:  {"OR", "or", OperandNone},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if op < opcodeCount {
		return opcodeInfoTable[op]
	}
	name := fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))
	return OpcodeInfo{Name: name, Spelling: name}
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Spelling returns the source-level name of an opcode.
func (op Opcode) Spelling() string {
	return GetOpcodeInfo(op).Spelling
}

// Valid returns true if op is a defined opcode.
func (op Opcode) Valid() bool {
	return op < opcodeCount
}

// IsArithmetic returns true for the five arithmetic kinds.
func (op Opcode) IsArithmetic() bool {
	return op >= OpAdd && op <= OpExp
}

// IsComparison returns true for the opcodes that always produce a Bool.
func (op Opcode) IsComparison() bool {
	return op >= OpGreater && op <= OpEqual
}

// AllOpcodes returns every defined opcode in numeric order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, opcodeCount)
	for op := Opcode(0); op < opcodeCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

// LookupOpcode returns the opcode with the given mnemonic or spelling.
func LookupOpcode(name string) (Opcode, bool) {
	for op := Opcode(0); op < opcodeCount; op++ {
		info := opcodeInfoTable[op]
		if info.Name == name || info.Spelling == name {
			return op, true
		}
	}
	return 0, false
}

// Instruction is one decoded instruction: an opcode and its operand.
type Instruction struct {
	Op      Opcode
	Operand int
}

func (i Instruction) String() string {
	if GetOpcodeInfo(i.Op).Operand == OperandNone {
		return i.Op.String()
	}
	return fmt.Sprintf("%s %d", i.Op, i.Operand)
}
