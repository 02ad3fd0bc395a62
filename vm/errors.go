package vm

import "fmt"

// ErrorKind classifies a fatal VM error.
type ErrorKind uint8

const (
	TypeError ErrorKind = iota + 1
	StackUnderflow
	StackOverflow
	DomainError
	OutOfMemory
	DivisionByZero
	InvalidOpcode
	InvalidOperand
	UnknownPrimitive
	Cancelled
)

var errorKindNames = map[ErrorKind]string{
	TypeError:        "TypeError",
	StackUnderflow:   "StackUnderflow",
	StackOverflow:    "StackOverflow",
	DomainError:      "DomainError",
	OutOfMemory:      "OutOfMemory",
	DivisionByZero:   "DivisionByZero",
	InvalidOpcode:    "InvalidOpcode",
	InvalidOperand:   "InvalidOperand",
	UnknownPrimitive: "UnknownPrimitive",
	Cancelled:        "Cancelled",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is returned by every handler that fails. All errors are fatal to
// the run: there is no recovery inside the language.
type Error struct {
	Kind ErrorKind
	Op   Opcode // instruction that failed, when known
	Msg  string
	PC   int // innermost program counter, -1 when not inside Run

	hasOp bool
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

// Is makes errors.Is match on Kind, so callers can compare against the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrTypeError        = &Error{Kind: TypeError}
	ErrStackUnderflow   = &Error{Kind: StackUnderflow}
	ErrStackOverflow    = &Error{Kind: StackOverflow}
	ErrDomainError      = &Error{Kind: DomainError}
	ErrOutOfMemory      = &Error{Kind: OutOfMemory}
	ErrDivisionByZero   = &Error{Kind: DivisionByZero}
	ErrInvalidOpcode    = &Error{Kind: InvalidOpcode}
	ErrInvalidOperand   = &Error{Kind: InvalidOperand}
	ErrUnknownPrimitive = &Error{Kind: UnknownPrimitive}
	ErrCancelled        = &Error{Kind: Cancelled}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), PC: -1}
}

// withOp tags err with op if it is an *Error that has no opcode yet.
func withOp(err error, op Opcode) error {
	if e, ok := err.(*Error); ok && !e.hasOp {
		e.Op, e.hasOp = op, true
	}
	return err
}

// withPC records pc on err unless a nested run already did.
func withPC(err error, pc int) error {
	if e, ok := err.(*Error); ok && e.PC < 0 {
		e.PC = pc
	}
	return err
}

// operandTypeError reports an operator applied to the wrong kinds. Operands
// are named in push order: second (deeper) first, top last.
func operandTypeError(op Opcode, second, top Value) *Error {
	return newError(TypeError, "cannot call '%s' operator with a %s value and %s value",
		op.Spelling(), second.TypeName(), top.TypeName())
}
