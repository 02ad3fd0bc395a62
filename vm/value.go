package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindChar
	KindString
	KindQuote
	KindSymbol
)

// String returns the type name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindQuote:
		return "quote"
	case KindSymbol:
		return "symbol"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a tagged union holding one Noc runtime value.
//
// Scalars (Int, Float, Bool, Char) live in bits. String and Quote payloads
// are immutable once built and are shared by pointer when a Value is
// copied; a String's identity is its payload pointer. Symbol values point
// into the symbol table of the unit that produced them and never own it.
type Value struct {
	kind Kind
	bits uint64
	obj  any // *String, *Quote or *Symbol
}

// String is the payload of a String value.
type String struct {
	b []byte
}

// Quote is the payload of a Quote value: a fixed-length sequence of
// values captured from the stack.
type Quote struct {
	elems []Value
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// Int creates an Int value.
func Int(n int64) Value {
	return Value{kind: KindInt, bits: uint64(n)}
}

// Float creates a Float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, bits: math.Float64bits(f)}
}

// Bool creates a Bool value.
func Bool(b bool) Value {
	var bits uint64
	if b {
		bits = 1
	}
	return Value{kind: KindBool, bits: bits}
}

// Char creates a Char value.
func Char(r rune) Value {
	return Value{kind: KindChar, bits: uint64(r)}
}

// Str creates a String value with a fresh payload. Two calls with the same
// text produce values that are not identical.
func Str(s string) Value {
	return Value{kind: KindString, obj: &String{b: []byte(s)}}
}

// strFromBytes wraps b without copying. The caller gives up b.
func strFromBytes(b []byte) Value {
	return Value{kind: KindString, obj: &String{b: b}}
}

// NewQuote creates a Quote value from elems. The quote takes ownership of
// the slice; callers must not modify it afterwards.
func NewQuote(elems []Value) Value {
	return Value{kind: KindQuote, obj: &Quote{elems: elems}}
}

// SymbolRef creates a Symbol value referring to s.
func SymbolRef(s *Symbol) Value {
	return Value{kind: KindSymbol, obj: s}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns the name of the active variant.
func (v Value) TypeName() string { return v.kind.String() }

func (v Value) IsInt() bool    { return v.kind == KindInt }
func (v Value) IsFloat() bool  { return v.kind == KindFloat }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsChar() bool   { return v.kind == KindChar }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsQuote() bool  { return v.kind == KindQuote }
func (v Value) IsSymbol() bool { return v.kind == KindSymbol }

// IsNumeric returns true for Int and Float values.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// ---------------------------------------------------------------------------
// Accessors
//
// Each accessor panics when called on the wrong variant. That is a bug in
// the caller, never a runtime condition of the program being executed.
// ---------------------------------------------------------------------------

func (v Value) must(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("Value.%s: value is %s", k, v.kind))
	}
}

// AsInt returns v as an int64.
func (v Value) AsInt() int64 {
	v.must(KindInt)
	return int64(v.bits)
}

// AsFloat returns v as a float64.
func (v Value) AsFloat() float64 {
	v.must(KindFloat)
	return math.Float64frombits(v.bits)
}

// AsBool returns v as a bool.
func (v Value) AsBool() bool {
	v.must(KindBool)
	return v.bits != 0
}

// AsChar returns v as a rune.
func (v Value) AsChar() rune {
	v.must(KindChar)
	return rune(v.bits)
}

// AsString returns the text of a String value.
func (v Value) AsString() string {
	v.must(KindString)
	return string(v.obj.(*String).b)
}

// StringLen returns the byte length of a String value.
func (v Value) StringLen() int {
	v.must(KindString)
	return len(v.obj.(*String).b)
}

// AsQuote returns the elements of a Quote value. The slice is shared with
// the quote and must not be modified.
func (v Value) AsQuote() []Value {
	v.must(KindQuote)
	return v.obj.(*Quote).elems
}

// AsSymbol returns the symbol table entry a Symbol value refers to.
func (v Value) AsSymbol() *Symbol {
	v.must(KindSymbol)
	return v.obj.(*Symbol)
}

// toFloat promotes a numeric value to float64.
func (v Value) toFloat() float64 {
	if v.kind == KindInt {
		return float64(int64(v.bits))
	}
	return v.AsFloat()
}

// Identical reports whether a and b are the same value: same variant and
// same scalar bits, or the same payload for String, Quote and Symbol.
func Identical(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindString:
		return a.obj.(*String) == b.obj.(*String)
	case KindQuote:
		return a.obj.(*Quote) == b.obj.(*Quote)
	case KindSymbol:
		return a.obj.(*Symbol) == b.obj.(*Symbol)
	default:
		return a.bits == b.bits
	}
}

// ---------------------------------------------------------------------------
// Display
// ---------------------------------------------------------------------------

// String returns the display form of v. Strings are shown without quotes.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.AsString()
	default:
		return v.Repr()
	}
}

// Repr returns a literal-like form of v: strings and chars are quoted and
// quotes are shown in brackets.
func (v Value) Repr() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case KindFloat:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.AsBool())
	case KindChar:
		return strconv.QuoteRune(v.AsChar())
	case KindString:
		return strconv.Quote(v.AsString())
	case KindQuote:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.AsQuote() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(e.Repr())
		}
		sb.WriteByte(']')
		return sb.String()
	case KindSymbol:
		return v.AsSymbol().Name
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}
