package vm

import (
	"math"
	"testing"
)

func TestValueConstructors(t *testing.T) {
	if v := Int(-42); !v.IsInt() || v.AsInt() != -42 {
		t.Errorf("Int(-42) = %s", v.Repr())
	}
	if v := Int(math.MinInt64); v.AsInt() != math.MinInt64 {
		t.Errorf("Int(MinInt64) round trip lost bits: %d", v.AsInt())
	}
	if v := Float(2.5); !v.IsFloat() || v.AsFloat() != 2.5 {
		t.Errorf("Float(2.5) = %s", v.Repr())
	}
	if v := Bool(true); !v.IsBool() || !v.AsBool() {
		t.Errorf("Bool(true) = %s", v.Repr())
	}
	if v := Char('λ'); !v.IsChar() || v.AsChar() != 'λ' {
		t.Errorf("Char('λ') = %s", v.Repr())
	}
	if v := Str("abc"); !v.IsString() || v.AsString() != "abc" || v.StringLen() != 3 {
		t.Errorf("Str(abc) = %s", v.Repr())
	}
}

func TestValueIsNumeric(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Int(1), true},
		{Float(1), true},
		{Bool(true), false},
		{Char('1'), false},
		{Str("1"), false},
		{NewQuote(nil), false},
	}
	for _, tt := range tests {
		if got := tt.v.IsNumeric(); got != tt.want {
			t.Errorf("%s.IsNumeric() = %v, want %v", tt.v.Repr(), got, tt.want)
		}
	}
}

func TestValueTypeNames(t *testing.T) {
	sym := FunctionSymbol("f", 0)
	tests := map[string]Value{
		"int":    Int(0),
		"float":  Float(0),
		"bool":   Bool(false),
		"char":   Char('a'),
		"string": Str(""),
		"quote":  NewQuote(nil),
		"symbol": SymbolRef(&sym),
	}
	for want, v := range tests {
		if got := v.TypeName(); got != want {
			t.Errorf("TypeName() = %q, want %q", got, want)
		}
	}
}

func TestValueWrongAccessorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("AsInt on a Float did not panic")
		}
	}()
	Float(1).AsInt()
}

func TestStringIdentity(t *testing.T) {
	a := Str("same")
	b := Str("same")
	if Identical(a, b) {
		t.Error("separately built strings should not be identical")
	}
	c := a
	if !Identical(a, c) {
		t.Error("a copied value should share its payload")
	}
}

func TestIdenticalScalars(t *testing.T) {
	if !Identical(Int(3), Int(3)) {
		t.Error("Int(3) should be identical to Int(3)")
	}
	if Identical(Int(3), Float(3)) {
		t.Error("Int and Float must not be identical")
	}
}

func TestValueRepr(t *testing.T) {
	sym := PrimitiveSymbol("print", "print")
	q := NewQuote([]Value{Int(1), Str("a b"), Char('c'), SymbolRef(&sym), NewQuote([]Value{Bool(true)})})
	want := `[1 "a b" 'c' print [true]]`
	if got := q.Repr(); got != want {
		t.Errorf("Repr() = %s, want %s", got, want)
	}
	if got := Str("plain").String(); got != "plain" {
		t.Errorf("String() = %q, want %q", got, "plain")
	}
	if got := Float(0.5).Repr(); got != "0.5" {
		t.Errorf("Float Repr = %q", got)
	}
}
