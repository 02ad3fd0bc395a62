package vm

import (
	"errors"
	"testing"
)

func TestRotateWindow(t *testing.T) {
	tests := []struct {
		r    int64
		want string
	}{
		{0, "[x y z]"},
		{1, "[y z x]"},
		{-1, "[z x y]"},
		{2, "[z x y]"},
		{3, "[x y z]"},
		{4, "[y z x]"},
		{-4, "[z x y]"},
	}
	for _, tt := range tests {
		w := []Value{Str("x"), Str("y"), Str("z")}
		RotateWindow(w, tt.r)
		if got := reprsPlain(w); got != tt.want {
			t.Errorf("RotateWindow(r=%d) = %s, want %s", tt.r, got, tt.want)
		}
	}
}

func TestRotateWindowEmpty(t *testing.T) {
	RotateWindow(nil, 5)
	RotateWindow([]Value{}, -2)
}

func TestRotNM(t *testing.T) {
	m := newTestMachine()
	pushAll(t, m, Int(0), Int(1), Int(2), Int(3), Int(3), Int(1))
	if err := exec(m, OpRotNM); err != nil {
		t.Fatal(err)
	}
	// Elements below the window stay put
	assertStack(t, m, Int(0), Int(2), Int(3), Int(1))
}

func TestRotNMZeroWindow(t *testing.T) {
	m := newTestMachine()
	pushAll(t, m, Int(7), Int(0), Int(3))
	if err := exec(m, OpRotNM); err != nil {
		t.Fatal(err)
	}
	assertStack(t, m, Int(7))
}

func TestRotNMErrors(t *testing.T) {
	tests := []struct {
		name  string
		stack []Value
		want  error
	}{
		{"float count", []Value{Int(1), Float(1), Int(1)}, ErrTypeError},
		{"string steps", []Value{Int(1), Int(1), Str("1")}, ErrTypeError},
		{"negative window", []Value{Int(1), Int(-1), Int(1)}, ErrDomainError},
		{"window too large", []Value{Int(1), Int(2), Int(1)}, ErrStackUnderflow},
		{"missing operands", []Value{Int(1)}, ErrStackUnderflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			pushAll(t, m, tt.stack...)
			if err := exec(m, OpRotNM); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRotNMTypeErrorMessage(t *testing.T) {
	m := newTestMachine()
	pushAll(t, m, Bool(true), Int(1))
	err := exec(m, OpRotNM)
	if err == nil || err.Error() != "TypeError: cannot rotate with the type bool and int" {
		t.Errorf("unexpected error %v", err)
	}
}

func reprsPlain(vals []Value) string {
	s := "["
	for i, v := range vals {
		if i > 0 {
			s += " "
		}
		s += v.String()
	}
	return s + "]"
}
