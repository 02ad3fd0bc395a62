package vm

import (
	"io"
	"testing"
)

func newTestMachine() *Machine {
	m := NewMachine(DefaultConfig())
	m.SetOutput(io.Discard)
	return m
}

// Helper to create a unit with code
func unitWithCode(code ...Instruction) *Unit {
	u := NewUnit()
	u.Code = code
	return u
}

func ins(op Opcode) Instruction {
	return Instruction{Op: op}
}

func insN(op Opcode, operand int) Instruction {
	return Instruction{Op: op, Operand: operand}
}

func pushAll(t *testing.T, m *Machine, vals ...Value) {
	t.Helper()
	for _, v := range vals {
		if err := m.Stack.Push(v); err != nil {
			t.Fatalf("Push(%s) failed: %v", v.Repr(), err)
		}
	}
}

// exec runs a single instruction against an empty unit.
func exec(m *Machine, op Opcode) error {
	return m.CallOpcode(NewUnit(), ins(op))
}

// sameValue compares kind and literal form, ignoring string identity.
func sameValue(a, b Value) bool {
	return a.Kind() == b.Kind() && a.Repr() == b.Repr()
}

func assertStack(t *testing.T, m *Machine, want ...Value) {
	t.Helper()
	got := m.Stack.Values()
	if len(got) != len(want) {
		t.Fatalf("stack: got %s, want %s", reprs(got), reprs(want))
	}
	for i := range want {
		if !sameValue(got[i], want[i]) {
			t.Fatalf("stack: got %s, want %s", reprs(got), reprs(want))
		}
	}
}

func reprs(vals []Value) string {
	return NewQuote(vals).Repr()
}
