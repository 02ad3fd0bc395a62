package vm

import (
	"bytes"
	"strings"
	"testing"
)

// countdownUnit applies inc ("1 +", entry 0) n times by unquoting
// [inc inc ...] over 0, then shows the result. main starts at 3.
func countdownUnit(n int) *Unit {
	u := NewUnit()
	u.EmitConstant(Int(1))
	u.Emit(OpAdd)
	u.Emit(OpReturn)
	f := u.AddSymbol(FunctionSymbol("inc", 0))
	p := u.AddSymbol(PrimitiveSymbol("show", "show"))

	entry := u.CurrentOffset()
	u.EmitConstant(Int(0))
	for i := 0; i < n; i++ {
		u.EmitWithOperand(OpPushSymbol, f)
	}
	u.EmitWithOperand(OpCreateQuote, n)
	u.Emit(OpUnquote)
	u.EmitWithOperand(OpCallSymbol, p)
	u.AddSymbol(FunctionSymbol("main", entry))
	return u
}

func TestProfilerCounts(t *testing.T) {
	u := countdownUnit(5)
	m := newTestMachine()
	p := NewProfiler(m)
	p.FunctionHotThreshold = 3
	var hot []int
	p.OnHot = func(fp *FunctionProfile) { hot = append(hot, fp.Entry) }
	p.Attach()

	if err := m.Run(u, 3); err != nil {
		t.Fatal(err)
	}
	assertStack(t, m, Str("5"))

	if got := p.OpcodeCount(OpAdd); got != 5 {
		t.Errorf("ADD count = %d, want 5", got)
	}
	if got := p.OpcodeCount(OpPushSymbol); got != 5 {
		t.Errorf("PUSH_SYM count = %d, want 5", got)
	}
	if got := p.PrimitiveCount("show"); got != 1 {
		t.Errorf("show count = %d, want 1", got)
	}
	fp := p.FunctionProfile(0)
	if fp == nil || fp.InvocationCount != 5 || !fp.IsHot {
		t.Fatalf("function profile = %+v", fp)
	}
	if len(hot) != 1 || hot[0] != 0 || p.HotFunctionCount() != 1 {
		t.Errorf("OnHot calls = %v, hot count %d", hot, p.HotFunctionCount())
	}
	// 1 const + 5 push_sym + quote + unquote + call + 5*(const + add)
	if got := p.TotalInstructions(); got != 19 {
		t.Errorf("TotalInstructions = %d, want 19", got)
	}
}

func TestProfilerTopLevelRunNotCounted(t *testing.T) {
	m := newTestMachine()
	p := NewProfiler(m)
	p.Attach()
	if err := m.Execute(unitWithCode(ins(OpZap))); err != nil {
		t.Fatal(err)
	}
	if p.FunctionProfile(0) != nil {
		t.Error("the top-level entry should not count as a function call")
	}
	if p.OpcodeCount(OpZap) != 1 {
		t.Errorf("ZAP count = %d", p.OpcodeCount(OpZap))
	}
}

func TestProfilerDetachAndReset(t *testing.T) {
	m := newTestMachine()
	p := NewProfiler(m)
	p.Attach()
	m.Execute(unitWithCode(ins(OpZap)))
	p.Detach()
	m.Execute(unitWithCode(ins(OpZap)))
	if p.OpcodeCount(OpZap) != 1 {
		t.Errorf("detached profiler still counting: %d", p.OpcodeCount(OpZap))
	}
	p.Reset()
	if p.TotalInstructions() != 0 || p.PrimitiveCount("show") != 0 {
		t.Error("Reset left counts behind")
	}
}

func TestProfilerReport(t *testing.T) {
	u := countdownUnit(2)
	m := newTestMachine()
	p := NewProfiler(m)
	p.Attach()
	if err := m.Run(u, 3); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	p.Report(&buf, u)
	out := buf.String()
	for _, want := range []string{"Instructions: 10", "Opcodes:", "PUSH_CONST", "Functions:", "inc", "Primitives:", "show"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
