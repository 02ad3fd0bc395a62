package vm

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
)

// FunctionProfile holds profiling data for one function entry point.
type FunctionProfile struct {
	Entry           int
	InvocationCount uint64 // Atomic counter for invocations
	IsHot           bool   // True if threshold exceeded
}

// Profiler records dispatch counts for a Machine. Attach installs it as the
// machine's executor; it forwards every call to the machine it wraps.
type Profiler struct {
	m *Machine

	opcodes    [256]uint64
	primitives sync.Map // name -> *uint64
	functions  sync.Map // entry -> *FunctionProfile

	// FunctionHotThreshold is the invocation count at which a function is
	// reported hot. Default: 100
	FunctionHotThreshold uint64

	// OnHot is called once per function when it becomes hot.
	OnHot func(p *FunctionProfile)

	hotFunctionCount uint64
}

// NewProfiler creates a profiler forwarding to m.
func NewProfiler(m *Machine) *Profiler {
	return &Profiler{m: m, FunctionHotThreshold: 100}
}

// Attach installs p as m's executor.
func (p *Profiler) Attach() {
	p.m.SetExecutor(p)
}

// Detach restores the machine as its own executor.
func (p *Profiler) Detach() {
	p.m.SetExecutor(nil)
}

// Run records a function entry, except for the top-level run, then runs
// the code.
func (p *Profiler) Run(u *Unit, entry int) error {
	if p.m.depth > 0 {
		p.recordFunction(entry)
	}
	return p.m.Run(u, entry)
}

// CallOpcode counts ins.Op and dispatches it.
func (p *Profiler) CallOpcode(u *Unit, ins Instruction) error {
	atomic.AddUint64(&p.opcodes[ins.Op], 1)
	return p.m.CallOpcode(u, ins)
}

// CallPrim counts the primitive and calls it.
func (p *Profiler) CallPrim(sym *Symbol) error {
	val, _ := p.primitives.LoadOrStore(sym.Primitive, new(uint64))
	atomic.AddUint64(val.(*uint64), 1)
	return p.m.CallPrim(sym)
}

func (p *Profiler) recordFunction(entry int) {
	val, _ := p.functions.LoadOrStore(entry, &FunctionProfile{Entry: entry})
	profile := val.(*FunctionProfile)
	count := atomic.AddUint64(&profile.InvocationCount, 1)

	if !profile.IsHot && count >= p.FunctionHotThreshold {
		profile.IsHot = true
		atomic.AddUint64(&p.hotFunctionCount, 1)
		if p.OnHot != nil {
			p.OnHot(profile)
		}
	}
}

// OpcodeCount returns how often op was dispatched.
func (p *Profiler) OpcodeCount(op Opcode) uint64 {
	return atomic.LoadUint64(&p.opcodes[op])
}

// PrimitiveCount returns how often the named primitive was called.
func (p *Profiler) PrimitiveCount(name string) uint64 {
	if val, ok := p.primitives.Load(name); ok {
		return atomic.LoadUint64(val.(*uint64))
	}
	return 0
}

// FunctionProfile returns the profile for a function entry, or nil.
func (p *Profiler) FunctionProfile(entry int) *FunctionProfile {
	if val, ok := p.functions.Load(entry); ok {
		return val.(*FunctionProfile)
	}
	return nil
}

// HotFunctionCount returns the number of functions that crossed the threshold.
func (p *Profiler) HotFunctionCount() uint64 {
	return atomic.LoadUint64(&p.hotFunctionCount)
}

// TotalInstructions returns the number of opcode dispatches.
func (p *Profiler) TotalInstructions() uint64 {
	var n uint64
	for i := range p.opcodes {
		n += atomic.LoadUint64(&p.opcodes[i])
	}
	return n
}

// Reset clears all counts.
func (p *Profiler) Reset() {
	for i := range p.opcodes {
		atomic.StoreUint64(&p.opcodes[i], 0)
	}
	p.primitives.Range(func(k, _ any) bool {
		p.primitives.Delete(k)
		return true
	})
	p.functions.Range(func(k, _ any) bool {
		p.functions.Delete(k)
		return true
	})
	atomic.StoreUint64(&p.hotFunctionCount, 0)
}

// Report writes the counts, most frequent first. Function entries are
// named from u's symbol table when u is not nil.
func (p *Profiler) Report(w io.Writer, u *Unit) {
	type row struct {
		name  string
		count uint64
	}
	var ops []row
	for i := range p.opcodes {
		if n := atomic.LoadUint64(&p.opcodes[i]); n > 0 {
			ops = append(ops, row{Opcode(i).String(), n})
		}
	}
	var prims []row
	p.primitives.Range(func(k, v any) bool {
		prims = append(prims, row{k.(string), atomic.LoadUint64(v.(*uint64))})
		return true
	})
	names := make(map[int]string)
	if u != nil {
		for _, s := range u.Symbols {
			if s.Kind == SymbolFunction {
				names[s.Entry] = s.Name
			}
		}
	}
	var funcs []row
	p.functions.Range(func(k, v any) bool {
		entry := k.(int)
		name, ok := names[entry]
		if !ok {
			name = fmt.Sprintf("@%d", entry)
		}
		funcs = append(funcs, row{name, atomic.LoadUint64(&v.(*FunctionProfile).InvocationCount)})
		return true
	})

	section := func(title string, rows []row) {
		if len(rows) == 0 {
			return
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].count != rows[j].count {
				return rows[i].count > rows[j].count
			}
			return rows[i].name < rows[j].name
		})
		fmt.Fprintf(w, "%s:\n", title)
		for _, r := range rows {
			fmt.Fprintf(w, "  %-14s %d\n", r.name, r.count)
		}
	}
	fmt.Fprintf(w, "Instructions: %d\n", p.TotalInstructions())
	section("Opcodes", ops)
	section("Functions", funcs)
	section("Primitives", prims)
}
