package vm

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// Executor is the re-entry surface used by Unquote and CALL_SYMBOL. Machine
// implements it; a host with its own dispatch loop can install another with
// SetExecutor.
type Executor interface {
	// Run executes u from entry until RETURN or the end of the code,
	// operating on the same operand stack.
	Run(u *Unit, entry int) error
	// CallOpcode dispatches a single instruction through the opcode table.
	CallOpcode(u *Unit, ins Instruction) error
	// CallPrim invokes the primitive a symbol refers to.
	CallPrim(sym *Symbol) error
}

// Machine executes bytecode units against one operand stack. A Machine is
// not safe for concurrent use; run one per goroutine.
type Machine struct {
	Stack *Stack
	Out   io.Writer // Output for primitives such as print (defaults to os.Stdout)
	Trace bool

	cfg   Config
	prims *Primitives
	exec  Executor
	depth int
	ctx   context.Context
	runID string
	log   commonlog.Logger
}

// NewMachine creates a machine with an empty stack, the builtin primitives
// and itself as executor.
func NewMachine(cfg Config) *Machine {
	cfg = cfg.withDefaults()
	m := &Machine{
		Stack: NewStack(cfg.StackSize, cfg.MaxStack),
		Out:   os.Stdout,
		Trace: cfg.Trace,
		cfg:   cfg,
		prims: NewPrimitives(),
		log:   commonlog.GetLogger("noc.vm"),
	}
	m.exec = m
	return m
}

// SetExecutor replaces the re-entry target. Passing nil restores the
// machine itself.
func (m *Machine) SetExecutor(e Executor) {
	if e == nil {
		e = m
	}
	m.exec = e
}

// SetOutput sets the writer used by output primitives.
func (m *Machine) SetOutput(w io.Writer) {
	m.Out = w
}

// Primitives returns the registry consulted by CallPrim.
func (m *Machine) Primitives() *Primitives {
	return m.prims
}

// Config returns the limits the machine was created with.
func (m *Machine) Config() Config {
	return m.cfg
}

// RunID identifies the current or last top-level execution in logs.
func (m *Machine) RunID() string {
	return m.runID
}

// Execute runs u from its first instruction.
func (m *Machine) Execute(u *Unit) error {
	return m.ExecuteContext(context.Background(), u)
}

// ExecuteContext runs u from its first instruction, checking ctx between
// instructions at every call depth. Cancellation never interrupts an
// instruction.
func (m *Machine) ExecuteContext(ctx context.Context, u *Unit) error {
	m.ctx = ctx
	m.depth = 0
	m.runID = uuid.NewString()
	defer func() { m.ctx = nil }()

	m.log.Infof("run %s: start (%d instructions, %d constants, %d symbols)",
		m.runID, len(u.Code), len(u.Constants), len(u.Symbols))

	err := m.exec.Run(u, 0)
	if err != nil {
		m.log.Errorf("run %s: %v", m.runID, err)
		return err
	}
	m.log.Infof("run %s: done (sp=%d)", m.runID, m.Stack.Len())
	return nil
}

// Run is the fetch-decode loop. It executes u from entry until a RETURN
// instruction or the end of the code.
func (m *Machine) Run(u *Unit, entry int) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	if entry < 0 || entry > len(u.Code) {
		return newError(InvalidOperand, "entry point %d outside code of %d instructions", entry, len(u.Code))
	}

	for pc := entry; pc < len(u.Code); pc++ {
		if m.ctx != nil {
			if err := m.ctx.Err(); err != nil {
				return &Error{Kind: Cancelled, Msg: err.Error(), PC: pc}
			}
		}

		ins := u.Code[pc]
		if m.Trace {
			m.log.Debugf("[%04d] %-14s depth=%d sp=%d", pc, ins, m.depth, m.Stack.Len())
		}
		if ins.Op == OpReturn {
			return nil
		}
		if err := m.exec.CallOpcode(u, ins); err != nil {
			return withPC(err, pc)
		}
	}
	return nil
}

// CallOpcode looks up the handler for ins and runs it.
func (m *Machine) CallOpcode(u *Unit, ins Instruction) error {
	h, ok := LookupHandler(ins.Op)
	if !ok {
		return withOp(newError(InvalidOpcode, "no handler for %s", ins.Op), ins.Op)
	}
	if err := h(m, u, ins); err != nil {
		return withOp(err, ins.Op)
	}
	return nil
}

// CallPrim invokes the primitive named by sym.
func (m *Machine) CallPrim(sym *Symbol) error {
	fn, ok := m.prims.Lookup(sym.Primitive)
	if !ok {
		return newError(UnknownPrimitive, "unknown primitive %q", sym.Primitive)
	}
	return fn(m)
}

// callSymbol applies a symbol the way Unquote and CALL_SYMBOL do.
func (m *Machine) callSymbol(u *Unit, sym *Symbol) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	switch sym.Kind {
	case SymbolOpcode:
		return m.exec.CallOpcode(u, sym.Instr)
	case SymbolFunction:
		return m.exec.Run(u, sym.Entry)
	case SymbolPrimitive:
		return m.exec.CallPrim(sym)
	default:
		return newError(InvalidOperand, "symbol %s has unknown kind %d", sym.Name, sym.Kind)
	}
}

func (m *Machine) enter() error {
	if m.depth >= m.cfg.MaxDepth {
		return newError(StackOverflow, "call depth exceeded (%d)", m.cfg.MaxDepth)
	}
	m.depth++
	return nil
}

func (m *Machine) leave() {
	m.depth--
}

// checkPayload enforces MaxPayload for strings and quotes being built.
func (m *Machine) checkPayload(what string, size int) error {
	if m.cfg.MaxPayload > 0 && size > m.cfg.MaxPayload {
		return newError(OutOfMemory, "cannot allocate %s of %d (limit %d)", what, size, m.cfg.MaxPayload)
	}
	return nil
}
