package vm

// Handler executes one instruction against the machine's stack.
type Handler func(m *Machine, u *Unit, ins Instruction) error

// handlers maps each opcode to its handler. POPR and PUSHR have none.
var handlers [opcodeCount]Handler

func init() {
	handlers = [opcodeCount]Handler{
		OpCallSymbol:  opCallSymbol,
		OpPushConst:   opPushConst,
		OpCreateQuote: opCreateQuote,
		OpUnquote:     opUnquote,
		OpPushSymbol:  opPushSymbol,
		OpDup:         opDup,
		OpPop:         opPop,
		OpZap:         opZap,
		OpCat:         opCat,
		OpRotNM:       opRotNM,

		OpAdd:       opArithmetic,
		OpSub:       opArithmetic,
		OpMul:       opArithmetic,
		OpDiv:       opArithmetic,
		OpExp:       opArithmetic,
		OpGreater:   opArithmetic,
		OpLess:      opArithmetic,
		OpGreaterEq: opArithmetic,
		OpLessEq:    opArithmetic,
		OpEqual:     opEqual,

		OpAnd: opBoolean,
		OpOr:  opBoolean,
	}
}

// LookupHandler returns the handler registered for op.
func LookupHandler(op Opcode) (Handler, bool) {
	if !op.Valid() || handlers[op] == nil {
		return nil, false
	}
	return handlers[op], true
}

func opCallSymbol(m *Machine, u *Unit, ins Instruction) error {
	sym, err := u.Symbol(ins.Operand)
	if err != nil {
		return err
	}
	return m.callSymbol(u, sym)
}

func opPushConst(m *Machine, u *Unit, ins Instruction) error {
	v, err := u.Constant(ins.Operand)
	if err != nil {
		return err
	}
	return m.Stack.Push(v)
}
