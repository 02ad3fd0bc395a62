package vm

// opCreateQuote moves the top n values, keeping their order, into a new
// quote and pushes it.
func opCreateQuote(m *Machine, _ *Unit, ins Instruction) error {
	n := ins.Operand
	if n < 0 {
		return newError(DomainError, "cannot build a quote of %d elements", n)
	}
	if err := m.checkPayload("quote", n); err != nil {
		return err
	}
	elems, err := m.Stack.popN(n)
	if err != nil {
		return err
	}
	return m.Stack.Push(NewQuote(elems))
}

// opUnquote pops a quote and applies its elements left to right: symbols
// are dispatched, every other value is pushed as is.
func opUnquote(m *Machine, u *Unit, _ Instruction) error {
	v, err := m.Stack.Pop()
	if err != nil {
		return err
	}
	if !v.IsQuote() {
		return newError(TypeError, "cannot unquote a %s value", v.TypeName())
	}
	for _, e := range v.AsQuote() {
		if e.IsSymbol() {
			err = m.callSymbol(u, e.AsSymbol())
		} else {
			err = m.Stack.Push(e)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// opPushSymbol pushes a reference to a symbol table entry.
func opPushSymbol(m *Machine, u *Unit, ins Instruction) error {
	sym, err := u.Symbol(ins.Operand)
	if err != nil {
		return err
	}
	return m.Stack.Push(SymbolRef(sym))
}
