package vm

func opDup(m *Machine, _ *Unit, _ Instruction) error {
	v, err := m.Stack.Peek()
	if err != nil {
		return err
	}
	return m.Stack.Push(v)
}

func opPop(m *Machine, _ *Unit, _ Instruction) error {
	_, err := m.Stack.Pop()
	return err
}

func opZap(m *Machine, _ *Unit, _ Instruction) error {
	m.Stack.Clear()
	return nil
}

// opCat pushes a new string holding second's bytes followed by top's.
func opCat(m *Machine, _ *Unit, _ Instruction) error {
	top, second, err := m.Stack.Pop2()
	if err != nil {
		return err
	}
	if !second.IsString() || !top.IsString() {
		return newError(TypeError, "cannot concatenate %s value with %s value",
			second.TypeName(), top.TypeName())
	}
	a := second.obj.(*String).b
	b := top.obj.(*String).b
	if err := m.checkPayload("string", len(a)+len(b)); err != nil {
		return err
	}
	buf := make([]byte, 0, len(a)+len(b))
	buf = append(buf, a...)
	buf = append(buf, b...)
	return m.Stack.Push(strFromBytes(buf))
}
