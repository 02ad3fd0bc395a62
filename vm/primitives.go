package vm

import (
	"fmt"
	"sort"
)

// Primitive is a builtin function invoked through a primitive symbol. It
// works directly on the machine's stack.
type Primitive func(m *Machine) error

// Primitives is a name-keyed registry of builtins.
type Primitives struct {
	fns map[string]Primitive
}

// NewPrimitives returns a registry holding the builtin primitives.
func NewPrimitives() *Primitives {
	p := &Primitives{fns: make(map[string]Primitive)}
	p.Register("print", primPrint)
	p.Register("show", primShow)
	p.Register("len", primLen)
	p.Register("swap", primSwap)
	return p
}

// Register adds or replaces a primitive.
func (p *Primitives) Register(name string, fn Primitive) {
	p.fns[name] = fn
}

// Lookup returns the primitive registered under name.
func (p *Primitives) Lookup(name string) (Primitive, bool) {
	fn, ok := p.fns[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (p *Primitives) Names() []string {
	names := make([]string, 0, len(p.fns))
	for name := range p.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// print: pop a value and write its display form on its own line.
func primPrint(m *Machine) error {
	v, err := m.Stack.Pop()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(m.Out, v.String())
	return err
}

// show: replace the top value with its literal form as a string.
func primShow(m *Machine) error {
	v, err := m.Stack.Pop()
	if err != nil {
		return err
	}
	return m.Stack.Push(Str(v.Repr()))
}

func primLen(m *Machine) error {
	v, err := m.Stack.Pop()
	if err != nil {
		return err
	}
	switch {
	case v.IsString():
		return m.Stack.Push(Int(int64(v.StringLen())))
	case v.IsQuote():
		return m.Stack.Push(Int(int64(len(v.AsQuote()))))
	default:
		return newError(TypeError, "cannot take the length of a %s value", v.TypeName())
	}
}

func primSwap(m *Machine) error {
	top, second, err := m.Stack.Pop2()
	if err != nil {
		return err
	}
	if err := m.Stack.Push(top); err != nil {
		return err
	}
	return m.Stack.Push(second)
}
