package vm

// opRotNM pops r (top) and n, then rotates the top n elements r steps.
// A positive step moves the bottom of the window to the top; a negative
// step moves the top to the bottom. |r| >= n wraps modulo n.
func opRotNM(m *Machine, _ *Unit, _ Instruction) error {
	top, second, err := m.Stack.Pop2()
	if err != nil {
		return err
	}
	if !second.IsInt() || !top.IsInt() {
		return newError(TypeError, "cannot rotate with the type %s and %s",
			second.TypeName(), top.TypeName())
	}
	n, r := second.AsInt(), top.AsInt()
	if n < 0 {
		return newError(DomainError, "negative window size %d", n)
	}
	if n > int64(m.Stack.Len()) {
		return newError(StackUnderflow, "window of %d over stack of %d", n, m.Stack.Len())
	}
	w, err := m.Stack.Window(int(n))
	if err != nil {
		return err
	}
	RotateWindow(w, r)
	return nil
}

// RotateWindow rotates w in place. w[0] is the bottom of the window.
// It runs in O(len(w)) using three reversals.
func RotateWindow(w []Value, r int64) {
	n := int64(len(w))
	if n == 0 {
		return
	}
	k := r % n
	if k < 0 {
		k += n
	}
	if k == 0 {
		return
	}
	reverse(w[:k])
	reverse(w[k:])
	reverse(w)
}

func reverse(w []Value) {
	for i, j := 0, len(w)-1; i < j; i, j = i+1, j-1 {
		w[i], w[j] = w[j], w[i]
	}
}
