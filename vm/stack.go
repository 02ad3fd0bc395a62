package vm

// Initial sizes for the operand stack.
const (
	DefaultStackSize = 1024
	MaxStackSize     = 1024 * 1024 // 1M elements
)

// Stack is the operand stack: a growable array of values with a cursor one
// past the top. Element addresses are not stable across Push.
type Stack struct {
	items  []Value
	cursor int
	max    int
}

// NewStack creates a stack with the given initial capacity and hard
// maximum. A limit of 0 means MaxStackSize.
func NewStack(size, limit int) *Stack {
	if limit <= 0 {
		limit = MaxStackSize
	}
	if size <= 0 {
		size = DefaultStackSize
	}
	return &Stack{items: make([]Value, min(size, limit)), max: limit}
}

// Len returns the number of live elements (the cursor).
func (s *Stack) Len() int { return s.cursor }

// Cap returns the hard maximum number of elements.
func (s *Stack) Cap() int { return s.max }

// Push adds v on top, growing the backing array when needed.
func (s *Stack) Push(v Value) error {
	if s.cursor >= len(s.items) {
		if s.cursor >= s.max {
			return newError(StackOverflow, "stack overflow: %d elements", s.cursor)
		}
		// Grow by doubling, capped at max
		n := max(len(s.items)*2, 1)
		grown := make([]Value, min(n, s.max))
		copy(grown, s.items[:s.cursor])
		s.items = grown
	}
	s.items[s.cursor] = v
	s.cursor++
	return nil
}

// Pop removes and returns the top element.
func (s *Stack) Pop() (Value, error) {
	if s.cursor == 0 {
		return Value{}, newError(StackUnderflow, "pop from empty stack")
	}
	s.cursor--
	v := s.items[s.cursor]
	s.items[s.cursor] = Value{}
	return v, nil
}

// Pop2 pops top, then second. Nothing is removed if fewer than two
// elements are present.
func (s *Stack) Pop2() (top, second Value, err error) {
	if s.cursor < 2 {
		return Value{}, Value{}, newError(StackUnderflow, "need 2 elements, have %d", s.cursor)
	}
	top, _ = s.Pop()
	second, _ = s.Pop()
	return top, second, nil
}

// Peek returns the top element without removing it.
func (s *Stack) Peek() (Value, error) {
	if s.cursor == 0 {
		return Value{}, newError(StackUnderflow, "peek on empty stack")
	}
	return s.items[s.cursor-1], nil
}

// Clear empties the stack, dropping every reference it held.
func (s *Stack) Clear() {
	clear(s.items[:s.cursor])
	s.cursor = 0
}

// At returns the element at index i, counted from the bottom.
func (s *Stack) At(i int) (Value, error) {
	if i < 0 || i >= s.cursor {
		return Value{}, newError(StackUnderflow, "index %d outside stack of %d", i, s.cursor)
	}
	return s.items[i], nil
}

// Set overwrites the element at index i, counted from the bottom.
func (s *Stack) Set(i int, v Value) error {
	if i < 0 || i >= s.cursor {
		return newError(StackUnderflow, "index %d outside stack of %d", i, s.cursor)
	}
	s.items[i] = v
	return nil
}

// Window returns the top n elements, bottom to top, as a slice aliasing
// the stack. It is valid until the next Push.
func (s *Stack) Window(n int) ([]Value, error) {
	if n < 0 {
		return nil, newError(DomainError, "negative window size %d", n)
	}
	if n > s.cursor {
		return nil, newError(StackUnderflow, "window of %d over stack of %d", n, s.cursor)
	}
	return s.items[s.cursor-n : s.cursor], nil
}

// popN removes the top n elements and returns them bottom to top in a new
// slice. The stack is unchanged on error.
func (s *Stack) popN(n int) ([]Value, error) {
	w, err := s.Window(n)
	if err != nil {
		return nil, err
	}
	out := make([]Value, n)
	copy(out, w)
	clear(w)
	s.cursor -= n
	return out, nil
}

// Values returns a copy of the live elements, bottom to top.
func (s *Stack) Values() []Value {
	out := make([]Value, s.cursor)
	copy(out, s.items[:s.cursor])
	return out
}
