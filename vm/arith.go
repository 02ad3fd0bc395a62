package vm

import "math"

// opArithmetic pops top then second and pushes second OP top.
func opArithmetic(m *Machine, _ *Unit, ins Instruction) error {
	top, second, err := m.Stack.Pop2()
	if err != nil {
		return err
	}
	res, err := Arithmetic(ins.Op, second, top)
	if err != nil {
		return err
	}
	return m.Stack.Push(res)
}

// Arithmetic computes second OP top for an arithmetic or comparison opcode.
// If either operand is a Float both are computed as float64; comparisons
// always produce a Bool.
func Arithmetic(op Opcode, second, top Value) (Value, error) {
	if !second.IsNumeric() || !top.IsNumeric() {
		return Value{}, operandTypeError(op, second, top)
	}
	if second.IsInt() && top.IsInt() {
		return intArithmetic(op, second.AsInt(), top.AsInt())
	}
	return floatArithmetic(op, second.toFloat(), top.toFloat())
}

func intArithmetic(op Opcode, a, b int64) (Value, error) {
	switch op {
	case OpAdd:
		return Int(a + b), nil
	case OpSub:
		return Int(a - b), nil
	case OpMul:
		return Int(a * b), nil
	case OpDiv:
		if b == 0 {
			return Value{}, newError(DivisionByZero, "integer division of %d by zero", a)
		}
		return Int(a / b), nil
	case OpExp:
		return intPow(a, b)
	case OpEqual:
		return Bool(a == b), nil
	case OpGreater:
		return Bool(a > b), nil
	case OpLess:
		return Bool(a < b), nil
	case OpGreaterEq:
		return Bool(a >= b), nil
	case OpLessEq:
		return Bool(a <= b), nil
	}
	return Value{}, newError(InvalidOpcode, "%s is not an arithmetic operator", op)
}

func floatArithmetic(op Opcode, a, b float64) (Value, error) {
	switch op {
	case OpAdd:
		return Float(a + b), nil
	case OpSub:
		return Float(a - b), nil
	case OpMul:
		return Float(a * b), nil
	case OpDiv:
		return Float(a / b), nil
	case OpExp:
		return Float(math.Pow(a, b)), nil
	case OpEqual:
		return Bool(a == b), nil
	case OpGreater:
		return Bool(a > b), nil
	case OpLess:
		return Bool(a < b), nil
	case OpGreaterEq:
		return Bool(a >= b), nil
	case OpLessEq:
		return Bool(a <= b), nil
	}
	return Value{}, newError(InvalidOpcode, "%s is not an arithmetic operator", op)
}

// intPow returns base**exp truncated toward zero. Non-negative exponents
// are exact (wrapping on overflow like the other integer operators).
func intPow(base, exp int64) (Value, error) {
	if exp < 0 {
		switch base {
		case 0:
			return Value{}, newError(DivisionByZero, "0 raised to negative power %d", exp)
		case 1:
			return Int(1), nil
		case -1:
			if exp%2 == 0 {
				return Int(1), nil
			}
			return Int(-1), nil
		default:
			return Int(0), nil
		}
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return Int(result), nil
}

// opEqual is the generic ==. Strings compare by identity, chars and bools
// by value, numbers through the arithmetic engine; any other pairing is
// false.
func opEqual(m *Machine, u *Unit, ins Instruction) error {
	top, second, err := m.Stack.Pop2()
	if err != nil {
		return err
	}
	switch {
	case second.IsString() && top.IsString():
		return m.Stack.Push(Bool(Identical(second, top)))
	case second.IsChar() && top.IsChar():
		return m.Stack.Push(Bool(second.AsChar() == top.AsChar()))
	case second.IsBool() && top.IsBool():
		return m.Stack.Push(Bool(second.AsBool() == top.AsBool()))
	case second.IsNumeric() && top.IsNumeric():
		if err := m.Stack.Push(second); err != nil {
			return err
		}
		if err := m.Stack.Push(top); err != nil {
			return err
		}
		return opArithmetic(m, u, Instruction{Op: OpEqual})
	default:
		return m.Stack.Push(Bool(false))
	}
}

// opBoolean implements and/or over two Bools.
func opBoolean(m *Machine, _ *Unit, ins Instruction) error {
	top, second, err := m.Stack.Pop2()
	if err != nil {
		return err
	}
	if !second.IsBool() || !top.IsBool() {
		return newError(TypeError, "cannot call '%s' function with the %s value and %s value",
			ins.Op.Spelling(), second.TypeName(), top.TypeName())
	}
	a, b := second.AsBool(), top.AsBool()
	if ins.Op == OpAnd {
		return m.Stack.Push(Bool(a && b))
	}
	return m.Stack.Push(Bool(a || b))
}
