package dist

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/chazu/noc/vm"
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical options so encoding is deterministic.
var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

// maxQuoteNesting bounds how deeply quote literals may nest in a unit.
const maxQuoteNesting = 256

// maxCBORNesting covers a unit at maxQuoteNesting: the unit map, the
// constants array, two levels per quote (map and elements), and the
// innermost value's map.
const maxCBORNesting = 2*maxQuoteNesting + 4

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dist: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{MaxNestedLevels: maxCBORNesting}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("dist: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

var (
	// ErrBadMagic is returned for data that does not start with Magic.
	ErrBadMagic = errors.New("dist: not a noc unit")
	// ErrVersion is returned for an unsupported format version.
	ErrVersion = errors.New("dist: unsupported unit version")
)

// Hash is the content address of an encoded unit.
type Hash [32]byte

// String returns the hash in lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex digits, for log lines.
func (h Hash) Short() string {
	return h.String()[:12]
}

// ParseHash parses a 64-digit hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("dist: parse hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("dist: parse hash: want %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// HashBytes returns the content address of already encoded data.
func HashBytes(data []byte) Hash {
	return sha256.Sum256(data)
}

// UnitHash encodes u and returns its content address.
func UnitHash(u *vm.Unit) (Hash, error) {
	data, err := MarshalUnit(u)
	if err != nil {
		return Hash{}, err
	}
	return HashBytes(data), nil
}

// MarshalUnit serializes a unit: header followed by canonical CBOR.
func MarshalUnit(u *vm.Unit) ([]byte, error) {
	w, err := toWire(u)
	if err != nil {
		return nil, fmt.Errorf("dist: marshal unit: %w", err)
	}
	body, err := cborEncMode.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("dist: marshal unit: %w", err)
	}
	out := make([]byte, 0, len(Magic)+1+len(body))
	out = append(out, Magic...)
	out = append(out, Version)
	return append(out, body...), nil
}

// UnmarshalUnit deserializes and validates a unit.
func UnmarshalUnit(data []byte) (*vm.Unit, error) {
	if len(data) < len(Magic)+1 || !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return nil, ErrBadMagic
	}
	if v := data[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	var w wireUnit
	if err := cborDecMode.Unmarshal(data[len(Magic)+1:], &w); err != nil {
		return nil, fmt.Errorf("dist: unmarshal unit: %w", err)
	}
	u, err := fromWire(&w)
	if err != nil {
		return nil, fmt.Errorf("dist: unmarshal unit: %w", err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("dist: invalid unit: %w", err)
	}
	return u, nil
}

// VerifyUnit decodes data and checks that it hashes to want.
func VerifyUnit(data []byte, want Hash) (*vm.Unit, error) {
	if got := HashBytes(data); got != want {
		return nil, fmt.Errorf("dist: hash mismatch: declared %s, computed %s", want, got)
	}
	return UnmarshalUnit(data)
}

func toWire(u *vm.Unit) (*wireUnit, error) {
	symIndex := make(map[*vm.Symbol]int, len(u.Symbols))
	w := &wireUnit{
		Symbols: make([]wireSymbol, len(u.Symbols)),
		Code:    make([]wireInstr, len(u.Code)),
	}
	for i := range u.Symbols {
		s := &u.Symbols[i]
		symIndex[s] = i
		w.Symbols[i] = wireSymbol{
			Name:      s.Name,
			Kind:      uint8(s.Kind),
			Instr:     wireInstr{Op: uint8(s.Instr.Op), Operand: s.Instr.Operand},
			Entry:     s.Entry,
			Primitive: s.Primitive,
		}
	}
	for i, ins := range u.Code {
		w.Code[i] = wireInstr{Op: uint8(ins.Op), Operand: ins.Operand}
	}
	w.Constants = make([]wireValue, len(u.Constants))
	for i, c := range u.Constants {
		wv, err := valueToWire(c, symIndex, 0)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		w.Constants[i] = wv
	}
	return w, nil
}

func valueToWire(v vm.Value, symIndex map[*vm.Symbol]int, depth int) (wireValue, error) {
	switch v.Kind() {
	case vm.KindInt:
		return wireValue{Kind: wireInt, Bits: uint64(v.AsInt())}, nil
	case vm.KindFloat:
		return wireValue{Kind: wireFloat, Bits: math.Float64bits(v.AsFloat())}, nil
	case vm.KindBool:
		var b uint64
		if v.AsBool() {
			b = 1
		}
		return wireValue{Kind: wireBool, Bits: b}, nil
	case vm.KindChar:
		r := v.AsChar()
		if r < 0 || r > utf8.MaxRune {
			return wireValue{}, fmt.Errorf("char code %d out of range", r)
		}
		return wireValue{Kind: wireChar, Bits: uint64(r)}, nil
	case vm.KindString:
		return wireValue{Kind: wireString, Str: []byte(v.AsString())}, nil
	case vm.KindQuote:
		if depth >= maxQuoteNesting {
			return wireValue{}, fmt.Errorf("quote nested deeper than %d", maxQuoteNesting)
		}
		elems := v.AsQuote()
		wv := wireValue{Kind: wireQuote, Elems: make([]wireValue, len(elems))}
		for i, e := range elems {
			we, err := valueToWire(e, symIndex, depth+1)
			if err != nil {
				return wireValue{}, err
			}
			wv.Elems[i] = we
		}
		return wv, nil
	case vm.KindSymbol:
		idx, ok := symIndex[v.AsSymbol()]
		if !ok {
			return wireValue{}, fmt.Errorf("symbol %s is not in the unit's table", v.AsSymbol().Name)
		}
		return wireValue{Kind: wireSym, Sym: idx}, nil
	default:
		return wireValue{}, fmt.Errorf("cannot encode a %s value", v.TypeName())
	}
}

func fromWire(w *wireUnit) (*vm.Unit, error) {
	u := &vm.Unit{
		Symbols: make([]vm.Symbol, len(w.Symbols)),
		Code:    make([]vm.Instruction, len(w.Code)),
	}
	for i, s := range w.Symbols {
		u.Symbols[i] = vm.Symbol{
			Name:      s.Name,
			Kind:      vm.SymbolKind(s.Kind),
			Instr:     vm.Instruction{Op: vm.Opcode(s.Instr.Op), Operand: s.Instr.Operand},
			Entry:     s.Entry,
			Primitive: s.Primitive,
		}
	}
	for i, ins := range w.Code {
		u.Code[i] = vm.Instruction{Op: vm.Opcode(ins.Op), Operand: ins.Operand}
	}
	// Constants last: symbol values point into the table built above.
	u.Constants = make([]vm.Value, len(w.Constants))
	for i, c := range w.Constants {
		v, err := valueFromWire(c, u, 0)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		u.Constants[i] = v
	}
	return u, nil
}

func valueFromWire(w wireValue, u *vm.Unit, depth int) (vm.Value, error) {
	switch w.Kind {
	case wireInt:
		return vm.Int(int64(w.Bits)), nil
	case wireFloat:
		return vm.Float(math.Float64frombits(w.Bits)), nil
	case wireBool:
		return vm.Bool(w.Bits != 0), nil
	case wireChar:
		if w.Bits > utf8.MaxRune {
			return vm.Value{}, fmt.Errorf("char code %d out of range", w.Bits)
		}
		return vm.Char(rune(w.Bits)), nil
	case wireString:
		return vm.Str(string(w.Str)), nil
	case wireQuote:
		if depth >= maxQuoteNesting {
			return vm.Value{}, fmt.Errorf("quote nested deeper than %d", maxQuoteNesting)
		}
		elems := make([]vm.Value, len(w.Elems))
		for i, e := range w.Elems {
			v, err := valueFromWire(e, u, depth+1)
			if err != nil {
				return vm.Value{}, err
			}
			elems[i] = v
		}
		return vm.NewQuote(elems), nil
	case wireSym:
		sym, err := u.Symbol(w.Sym)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.SymbolRef(sym), nil
	default:
		return vm.Value{}, fmt.Errorf("unknown value kind %d", w.Kind)
	}
}
