// Package dist implements the binary interchange format for Noc bytecode
// units. A unit is encoded as a short magic/version header followed by a
// canonical CBOR document, so the same unit always produces the same bytes
// and therefore the same content hash.
package dist

// Magic opens every encoded unit.
const Magic = "NOCB"

// Version is the current wire format version.
const Version byte = 1

// wireKind tags a wire value. The numbering is part of the format.
type wireKind uint8

const (
	wireInt    wireKind = 1
	wireFloat  wireKind = 2
	wireBool   wireKind = 3
	wireChar   wireKind = 4
	wireString wireKind = 5
	wireQuote  wireKind = 6
	wireSym    wireKind = 7
)

// wireUnit is the CBOR document that follows the header.
type wireUnit struct {
	Constants []wireValue  `cbor:"1,keyasint,omitempty"`
	Symbols   []wireSymbol `cbor:"2,keyasint,omitempty"`
	Code      []wireInstr  `cbor:"3,keyasint,omitempty"`
}

// wireValue carries one value. Scalars keep their raw 64-bit pattern in
// Bits so floats round-trip exactly (including -0 and NaN payloads).
type wireValue struct {
	Kind  wireKind    `cbor:"1,keyasint"`
	Bits  uint64      `cbor:"2,keyasint,omitempty"` // int, float, bool, char
	Str   []byte      `cbor:"3,keyasint,omitempty"` // string bytes
	Elems []wireValue `cbor:"4,keyasint,omitempty"` // quote elements
	Sym   int         `cbor:"5,keyasint,omitempty"` // symbol table index
}

// wireSymbol is one symbol table entry.
type wireSymbol struct {
	Name      string    `cbor:"1,keyasint"`
	Kind      uint8     `cbor:"2,keyasint"`
	Instr     wireInstr `cbor:"3,keyasint"`
	Entry     int       `cbor:"4,keyasint,omitempty"`
	Primitive string    `cbor:"5,keyasint,omitempty"`
}

// wireInstr is encoded as a two-element array to keep code compact.
type wireInstr struct {
	_       struct{} `cbor:",toarray"`
	Op      uint8
	Operand int
}
