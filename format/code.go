// Package format defines the constants of the nch wire format: the header
// code space, the sign bit used by integer headers, and the length
// sub-encoding limits for each code. It holds no encode/decode logic of its
// own, deliberately separating "what the bits mean" from "how headers are
// read and written" in package header.
package format

// Code identifies which of the 13 header variants a lead byte names. It
// occupies the upper 3 bits of the lead byte, except for Int, which folds
// a sign bit into what would otherwise be Code's low bit of room, using 4
// bits of code+sign and leaving a 4-bit sz.
type Code uint8

const (
	// Bin carries Null, True, False, F32, F64, and Bytes(len); which one
	// is named by the header's sz field (see Fixed* constants below).
	Bin Code = iota
	// Int carries a signed magnitude integer; Sign names which branch.
	Int
	// Str carries a non-interned UTF-8 string.
	Str
	// Sym carries an interned UTF-8 string.
	Sym
	// Arr carries an ordered sequence of values.
	Arr
	// Rec carries a named, ordered set of fields.
	Rec
	// Map carries an ordered sequence of key/value pairs.
	Map
	// Ref carries a symbol-table index.
	Ref
)

func (c Code) String() string {
	switch c {
	case Bin:
		return "Bin"
	case Int:
		return "Int"
	case Str:
		return "Str"
	case Sym:
		return "Sym"
	case Arr:
		return "Arr"
	case Rec:
		return "Rec"
	case Map:
		return "Map"
	case Ref:
		return "Ref"
	default:
		return "Unknown"
	}
}

// Sign selects the branch of an Int header. A Neg header with magnitude k
// denotes -(k+1), so Neg(0) on the wire is -1 and zero has the single
// encoding Pos(0). The value package's Int holds an absolute magnitude
// instead, and normalizes an in-memory Neg(0) (negative zero) to Pos(0).
type Sign uint8

const (
	Pos Sign = 0
	Neg Sign = 1
)

func (s Sign) String() string {
	if s == Neg {
		return "Neg"
	}

	return "Pos"
}

// Fixed sz values reserved inside the Bin code for the non-Bytes variants.
const (
	FixedNull  = 0
	FixedTrue  = 1
	FixedFalse = 2
	FixedF32   = 3
	FixedF64   = 4
	// BinLenBase is the sz value at which Bin's inline Bytes-length range
	// starts; sz in [BinLenBase, GenericLenLimit) encodes length directly
	// as sz-BinLenBase.
	BinLenBase = 5
)

// Length/magnitude sub-encoding limits shared by the header codec.
const (
	// GenericLenLimit is the sz threshold used by Str, Sym, Arr, Rec, Map,
	// and Ref: sz < GenericLenLimit encodes the value inline; sz at or
	// above it encodes sz-(GenericLenLimit-1) trailing big-endian bytes.
	GenericLenLimit = 24
	// BinLenLimit is the number of sz values available to Bin's inline
	// Bytes length (the 5 lowest sz values are reserved for the fixed
	// variants), i.e. sz in [5, 5+19) = [5, 24).
	BinLenLimit = 19
	// IntLenLimit is the sz threshold for Int, whose sz field is only 4
	// bits wide.
	IntLenLimit = 8
)
