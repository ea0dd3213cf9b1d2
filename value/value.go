// Package value implements the nch data model and the low-level Value
// codec built on top of it: the self-describing Value tree, and an
// Encoder/Decoder pair that walk it against the wire format defined by
// package header, maintaining the per-message symbol table along the way.
package value

import (
	"math"
	"sort"

	"github.com/nchfmt/nch/format"
)

// Kind discriminates the variants a Value can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindF32
	KindF64
	KindBytes
	KindInt
	KindStr
	KindSymbol
	KindArray
	KindMap
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindBytes:
		return "bytes"
	case KindInt:
		return "int"
	case KindStr:
		return "str"
	case KindSymbol:
		return "symbol"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Pair is one key/value entry of a Map. Keys may be any Value, including
// floats, and duplicates are permitted; order is preserved.
type Pair struct {
	Key Value
	Val Value
}

// Field is one named entry of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is a structured value: an ordered, named set of fields. Two
// Records built from the same (name, value) set produce the same wire
// bytes regardless of construction order, because NewRecord sorts fields
// by name: a canonical field order is what lets the encoder intern a
// record's layout once and reuse it by reference on every later occurrence.
type Record struct {
	Fields []Field
}

// NewRecord builds a Record with its fields sorted by name.
func NewRecord(fields ...Field) Record {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return Record{Fields: sorted}
}

// Names returns the record's field names in emission order.
func (r Record) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}

	return names
}

// Value is the self-describing in-memory node: every Value carries its own
// Kind, so a tree can be built, inspected, and compared without a schema.
// Only the fields relevant to Kind are meaningful; the rest are zero.
type Value struct {
	Kind Kind

	Bool  bool
	F32   float32
	F64   float64
	Bytes []byte

	Sign format.Sign
	Mag  uint64

	Str string // also holds Symbol text for Kind == KindSymbol

	Array  []Value
	Map    []Pair
	Record Record
}

// Null returns the unit value.
func Null() Value { return Value{Kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// F32 wraps an IEEE-754 single.
func F32(v float32) Value { return Value{Kind: KindF32, F32: v} }

// F64 wraps an IEEE-754 double.
func F64(v float64) Value { return Value{Kind: KindF64, F64: v} }

// BytesValue wraps an opaque byte blob.
func BytesValue(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// Int builds an integer value from a sign and an absolute magnitude,
// normalizing Neg(0) to Pos(0): the wire format's negative branch stores
// magnitude-1 (a Neg header with magnitude k denotes -(k+1)), so there is
// no way to encode negative zero and no reason to keep it in memory.
func Int(sign format.Sign, magnitude uint64) Value {
	if sign == format.Neg && magnitude == 0 {
		sign = format.Pos
	}

	return Value{Kind: KindInt, Sign: sign, Mag: magnitude}
}

// IntFromInt64 converts a signed Go integer to its Int representation.
func IntFromInt64(v int64) Value {
	if v >= 0 {
		return Int(format.Pos, uint64(v))
	}
	// -(v+1) is safe from overflow for every int64 v < 0, including MinInt64;
	// adding one back gives |v|, which always fits a uint64.
	return Int(format.Neg, uint64(-(v+1))+1)
}

// IntFromUint64 converts an unsigned Go integer to its Int representation.
func IntFromUint64(v uint64) Value { return Int(format.Pos, v) }

// Int64 returns v's logical value as an int64, and whether it fits.
func (v Value) Int64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}

	if v.Sign == format.Pos {
		if v.Mag > math.MaxInt64 {
			return 0, false
		}

		return int64(v.Mag), true
	}

	// The magnitude of MinInt64 is 1<<63, one more than MaxInt64.
	if v.Mag > 1<<63 {
		return 0, false
	}

	return int64(-v.Mag), true
}

// Uint64 returns v's logical value as a uint64, and whether it fits
// (only positive Int values fit).
func (v Value) Uint64() (uint64, bool) {
	if v.Kind != KindInt || v.Sign != format.Pos {
		return 0, false
	}

	return v.Mag, true
}

// Str wraps a non-interned UTF-8 string.
func Str(s string) Value { return Value{Kind: KindStr, Str: s} }

// Symbol wraps an interned UTF-8 string.
func Symbol(s string) Value { return Value{Kind: KindSymbol, Str: s} }

// Array wraps an ordered sequence of values.
func Array(vs ...Value) Value { return Value{Kind: KindArray, Array: vs} }

// Map wraps an ordered sequence of key/value pairs.
func Map(pairs ...Pair) Value { return Value{Kind: KindMap, Map: pairs} }

// RecordValue wraps a Record.
func RecordValue(r Record) Value { return Value{Kind: KindRecord, Record: r} }

// Equal reports whether a and b are the same value. Float comparison is
// bit-exact (via math.Float32bits/Float64bits) rather than ==, so that
// distinct NaN payloads and signed zero compare the way a round trip
// through the wire format should: Neg(0) is expected to have already been
// normalized to Pos(0) by Int, so Equal does not special-case it again.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindF32:
		return math.Float32bits(a.F32) == math.Float32bits(b.F32)
	case KindF64:
		return math.Float64bits(a.F64) == math.Float64bits(b.F64)
	case KindBytes:
		return bytesEqual(a.Bytes, b.Bytes)
	case KindInt:
		return a.Sign == b.Sign && a.Mag == b.Mag
	case KindStr, KindSymbol:
		return a.Str == b.Str
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}

		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}

		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}

		for i := range a.Map {
			if !Equal(a.Map[i].Key, b.Map[i].Key) || !Equal(a.Map[i].Val, b.Map[i].Val) {
				return false
			}
		}

		return true
	case KindRecord:
		if len(a.Record.Fields) != len(b.Record.Fields) {
			return false
		}

		for i := range a.Record.Fields {
			if a.Record.Fields[i].Name != b.Record.Fields[i].Name {
				return false
			}

			if !Equal(a.Record.Fields[i].Value, b.Record.Fields[i].Value) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
