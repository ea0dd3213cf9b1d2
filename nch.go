// Package nch implements the nch self-describing binary serialization
// format: a compact alternative to JSON or self-describing MessagePack
// that interns repeated symbols and record field-name layouts into an
// implicit per-message symbol table, so no schema needs to ship alongside
// the data.
//
// # Core Features
//
//   - A self-describing Value tree (Null, Bool, F32/F64, Bytes, Int, Str,
//     Symbol, Array, Map, Record) with bit-exact float round-tripping.
//   - Per-message symbol and record-layout interning, so repeated enum
//     tags and struct field-name lists cost a single Ref header after their
//     first occurrence (one byte for the first 24 table entries).
//   - Zero-copy decode: strings and byte blobs borrow from the input
//     buffer unless the caller asks for owned copies.
//   - A lower-level, event-driven driver (package driver) for bridging a
//     host framework's own typed data model onto the wire format without
//     going through the Value tree.
//
// # Basic Usage
//
// Encoding and decoding a Value tree:
//
//	import "github.com/nchfmt/nch"
//
//	v := nch.RecordValue(nch.NewRecord(
//	    nch.Field{Name: "name", Value: nch.Str("Tom")},
//	    nch.Field{Name: "species", Value: nch.Symbol("cat")},
//	))
//
//	var buf bytes.Buffer
//	if _, err := nch.Marshal(v, &buf); err != nil {
//	    // handle error
//	}
//
//	got, err := nch.Unmarshal(buf.Bytes())
//
// # Package Structure
//
// This package re-exports the value package's data model and provides
// thin Marshal/Unmarshal wrappers around its Encoder/Decoder. For the
// event-driven driver used to bridge a host framework's typed model
// directly onto the wire format, use package driver.
package nch

import (
	"io"

	"github.com/nchfmt/nch/value"
)

// Re-exported data model: callers build and inspect messages through
// these without importing package value directly.
type (
	Value  = value.Value
	Kind   = value.Kind
	Pair   = value.Pair
	Field  = value.Field
	Record = value.Record
)

// Kind constants.
const (
	KindNull   = value.KindNull
	KindBool   = value.KindBool
	KindF32    = value.KindF32
	KindF64    = value.KindF64
	KindBytes  = value.KindBytes
	KindInt    = value.KindInt
	KindStr    = value.KindStr
	KindSymbol = value.KindSymbol
	KindArray  = value.KindArray
	KindMap    = value.KindMap
	KindRecord = value.KindRecord
)

// Constructors, re-exported for convenience.
var (
	Null          = value.Null
	Bool          = value.Bool
	F32           = value.F32
	F64           = value.F64
	BytesValue    = value.BytesValue
	Int           = value.Int
	IntFromInt64  = value.IntFromInt64
	IntFromUint64 = value.IntFromUint64
	Str           = value.Str
	Symbol        = value.Symbol
	Array         = value.Array
	Map           = value.Map
	RecordValue   = value.RecordValue
	NewRecord     = value.NewRecord
	Equal         = value.Equal
)

// Marshal encodes v to w using a fresh Encoder and symbol table, and
// returns the number of bytes written.
func Marshal(v Value, w io.Writer) (int, error) {
	return value.NewEncoder().Encode(v, w)
}

// Unmarshal decodes a single top-level value from buf, requiring that it
// consume the entire buffer. Returned strings and byte slices are owned
// copies, safe to keep past buf's lifetime; use UnmarshalBorrowed to avoid
// the copy when buf will outlive the result.
func Unmarshal(buf []byte) (Value, error) {
	return value.NewCopyDecoder(buf).DecodeMessage()
}

// UnmarshalBorrowed decodes like Unmarshal, but returned strings and byte
// slices borrow directly from buf instead of being copied. The result is
// only valid as long as buf is not reused or mutated.
func UnmarshalBorrowed(buf []byte) (Value, error) {
	return value.NewDecoder(buf).DecodeMessage()
}
