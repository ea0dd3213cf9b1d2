package driver

import (
	"math"

	"github.com/nchfmt/nch/errs"
	"github.com/nchfmt/nch/format"
	"github.com/nchfmt/nch/header"
	"github.com/nchfmt/nch/internal/buffer"
	"github.com/nchfmt/nch/internal/intern"
)

// UnknownLength is passed to BeginSeq or BeginMap by a host that cannot
// determine its element count up front (e.g. serializing from an iterator).
// Both reject it: every Arr and Map header carries its count before any
// element, so an unknown length can never be emitted.
const UnknownLength = -1

// Serializer receives data-model events in the order a host framework's
// own walk produces them and writes the corresponding wire bytes. A
// Serializer is single-use: create one per top-level message.
type Serializer struct {
	buf *buffer.Buffer
	tbl *intern.EncodeTable
}

// NewSerializer returns a Serializer with a fresh symbol table, writing
// into a pooled buffer. Call Bytes to read the result, then Release when
// done.
func NewSerializer() *Serializer {
	return &Serializer{buf: buffer.Get(), tbl: intern.NewEncodeTable()}
}

// Bytes returns the wire bytes written so far. The returned slice is only
// valid until the Serializer is reused or released.
func (s *Serializer) Bytes() []byte { return s.buf.Bytes() }

// Release returns the Serializer's buffer to the shared pool. The
// Serializer must not be used afterward.
func (s *Serializer) Release() { buffer.Put(s.buf) }

// Bool emits a True/False header.
func (s *Serializer) Bool(b bool) error {
	s.buf.B = header.AppendBool(s.buf.B, b)
	return nil
}

// I64 emits a signed integer, folding sign into the wire's Pos/Neg split:
// negative v encodes as Neg(-(v+1)), and -0 never arises because Go's
// int64 has no signed zero.
func (s *Serializer) I64(v int64) error {
	if v >= 0 {
		return s.appendInt(format.Pos, uint64(v))
	}

	return s.appendInt(format.Neg, uint64(-(v + 1)))
}

// U64 emits an unsigned integer.
func (s *Serializer) U64(v uint64) error { return s.appendInt(format.Pos, v) }

// I8, I16, and I32 narrow to I64: the wire format has no width distinction,
// only a sign bit and a magnitude, so every signed integer width shares one
// encoding. These exist so a host walking a data model with width-specific
// fields (the capability set names i8..i64 separately) has a matching call
// for each one without narrowing by hand at every call site.
func (s *Serializer) I8(v int8) error   { return s.I64(int64(v)) }
func (s *Serializer) I16(v int16) error { return s.I64(int64(v)) }
func (s *Serializer) I32(v int32) error { return s.I64(int64(v)) }

// U8, U16, and U32 narrow to U64, for the same reason as I8/I16/I32.
func (s *Serializer) U8(v uint8) error   { return s.U64(uint64(v)) }
func (s *Serializer) U16(v uint16) error { return s.U64(uint64(v)) }
func (s *Serializer) U32(v uint32) error { return s.U64(uint64(v)) }

func (s *Serializer) appendInt(sign format.Sign, mag uint64) error {
	s.buf.B = header.AppendInt(s.buf.B, sign, mag)

	return nil
}

// F32 emits an IEEE-754 single.
func (s *Serializer) F32(v float32) error {
	s.buf.B = header.AppendF32(s.buf.B, math.Float32bits(v))
	return nil
}

// F64 emits an IEEE-754 double.
func (s *Serializer) F64(v float64) error {
	s.buf.B = header.AppendF64(s.buf.B, math.Float64bits(v))
	return nil
}

// Char emits a single rune as a one-character Str.
func (s *Serializer) Char(r rune) error { return s.Str(string(r)) }

// Str emits a non-interned UTF-8 string.
func (s *Serializer) Str(v string) error {
	b := []byte(v)
	s.buf.B = header.AppendStr(s.buf.B, uint64(len(b)))
	s.buf.B = append(s.buf.B, b...)

	return nil
}

// Blob emits an opaque byte blob (the data model's bytes event), never
// reinterpreted as a sequence.
func (s *Serializer) Blob(b []byte) error {
	s.buf.B = header.AppendBytesHeader(s.buf.B, uint64(len(b)))
	s.buf.B = append(s.buf.B, b...)

	return nil
}

// None emits the Null header standing in for the absence of an Option.
func (s *Serializer) None() error {
	s.buf.B = header.AppendNull(s.buf.B)
	return nil
}

// Unit and UnitStruct both have no payload; the host calls this for
// either event.
func (s *Serializer) Unit() error {
	s.buf.B = header.AppendNull(s.buf.B)
	return nil
}

// UnitVariant emits the variant name as an interned Symbol.
func (s *Serializer) UnitVariant(_ /*name*/ string, variant string) error {
	return s.symbol(variant)
}

// BeginNewtypeVariant emits the record wrapper for a newtype-variant event;
// the host follows with exactly one call encoding the wrapped value.
func (s *Serializer) BeginNewtypeVariant(name, variant string) error {
	return s.beginVariantRecord(name, variant)
}

// BeginTupleVariant emits the record wrapper plus the inner Arr(len)
// header; the host follows with len calls encoding the elements.
func (s *Serializer) BeginTupleVariant(name, variant string, length int) error {
	if err := s.beginVariantRecord(name, variant); err != nil {
		return err
	}

	return s.BeginSeq(length)
}

// BeginStructVariant emits the record wrapper plus the inner struct's
// Rec/Ref header; the host follows with len calls encoding field values in
// fieldNames order.
func (s *Serializer) BeginStructVariant(name, variant string, fieldNames []string) error {
	if err := s.beginVariantRecord(name, variant); err != nil {
		return err
	}

	return s.BeginStruct(fieldNames)
}

func (s *Serializer) beginVariantRecord(_ /*name*/ string, variant string) error {
	return s.BeginStruct([]string{variant})
}

// BeginSeq emits an Arr(len) header for a seq, tuple, or tuple-struct
// event; the host follows with length calls encoding the elements. length
// must be known up front (pass UnknownLength to get the rejection
// documented for this case, rather than a silently wrong header).
func (s *Serializer) BeginSeq(length int) error {
	if length == UnknownLength {
		return errs.UnknownLength()
	}
	s.buf.B = header.AppendArr(s.buf.B, uint64(length))
	return nil
}

// BeginMap emits a Map(len) header; the host follows with length pairs of
// calls encoding key then value. Same UnknownLength handling as BeginSeq.
func (s *Serializer) BeginMap(length int) error {
	if length == UnknownLength {
		return errs.UnknownLength()
	}
	s.buf.B = header.AppendMap(s.buf.B, uint64(length))
	return nil
}

// BeginStruct emits the Rec/Ref header for a struct event: a Rec(len) plus
// field-name Sym/Ref headers on the layout's first occurrence, or a single
// Ref to the previously interned layout thereafter. The host follows with
// len calls encoding field values in fieldNames order.
func (s *Serializer) BeginStruct(fieldNames []string) error {
	if idx, ok := s.tbl.LookupLayout(fieldNames); ok {
		s.buf.B = header.AppendRef(s.buf.B, uint64(idx))
		return nil
	}

	_, keyIdx, keyFirst := s.tbl.NewLayout(fieldNames)
	s.buf.B = header.AppendRec(s.buf.B, uint64(len(fieldNames)))

	for i, name := range fieldNames {
		if keyFirst[i] {
			b := []byte(name)
			s.buf.B = header.AppendSym(s.buf.B, uint64(len(b)))
			s.buf.B = append(s.buf.B, b...)
		} else {
			s.buf.B = header.AppendRef(s.buf.B, uint64(keyIdx[i]))
		}
	}

	return nil
}

// Symbol emits an interned UTF-8 string: the text on first occurrence, a
// Ref to it thereafter.
func (s *Serializer) Symbol(v string) error { return s.symbol(v) }

func (s *Serializer) symbol(text string) error {
	idx, first := s.tbl.InternSymbol(text)
	if first {
		b := []byte(text)
		s.buf.B = header.AppendSym(s.buf.B, uint64(len(b)))
		s.buf.B = append(s.buf.B, b...)

		return nil
	}

	s.buf.B = header.AppendRef(s.buf.B, uint64(idx))

	return nil
}

