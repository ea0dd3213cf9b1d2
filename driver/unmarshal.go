package driver

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
	"unsafe"

	"github.com/nchfmt/nch/errs"
	"github.com/nchfmt/nch/format"
	"github.com/nchfmt/nch/header"
	"github.com/nchfmt/nch/internal/intern"
)

const minElemBytes = 1

// Visitor is the capability set a host framework implements to receive
// decoded events, mirroring Serializer's event set from the other
// direction. Exactly one method is called per value DecodeAny consumes.
type Visitor interface {
	VisitNull() error
	VisitBool(b bool) error
	VisitF32(v float32) error
	VisitF64(v float64) error
	VisitBytes(b []byte) error
	VisitInt(sign format.Sign, magnitude uint64) error
	VisitStr(s string) error
	VisitSymbol(s string) error
	VisitSeq(count int, items *SeqAccess) error
	VisitMap(count int, items *MapAccess) error
	VisitRecord(fieldNames []string, items *RecordAccess) error
}

// OptionVisitor is the capability set for decoding an Option field:
// VisitSome returns the Visitor that receives the wrapped value.
type OptionVisitor interface {
	VisitNone() error
	VisitSome() (Visitor, error)
}

// EnumVisitor is the capability set for decoding an enum discrimination.
// VisitVariant returns the Visitor that receives the variant's payload.
type EnumVisitor interface {
	VisitUnitVariant(variant string) error
	VisitVariant(variant string) (Visitor, error)
}

// Deserializer consumes a byte buffer header-by-header and drives a
// Visitor, maintaining the decode-side symbol table.
type Deserializer struct {
	tbl intern.DecodeTable
	buf []byte
	pos int
}

// NewDeserializer returns a Deserializer positioned at the start of buf.
func NewDeserializer(buf []byte) *Deserializer {
	return &Deserializer{buf: buf}
}

// Pos reports the deserializer's current byte offset.
func (d *Deserializer) Pos() int { return d.pos }

// Len reports the total buffer length.
func (d *Deserializer) Len() int { return len(d.buf) }

// DecodeAny reads one header and dispatches to the matching Visitor
// method, recursing into Seq/Map/Record via the accompanying Access types.
func (d *Deserializer) DecodeAny(v Visitor) error {
	start := d.pos
	h, n, err := header.ReadHeader(d.buf[d.pos:])
	if err != nil {
		return errs.AtOffset(start, err)
	}
	d.pos += n

	if err := d.dispatch(h, v); err != nil {
		return errs.AtOffset(start, err)
	}

	return nil
}

func (d *Deserializer) dispatch(h header.Header, v Visitor) error {
	switch h.Code {
	case format.Bin:
		return d.dispatchBin(h, v)
	case format.Int:
		return v.VisitInt(h.Sign, h.N)
	case format.Str:
		s, err := d.readStringPayload(h.N)
		if err != nil {
			return err
		}

		return v.VisitStr(s)
	case format.Sym:
		s, err := d.readStringPayload(h.N)
		if err != nil {
			return err
		}
		d.tbl.PushSymbol(s)

		return v.VisitSymbol(s)
	case format.Arr:
		count, err := d.reserveCount(h.N, minElemBytes)
		if err != nil {
			return err
		}

		return v.VisitSeq(count, &SeqAccess{d: d, remaining: count})
	case format.Map:
		count, err := d.reserveCount(h.N, 2*minElemBytes)
		if err != nil {
			return err
		}

		return v.VisitMap(count, &MapAccess{d: d, remaining: count})
	case format.Rec:
		names, keyIdx, err := d.readRecordKeys(h.N)
		if err != nil {
			return err
		}
		d.tbl.PushLayout(keyIdx)

		return v.VisitRecord(names, &RecordAccess{d: d, names: names})
	case format.Ref:
		return d.dispatchRef(h, v)
	default:
		return errs.UnexpectedHeader([]string{"any"}, h.Code.String())
	}
}

func (d *Deserializer) dispatchBin(h header.Header, v Visitor) error {
	if h.Fixed {
		switch h.FixedTag {
		case format.FixedNull:
			return v.VisitNull()
		case format.FixedTrue:
			return v.VisitBool(true)
		case format.FixedFalse:
			return v.VisitBool(false)
		case format.FixedF32:
			b, err := d.takeExact(4)
			if err != nil {
				return err
			}

			return v.VisitF32(math.Float32frombits(binary.BigEndian.Uint32(b)))
		case format.FixedF64:
			b, err := d.takeExact(8)
			if err != nil {
				return err
			}

			return v.VisitF64(math.Float64frombits(binary.BigEndian.Uint64(b)))
		default:
			return errs.UnexpectedHeader([]string{"null", "bool", "f32", "f64", "bytes"}, "reserved-fixed-tag")
		}
	}

	b, err := d.reserveBytes(h.N)
	if err != nil {
		return err
	}

	return v.VisitBytes(b)
}

func (d *Deserializer) dispatchRef(h header.Header, v Visitor) error {
	e, ok := d.tbl.Get(h.N)
	if !ok {
		return errs.InvalidRef(h.N)
	}

	switch e.Kind {
	case intern.SymKind:
		return v.VisitSymbol(e.Text)
	case intern.RecKind:
		names := d.tbl.Names(e.Layout)
		return v.VisitRecord(names, &RecordAccess{d: d, names: names})
	default:
		return errs.UnexpectedRefable("symbol or layout", "unknown")
	}
}

// DecodeOption decodes an Option field: Null yields VisitNone, anything
// else yields VisitSome followed by decoding the wrapped value into the
// Visitor VisitSome returns.
func (d *Deserializer) DecodeOption(v OptionVisitor) error {
	if len(d.buf)-d.pos == 0 {
		return errs.AtOffset(d.pos, errs.Eof())
	}

	if d.buf[d.pos] == 0x00 { // the fixed Null header's one and only encoding
		d.pos++
		return v.VisitNone()
	}

	inner, err := v.VisitSome()
	if err != nil {
		return err
	}

	return d.DecodeAny(inner)
}

// DecodeEnum decodes an enum discrimination: a bare Sym/Str/Ref-to-Sym
// names a unit variant; a length-1 record names a variant carrying a
// payload.
func (d *Deserializer) DecodeEnum(v EnumVisitor) error {
	start := d.pos
	h, n, err := header.ReadHeader(d.buf[d.pos:])
	if err != nil {
		return errs.AtOffset(start, err)
	}
	d.pos += n

	switch h.Code {
	case format.Sym, format.Str:
		s, err := d.readStringPayload(h.N)
		if err != nil {
			return errs.AtOffset(start, err)
		}
		if h.Code == format.Sym {
			d.tbl.PushSymbol(s)
		}

		return v.VisitUnitVariant(s)

	case format.Ref:
		e, ok := d.tbl.Get(h.N)
		if !ok {
			return errs.AtOffset(start, errs.InvalidRef(h.N))
		}
		switch e.Kind {
		case intern.SymKind:
			return v.VisitUnitVariant(e.Text)
		case intern.RecKind:
			return d.decodeEnumRecord(d.tbl.Names(e.Layout), v)
		}

		return errs.AtOffset(start, errs.UnexpectedRefable("symbol or layout", "unknown"))

	case format.Rec:
		names, keyIdx, err := d.readRecordKeys(h.N)
		if err != nil {
			return errs.AtOffset(start, err)
		}
		d.tbl.PushLayout(keyIdx)

		return d.decodeEnumRecord(names, v)

	default:
		return errs.AtOffset(start, errs.UnexpectedHeader([]string{"symbol", "record"}, h.Code.String()))
	}
}

func (d *Deserializer) decodeEnumRecord(names []string, v EnumVisitor) error {
	if len(names) != 1 {
		return errs.UnexpectedHeader([]string{"record of length 1"}, "record")
	}

	inner, err := v.VisitVariant(names[0])
	if err != nil {
		return err
	}

	return d.DecodeAny(inner)
}

// IgnoredAny decodes and discards one value, recursing into its children.
func (d *Deserializer) IgnoredAny() error { return d.DecodeAny(ignoreVisitor{}) }

// SeqAccess lets a Visitor pull Arr elements one at a time, in order.
type SeqAccess struct {
	d         *Deserializer
	remaining int
}

// Len reports how many elements remain unread.
func (s *SeqAccess) Len() int { return s.remaining }

// Next decodes the next element into v, reporting false once exhausted.
func (s *SeqAccess) Next(v Visitor) (bool, error) {
	if s.remaining == 0 {
		return false, nil
	}
	s.remaining--

	if err := s.d.DecodeAny(v); err != nil {
		return false, err
	}

	return true, nil
}

// MapAccess lets a Visitor pull Map key/value pairs one at a time.
type MapAccess struct {
	d         *Deserializer
	remaining int
}

// Len reports how many pairs remain unread.
func (m *MapAccess) Len() int { return m.remaining }

// Next decodes the next key into keyV and the next value into valV,
// reporting false once exhausted.
func (m *MapAccess) Next(keyV, valV Visitor) (bool, error) {
	if m.remaining == 0 {
		return false, nil
	}
	m.remaining--

	if err := m.d.DecodeAny(keyV); err != nil {
		return false, err
	}
	if err := m.d.DecodeAny(valV); err != nil {
		return false, err
	}

	return true, nil
}

// RecordAccess lets a Visitor pull a Rec's field values one at a time, in
// the layout's declared order.
type RecordAccess struct {
	d     *Deserializer
	names []string
	idx   int
}

// Names returns the record's full field-name list.
func (r *RecordAccess) Names() []string { return r.names }

// Next decodes the next field's value into v, returning its name. ok is
// false once every field has been read.
func (r *RecordAccess) Next(v Visitor) (name string, ok bool, err error) {
	if r.idx >= len(r.names) {
		return "", false, nil
	}
	name = r.names[r.idx]
	r.idx++

	if err := r.d.DecodeAny(v); err != nil {
		return name, false, err
	}

	return name, true, nil
}

// readRecordKeys reads n record key slots (each Sym, Str, or Ref-to-Sym)
// and returns both their text and their symbol-table indices, suitable for
// pushing as a RecEntry layout.
func (d *Deserializer) readRecordKeys(n uint64) (names []string, keyIdx []int, err error) {
	count, err := d.reserveCount(n, 2*minElemBytes)
	if err != nil {
		return nil, nil, err
	}

	names = make([]string, 0, count)
	keyIdx = make([]int, 0, count)

	for i := 0; i < count; i++ {
		name, idx, err := d.decodeKey()
		if err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		keyIdx = append(keyIdx, idx)
	}

	return names, keyIdx, nil
}

func (d *Deserializer) decodeKey() (name string, symIdx int, err error) {
	h, n, err := header.ReadHeader(d.buf[d.pos:])
	if err != nil {
		return "", 0, err
	}
	d.pos += n

	switch h.Code {
	case format.Sym, format.Str:
		s, err := d.readStringPayload(h.N)
		if err != nil {
			return "", 0, err
		}
		idx := d.tbl.PushSymbol(s)

		return s, idx, nil

	case format.Ref:
		e, ok := d.tbl.Get(h.N)
		if !ok {
			return "", 0, errs.InvalidRef(h.N)
		}
		if e.Kind != intern.SymKind {
			return "", 0, errs.UnexpectedRefable("symbol", "layout")
		}

		return e.Text, int(h.N), nil

	default:
		return "", 0, errs.IllegalKey(codeTypeName(h.Code))
	}
}

func (d *Deserializer) readStringPayload(n uint64) (string, error) {
	b, err := d.reserveBytes(n)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(b) {
		return "", errs.Utf8()
	}

	if len(b) == 0 {
		return "", nil
	}

	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

func (d *Deserializer) reserveBytes(n uint64) ([]byte, error) {
	avail := uint64(len(d.buf) - d.pos)
	if n > avail {
		return nil, errs.Allocation(n, 1)
	}

	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)

	return b, nil
}

func (d *Deserializer) reserveCount(n uint64, minBytesPerElem int) (int, error) {
	avail := uint64(len(d.buf) - d.pos)
	if n > avail/uint64(minBytesPerElem) {
		return 0, errs.Allocation(n, minBytesPerElem)
	}

	if n > math.MaxInt {
		return 0, errs.DecodeLength(n)
	}

	return int(n), nil
}

func (d *Deserializer) takeExact(n int) ([]byte, error) {
	if len(d.buf)-d.pos < n {
		return nil, errs.Eof()
	}

	b := d.buf[d.pos : d.pos+n]
	d.pos += n

	return b, nil
}

func codeTypeName(c format.Code) string {
	switch c {
	case format.Bin:
		return "bytes"
	case format.Int:
		return "int"
	case format.Str:
		return "str"
	case format.Sym:
		return "symbol"
	case format.Arr:
		return "array"
	case format.Rec:
		return "record"
	case format.Map:
		return "map"
	case format.Ref:
		return "ref"
	default:
		return "unknown"
	}
}

// ignoreVisitor implements Visitor by discarding every value, recursing
// into children so IgnoredAny fully advances the cursor past them.
type ignoreVisitor struct{}

func (ignoreVisitor) VisitNull() error                   { return nil }
func (ignoreVisitor) VisitBool(bool) error                { return nil }
func (ignoreVisitor) VisitF32(float32) error              { return nil }
func (ignoreVisitor) VisitF64(float64) error              { return nil }
func (ignoreVisitor) VisitBytes([]byte) error             { return nil }
func (ignoreVisitor) VisitInt(format.Sign, uint64) error  { return nil }
func (ignoreVisitor) VisitStr(string) error               { return nil }
func (ignoreVisitor) VisitSymbol(string) error            { return nil }

func (iv ignoreVisitor) VisitSeq(_ int, items *SeqAccess) error {
	for {
		ok, err := items.Next(iv)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

func (iv ignoreVisitor) VisitMap(_ int, items *MapAccess) error {
	for {
		ok, err := items.Next(iv, iv)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

func (iv ignoreVisitor) VisitRecord(_ []string, items *RecordAccess) error {
	for {
		_, ok, err := items.Next(iv)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}
