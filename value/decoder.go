package value

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

// minElemBytes is the minimum number of bytes any single value can occupy
// on the wire (the shortest possible header, e.g. Null). Array, Map, and
// Record counts are bounds-checked against the remaining buffer using this
// figure before any slice is preallocated, so a forged huge count can never
// force an oversized allocation: a preallocated slice never has more
// elements than the bytes still left in the buffer could hold.
const minElemBytes = 1

// Decoder rebuilds a Value tree from its wire form, resolving references
// against a per-message symbol table.
//
// By default, decoded Str/Symbol/Bytes payloads borrow directly from the
// input buffer: the returned Value is only valid as long as buf is not
// reused or mutated. NewCopyDecoder instead produces a Decoder whose
// payloads are independently owned copies, safe to keep past buf's
// lifetime.
type Decoder struct {
	tbl   intern.DecodeTable
	buf   []byte
	pos   int
	owned bool
}

// NewDecoder returns a Decoder whose decoded strings and byte slices borrow
// from buf (zero-copy).
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// NewCopyDecoder returns a Decoder whose decoded strings and byte slices are
// independently owned copies.
func NewCopyDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf, owned: true}
}

// Decode reads exactly one top-level value from the buffer and returns it
// along with the number of bytes consumed. It does not require the buffer
// to be fully consumed; callers that expect a single self-contained message
// should use DecodeMessage instead.
func (d *Decoder) Decode() (Value, int, error) {
	v, err := d.decodeValue()
	if err != nil {
		return Value{}, 0, errs.AtOffset(d.pos, err)
	}

	return v, d.pos, nil
}

// DecodeMessage decodes one top-level value and requires that it consume
// the entire buffer, returning ErrTrailingBytes otherwise.
func (d *Decoder) DecodeMessage() (Value, error) {
	v, n, err := d.Decode()
	if err != nil {
		return Value{}, err
	}

	if n != len(d.buf) {
		return Value{}, errs.AtOffset(n, errs.Trailing(len(d.buf)-n))
	}

	return v, nil
}

func (d *Decoder) decodeValue() (Value, error) {
	h, n, err := header.ReadHeader(d.buf[d.pos:])
	if err != nil {
		return Value{}, err
	}
	d.pos += n

	switch h.Code {
	case format.Bin:
		return d.decodeBin(h)
	case format.Int:
		if h.Sign == format.Neg {
			// A Neg header with magnitude k denotes -(k+1). -2^64 has no Value
			// form: its absolute magnitude does not fit a uint64.
			if h.N == math.MaxUint64 {
				return Value{}, errs.DecodeLength(h.N)
			}

			return Int(format.Neg, h.N+1), nil
		}

		return Int(h.Sign, h.N), nil
	case format.Str:
		return d.decodeStr(h)
	case format.Sym:
		return d.decodeSym(h)
	case format.Arr:
		return d.decodeArr(h)
	case format.Map:
		return d.decodeMap(h)
	case format.Rec:
		return d.decodeRec(h)
	case format.Ref:
		return d.decodeRef(h)
	default:
		return Value{}, errs.UnexpectedHeader([]string{"any"}, h.Code.String())
	}
}

func (d *Decoder) decodeBin(h header.Header) (Value, error) {
	if h.Fixed {
		switch h.FixedTag {
		case format.FixedNull:
			return Null(), nil
		case format.FixedTrue:
			return Bool(true), nil
		case format.FixedFalse:
			return Bool(false), nil
		case format.FixedF32:
			b, err := d.takeExact(4)
			if err != nil {
				return Value{}, err
			}

			return F32(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
		case format.FixedF64:
			b, err := d.takeExact(8)
			if err != nil {
				return Value{}, err
			}

			return F64(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
		default:
			return Value{}, errs.UnexpectedHeader([]string{"null", "bool", "f32", "f64", "bytes"}, "reserved-fixed-tag")
		}
	}

	b, err := d.reserveBytes(h.N)
	if err != nil {
		return Value{}, err
	}

	return BytesValue(d.bytesPayload(b)), nil
}

func (d *Decoder) decodeStr(h header.Header) (Value, error) {
	b, err := d.reserveBytes(h.N)
	if err != nil {
		return Value{}, err
	}

	s, err := d.strPayload(b)
	if err != nil {
		return Value{}, err
	}

	return Str(s), nil
}

func (d *Decoder) decodeSym(h header.Header) (Value, error) {
	b, err := d.reserveBytes(h.N)
	if err != nil {
		return Value{}, err
	}

	s, err := d.strPayload(b)
	if err != nil {
		return Value{}, err
	}

	d.tbl.PushSymbol(s)

	return Symbol(s), nil
}

func (d *Decoder) decodeArr(h header.Header) (Value, error) {
	count, err := d.reserveCount(h.N, minElemBytes)
	if err != nil {
		return Value{}, err
	}

	arr := make([]Value, 0, count)
	for i := 0; i < count; i++ {
		el, err := d.decodeValue()
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, el)
	}

	return Array(arr...), nil
}

func (d *Decoder) decodeMap(h header.Header) (Value, error) {
	count, err := d.reserveCount(h.N, 2*minElemBytes)
	if err != nil {
		return Value{}, err
	}

	pairs := make([]Pair, 0, count)
	for i := 0; i < count; i++ {
		k, err := d.decodeValue()
		if err != nil {
			return Value{}, err
		}

		v, err := d.decodeValue()
		if err != nil {
			return Value{}, err
		}

		pairs = append(pairs, Pair{Key: k, Val: v})
	}

	return Map(pairs...), nil
}

func (d *Decoder) decodeRec(h header.Header) (Value, error) {
	count, err := d.reserveCount(h.N, 2*minElemBytes)
	if err != nil {
		return Value{}, err
	}

	names := make([]string, 0, count)
	keyIdx := make([]int, 0, count)

	for i := 0; i < count; i++ {
		name, idx, err := d.decodeKey()
		if err != nil {
			return Value{}, err
		}
		names = append(names, name)
		keyIdx = append(keyIdx, idx)
	}

	d.tbl.PushLayout(keyIdx)

	return d.decodeFields(names)
}

// decodeKey reads one record key slot: a Sym, a Str, or a Ref resolving to
// a previously interned symbol. Every key slot, however written on the
// wire, ends up occupying a symbol-table entry, since a record's layout is
// always a list of symbol indices.
func (d *Decoder) decodeKey() (name string, symIdx int, err error) {
	h, n, err := header.ReadHeader(d.buf[d.pos:])
	if err != nil {
		return "", 0, err
	}
	d.pos += n

	switch h.Code {
	case format.Sym, format.Str:
		b, err := d.reserveBytes(h.N)
		if err != nil {
			return "", 0, err
		}

		s, err := d.strPayload(b)
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

func (d *Decoder) decodeRef(h header.Header) (Value, error) {
	e, ok := d.tbl.Get(h.N)
	if !ok {
		return Value{}, errs.InvalidRef(h.N)
	}

	switch e.Kind {
	case intern.SymKind:
		return Symbol(e.Text), nil
	case intern.RecKind:
		names := d.tbl.Names(e.Layout)
		return d.decodeFields(names)
	default:
		return Value{}, errs.UnexpectedRefable("symbol or layout", "unknown")
	}
}

func (d *Decoder) decodeFields(names []string) (Value, error) {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		v, err := d.decodeValue()
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, Field{Name: name, Value: v})
	}

	return RecordValue(Record{Fields: fields}), nil
}

// reserveBytes slices an n-byte payload off the front of the remaining
// buffer without allocating, so a forged length can never trigger an
// oversized allocation: the read simply fails with Allocation if n exceeds
// what remains.
func (d *Decoder) reserveBytes(n uint64) ([]byte, error) {
	avail := uint64(len(d.buf) - d.pos)
	if n > avail {
		return nil, errs.Allocation(n, 1)
	}

	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)

	return b, nil
}

// reserveCount bounds-checks a container's declared element count against
// the remaining buffer before any slice is preallocated, given the minimum
// number of bytes one element must occupy on the wire.
func (d *Decoder) reserveCount(n uint64, minBytesPerElem int) (int, error) {
	avail := uint64(len(d.buf) - d.pos)
	if n > avail/uint64(minBytesPerElem) {
		return 0, errs.Allocation(n, minBytesPerElem)
	}

	if n > math.MaxInt {
		return 0, errs.DecodeLength(n)
	}

	return int(n), nil
}

func (d *Decoder) takeExact(n int) ([]byte, error) {
	if len(d.buf)-d.pos < n {
		return nil, errs.Eof()
	}

	b := d.buf[d.pos : d.pos+n]
	d.pos += n

	return b, nil
}

func (d *Decoder) bytesPayload(b []byte) []byte {
	if !d.owned {
		return b
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out
}

func (d *Decoder) strPayload(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errs.Utf8()
	}

	if d.owned || len(b) == 0 {
		return string(b), nil
	}

	return unsafe.String(unsafe.SliceData(b), len(b)), nil
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
