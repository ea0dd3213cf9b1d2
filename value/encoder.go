package value

import (
	"fmt"
	"io"
	"math"

	"github.com/nchfmt/nch/errs"
	"github.com/nchfmt/nch/format"
	"github.com/nchfmt/nch/header"
	"github.com/nchfmt/nch/internal/buffer"
	"github.com/nchfmt/nch/internal/intern"
)

// Encoder walks a Value tree and writes its wire form, maintaining a
// per-message symbol table for Symbol and Record interning. An Encoder is
// single-use: call Encode once per message.
type Encoder struct {
	tbl *intern.EncodeTable
}

// NewEncoder returns an Encoder with a fresh, empty symbol table.
func NewEncoder() *Encoder {
	return &Encoder{tbl: intern.NewEncodeTable()}
}

// Encode writes v's wire form to w and returns the number of bytes written.
func (e *Encoder) Encode(v Value, w io.Writer) (int, error) {
	buf := buffer.Get()
	defer buffer.Put(buf)

	if err := e.encodeValue(v, buf); err != nil {
		return 0, err
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return n, errs.Io(err)
	}

	return n, nil
}

func (e *Encoder) encodeValue(v Value, buf *buffer.Buffer) error {
	switch v.Kind {
	case KindNull:
		buf.B = header.AppendNull(buf.B)

	case KindBool:
		buf.B = header.AppendBool(buf.B, v.Bool)

	case KindF32:
		buf.B = header.AppendF32(buf.B, math.Float32bits(v.F32))

	case KindF64:
		buf.B = header.AppendF64(buf.B, math.Float64bits(v.F64))

	case KindBytes:
		buf.B = header.AppendBytesHeader(buf.B, uint64(len(v.Bytes)))
		buf.B = append(buf.B, v.Bytes...)

	case KindInt:
		sign, mag := v.Sign, v.Mag
		if sign == format.Neg {
			if mag == 0 {
				sign = format.Pos
			} else {
				// A Neg header with magnitude k denotes -(k+1).
				mag--
			}
		}
		buf.B = header.AppendInt(buf.B, sign, mag)

	case KindStr:
		b := []byte(v.Str)
		buf.B = header.AppendStr(buf.B, uint64(len(b)))
		buf.B = append(buf.B, b...)

	case KindSymbol:
		return e.encodeSymbol(v.Str, buf)

	case KindArray:
		buf.B = header.AppendArr(buf.B, uint64(len(v.Array)))
		for _, el := range v.Array {
			if err := e.encodeValue(el, buf); err != nil {
				return err
			}
		}

	case KindMap:
		buf.B = header.AppendMap(buf.B, uint64(len(v.Map)))
		for _, p := range v.Map {
			if err := e.encodeValue(p.Key, buf); err != nil {
				return err
			}
			if err := e.encodeValue(p.Val, buf); err != nil {
				return err
			}
		}

	case KindRecord:
		return e.encodeRecord(v.Record, buf)

	default:
		return errs.Io(fmt.Errorf("nch: encode: unhandled kind %s", v.Kind))
	}

	return nil
}

func (e *Encoder) encodeSymbol(text string, buf *buffer.Buffer) error {
	idx, first := e.tbl.InternSymbol(text)
	if first {
		b := []byte(text)
		buf.B = header.AppendSym(buf.B, uint64(len(b)))
		buf.B = append(buf.B, b...)

		return nil
	}

	buf.B = header.AppendRef(buf.B, uint64(idx))

	return nil
}

func (e *Encoder) encodeRecord(r Record, buf *buffer.Buffer) error {
	names := r.Names()

	if idx, ok := e.tbl.LookupLayout(names); ok {
		buf.B = header.AppendRef(buf.B, uint64(idx))
	} else {
		_, keyIdx, keyFirst := e.tbl.NewLayout(names)
		buf.B = header.AppendRec(buf.B, uint64(len(names)))

		for i, name := range names {
			if keyFirst[i] {
				b := []byte(name)
				buf.B = header.AppendSym(buf.B, uint64(len(b)))
				buf.B = append(buf.B, b...)
			} else {
				buf.B = header.AppendRef(buf.B, uint64(keyIdx[i]))
			}
		}
	}

	for _, f := range r.Fields {
		if err := e.encodeValue(f.Value, buf); err != nil {
			return err
		}
	}

	return nil
}
