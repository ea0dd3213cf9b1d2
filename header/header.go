// Package header implements the nch wire format's header codec: encoding
// and decoding of the single lead byte, plus its optional trailing
// big-endian length/magnitude bytes, that precedes every value on the
// wire. It knows nothing about the payload bytes that follow a header
// (UTF-8 text, raw bytes, nested values) — those are the concern of the
// value and driver packages built on top of it.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/nchfmt/nch/errs"
	"github.com/nchfmt/nch/format"
)

// Header is the decoded form of one wire header.
//
// Fixed and FixedTag are only meaningful when Code == format.Bin and the sz
// field named one of the non-Bytes variants (Null, True, False, F32, F64).
// Sign is only meaningful when Code == format.Int. N carries the length,
// count, magnitude, or reference index for every other case.
type Header struct {
	Code     format.Code
	Sign     format.Sign
	Fixed    bool
	FixedTag byte
	N        uint64
}

// ReadHeader decodes one header from the front of buf, returning the number
// of bytes consumed (the lead byte plus any trailing length bytes).
func ReadHeader(buf []byte) (Header, int, error) {
	if len(buf) == 0 {
		return Header{}, 0, errs.Eof()
	}

	lead := buf[0]
	rest := buf[1:]
	code := format.Code(lead >> 5)

	switch code {
	case format.Bin:
		sz := lead & 0x1F
		if sz < format.BinLenBase {
			return Header{Code: format.Bin, Fixed: true, FixedTag: sz}, 1, nil
		}

		n, consumed, err := decodeLen(rest, format.BinLenLimit, format.BinLenBase, sz)
		if err != nil {
			return Header{}, 0, err
		}

		return Header{Code: format.Bin, N: n}, 1 + consumed, nil

	case format.Int:
		sign := format.Sign((lead >> 4) & 1)
		sz := lead & 0x0F

		n, consumed, err := decodeLen(rest, format.IntLenLimit, 0, sz)
		if err != nil {
			return Header{}, 0, err
		}

		return Header{Code: format.Int, Sign: sign, N: n}, 1 + consumed, nil

	case format.Str, format.Sym, format.Arr, format.Rec, format.Map, format.Ref:
		sz := lead & 0x1F

		n, consumed, err := decodeLen(rest, format.GenericLenLimit, 0, sz)
		if err != nil {
			return Header{}, 0, err
		}

		return Header{Code: code, N: n}, 1 + consumed, nil

	default:
		return Header{}, 0, fmt.Errorf("nch: unknown header code %d", code)
	}
}

// AppendNull appends the fixed Null header.
func AppendNull(dst []byte) []byte {
	return append(dst, byte(format.Bin)<<5|format.FixedNull)
}

// AppendBool appends the fixed True/False header.
func AppendBool(dst []byte, b bool) []byte {
	tag := byte(format.FixedFalse)
	if b {
		tag = format.FixedTrue
	}

	return append(dst, byte(format.Bin)<<5|tag)
}

// AppendF32 appends the F32 header and its 4-byte big-endian payload.
func AppendF32(dst []byte, bits uint32) []byte {
	dst = append(dst, byte(format.Bin)<<5|format.FixedF32)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], bits)

	return append(dst, buf[:]...)
}

// AppendF64 appends the F64 header and its 8-byte big-endian payload.
func AppendF64(dst []byte, bits uint64) []byte {
	dst = append(dst, byte(format.Bin)<<5|format.FixedF64)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], bits)

	return append(dst, buf[:]...)
}

// AppendBytesHeader appends a Bin header naming a Bytes payload of length n.
// The caller is responsible for appending the n payload bytes.
func AppendBytesHeader(dst []byte, n uint64) []byte {
	sz, trailing := lenCode(format.BinLenLimit, format.BinLenBase, n)
	dst = append(dst, byte(format.Bin)<<5|sz)

	return append(dst, trailing...)
}

// AppendInt appends an Int header for the given sign and magnitude.
func AppendInt(dst []byte, sign format.Sign, magnitude uint64) []byte {
	sz, trailing := lenCode(format.IntLenLimit, 0, magnitude)
	dst = append(dst, byte(format.Int)<<5|byte(sign)<<4|sz)

	return append(dst, trailing...)
}

func appendGeneric(dst []byte, code format.Code, n uint64) []byte {
	sz, trailing := lenCode(format.GenericLenLimit, 0, n)
	dst = append(dst, byte(code)<<5|sz)

	return append(dst, trailing...)
}

// AppendStr appends a Str header naming a UTF-8 payload of length n bytes.
func AppendStr(dst []byte, n uint64) []byte { return appendGeneric(dst, format.Str, n) }

// AppendSym appends a Sym header naming a UTF-8 payload of length n bytes.
func AppendSym(dst []byte, n uint64) []byte { return appendGeneric(dst, format.Sym, n) }

// AppendArr appends an Arr header naming count following values.
func AppendArr(dst []byte, count uint64) []byte { return appendGeneric(dst, format.Arr, count) }

// AppendRec appends a Rec header naming count following keys, which are in
// turn followed by count values.
func AppendRec(dst []byte, count uint64) []byte { return appendGeneric(dst, format.Rec, count) }

// AppendMap appends a Map header naming count following key/value pairs.
func AppendMap(dst []byte, count uint64) []byte { return appendGeneric(dst, format.Map, count) }

// AppendRef appends a Ref header naming a symbol-table index.
func AppendRef(dst []byte, index uint64) []byte { return appendGeneric(dst, format.Ref, index) }

// lenCode computes the sz field and any trailing big-endian bytes for a
// length/magnitude value, shared by all three length sub-encodings: generic
// (inlineLimit=24, offset=0), Bin (inlineLimit=19, offset=5), and Int
// (inlineLimit=8, offset=0). Always picks the shortest encoding.
func lenCode(inlineLimit, offset int, value uint64) (sz byte, trailing []byte) {
	if value < uint64(inlineLimit) {
		return byte(offset + int(value)), nil
	}

	n := minBEBytes(value)
	sz = byte(offset + inlineLimit - 1 + n)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)

	return sz, buf[8-n:]
}

// decodeLen is the inverse of lenCode: it interprets sz (already isolated
// from the lead byte) and reads trailing bytes from buf if sz names an
// overflow encoding. An encoder always picks the shortest valid sz for a
// given value, but decodeLen tolerates an over-long encoding too — a
// trailing-byte count larger than strictly necessary still decodes, since
// decodeLen always just reads the named number of bytes as big-endian.
func decodeLen(buf []byte, inlineLimit, offset int, sz byte) (value uint64, consumed int, err error) {
	s := int(sz) - offset
	if s < inlineLimit {
		return uint64(s), 0, nil
	}

	n := s - (inlineLimit - 1)
	if len(buf) < n {
		return 0, 0, errs.Eof()
	}

	var v uint64
	for _, b := range buf[:n] {
		v = v<<8 | uint64(b)
	}

	return v, n, nil
}

func minBEBytes(v uint64) int {
	n := 1
	for v>>(8*uint(n)) != 0 {
		n++
	}

	return n
}
