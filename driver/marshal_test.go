package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nchfmt/nch/errs"
	"github.com/nchfmt/nch/format"
	"github.com/nchfmt/nch/header"
)

func TestSerializerRejectsUnknownSeqAndMapLength(t *testing.T) {
	s := NewSerializer()
	defer s.Release()

	err := s.BeginSeq(UnknownLength)
	require.ErrorIs(t, err, errs.ErrLengthUnknown)

	err = s.BeginMap(UnknownLength)
	require.ErrorIs(t, err, errs.ErrLengthUnknown)
}

func TestSerializerPrimitives(t *testing.T) {
	s := NewSerializer()
	defer s.Release()

	require.NoError(t, s.Bool(true))
	require.NoError(t, s.I64(-1))
	require.NoError(t, s.U64(42))
	require.NoError(t, s.Str("hi"))
	require.NoError(t, s.None())

	buf := s.Bytes()
	wantHeaders := []format.Code{format.Bin, format.Int, format.Int, format.Str, format.Bin}
	for _, want := range wantHeaders {
		h, n, err := header.ReadHeader(buf)
		require.NoError(t, err)
		require.Equal(t, want, h.Code)
		buf = buf[n:]
		if h.Code == format.Str {
			buf = buf[h.N:]
		}
	}
	require.Empty(t, buf)
}

func TestSerializerNarrowIntsMatchI64U64(t *testing.T) {
	wide := NewSerializer()
	defer wide.Release()
	require.NoError(t, wide.I64(-5))
	require.NoError(t, wide.U64(5))

	narrow := NewSerializer()
	defer narrow.Release()
	require.NoError(t, narrow.I8(-5))
	require.NoError(t, narrow.U8(5))

	require.Equal(t, wide.Bytes(), narrow.Bytes())
}

func TestSerializerI64NegativeOne(t *testing.T) {
	s := NewSerializer()
	defer s.Release()

	require.NoError(t, s.I64(-1))
	require.Equal(t, []byte{0x30}, s.Bytes()) // Neg(0) denotes -1
}

func TestSerializerBeginStructReusesLayout(t *testing.T) {
	s := NewSerializer()
	defer s.Release()

	fields := []string{"age", "name"}
	require.NoError(t, s.BeginStruct(fields))
	require.NoError(t, s.I64(1))
	require.NoError(t, s.Str("a"))

	require.NoError(t, s.BeginStruct(fields))
	require.NoError(t, s.I64(2))
	require.NoError(t, s.Str("b"))

	buf := s.Bytes()
	h, n, err := header.ReadHeader(buf) // first Rec(2)
	require.NoError(t, err)
	require.Equal(t, format.Rec, h.Code)
	buf = buf[n:]

	// skip 2 keys + 2 values
	for i := 0; i < 4; i++ {
		kh, kn, err := header.ReadHeader(buf)
		require.NoError(t, err)
		buf = buf[kn:]
		if kh.Code == format.Sym || kh.Code == format.Str {
			buf = buf[kh.N:]
		}
	}

	h, _, err = header.ReadHeader(buf) // second struct: Ref to the layout
	require.NoError(t, err)
	require.Equal(t, format.Ref, h.Code)
}

func TestSerializerUnitVariantIsInternedSymbol(t *testing.T) {
	s := NewSerializer()
	defer s.Release()

	require.NoError(t, s.UnitVariant("Status", "Active"))
	require.NoError(t, s.UnitVariant("Status", "Active"))

	buf := s.Bytes()
	h, n, err := header.ReadHeader(buf)
	require.NoError(t, err)
	require.Equal(t, format.Sym, h.Code)
	buf = buf[n+int(h.N):]

	h, _, err = header.ReadHeader(buf)
	require.NoError(t, err)
	require.Equal(t, format.Ref, h.Code, "repeating the same variant name must Ref, not respell it")
}
