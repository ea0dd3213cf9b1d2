package value

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/nchfmt/nch/format"
	"github.com/nchfmt/nch/header"
)

// equalOpt lets go-cmp diff two Value trees using the bit-exact Equal
// semantics (NaN payloads, signed zero) instead of its own default float
// comparison, which would treat distinct NaN payloads as equal and so miss
// exactly the regressions these round-trip tests exist to catch.
var equalOpt = cmp.Comparer(Equal)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()

	var buf bytes.Buffer
	_, err := NewEncoder().Encode(v, &buf)
	require.NoError(t, err)

	got, err := NewCopyDecoder(buf.Bytes()).DecodeMessage()
	require.NoError(t, err)

	return got
}

func TestRoundTripPrimitives(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		Bool(false),
		F32(3.5),
		F64(-2.25),
		F64(math.Inf(1)),
		F64(math.Inf(-1)),
		BytesValue([]byte{0, 1, 2, 3}),
		BytesValue(nil),
		IntFromInt64(0),
		IntFromInt64(-1),
		IntFromInt64(math.MinInt64),
		IntFromUint64(math.MaxUint64),
		Str(""),
		Str("hello, world"),
		Symbol("a-symbol"),
	}

	for _, want := range cases {
		got := roundTrip(t, want)
		require.True(t, Equal(want, got), "round trip changed value: want %+v got %+v", want, got)
	}
}

func TestRoundTripNaNPayloadPreserved(t *testing.T) {
	want := F64(math.Float64frombits(0x7ff8000000000042))
	got := roundTrip(t, want)
	require.Equal(t, math.Float64bits(want.F64), math.Float64bits(got.F64))
}

func TestRoundTripNegZeroNormalizes(t *testing.T) {
	want := Value{Kind: KindInt, Sign: format.Neg, Mag: 0}
	got := roundTrip(t, want)
	require.Equal(t, format.Pos, got.Sign)
	require.Equal(t, uint64(0), got.Mag)
}

func TestRoundTripNestedCollections(t *testing.T) {
	want := Array(
		Map(
			Pair{Key: Str("k1"), Val: IntFromInt64(1)},
			Pair{Key: Str("k2"), Val: Array(Bool(true), Null())},
		),
		RecordValue(NewRecord(
			Field{Name: "name", Value: Str("Tom")},
			Field{Name: "species", Value: Symbol("cat")},
		)),
	)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got, equalOpt); diff != "" {
		t.Fatalf("round trip changed nested value (-want +got):\n%s", diff)
	}
}

// TestRoundTripSymbolDeduplicatingList mirrors a message where a large
// array repeats the same handful of symbol values, each of which should be
// written out exactly once and referenced thereafter.
func TestRoundTripSymbolDeduplicatingList(t *testing.T) {
	species := []string{"cat", "dog", "cat", "cat", "dog", "bird"}
	elems := make([]Value, len(species))
	for i, s := range species {
		elems[i] = Symbol(s)
	}
	want := Array(elems...)

	var buf bytes.Buffer
	_, err := NewEncoder().Encode(want, &buf)
	require.NoError(t, err)

	// Exactly 3 distinct symbols should have been spelled out; the rest are
	// References. Count Sym headers in the wire bytes.
	b := buf.Bytes()
	h, n, err := header.ReadHeader(b)
	require.NoError(t, err)
	require.Equal(t, format.Arr, h.Code)
	b = b[n:]

	syms, refs := 0, 0
	for len(b) > 0 {
		h, n, err = header.ReadHeader(b)
		require.NoError(t, err)
		b = b[n:]
		switch h.Code {
		case format.Sym:
			syms++
			b = b[h.N:]
		case format.Ref:
			refs++
		}
	}
	require.Equal(t, 3, syms)
	require.Equal(t, 3, refs)

	dec := NewDecoder(buf.Bytes())
	got, err := dec.DecodeMessage()
	require.NoError(t, err)
	require.True(t, Equal(want, got))
}

func TestRoundTripRecordLayoutReuse(t *testing.T) {
	mk := func(name, species string) Value {
		return RecordValue(NewRecord(
			Field{Name: "name", Value: Str(name)},
			Field{Name: "species", Value: Symbol(species)},
		))
	}
	want := Array(mk("Tom", "cat"), mk("Rex", "dog"), mk("Felix", "cat"))
	got := roundTrip(t, want)
	require.True(t, Equal(want, got))
}

func TestRoundTripIllegalArrayKeyRejected(t *testing.T) {
	// A record whose key slot names an Arr header is not a representable
	// Value: the decoder must refuse rather than guess. A Null value follows
	// the key so the record is not rejected as truncated first.
	buf := []byte{0xA1, 0x80, 0x00}
	_, err := NewDecoder(buf).DecodeMessage()
	require.Error(t, err)
}
