package value

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/nchfmt/nch/errs"
)

func TestDecodeFixedHeaders(t *testing.T) {
	v, n, err := NewDecoder([]byte{0x00}).Decode()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, Equal(Null(), v))

	v, _, err = NewDecoder([]byte{0x01}).Decode()
	require.NoError(t, err)
	require.True(t, Equal(Bool(true), v))
}

func TestDecodeStrBorrowsFromBuffer(t *testing.T) {
	buf := []byte{0x42, 'o', 'k'}
	v, n, err := NewDecoder(buf).Decode()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "ok", v.Str)
	require.True(t, unsafe.StringData(v.Str) == &buf[1], "a borrowing decoder must alias the input buffer")
}

func TestDecodeCopyDecoderOwnsBytes(t *testing.T) {
	src := []byte("bytes!")
	// Bin code (0), sz = BinLenBase(5) + len(src), inline length encoding.
	bin := append([]byte{byte(5 + len(src))}, src...)
	v, _, err := NewCopyDecoder(bin).Decode()
	require.NoError(t, err)
	require.Equal(t, src, v.Bytes)

	// Mutating the decoder's input buffer must not affect the copy-decoded
	// value, since it holds an independent copy of the payload.
	bin[1] = 'X'
	require.NotEqual(t, bin[1], v.Bytes[0])
}

func TestDecodeBorrowDecoderAliasesBuffer(t *testing.T) {
	src := []byte("bytes!")
	bin := append([]byte{byte(5 + len(src))}, src...)
	v, _, err := NewDecoder(bin).Decode()
	require.NoError(t, err)
	require.Equal(t, src, v.Bytes)

	bin[1] = 'X'
	require.Equal(t, byte('X'), v.Bytes[0], "a borrowing decoder must alias the input buffer")
}

func TestDecodeIllegalKey(t *testing.T) {
	// Rec(1) whose single key slot is an Arr(0) header instead of a
	// Sym/Str/Ref-to-Sym, followed by a Null value.
	buf := []byte{0xA1, 0x80, 0x00}
	_, _, err := NewDecoder(buf).Decode()
	require.ErrorIs(t, err, errs.ErrIllegalKey)
}

func TestDecodeInvalidRef(t *testing.T) {
	buf := []byte{0xE0} // Ref(0) with nothing ever interned
	_, _, err := NewDecoder(buf).Decode()
	require.ErrorIs(t, err, errs.ErrInvalidRef)
}

func TestDecodeMessageRejectsTrailingBytes(t *testing.T) {
	buf := []byte{0x00, 0x00} // two Null values back to back
	_, err := NewDecoder(buf).DecodeMessage()
	require.ErrorIs(t, err, errs.ErrTrailingBytes)
}

func TestDecodeEofOnTruncatedHeader(t *testing.T) {
	// Str header claiming a trailing length byte that never arrives: sz =
	// GenericLenLimit (24) = first overflow slot, needs 1 trailing byte.
	buf := []byte{byte(2<<5 | 24)}
	_, _, err := NewDecoder(buf).Decode()
	require.ErrorIs(t, err, errs.ErrEOF)
}

func TestDecodeAllocationGuardOnForgedLength(t *testing.T) {
	// Arr header claiming an enormous element count with no payload behind
	// it must fail cleanly instead of attempting to preallocate.
	buf := []byte{byte(4<<5 | 31), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	_, _, err := NewDecoder(buf).Decode()
	require.ErrorIs(t, err, errs.ErrAllocation)
}
