// Package errs defines the error taxonomy shared by the encode and decode
// paths of nch: sentinel values for each failure kind, plus wrapper types
// (EncodeError, DecodeError, and the offset-annotating DecoderError) that
// carry the detail a caller needs without losing the ability to errors.Is
// against the sentinel.
package errs

import (
	"errors"
	"fmt"
)

// Encode-side sentinels.
var (
	// ErrLengthOverflow is raised when a container's size cannot be
	// represented in the wire format's 64-bit length field, or cannot be
	// reserved on decode because it does not fit the host's index width.
	ErrLengthOverflow = errors.New("nch: length exceeds wire width")

	// ErrLengthUnknown is raised when a host asks to serialize a sequence
	// or map without first knowing how many elements it holds. Every Arr
	// and Map header carries its count up front, so there is no way to
	// emit one and fill in the count later.
	ErrLengthUnknown = errors.New("nch: sequence or map length must be known before encoding")
)

// Decode-side sentinels.
var (
	ErrEOF               = errors.New("nch: unexpected end of buffer")
	ErrUTF8              = errors.New("nch: invalid utf-8")
	ErrIllegalKey        = errors.New("nch: record key is not a symbol")
	ErrInvalidRef        = errors.New("nch: reference to an unallocated symbol-table index")
	ErrUnexpectedRefable = errors.New("nch: reference resolved to the wrong entry kind")
	ErrAllocation        = errors.New("nch: refused to reserve the requested capacity")
	ErrTrailingBytes     = errors.New("nch: trailing bytes after top-level value")
	ErrUnexpectedHeader  = errors.New("nch: unexpected header")
	ErrDuplicateLayout   = errors.New("nch: record layout redefined with different fields")
)

// EncodeError wraps a failure encountered while walking a value and writing
// its wire form. Io distinguishes an underlying writer failure from a
// Length failure, which is a property of the value itself.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("nch: encode: %v", e.Err)
	}

	return fmt.Sprintf("nch: encode %s: %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Io reports an underlying writer failure.
func Io(err error) error {
	if err == nil {
		return nil
	}

	return &EncodeError{Op: "write", Err: err}
}

// Length reports that a container's size does not fit the wire format's
// 64-bit length field.
func Length(n uint64) error {
	return &EncodeError{Op: "length", Err: fmt.Errorf("%w: %d", ErrLengthOverflow, n)}
}

// UnknownLength reports that a sequence or map was started without a known
// element count.
func UnknownLength() error {
	return &EncodeError{Op: "length", Err: ErrLengthUnknown}
}

// DecodeError wraps a single decode failure, before it is annotated with a
// byte offset by DecoderError. Most callers only need the sentinel via
// errors.Is; the constructors below exist to attach the detail a caller
// debugging the failure actually wants (the bad index, the offending type
// name, ...).
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Eof reports that the buffer was exhausted mid-header or mid-payload.
func Eof() error { return &DecodeError{Err: ErrEOF} }

// Utf8 reports a string or symbol payload that is not valid UTF-8.
func Utf8() error { return &DecodeError{Err: ErrUTF8} }

// IllegalKey reports that a record's key slot held a header of the given
// kind instead of a stringy one (Sym, Str, or Ref-to-Sym).
func IllegalKey(typeName string) error {
	return &DecodeError{Err: fmt.Errorf("%w: %s", ErrIllegalKey, typeName)}
}

// InvalidRef reports a reference to an index that was never allocated.
func InvalidRef(i uint64) error {
	return &DecodeError{Err: fmt.Errorf("%w: %d", ErrInvalidRef, i)}
}

// UnexpectedRefable reports a reference that resolved to an entry of the
// wrong kind (e.g. a layout reference pointing at a plain symbol).
func UnexpectedRefable(expected, actual string) error {
	return &DecodeError{Err: fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedRefable, expected, actual)}
}

// DecodeLength reports a decoded length that overflows the host's array-index
// integer width.
func DecodeLength(v uint64) error {
	return &DecodeError{Err: fmt.Errorf("%w: %d", ErrLengthOverflow, v)}
}

// Allocation reports that a length-prefixed container's capacity could not
// be reserved; n is the requested element count and elemSize the size of
// one element in bytes.
func Allocation(n uint64, elemSize int) error {
	return &DecodeError{Err: fmt.Errorf("%w: %d elements of %d bytes", ErrAllocation, n, elemSize)}
}

// Trailing reports that bytes remained in the buffer after a successful
// top-level decode.
func Trailing(n int) error {
	return &DecodeError{Err: fmt.Errorf("%w: %d byte(s)", ErrTrailingBytes, n)}
}

// UnexpectedHeader reports that the driver requested one of expectedSet but
// the header on the wire named actual.
func UnexpectedHeader(expectedSet []string, actual string) error {
	return &DecodeError{Err: fmt.Errorf("%w: expected one of %v, got %s", ErrUnexpectedHeader, expectedSet, actual)}
}

// DuplicateLayout reports that the pre-pass saw two different field lists
// under the same (name, variant) pair.
func DuplicateLayout(name string, variant string) error {
	if variant == "" {
		return &DecodeError{Err: fmt.Errorf("%w: %s", ErrDuplicateLayout, name)}
	}

	return &DecodeError{Err: fmt.Errorf("%w: %s::%s", ErrDuplicateLayout, name, variant)}
}

// DecoderError annotates a DecodeError (or any error) with the byte offset
// at which the decoder's cursor stood when the failure was detected. Every
// decode entry point wraps its returned error with AtOffset before handing
// it back to the caller.
type DecoderError struct {
	Offset int
	Err    error
}

func (e *DecoderError) Error() string {
	return fmt.Sprintf("nch: decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecoderError) Unwrap() error { return e.Err }

// AtOffset wraps err with the cursor position offset. A nil err returns nil.
func AtOffset(offset int, err error) error {
	if err == nil {
		return nil
	}

	var de *DecoderError
	if errors.As(err, &de) {
		return err
	}

	return &DecoderError{Offset: offset, Err: err}
}
