package tagbin

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEndOfInput is returned by readers that run out of bytes before the
	// requested length or marker.
	ErrEndOfInput = errors.New("tagbin: reached end of input before end of value")
	// ErrBufferFull is returned by FixedWriter when a write exceeds its capacity.
	ErrBufferFull = errors.New("tagbin: fixed buffer capacity exceeded")
)

// TransportError reports a failure of the underlying Reader or Writer.
type TransportError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tagbin: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InvalidTagError reports a byte that is not in the tag table.
type InvalidTagError struct {
	Byte byte
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("tagbin: invalid tag byte %d: expected 0..%d", e.Byte, uint8(tagCount)-1)
}

// UnexpectedTagError reports a valid tag that is not legal where it was found.
// An empty Expected means no tag can start a value at that position.
type UnexpectedTagError struct {
	Got      Tag
	Expected []Tag
}

func (e *UnexpectedTagError) Error() string {
	names := make([]string, len(e.Expected))
	for i, t := range e.Expected {
		names[i] = t.String()
	}
	return fmt.Sprintf("tagbin: unexpected tag %s, expected one of [%s]", e.Got, strings.Join(names, ", "))
}

// InvalidUTF8Error reports string or char bytes that are not valid UTF-8.
type InvalidUTF8Error struct {
	Len int // length of the rejected span
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("tagbin: invalid utf-8 in %d byte string", e.Len)
}

// LengthOverflowError reports a decoded length that does not fit in an int.
type LengthOverflowError struct {
	Len uint64
}

func (e *LengthOverflowError) Error() string {
	return fmt.Sprintf("tagbin: length %d overflows int", e.Len)
}

// DepthError reports a value nested deeper than the decoder accepts.
type DepthError struct {
	Max int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("tagbin: value nested deeper than %d levels", e.Max)
}

// CustomError carries a caller-supplied message from a Marshaler or Unmarshaler.
type CustomError struct {
	Msg string
}

func (e *CustomError) Error() string { return "tagbin: " + e.Msg }

// Errorf builds a *CustomError. Marshaler and Unmarshaler implementations use it
// to report schema mismatches.
func Errorf(format string, args ...any) error {
	return &CustomError{Msg: fmt.Sprintf(format, args...)}
}

// IsMalformed reports whether err was caused by bytes that can never decode:
// an invalid or unexpected tag, bad UTF-8, an oversized length or excessive
// nesting.
func IsMalformed(err error) bool {
	var (
		it *InvalidTagError
		ut *UnexpectedTagError
		iu *InvalidUTF8Error
		lo *LengthOverflowError
		de *DepthError
	)
	return errors.As(err, &it) || errors.As(err, &ut) || errors.As(err, &iu) ||
		errors.As(err, &lo) || errors.As(err, &de)
}

// IsTransport reports whether err came from the Reader or Writer. Such errors
// may be transient; retrying means re-running the whole call.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func readErr(err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: "read", Err: err}
}

func writeErr(err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: "write", Err: err}
}
