package tagbin

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/unkn0wn-root/tagbin/internal/wire"
)

// Reader is the byte source the Deserializer reads from.
//
// ReadBorrowed and ReadUntil return views that alias the input when Borrows
// reports true; otherwise they return fresh copies. Every method fails with
// ErrEndOfInput rather than returning a short result.
type Reader interface {
	io.ByteReader

	// ReadInto fills p exactly.
	ReadInto(p []byte) error

	// ReadBorrowed returns the next n bytes.
	ReadBorrowed(n int) ([]byte, error)

	// ReadUntil scans 2-byte windows until match reports true and returns
	// everything up to and including the matched pair. Callers that want the
	// content alone strip the trailing two bytes.
	ReadUntil(match func([2]byte) bool) ([]byte, error)

	// Borrows reports whether returned views alias the input.
	Borrows() bool
}

var (
	_ Reader = (*SliceReader)(nil)
	_ Reader = (*StreamReader)(nil)
)

// SliceReader reads from an in-memory buffer without copying.
type SliceReader struct {
	buf []byte
	off int
}

func NewSliceReader(b []byte) *SliceReader { return &SliceReader{buf: b} }

func (r *SliceReader) pop(n int) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.off { // overflow-safe bound check
		return nil, ErrEndOfInput
	}
	b := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

func (r *SliceReader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, ErrEndOfInput
	}
	c := r.buf[r.off]
	r.off++
	return c, nil
}

func (r *SliceReader) ReadInto(p []byte) error {
	b, err := r.pop(len(p))
	if err != nil {
		return err
	}
	copy(p, b)
	return nil
}

func (r *SliceReader) ReadBorrowed(n int) ([]byte, error) { return r.pop(n) }

func (r *SliceReader) ReadUntil(match func([2]byte) bool) ([]byte, error) {
	end := wire.IndexPair(r.buf[r.off:], match)
	if end < 0 {
		return nil, ErrEndOfInput
	}
	return r.pop(end)
}

func (r *SliceReader) Borrows() bool { return true }

// Offset returns the number of bytes consumed so far.
func (r *SliceReader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *SliceReader) Remaining() int { return len(r.buf) - r.off }

// StreamReader reads from an io.Reader. Returned views are always copies
// because the underlying buffer is reused.
type StreamReader struct {
	r *bufio.Reader
	n int64
}

func NewStreamReader(r io.Reader) *StreamReader {
	if br, ok := r.(*bufio.Reader); ok {
		return &StreamReader{r: br}
	}
	return &StreamReader{r: bufio.NewReader(r)}
}

func eofToEnd(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrEndOfInput
	}
	return err
}

func (r *StreamReader) ReadByte() (byte, error) {
	c, err := r.r.ReadByte()
	if err != nil {
		return 0, eofToEnd(err)
	}
	r.n++
	return c, nil
}

func (r *StreamReader) ReadInto(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	r.n += int64(n)
	return eofToEnd(err)
}

// ReadBorrowed copies n bytes. The destination grows as data arrives, so a
// bogus length fails at end of input instead of allocating it up front.
func (r *StreamReader) ReadBorrowed(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrEndOfInput
	}
	var buf bytes.Buffer
	got, err := io.CopyN(&buf, r.r, int64(n))
	r.n += got
	if err != nil {
		return nil, eofToEnd(err)
	}
	return buf.Bytes(), nil
}

func (r *StreamReader) ReadUntil(match func([2]byte) bool) ([]byte, error) {
	var out []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if k := len(out); k >= 2 && match([2]byte{out[k-2], out[k-1]}) {
			return out, nil
		}
	}
}

func (r *StreamReader) Borrows() bool { return false }

// Offset returns the number of bytes consumed so far.
func (r *StreamReader) Offset() int64 { return r.n }
