package tagbin

import (
	"bytes"
	"io"
)

// Writer is the byte sink the Serializer writes to. Write must either accept
// all of p or return an error, as io.Writer requires.
type Writer interface {
	io.Writer
	io.ByteWriter
}

var (
	_ Writer = (*FixedWriter)(nil)
	_ Writer = (*BufferWriter)(nil)
	_ Writer = (*CountingWriter)(nil)
	_ Writer = (*IOWriter)(nil)
)

// FixedWriter writes into a caller-supplied buffer and fails with
// ErrBufferFull once the buffer cannot hold a write. A failed write leaves
// the buffer unchanged.
type FixedWriter struct {
	buf []byte
	n   int
}

func NewFixedWriter(buf []byte) *FixedWriter { return &FixedWriter{buf: buf} }

func (w *FixedWriter) Write(p []byte) (int, error) {
	if len(p) > len(w.buf)-w.n {
		return 0, ErrBufferFull
	}
	w.n += copy(w.buf[w.n:], p)
	return len(p), nil
}

func (w *FixedWriter) WriteByte(c byte) error {
	if w.n >= len(w.buf) {
		return ErrBufferFull
	}
	w.buf[w.n] = c
	w.n++
	return nil
}

// Bytes returns the filled prefix of the buffer.
func (w *FixedWriter) Bytes() []byte { return w.buf[:w.n] }

// Len returns the number of bytes written so far.
func (w *FixedWriter) Len() int { return w.n }

// BufferWriter is a growable owned buffer. Writes never fail.
type BufferWriter struct {
	buf bytes.Buffer
}

func NewBufferWriter(sizeHint int) *BufferWriter {
	w := &BufferWriter{}
	if sizeHint > 0 {
		w.buf.Grow(sizeHint)
	}
	return w
}

func (w *BufferWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *BufferWriter) WriteByte(c byte) error      { return w.buf.WriteByte(c) }
func (w *BufferWriter) Bytes() []byte               { return w.buf.Bytes() }
func (w *BufferWriter) Len() int                    { return w.buf.Len() }
func (w *BufferWriter) Reset()                      { w.buf.Reset() }

// CountingWriter discards everything and only counts bytes. It backs
// SerializedSize.
type CountingWriter struct {
	N int
}

func (w *CountingWriter) Write(p []byte) (int, error) {
	w.N += len(p)
	return len(p), nil
}

func (w *CountingWriter) WriteByte(byte) error {
	w.N++
	return nil
}

// IOWriter adapts an arbitrary io.Writer (file, socket) to Writer.
// It does not buffer; wrap w in a bufio.Writer for small-write heavy output.
type IOWriter struct {
	w   io.Writer
	one [1]byte
}

func NewIOWriter(w io.Writer) *IOWriter { return &IOWriter{w: w} }

func (w *IOWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

func (w *IOWriter) WriteByte(c byte) error {
	if bw, ok := w.w.(io.ByteWriter); ok {
		return bw.WriteByte(c)
	}
	w.one[0] = c
	_, err := w.Write(w.one[:])
	return err
}
