package tagbin

import (
	"fmt"
	"io"
)

// Option configures a Serializer or an encode call.
type Option func(*config)

type config struct {
	compact  bool
	sizeHint int
}

// WithCompact makes integers use the narrowest width that holds their value.
// Lengths and variant indices are compacted regardless.
func WithCompact(on bool) Option { return func(c *config) { c.compact = on } }

// WithSizeHint preallocates the output buffer of Marshal.
func WithSizeHint(n int) Option { return func(c *config) { c.sizeHint = n } }

func newConfig(opts []Option) config {
	var c config
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	c.sizeHint = coalesce(c.sizeHint, defaultSizeHint)
	return c
}

// Encode writes v to w and returns the number of bytes written.
func Encode(w Writer, v any, opts ...Option) (int, error) {
	return NewSerializer(w, opts...).Encode(v)
}

// Marshal encodes v into a new buffer.
func Marshal(v any, opts ...Option) ([]byte, error) {
	w := NewBufferWriter(newConfig(opts).sizeHint)
	if _, err := Encode(w, v, opts...); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// MarshalTo encodes v into buf and returns the filled prefix. When buf is
// too small the error wraps ErrBufferFull.
func MarshalTo(buf []byte, v any, opts ...Option) ([]byte, error) {
	w := NewFixedWriter(buf)
	if _, err := Encode(w, v, opts...); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// MarshalWriter encodes v to an io.Writer.
func MarshalWriter(w io.Writer, v any, opts ...Option) (int, error) {
	return Encode(NewIOWriter(w), v, opts...)
}

// SerializedSize returns the encoded size of v without writing it anywhere.
func SerializedSize(v any, opts ...Option) (int, error) {
	return Encode(&CountingWriter{}, v, opts...)
}

// Unmarshal decodes b into v. Strings and bytes that v borrows alias b.
// Bytes left over after the value are an error.
func Unmarshal(b []byte, v Unmarshaler) error {
	r := NewSliceReader(b)
	d := NewDeserializer(r)
	if err := v.UnmarshalTagged(d); err != nil {
		return err
	}
	if rest := r.Remaining(); rest > 0 || d.Buffered() {
		if d.Buffered() {
			rest++
		}
		return Errorf("%d trailing bytes after value", rest)
	}
	return nil
}

// UnmarshalReader decodes one value from r into v, always copying. The
// reader is buffered, so r may be read past the end of the value.
func UnmarshalReader(r io.Reader, v Unmarshaler) error {
	return v.UnmarshalTagged(NewDeserializer(NewStreamReader(r)))
}

// Diagnose renders the single value in b in a human-readable notation,
// e.g. Struct{"foo": I32(-42)}.
func Diagnose(b []byte) (string, error) {
	var v Value
	if err := Unmarshal(b, &v); err != nil {
		return "", fmt.Errorf("diagnose: %w", err)
	}
	return v.String(), nil
}
