package codec

import "fmt"

// SizeError reports a payload rejected by Limit.
type SizeError struct {
	Op   string // "encode" or "decode"
	Size int
	Max  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("codec: %s payload too large: %d > %d", e.Op, e.Size, e.Max)
}

// Limit wraps another codec to enforce maximum payload sizes.
// A limit <= 0 disables the check on that side.
//
// Typical use: protect against oversized/malicious inputs coming from a
// shared cache or untrusted source.
type Limit[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec[V]
	// MaxDecode is the maximum permitted length of the incoming payload.
	// Decode fails without invoking Inner above it.
	MaxDecode int
	// MaxEncode caps the length of encoded output. When Inner is a Sizer
	// the check runs before encoding.
	MaxEncode int
}

var _ Sizer[[]byte] = Limit[[]byte]{}

func (c Limit[V]) Encode(v V) ([]byte, error) {
	if c.MaxEncode > 0 {
		if s, ok := c.Inner.(Sizer[V]); ok {
			n, err := s.Size(v)
			if err != nil {
				return nil, err
			}
			if n > c.MaxEncode {
				return nil, &SizeError{Op: "encode", Size: n, Max: c.MaxEncode}
			}
		}
	}
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxEncode > 0 && len(b) > c.MaxEncode {
		return nil, &SizeError{Op: "encode", Size: len(b), Max: c.MaxEncode}
	}
	return b, nil
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, &SizeError{Op: "decode", Size: len(b), Max: c.MaxDecode}
	}
	return c.Inner.Decode(b)
}

// Size forwards to Inner when it is a Sizer and encodes otherwise.
func (c Limit[V]) Size(v V) (int, error) {
	if s, ok := c.Inner.(Sizer[V]); ok {
		return s.Size(v)
	}
	b, err := c.Inner.Encode(v)
	return len(b), err
}
