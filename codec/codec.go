package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Sizer is implemented by codecs that can report the encoded size of a value
// without producing the bytes. store uses it to reject oversized values
// before encoding them.
type Sizer[V any] interface {
	Size(V) (int, error)
}
