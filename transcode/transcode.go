// Package transcode converts between tagbin and other self-describing
// formats by way of tagbin.Value.
//
// Conversions go through plain Go values, so information that only one side
// can express is lost: integer widths, struct and tuple names, entry order
// and enum shape (variants become single-key maps).
package transcode

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/unkn0wn-root/tagbin"
	"github.com/unkn0wn-root/tagbin/codec"
)

var (
	cborAny    = codec.MustCBOR[any](true)
	msgpackAny = codec.Msgpack[any]{}
	jsonAny    = codec.JSON[any]{}
	values     = codec.Value{}
)

func to(b []byte, c codec.Codec[any]) ([]byte, error) {
	v, err := values.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("transcode: decode tagbin: %w", err)
	}
	out, err := c.Encode(v.Native())
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}
	return out, nil
}

func from(native any, opts []tagbin.Option) ([]byte, error) {
	v, err := tagbin.FromNative(native)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}
	return tagbin.Marshal(v, opts...)
}

// ToJSON converts one tagbin value to JSON. Byte strings become base64.
func ToJSON(b []byte) ([]byte, error) { return to(b, jsonAny) }

// ToCBOR converts one tagbin value to deterministic CBOR.
func ToCBOR(b []byte) ([]byte, error) { return to(b, cborAny) }

// ToMsgpack converts one tagbin value to MessagePack.
func ToMsgpack(b []byte) ([]byte, error) { return to(b, msgpackAny) }

// FromJSON converts a single JSON document. Integral numbers become I64 or
// U64 (or 128-bit when larger), everything else F64.
func FromJSON(b []byte, opts ...tagbin.Option) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var native any
	if err := dec.Decode(&native); err != nil {
		return nil, fmt.Errorf("transcode: decode json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("transcode: trailing data after json value")
	}
	return from(native, opts)
}

func FromCBOR(b []byte, opts ...tagbin.Option) ([]byte, error) {
	native, err := cborAny.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("transcode: decode cbor: %w", err)
	}
	return from(native, opts)
}

func FromMsgpack(b []byte, opts ...tagbin.Option) ([]byte, error) {
	native, err := msgpackAny.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("transcode: decode msgpack: %w", err)
	}
	return from(native, opts)
}
