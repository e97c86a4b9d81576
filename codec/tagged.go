package codec

import "github.com/unkn0wn-root/tagbin"

// Tagged is a Codec for the tagbin format. V describes itself with
// tagbin.Marshaler and *V decodes itself with tagbin.Unmarshaler:
//
//	type User struct{ ... }
//	func (u User) MarshalTagged(s *tagbin.Serializer) (int, error)
//	func (u *User) UnmarshalTagged(d *tagbin.Deserializer) error
//
//	c := codec.Tagged[User, *User]{Compact: true}
//
// Decode reads with a borrowing reader, so values that use BorrowString or
// Bytes alias the input slice.
type Tagged[V tagbin.Marshaler, P interface {
	*V
	tagbin.Unmarshaler
}] struct {
	// Compact writes integers at the narrowest width that holds them.
	Compact bool
}

// Value encodes arbitrary tagbin values without a Go type of their own.
type Value = Tagged[tagbin.Value, *tagbin.Value]

var (
	_ Codec[tagbin.Value] = Value{}
	_ Sizer[tagbin.Value] = Value{}
)

func (c Tagged[V, P]) Encode(v V) ([]byte, error) {
	return tagbin.Marshal(v, tagbin.WithCompact(c.Compact))
}

func (c Tagged[V, P]) Decode(b []byte) (V, error) {
	var v V
	err := tagbin.Unmarshal(b, P(&v))
	return v, err
}

// Size returns the exact length Encode would produce.
func (c Tagged[V, P]) Size(v V) (int, error) {
	return tagbin.SerializedSize(v, tagbin.WithCompact(c.Compact))
}
