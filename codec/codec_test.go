package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/unkn0wn-root/tagbin"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type user struct {
	ID   string `json:"id" msgpack:"id" cbor:"id"`
	Name string `json:"name" msgpack:"name" cbor:"name"`
	Age  uint8  `json:"age" msgpack:"age" cbor:"age"`
}

func (u user) MarshalTagged(s *tagbin.Serializer) (int, error) {
	c, err := s.Struct(3)
	if err != nil {
		return 0, err
	}
	if err := c.Field("id", u.ID); err != nil {
		return 0, err
	}
	if err := c.Field("name", u.Name); err != nil {
		return 0, err
	}
	if err := c.Field("age", u.Age); err != nil {
		return 0, err
	}
	return c.Finish()
}

func (u *user) UnmarshalTagged(d *tagbin.Deserializer) error {
	m, err := d.Struct()
	if err != nil {
		return err
	}
	for {
		ok, err := m.Next()
		if err != nil || !ok {
			return err
		}
		name, err := d.BorrowString()
		if err != nil {
			return err
		}
		switch name {
		case "id":
			u.ID, err = d.String()
		case "name":
			u.Name, err = d.String()
		case "age":
			u.Age, err = d.Uint8()
		default:
			err = d.Skip()
		}
		if err != nil {
			return err
		}
	}
}

var ada = user{ID: "1", Name: "Ada", Age: 36}

func roundTrip[V comparable](t *testing.T, c Codec[V], v V) {
	t.Helper()
	b, err := c.Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != v {
		t.Fatalf("round trip: got %+v, want %+v", got, v)
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	t.Run("tagged", func(t *testing.T) { roundTrip[user](t, Tagged[user, *user]{}, ada) })
	t.Run("tagged compact", func(t *testing.T) { roundTrip[user](t, Tagged[user, *user]{Compact: true}, ada) })
	t.Run("json", func(t *testing.T) { roundTrip[user](t, JSON[user]{}, ada) })
	t.Run("msgpack", func(t *testing.T) { roundTrip[user](t, Msgpack[user]{}, ada) })
	t.Run("cbor", func(t *testing.T) { roundTrip[user](t, MustCBOR[user](false), ada) })
	t.Run("cbor deterministic", func(t *testing.T) { roundTrip[user](t, MustCBOR[user](true), ada) })
	t.Run("string", func(t *testing.T) { roundTrip[string](t, String{}, "héllo") })
}

func TestTaggedSizeMatchesEncode(t *testing.T) {
	for _, c := range []Tagged[user, *user]{{}, {Compact: true}} {
		b, err := c.Encode(ada)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		n, err := c.Size(ada)
		if err != nil || n != len(b) {
			t.Fatalf("Size = %d, %v; encoded %d", n, err, len(b))
		}
	}
}

func TestTaggedValueCodec(t *testing.T) {
	var c Value
	in := tagbin.Value{Kind: tagbin.KindSeq, Unsized: true, Items: []tagbin.Value{
		{Kind: tagbin.KindString, Str: "a"},
		{Kind: tagbin.KindUnitVariant, Variant: 2},
	}}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !in.Equal(out) || !out.Unsized {
		t.Fatalf("got %s", out)
	}
}

func TestTaggedDecodeRejectsGarbage(t *testing.T) {
	_, err := Tagged[user, *user]{}.Decode([]byte{0xFF})
	if !tagbin.IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hi"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if n, _ := c.Size(wrapperspb.String("hi")); n != len(b) {
		t.Fatalf("Size = %d, encoded %d", n, len(b))
	}
	got, err := c.Decode(b)
	if err != nil || got.GetValue() != "hi" {
		t.Fatalf("Decode = %v, %v", got, err)
	}
}

func TestLimit(t *testing.T) {
	c := Limit[user]{Inner: Tagged[user, *user]{}, MaxDecode: 8, MaxEncode: 8}
	_, err := c.Encode(ada)
	var se *SizeError
	if !errors.As(err, &se) || se.Op != "encode" {
		t.Fatalf("expected encode SizeError, got %v", err)
	}

	raw := Limit[[]byte]{Inner: Bytes{}, MaxDecode: 2}
	if _, err := raw.Decode([]byte("abc")); !errors.As(err, &se) || se.Op != "decode" {
		t.Fatalf("expected decode SizeError, got %v", err)
	}
	if b, err := raw.Decode([]byte("ab")); err != nil || string(b) != "ab" {
		t.Fatalf("Decode = %q, %v", b, err)
	}
	if n, err := raw.Size([]byte("abc")); err != nil || n != 3 {
		t.Fatalf("Size = %d, %v", n, err)
	}
}

func TestLimitWithoutSizer(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxEncode: 3}
	if _, err := c.Encode("abcd"); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}
	if b, err := c.Encode("abc"); err != nil || string(b) != "abc" {
		t.Fatalf("Encode = %q, %v", b, err)
	}
}

func TestCBORDiagnose(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	b, err := c.Encode(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	d, err := c.Diagnose(b)
	if err != nil || d != `{"a": 1}` {
		t.Fatalf("Diagnose = %q, %v", d, err)
	}
}
