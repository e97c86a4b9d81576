package transcode

import (
	"testing"

	"github.com/unkn0wn-root/tagbin"
)

func s(v string) tagbin.Value { return tagbin.Value{Kind: tagbin.KindString, Str: v} }

func mustMarshal(t *testing.T, v tagbin.Value) []byte {
	t.Helper()
	b, err := tagbin.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func mustValue(t *testing.T, b []byte) tagbin.Value {
	t.Helper()
	var v tagbin.Value
	if err := tagbin.Unmarshal(b, &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return v
}

func TestToJSON(t *testing.T) {
	in := tagbin.Value{Kind: tagbin.KindStruct, Entries: []tagbin.Entry{
		{Key: s("name"), Value: s("ada")},
		{Key: s("n"), Value: tagbin.Value{Kind: tagbin.KindUint, Uint: 7, Width: tagbin.TagU8}},
		{Key: s("tags"), Value: tagbin.Value{Kind: tagbin.KindSeq, Unsized: true, Items: []tagbin.Value{s("x")}}},
		{Key: s("opt"), Value: tagbin.Value{Kind: tagbin.KindNone}},
	}}
	got, err := ToJSON(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	want := `{"n":7,"name":"ada","opt":null,"tags":["x"]}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestFromJSON(t *testing.T) {
	b, err := FromJSON([]byte(`{"b":[1,2.5,"x",null,true],"a":-3}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	d, err := tagbin.Diagnose(b)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	want := `{"a": I64(-3), "b": [I64(1), F64(2.5), "x", None, true]}`
	if d != want {
		t.Fatalf("got %s, want %s", d, want)
	}
}

func TestFromJSONCompactAndBigNumbers(t *testing.T) {
	b, err := FromJSON([]byte(`[1, 18446744073709551615, 18446744073709551616]`), tagbin.WithCompact(true))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	d, err := tagbin.Diagnose(b)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	want := `[I8(1), U64(18446744073709551615), U128(18446744073709551616)]`
	if d != want {
		t.Fatalf("got %s, want %s", d, want)
	}
}

func TestFromJSONRejectsTrailingData(t *testing.T) {
	if _, err := FromJSON([]byte(`1 2`)); err == nil {
		t.Fatal("expected error")
	}
	if _, err := FromJSON([]byte(`{`)); err == nil {
		t.Fatal("expected error")
	}
}

func portable() tagbin.Value {
	return tagbin.Value{Kind: tagbin.KindMap, Entries: []tagbin.Entry{
		{Key: s("a"), Value: tagbin.Value{Kind: tagbin.KindInt, Int: -3}},
		{Key: s("b"), Value: tagbin.Value{Kind: tagbin.KindSeq, Items: []tagbin.Value{
			s("x"),
			{Kind: tagbin.KindBool, Bool: true},
			{Kind: tagbin.KindBytes, Bytes: []byte{1, 2}},
			{Kind: tagbin.KindNone},
		}}},
	}}
}

func TestCBORRoundTrip(t *testing.T) {
	in := portable()
	c, err := ToCBOR(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ToCBOR: %v", err)
	}
	b, err := FromCBOR(c)
	if err != nil {
		t.Fatalf("FromCBOR: %v", err)
	}
	if out := mustValue(t, b); !in.Equal(out) {
		t.Fatalf("got %s, want %s", out, in)
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	in := portable()
	m, err := ToMsgpack(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ToMsgpack: %v", err)
	}
	b, err := FromMsgpack(m)
	if err != nil {
		t.Fatalf("FromMsgpack: %v", err)
	}
	if out := mustValue(t, b); !in.Equal(out) {
		t.Fatalf("got %s, want %s", out, in)
	}
}

func TestToRejectsMalformedInput(t *testing.T) {
	if _, err := ToJSON([]byte{0xFF}); !tagbin.IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}
