package tagbin

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

func str(s string) Value { return Value{Kind: KindString, Str: s} }

func mustUnmarshalValue(t *testing.T, b []byte) Value {
	t.Helper()
	var v Value
	if err := Unmarshal(b, &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return v
}

func everyShape() Value {
	return Value{Kind: KindStruct, Entries: []Entry{
		{str("none"), Value{Kind: KindNone}},
		{str("some"), Value{Kind: KindSome, Items: []Value{{Kind: KindBool, Bool: true}}}},
		{str("i16"), Value{Kind: KindInt, Int: -300, Width: TagI16}},
		{str("u32"), Value{Kind: KindUint, Uint: 70000, Width: TagU32}},
		{str("i128"), Value{Kind: KindInt128, Int128: Int128{Hi: -5, Lo: 9}}},
		{str("u128"), Value{Kind: KindUint128, Uint128: Uint128{Hi: 5, Lo: 9}}},
		{str("f32"), Value{Kind: KindFloat32, Float: 0.5}},
		{str("f64"), Value{Kind: KindFloat64, Float: -1e300}},
		{str("char"), Value{Kind: KindChar, Char: '€'}},
		{str("marker"), Value{Kind: KindString, Str: "streamed", Marker: true}},
		{str("bytes"), Value{Kind: KindBytes, Bytes: []byte{0, 1, 2}}},
		{str("unit"), Value{Kind: KindUnit}},
		{str("unit struct"), Value{Kind: KindUnitStruct}},
		{str("newtype"), Value{Kind: KindNewtypeStruct, Items: []Value{str("inner")}}},
		{str("seq"), Value{Kind: KindSeq, Items: []Value{{Kind: KindUint, Uint: 1, Width: TagU8}}}},
		{str("unsized"), Value{Kind: KindSeq, Unsized: true, Items: []Value{str("a"), str("b")}}},
		{str("tuple"), Value{Kind: KindTuple, Items: []Value{{Kind: KindBool}, str("x")}}},
		{str("tuple struct"), Value{Kind: KindTupleStruct, Items: []Value{{Kind: KindUnit}}}},
		{str("map"), Value{Kind: KindMap, Entries: []Entry{{Value{Kind: KindUint, Uint: 1}, str("one")}}}},
		{str("unsized map"), Value{Kind: KindMap, Unsized: true, Entries: []Entry{{str("k"), Value{Kind: KindNone}}}}},
		{str("unit variant"), Value{Kind: KindUnitVariant, Variant: 4}},
		{str("newtype variant"), Value{Kind: KindNewtypeVariant, Variant: 1000, Items: []Value{str("p")}}},
	}}
}

func TestValueRoundTrip(t *testing.T) {
	in := everyShape()
	b := mustMarshal(t, in)
	out := mustUnmarshalValue(t, b)
	if !in.Equal(out) {
		t.Fatalf("round trip changed the value:\n in  %s\n out %s", in, out)
	}
	// the recorded framing reproduces the same bytes
	again := mustMarshal(t, out)
	if !bytes.Equal(b, again) {
		t.Fatalf("re-encoding differs:\n % x\n % x", b, again)
	}
}

func TestValueRoundTripThroughStream(t *testing.T) {
	in := everyShape()
	b := mustMarshal(t, in, WithCompact(true))
	var out Value
	if err := UnmarshalReader(bytes.NewReader(b), &out); err != nil {
		t.Fatalf("UnmarshalReader: %v", err)
	}
	if !in.Equal(out) {
		t.Fatalf("round trip changed the value:\n in  %s\n out %s", in, out)
	}
}

func TestValueDoesNotAliasInput(t *testing.T) {
	b := mustMarshal(t, []any{"abc", []byte{1}})
	v := mustUnmarshalValue(t, b)
	for i := range b {
		b[i] = 0
	}
	if v.Items[0].Str != "abc" || v.Items[1].Bytes[0] != 1 {
		t.Fatalf("decoded value changed with its input: %s", v)
	}
}

func TestSizedAndUnsizedAreEqual(t *testing.T) {
	items := []Value{
		{Kind: KindUint, Uint: 1000, Width: TagU16},
		{Kind: KindUint, Uint: 2000, Width: TagU16},
		{Kind: KindUint, Uint: 3000, Width: TagU16},
	}
	sized := mustMarshal(t, Value{Kind: KindSeq, Items: items})
	unsized := mustMarshal(t, Value{Kind: KindSeq, Items: items, Unsized: true})
	if bytes.Equal(sized, unsized) {
		t.Fatal("framing should differ on the wire")
	}
	a, b := mustUnmarshalValue(t, sized), mustUnmarshalValue(t, unsized)
	if !a.Equal(b) {
		t.Fatalf("%s != %s", a, b)
	}
	if a.Unsized || !b.Unsized {
		t.Fatal("framing not recorded")
	}
}

func TestValueEqualSemantics(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int widths", Value{Kind: KindInt, Int: 5, Width: TagI8}, Value{Kind: KindInt, Int: 5}, true},
		{"int vs int128", Value{Kind: KindInt, Int: -1}, Value{Kind: KindInt128, Int128: Int128FromInt64(-1)}, true},
		{"uint vs uint128", Value{Kind: KindUint, Uint: 1}, Value{Kind: KindUint128, Uint128: Uint128{Lo: 1}}, true},
		{"signedness", Value{Kind: KindInt, Int: 5}, Value{Kind: KindUint, Uint: 5}, false},
		{"float widths", Value{Kind: KindFloat32, Float: 0.5}, Value{Kind: KindFloat64, Float: 0.5}, true},
		{"string modes", str("a"), Value{Kind: KindString, Str: "a", Marker: true}, true},
		{"string vs bytes", str("a"), Value{Kind: KindBytes, Bytes: []byte("a")}, false},
		{"seq vs tuple", Value{Kind: KindSeq}, Value{Kind: KindTuple}, false},
		{"variant index", Value{Kind: KindUnitVariant, Variant: 1}, Value{Kind: KindUnitVariant, Variant: 2}, false},
		{"entry order", Value{Kind: KindMap, Entries: []Entry{{str("a"), str("1")}, {str("b"), str("2")}}},
			Value{Kind: KindMap, Entries: []Entry{{str("b"), str("2")}, {str("a"), str("1")}}}, false},
	}
	for _, tc := range cases {
		if got := tc.a.Equal(tc.b); got != tc.want {
			t.Fatalf("%s: Equal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValueWidthOverflow(t *testing.T) {
	_, err := Marshal(Value{Kind: KindInt, Int: 300, Width: TagI8})
	var ce *CustomError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CustomError, got %v", err)
	}
	if _, err := Marshal(Value{Kind: KindUint, Width: TagI8}); !errors.As(err, &ce) {
		t.Fatalf("expected CustomError for mismatched width, got %v", err)
	}
	if _, err := Marshal(Value{Kind: KindSome}); !errors.As(err, &ce) {
		t.Fatalf("expected CustomError for empty Some, got %v", err)
	}
}

func TestValueTupleVariantNeedsArity(t *testing.T) {
	v := Value{Kind: KindTupleVariant, Variant: 2, Items: []Value{{Kind: KindBool, Bool: true}}}
	b := mustMarshal(t, v)
	var out Value
	err := Unmarshal(b, &out)
	var ce *CustomError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CustomError, got %v", err)
	}
}

func TestDiagnose(t *testing.T) {
	got, err := Diagnose(sampleBytes)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	want := `Struct{"foo": I32(-42), "bar": Some(U8(7)), "baz": false}`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}

	b := mustMarshal(t, Value{Kind: KindSeq, Unsized: true, Items: []Value{
		{Kind: KindBytes, Bytes: []byte{0xAB}},
		{Kind: KindChar, Char: 'x'},
		{Kind: KindNewtypeVariant, Variant: 3, Items: []Value{{Kind: KindUnit}}},
	}})
	got, err = Diagnose(b)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	want = `[_ h'ab', 'x', #3(())]`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestNativeConversion(t *testing.T) {
	v, err := FromNative(map[string]any{
		"b": []any{int8(-1), "x", nil},
		"a": uint16(7),
	})
	if err != nil {
		t.Fatalf("FromNative: %v", err)
	}
	if v.Kind != KindMap || len(v.Entries) != 2 || v.Entries[0].Key.Str != "a" {
		t.Fatalf("unexpected %s", v)
	}
	if w := v.Entries[0].Value.Width; w != TagU16 {
		t.Fatalf("width = %s", w)
	}
	if got := v.String(); got != `{"a": U16(7), "b": [I8(-1), "x", None]}` {
		t.Fatalf("unexpected %s", got)
	}

	n := v.Native().(map[string]any)
	if n["a"] != uint64(7) {
		t.Fatalf("a = %#v", n["a"])
	}
	if seq := n["b"].([]any); seq[0] != int64(-1) || seq[1] != "x" || seq[2] != nil {
		t.Fatalf("b = %#v", seq)
	}
}

func TestNativeVariantsAndBigInts(t *testing.T) {
	v := Value{Kind: KindNewtypeVariant, Variant: 2, Items: []Value{{Kind: KindChar, Char: 'z'}}}
	n := v.Native().(map[string]any)
	if n["2"] != "z" {
		t.Fatalf("variant native = %#v", n)
	}

	two64 := new(big.Int).Lsh(big.NewInt(1), 64)
	u, err := FromNative(two64)
	if err != nil || u.Kind != KindUint128 || u.Uint128 != (Uint128{Hi: 1}) {
		t.Fatalf("2^64 = %s, %v", u, err)
	}
	i, err := FromNative(new(big.Int).Neg(two64))
	if err != nil || i.Kind != KindInt128 || i.Int128 != (Int128{Hi: -1}) {
		t.Fatalf("-2^64 = %s, %v", i, err)
	}
	if b := u.Native().(*big.Int); b.Cmp(two64) != 0 {
		t.Fatalf("native 2^64 = %s", b)
	}
	if _, err := FromNative(new(big.Int).Lsh(big.NewInt(1), 200)); err == nil {
		t.Fatal("expected error for 200-bit integer")
	}
	if _, err := FromNative(struct{}{}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestInt128Conversions(t *testing.T) {
	if s := Int128FromInt64(-1).String(); s != "-1" {
		t.Fatalf("String = %s", s)
	}
	if _, ok := (Int128{Hi: 1}).Int64(); ok {
		t.Fatal("2^64 should not fit int64")
	}
	v, ok := Int128FromBig(Int128{Hi: -3, Lo: 17}.Big())
	if !ok || v != (Int128{Hi: -3, Lo: 17}) {
		t.Fatalf("big round trip = %v, %v", v, ok)
	}
	var got Uint128
	if err := Unmarshal(mustMarshal(t, Uint128{Hi: 1, Lo: 2}), &got); err != nil || got != (Uint128{Hi: 1, Lo: 2}) {
		t.Fatalf("Uint128 round trip = %v, %v", got, err)
	}
}
