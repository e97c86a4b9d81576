package tagbin

import (
	"errors"
	"testing"
)

// The numeric values are part of the wire format.
func TestTagValuesArePinned(t *testing.T) {
	cases := []struct {
		tag  Tag
		want byte
	}{
		{TagNone, 0}, {TagSome, 1}, {TagBoolFalse, 2}, {TagBoolTrue, 3},
		{TagI8, 4}, {TagI64, 7}, {TagU8, 8}, {TagU64, 11},
		{TagF32, 12}, {TagF64, 13}, {TagChar1, 14}, {TagChar4, 17},
		{TagString, 18}, {TagMarkerTerminatedString, 19}, {TagBytes, 20},
		{TagUnit, 21}, {TagUnitStruct, 22}, {TagUnitVariant, 23},
		{TagNewtypeStruct, 24}, {TagNewtypeVariant, 25},
		{TagSeq, 26}, {TagUnsizedSeq, 27}, {TagUnsizedSeqEnd, 28},
		{TagTuple, 29}, {TagTupleStruct, 30}, {TagTupleVariant, 31},
		{TagMap, 32}, {TagUnsizedMap, 33}, {TagStruct, 34}, {TagStructVariant, 35},
		{TagI128, 36}, {TagU128, 37},
	}
	for _, tc := range cases {
		if byte(tc.tag) != tc.want {
			t.Fatalf("%s = %d, want %d", tc.tag, byte(tc.tag), tc.want)
		}
	}
}

func TestParseTagIsTotal(t *testing.T) {
	for b := 0; b < 256; b++ {
		tag, err := ParseTag(byte(b))
		if b < int(tagCount) {
			if err != nil || byte(tag) != byte(b) {
				t.Fatalf("ParseTag(%d) = %v, %v", b, tag, err)
			}
			continue
		}
		var it *InvalidTagError
		if !errors.As(err, &it) || it.Byte != byte(b) {
			t.Fatalf("ParseTag(%d): expected InvalidTagError, got %v", b, err)
		}
	}
}

func TestTagStringAndVariant(t *testing.T) {
	if TagMarkerTerminatedString.String() != "MarkerTerminatedString" {
		t.Fatalf("unexpected name %q", TagMarkerTerminatedString.String())
	}
	if Tag(200).String() != "Tag(200)" {
		t.Fatalf("unexpected name %q", Tag(200).String())
	}
	for _, tag := range []Tag{TagUnitVariant, TagNewtypeVariant, TagTupleVariant, TagStructVariant} {
		if !tag.IsVariant() {
			t.Fatalf("%s should be a variant", tag)
		}
	}
	if TagNewtypeStruct.IsVariant() {
		t.Fatal("NewtypeStruct is not a variant")
	}
}

func TestCharTagCarriesUTF8Length(t *testing.T) {
	cases := []struct {
		r    rune
		want Tag
	}{
		{'a', TagChar1}, {'é', TagChar2}, {'€', TagChar3}, {'😀', TagChar4},
	}
	for _, tc := range cases {
		tag, b := charTag(tc.r)
		if tag != tc.want || tag.size() != len(b) {
			t.Fatalf("charTag(%q) = %s/%d bytes, want %s", tc.r, tag, len(b), tc.want)
		}
	}
}
