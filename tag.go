package tagbin

import (
	"fmt"
	"unicode/utf8"
)

// Tag is the one-byte discriminant written before every value.
// These values are protocol constants; changing them breaks wire compatibility.
type Tag uint8

const (
	TagNone Tag = iota
	TagSome
	TagBoolFalse
	TagBoolTrue
	TagI8
	TagI16
	TagI32
	TagI64
	TagU8
	TagU16
	TagU32
	TagU64
	TagF32
	TagF64
	TagChar1
	TagChar2
	TagChar3
	TagChar4
	TagString
	TagMarkerTerminatedString
	TagBytes
	TagUnit
	TagUnitStruct
	TagUnitVariant
	TagNewtypeStruct
	TagNewtypeVariant
	TagSeq
	TagUnsizedSeq
	TagUnsizedSeqEnd
	TagTuple
	TagTupleStruct
	TagTupleVariant
	TagMap
	TagUnsizedMap
	TagStruct
	TagStructVariant
	TagI128
	TagU128

	tagCount
)

// EndOfString terminates a marker-terminated string. It is not escaped, so
// content that contains these two bytes cannot be told apart from the end.
var EndOfString = [2]byte{0xD8, 0x00}

func isEndOfString(p [2]byte) bool { return p == EndOfString }

var tagNames = [tagCount]string{
	"None", "Some", "BoolFalse", "BoolTrue",
	"I8", "I16", "I32", "I64",
	"U8", "U16", "U32", "U64",
	"F32", "F64",
	"Char1", "Char2", "Char3", "Char4",
	"String", "MarkerTerminatedString", "Bytes",
	"Unit", "UnitStruct", "UnitVariant",
	"NewtypeStruct", "NewtypeVariant",
	"Seq", "UnsizedSeq", "UnsizedSeqEnd",
	"Tuple", "TupleStruct", "TupleVariant",
	"Map", "UnsizedMap",
	"Struct", "StructVariant",
	"I128", "U128",
}

// ParseTag maps a byte to its Tag. Bytes outside the table yield *InvalidTagError.
func ParseTag(b byte) (Tag, error) {
	if b >= byte(tagCount) {
		return 0, &InvalidTagError{Byte: b}
	}
	return Tag(b), nil
}

func (t Tag) String() string {
	if t < tagCount {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// IsVariant reports whether t opens an enum case.
func (t Tag) IsVariant() bool {
	switch t {
	case TagUnitVariant, TagNewtypeVariant, TagTupleVariant, TagStructVariant:
		return true
	}
	return false
}

// numeric widths, narrowest first; the compaction and widening routines walk these.
var (
	unsignedTags = [...]Tag{TagU8, TagU16, TagU32, TagU64, TagU128}
	signedTags   = [...]Tag{TagI8, TagI16, TagI32, TagI64, TagI128}
	floatTags    = [...]Tag{TagF32, TagF64}
	charTags     = [...]Tag{TagChar1, TagChar2, TagChar3, TagChar4}
)

// size returns the payload size in bytes of a fixed-width tag, 0 otherwise.
func (t Tag) size() int {
	switch t {
	case TagI8, TagU8, TagChar1:
		return 1
	case TagI16, TagU16, TagChar2:
		return 2
	case TagChar3:
		return 3
	case TagI32, TagU32, TagF32, TagChar4:
		return 4
	case TagI64, TagU64, TagF64:
		return 8
	case TagI128, TagU128:
		return 16
	}
	return 0
}

// widthsUpTo returns the prefix of table ending at widest (inclusive).
func widthsUpTo(table []Tag, widest Tag) []Tag {
	for i, t := range table {
		if t == widest {
			return table[:i+1]
		}
	}
	return nil
}

func charTag(r rune) (Tag, []byte) {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	return charTags[n-1], buf[:n]
}
