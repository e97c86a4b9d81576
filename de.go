package tagbin

import (
	"math"
	"unicode/utf8"
	"unsafe"

	"github.com/unkn0wn-root/tagbin/internal/wire"
)

// Unmarshaler is implemented by types that decode themselves from a Deserializer.
type Unmarshaler interface {
	UnmarshalTagged(d *Deserializer) error
}

// UnmarshalFunc adapts a function to Unmarshaler.
type UnmarshalFunc func(d *Deserializer) error

func (f UnmarshalFunc) UnmarshalTagged(d *Deserializer) error { return f(d) }

// Deserializer decodes tagged values from a Reader. It is not safe for
// concurrent use.
//
// It holds at most one tag of lookahead. The slot is filled by PeekTag or by
// Enum and is always consumed before the next read from the source.
type Deserializer struct {
	r       Reader
	peeked  Tag
	hasPeek bool
	depth   int
	scratch [16]byte
}

// maxDepth bounds how deeply DecodeAny nests options, newtypes, collections
// and enum payloads.
const maxDepth = 1024

func NewDeserializer(r Reader) *Deserializer { return &Deserializer{r: r} }

// PopTag consumes the next tag, from the lookahead slot if it is full.
// A byte outside the tag table is consumed and reported as *InvalidTagError.
func (d *Deserializer) PopTag() (Tag, error) {
	if d.hasPeek {
		d.hasPeek = false
		return d.peeked, nil
	}
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, readErr(err)
	}
	return ParseTag(b)
}

// PeekTag returns the next tag without consuming it.
func (d *Deserializer) PeekTag() (Tag, error) {
	if d.hasPeek {
		return d.peeked, nil
	}
	t, err := d.PopTag()
	if err != nil {
		return 0, err
	}
	d.peeked, d.hasPeek = t, true
	return t, nil
}

// Buffered reports whether a tag sits in the lookahead slot.
func (d *Deserializer) Buffered() bool { return d.hasPeek }

// expect consumes the next tag if it is in accepted. Otherwise the tag stays
// in the lookahead slot so a caller can try a different decode.
func (d *Deserializer) expect(accepted []Tag) (Tag, error) {
	t, err := d.PeekTag()
	if err != nil {
		return 0, err
	}
	for _, a := range accepted {
		if t == a {
			d.hasPeek = false
			return t, nil
		}
	}
	return t, &UnexpectedTagError{Got: t, Expected: accepted}
}

func (d *Deserializer) readN(n int) ([]byte, error) {
	b := d.scratch[:n]
	if err := d.r.ReadInto(b); err != nil {
		return nil, readErr(err)
	}
	return b, nil
}

// readUint accepts widest or any narrower unsigned tag and zero extends.
func (d *Deserializer) readUint(widest Tag) (uint64, error) {
	t, err := d.expect(widthsUpTo(unsignedTags[:], widest))
	if err != nil {
		return 0, err
	}
	b, err := d.readN(t.size())
	if err != nil {
		return 0, err
	}
	return wire.Uint(b), nil
}

// readInt accepts widest or any narrower signed tag and sign extends.
func (d *Deserializer) readInt(widest Tag) (int64, error) {
	t, err := d.expect(widthsUpTo(signedTags[:], widest))
	if err != nil {
		return 0, err
	}
	b, err := d.readN(t.size())
	if err != nil {
		return 0, err
	}
	return wire.Int(b), nil
}

func (d *Deserializer) readLen() (int, error) {
	n, err := d.readUint(TagU64)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt {
		return 0, &LengthOverflowError{Len: n}
	}
	return int(n), nil
}

func (d *Deserializer) readVariant() (uint32, error) {
	v, err := d.readUint(TagU32)
	return uint32(v), err
}

var boolTags = []Tag{TagBoolFalse, TagBoolTrue}

func (d *Deserializer) Bool() (bool, error) {
	t, err := d.expect(boolTags)
	return t == TagBoolTrue, err
}

func (d *Deserializer) Int8() (int8, error) {
	v, err := d.readInt(TagI8)
	return int8(v), err
}

func (d *Deserializer) Int16() (int16, error) {
	v, err := d.readInt(TagI16)
	return int16(v), err
}

func (d *Deserializer) Int32() (int32, error) {
	v, err := d.readInt(TagI32)
	return int32(v), err
}

func (d *Deserializer) Int64() (int64, error) { return d.readInt(TagI64) }

func (d *Deserializer) Uint8() (uint8, error) {
	v, err := d.readUint(TagU8)
	return uint8(v), err
}

func (d *Deserializer) Uint16() (uint16, error) {
	v, err := d.readUint(TagU16)
	return uint16(v), err
}

func (d *Deserializer) Uint32() (uint32, error) {
	v, err := d.readUint(TagU32)
	return uint32(v), err
}

func (d *Deserializer) Uint64() (uint64, error) { return d.readUint(TagU64) }

// Int128 accepts every signed width.
func (d *Deserializer) Int128() (Int128, error) {
	t, err := d.expect(signedTags[:])
	if err != nil {
		return Int128{}, err
	}
	b, err := d.readN(t.size())
	if err != nil {
		return Int128{}, err
	}
	if t == TagI128 {
		hi, lo := wire.Uint128(b)
		return Int128{Hi: int64(hi), Lo: lo}, nil
	}
	return Int128FromInt64(wire.Int(b)), nil
}

// Uint128 accepts every unsigned width.
func (d *Deserializer) Uint128() (Uint128, error) {
	t, err := d.expect(unsignedTags[:])
	if err != nil {
		return Uint128{}, err
	}
	b, err := d.readN(t.size())
	if err != nil {
		return Uint128{}, err
	}
	if t == TagU128 {
		hi, lo := wire.Uint128(b)
		return Uint128{Hi: hi, Lo: lo}, nil
	}
	return Uint128{Lo: wire.Uint(b)}, nil
}

func (d *Deserializer) Float32() (float32, error) {
	if _, err := d.expect(floatTags[:1]); err != nil {
		return 0, err
	}
	b, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return wire.Float32(b), nil
}

// Float64 also accepts an F32 and widens it.
func (d *Deserializer) Float64() (float64, error) {
	t, err := d.expect(floatTags[:])
	if err != nil {
		return 0, err
	}
	b, err := d.readN(t.size())
	if err != nil {
		return 0, err
	}
	if t == TagF32 {
		return float64(wire.Float32(b)), nil
	}
	return wire.Float64(b), nil
}

func (d *Deserializer) Char() (rune, error) {
	t, err := d.expect(charTags[:])
	if err != nil {
		return 0, err
	}
	b, err := d.readN(t.size())
	if err != nil {
		return 0, err
	}
	r, n := utf8.DecodeRune(b)
	if n != len(b) || !utf8.Valid(b) {
		return 0, &InvalidUTF8Error{Len: len(b)}
	}
	return r, nil
}

var stringTags = []Tag{TagString, TagMarkerTerminatedString}

// str returns validated string bytes in either representation. The view
// aliases the input when the reader borrows.
func (d *Deserializer) str() ([]byte, error) {
	t, err := d.expect(stringTags)
	if err != nil {
		return nil, err
	}
	var b []byte
	if t == TagString {
		n, err := d.readLen()
		if err != nil {
			return nil, err
		}
		if b, err = d.r.ReadBorrowed(n); err != nil {
			return nil, readErr(err)
		}
	} else {
		view, err := d.r.ReadUntil(isEndOfString)
		if err != nil {
			return nil, readErr(err)
		}
		// the view always ends with the two marker bytes
		b = view[:len(view)-len(EndOfString)]
	}
	if !utf8.Valid(b) {
		return nil, &InvalidUTF8Error{Len: len(b)}
	}
	return b, nil
}

// String decodes either string representation into an owned string.
func (d *Deserializer) String() (string, error) {
	b, err := d.str()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BorrowString is String without the copy when the reader borrows: the
// result aliases the input buffer, which must not be modified while the
// string is in use. For copying readers it behaves like String.
func (d *Deserializer) BorrowString() (string, error) {
	b, err := d.str()
	if err != nil {
		return "", err
	}
	return d.viewString(b), nil
}

func (d *Deserializer) viewString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if d.r.Borrows() {
		return unsafe.String(unsafe.SliceData(b), len(b))
	}
	return string(b)
}

var bytesTags = []Tag{TagBytes}

// Bytes decodes a byte string. With a borrowing reader the result aliases
// the input.
func (d *Deserializer) Bytes() ([]byte, error) {
	if _, err := d.expect(bytesTags); err != nil {
		return nil, err
	}
	n, err := d.readLen()
	if err != nil {
		return nil, err
	}
	b, err := d.r.ReadBorrowed(n)
	if err != nil {
		return nil, readErr(err)
	}
	return b, nil
}

var optionTags = []Tag{TagNone, TagSome}

// Option consumes a None or Some tag. When it reports true the caller
// decodes the wrapped value next.
func (d *Deserializer) Option() (bool, error) {
	t, err := d.expect(optionTags)
	return t == TagSome, err
}

var (
	unitTags          = []Tag{TagUnit}
	unitStructTags    = []Tag{TagUnitStruct}
	newtypeStructTags = []Tag{TagNewtypeStruct}
)

func (d *Deserializer) Unit() error {
	_, err := d.expect(unitTags)
	return err
}

func (d *Deserializer) UnitStruct() error {
	_, err := d.expect(unitStructTags)
	return err
}

// NewtypeStruct consumes the wrapper tag; the caller decodes the inner value.
func (d *Deserializer) NewtypeStruct() error {
	_, err := d.expect(newtypeStructTags)
	return err
}

var (
	seqTags     = []Tag{TagSeq, TagTuple, TagTupleStruct, TagUnsizedSeq}
	mapTags     = []Tag{TagMap, TagStruct, TagUnsizedMap}
	variantTags = []Tag{TagUnitVariant, TagNewtypeVariant, TagTupleVariant, TagStructVariant}
)

func (d *Deserializer) collection(accepted []Tag, unsizedTag Tag) (cursor, Tag, error) {
	t, err := d.expect(accepted)
	if err != nil {
		return cursor{}, t, err
	}
	if t == unsizedTag {
		return cursor{d: d, unsized: true}, t, nil
	}
	n, err := d.readLen()
	if err != nil {
		return cursor{}, t, err
	}
	return cursor{d: d, remaining: n}, t, nil
}

// Seq opens a sequence, tuple or tuple struct, sized or unsized.
func (d *Deserializer) Seq() (*SeqAccess, error) {
	c, t, err := d.collection(seqTags, TagUnsizedSeq)
	if err != nil {
		return nil, err
	}
	return &SeqAccess{cursor: c, tag: t}, nil
}

// Tuple opens a sequence and checks that a length prefix, when present, is n.
func (d *Deserializer) Tuple(n int) (*SeqAccess, error) {
	a, err := d.Seq()
	if err != nil {
		return nil, err
	}
	if !a.unsized && a.remaining != n {
		return nil, Errorf("expected tuple of %d elements, found %d", n, a.remaining)
	}
	return a, nil
}

// Map opens a map or struct, sized or unsized.
func (d *Deserializer) Map() (*MapAccess, error) {
	c, t, err := d.collection(mapTags, TagUnsizedMap)
	if err != nil {
		return nil, err
	}
	return &MapAccess{cursor: c, tag: t}, nil
}

// Struct opens a struct; field names are string keys.
func (d *Deserializer) Struct() (*MapAccess, error) { return d.Map() }

// Enum reads an enum case tag and its variant index, then puts the case tag
// back into the lookahead slot. The matching EnumAccess method consumes it
// again and checks the case shape.
func (d *Deserializer) Enum() (*EnumAccess, error) {
	t, err := d.expect(variantTags)
	if err != nil {
		return nil, err
	}
	idx, err := d.readVariant()
	if err != nil {
		return nil, err
	}
	d.peeked, d.hasPeek = t, true
	return &EnumAccess{d: d, kind: t, index: idx}, nil
}

// cursor drives element iteration for sequences and maps.
type cursor struct {
	d         *Deserializer
	remaining int
	unsized   bool
	done      bool
}

func (c *cursor) next() (bool, error) {
	if c.done {
		return false, nil
	}
	if !c.unsized {
		if c.remaining == 0 {
			c.done = true
			return false, nil
		}
		c.remaining--
		return true, nil
	}
	t, err := c.d.PeekTag()
	if err != nil {
		return false, err
	}
	if t == TagUnsizedSeqEnd {
		c.d.hasPeek = false
		c.done = true
		return false, nil
	}
	return true, nil
}

// SeqAccess iterates the elements of a sequence.
type SeqAccess struct {
	cursor
	tag Tag
}

// Next reports whether another element follows. After true the caller must
// decode exactly one element; after false every further call returns false.
// For unsized sequences false means the end marker has been consumed.
func (a *SeqAccess) Next() (bool, error) { return a.next() }

// Element decodes the next element into v, reporting false at the end.
func (a *SeqAccess) Element(v Unmarshaler) (bool, error) {
	ok, err := a.next()
	if !ok || err != nil {
		return false, err
	}
	return true, v.UnmarshalTagged(a.d)
}

// Len returns the remaining element count; ok is false for unsized sequences.
func (a *SeqAccess) Len() (n int, ok bool) { return a.remaining, !a.unsized }

// Tag returns the tag the sequence was opened with.
func (a *SeqAccess) Tag() Tag { return a.tag }

// MapAccess iterates the entries of a map or struct. Keys and values share
// one cursor: after Next reports true the caller decodes a key then a value.
type MapAccess struct {
	cursor
	tag Tag
}

func (a *MapAccess) Next() (bool, error) { return a.next() }

// Entry decodes the next key into k and value into v.
func (a *MapAccess) Entry(k, v Unmarshaler) (bool, error) {
	ok, err := a.next()
	if !ok || err != nil {
		return false, err
	}
	if err := k.UnmarshalTagged(a.d); err != nil {
		return true, err
	}
	return true, v.UnmarshalTagged(a.d)
}

func (a *MapAccess) Len() (n int, ok bool) { return a.remaining, !a.unsized }
func (a *MapAccess) Tag() Tag              { return a.tag }

// EnumAccess decodes the payload of an enum case read by Deserializer.Enum.
type EnumAccess struct {
	d     *Deserializer
	kind  Tag
	index uint32
}

// Index returns the variant index.
func (e *EnumAccess) Index() uint32 { return e.index }

// Kind returns the case tag: UnitVariant, NewtypeVariant, TupleVariant or StructVariant.
func (e *EnumAccess) Kind() Tag { return e.kind }

var (
	unitVariantTags    = []Tag{TagUnitVariant}
	newtypeVariantTags = []Tag{TagNewtypeVariant}
	tupleVariantTags   = []Tag{TagTupleVariant}
	structVariantTags  = []Tag{TagStructVariant}
)

func (e *EnumAccess) Unit() error {
	_, err := e.d.expect(unitVariantTags)
	return err
}

// Newtype checks the case shape; the caller decodes the wrapped value next.
func (e *EnumAccess) Newtype() error {
	_, err := e.d.expect(newtypeVariantTags)
	return err
}

// Tuple opens the n elements of a tuple case.
func (e *EnumAccess) Tuple(n int) (*SeqAccess, error) {
	if _, err := e.d.expect(tupleVariantTags); err != nil {
		return nil, err
	}
	return &SeqAccess{cursor: cursor{d: e.d, remaining: n}, tag: TagTupleVariant}, nil
}

// Struct opens the n fields of a struct case.
func (e *EnumAccess) Struct(n int) (*MapAccess, error) {
	if _, err := e.d.expect(structVariantTags); err != nil {
		return nil, err
	}
	return &MapAccess{cursor: cursor{d: e.d, remaining: n}, tag: TagStructVariant}, nil
}

// Visitor receives one call per value shape from DecodeAny.
//
// Borrowed strings and bytes alias the input and must be copied if kept
// beyond the lifetime of the input buffer.
type Visitor interface {
	VisitNone() error
	VisitSome(d *Deserializer) error
	VisitBool(v bool) error
	VisitInt(v int64) error
	VisitUint(v uint64) error
	VisitInt128(v Int128) error
	VisitUint128(v Uint128) error
	VisitFloat32(v float32) error
	VisitFloat64(v float64) error
	VisitChar(v rune) error
	VisitString(v string, borrowed bool) error
	VisitBytes(v []byte, borrowed bool) error
	VisitUnit() error
	VisitNewtype(d *Deserializer) error
	VisitSeq(a *SeqAccess) error
	VisitMap(a *MapAccess) error
	VisitEnum(e *EnumAccess) error
}

// DecodeAny peeks the next tag and hands the value to the matching Visitor
// method. Unit and unit structs both arrive as VisitUnit; callers that care
// call PeekTag first.
func (d *Deserializer) DecodeAny(v Visitor) error {
	t, err := d.PeekTag()
	if err != nil {
		return err
	}
	if nests(t) {
		if d.depth >= maxDepth {
			return &DepthError{Max: maxDepth}
		}
		d.depth++
		defer func() { d.depth-- }()
	}
	switch t {
	case TagNone, TagSome:
		some, err := d.Option()
		if err != nil {
			return err
		}
		if some {
			return v.VisitSome(d)
		}
		return v.VisitNone()
	case TagBoolFalse, TagBoolTrue:
		b, err := d.Bool()
		if err != nil {
			return err
		}
		return v.VisitBool(b)
	case TagI8, TagI16, TagI32, TagI64:
		i, err := d.Int64()
		if err != nil {
			return err
		}
		return v.VisitInt(i)
	case TagU8, TagU16, TagU32, TagU64:
		u, err := d.Uint64()
		if err != nil {
			return err
		}
		return v.VisitUint(u)
	case TagI128:
		i, err := d.Int128()
		if err != nil {
			return err
		}
		return v.VisitInt128(i)
	case TagU128:
		u, err := d.Uint128()
		if err != nil {
			return err
		}
		return v.VisitUint128(u)
	case TagF32:
		f, err := d.Float32()
		if err != nil {
			return err
		}
		return v.VisitFloat32(f)
	case TagF64:
		f, err := d.Float64()
		if err != nil {
			return err
		}
		return v.VisitFloat64(f)
	case TagChar1, TagChar2, TagChar3, TagChar4:
		r, err := d.Char()
		if err != nil {
			return err
		}
		return v.VisitChar(r)
	case TagString, TagMarkerTerminatedString:
		b, err := d.str()
		if err != nil {
			return err
		}
		return v.VisitString(d.viewString(b), d.r.Borrows())
	case TagBytes:
		b, err := d.Bytes()
		if err != nil {
			return err
		}
		return v.VisitBytes(b, d.r.Borrows())
	case TagUnit, TagUnitStruct:
		d.hasPeek = false
		return v.VisitUnit()
	case TagNewtypeStruct:
		d.hasPeek = false
		return v.VisitNewtype(d)
	case TagSeq, TagUnsizedSeq, TagTuple, TagTupleStruct:
		a, err := d.Seq()
		if err != nil {
			return err
		}
		return v.VisitSeq(a)
	case TagMap, TagUnsizedMap, TagStruct:
		a, err := d.Map()
		if err != nil {
			return err
		}
		return v.VisitMap(a)
	case TagUnitVariant, TagNewtypeVariant, TagTupleVariant, TagStructVariant:
		e, err := d.Enum()
		if err != nil {
			return err
		}
		return v.VisitEnum(e)
	default:
		// UnsizedSeqEnd outside an unsized collection
		return &UnexpectedTagError{Got: t}
	}
}

func nests(t Tag) bool {
	switch t {
	case TagSome, TagNewtypeStruct,
		TagSeq, TagUnsizedSeq, TagTuple, TagTupleStruct,
		TagMap, TagUnsizedMap, TagStruct:
		return true
	}
	return t.IsVariant()
}

// Skip decodes and discards the next value.
func (d *Deserializer) Skip() error { return d.DecodeAny(skipVisitor{}) }

type skipVisitor struct{}

func (skipVisitor) VisitNone() error                   { return nil }
func (skipVisitor) VisitSome(d *Deserializer) error    { return d.Skip() }
func (skipVisitor) VisitBool(bool) error               { return nil }
func (skipVisitor) VisitInt(int64) error               { return nil }
func (skipVisitor) VisitUint(uint64) error             { return nil }
func (skipVisitor) VisitInt128(Int128) error           { return nil }
func (skipVisitor) VisitUint128(Uint128) error         { return nil }
func (skipVisitor) VisitFloat32(float32) error         { return nil }
func (skipVisitor) VisitFloat64(float64) error         { return nil }
func (skipVisitor) VisitChar(rune) error               { return nil }
func (skipVisitor) VisitString(string, bool) error     { return nil }
func (skipVisitor) VisitBytes([]byte, bool) error      { return nil }
func (skipVisitor) VisitUnit() error                   { return nil }
func (skipVisitor) VisitNewtype(d *Deserializer) error { return d.Skip() }

func (skipVisitor) VisitSeq(a *SeqAccess) error {
	for {
		ok, err := a.Next()
		if !ok || err != nil {
			return err
		}
		if err := a.d.Skip(); err != nil {
			return err
		}
	}
}

func (skipVisitor) VisitMap(a *MapAccess) error {
	for {
		ok, err := a.Next()
		if !ok || err != nil {
			return err
		}
		if err := a.d.Skip(); err != nil {
			return err
		}
		if err := a.d.Skip(); err != nil {
			return err
		}
	}
}

func (skipVisitor) VisitEnum(e *EnumAccess) error {
	switch e.Kind() {
	case TagUnitVariant:
		return e.Unit()
	case TagNewtypeVariant:
		if err := e.Newtype(); err != nil {
			return err
		}
		return e.d.Skip()
	default:
		return errArityUnknown(e)
	}
}

func errArityUnknown(e *EnumAccess) error {
	return Errorf("%s %d cannot be decoded without its arity", e.kind, e.index)
}
