package tagbin

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/tagbin/internal/wire"
)

// Kind identifies the shape held by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindSome
	KindBool
	KindInt
	KindUint
	KindInt128
	KindUint128
	KindFloat32
	KindFloat64
	KindChar
	KindString
	KindBytes
	KindUnit
	KindUnitStruct
	KindNewtypeStruct
	KindSeq
	KindTuple
	KindTupleStruct
	KindMap
	KindStruct
	KindUnitVariant
	KindNewtypeVariant
	KindTupleVariant
	KindStructVariant
)

var kindNames = [...]string{
	"None", "Some", "Bool", "Int", "Uint", "Int128", "Uint128", "Float32", "Float64",
	"Char", "String", "Bytes", "Unit", "UnitStruct", "NewtypeStruct",
	"Seq", "Tuple", "TupleStruct", "Map", "Struct",
	"UnitVariant", "NewtypeVariant", "TupleVariant", "StructVariant",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a schema-free tagbin value. Decoding into a Value records enough
// of the framing (integer width, marker-terminated strings, unsized
// collections) that encoding it again yields the same bytes.
//
// Only the fields relevant to Kind are used:
//
//	Int, Uint        with Width (zero means I64 or U64)
//	Float            for Float32 and Float64
//	Items            Some, NewtypeStruct and NewtypeVariant hold exactly one
//	Entries          maps, structs and struct variants, in wire order
//	Variant          the index of every variant kind
//
// A decoded Value owns its strings and bytes; nothing aliases the input.
type Value struct {
	Kind    Kind
	Width   Tag
	Bool    bool
	Int     int64
	Uint    uint64
	Int128  Int128
	Uint128 Uint128
	Float   float64
	Char    rune
	Str     string
	Bytes   []byte
	Items   []Value
	Entries []Entry
	Variant uint32
	Unsized bool
	Marker  bool
}

// Entry is one key/value pair of a map-like Value.
type Entry struct {
	Key   Value
	Value Value
}

var (
	_ Marshaler   = Value{}
	_ Unmarshaler = (*Value)(nil)
)

func (v Value) only() (Value, error) {
	if len(v.Items) != 1 {
		return Value{}, Errorf("%s value must hold exactly one item, has %d", v.Kind, len(v.Items))
	}
	return v.Items[0], nil
}

func (v Value) width(table []Tag, natural Tag) (Tag, error) {
	if v.Width == 0 {
		return natural, nil
	}
	for _, t := range table[:len(table)-1] { // 128-bit widths have their own kinds
		if t == v.Width {
			return t, nil
		}
	}
	return 0, Errorf("%s value cannot be written as %s", v.Kind, v.Width)
}

func (v Value) MarshalTagged(s *Serializer) (int, error) {
	switch v.Kind {
	case KindNone:
		return s.None()
	case KindSome:
		inner, err := v.only()
		if err != nil {
			return 0, err
		}
		return s.Some(inner)
	case KindBool:
		return s.Bool(v.Bool)
	case KindInt:
		w, err := v.width(signedTags[:], TagI64)
		if err != nil {
			return 0, err
		}
		if !wire.FitsInt(v.Int, w.size()) {
			return 0, Errorf("%d overflows %s", v.Int, w)
		}
		return s.writeInt(w, v.Int, s.compact)
	case KindUint:
		w, err := v.width(unsignedTags[:], TagU64)
		if err != nil {
			return 0, err
		}
		if !wire.FitsUint(v.Uint, w.size()) {
			return 0, Errorf("%d overflows %s", v.Uint, w)
		}
		return s.writeUint(w, v.Uint, s.compact)
	case KindInt128:
		return s.Int128(v.Int128)
	case KindUint128:
		return s.Uint128(v.Uint128)
	case KindFloat32:
		return s.Float32(float32(v.Float))
	case KindFloat64:
		return s.Float64(v.Float)
	case KindChar:
		return s.Char(v.Char)
	case KindString:
		if v.Marker {
			return s.StreamString(func(w io.Writer) error {
				_, err := io.WriteString(w, v.Str)
				return err
			})
		}
		return s.String(v.Str)
	case KindBytes:
		return s.Bytes(v.Bytes)
	case KindUnit:
		return s.Unit()
	case KindUnitStruct:
		return s.UnitStruct()
	case KindNewtypeStruct:
		inner, err := v.only()
		if err != nil {
			return 0, err
		}
		return s.NewtypeStruct(inner)
	case KindUnitVariant:
		return s.UnitVariant(v.Variant)
	case KindNewtypeVariant:
		inner, err := v.only()
		if err != nil {
			return 0, err
		}
		return s.NewtypeVariant(v.Variant, inner)
	case KindSeq, KindTuple, KindTupleStruct, KindTupleVariant:
		c, err := v.openSeq(s)
		if err != nil {
			return 0, err
		}
		for _, it := range v.Items {
			if err := c.Element(it); err != nil {
				return c.written, err
			}
		}
		return c.Finish()
	case KindMap, KindStruct, KindStructVariant:
		c, err := v.openMap(s)
		if err != nil {
			return 0, err
		}
		for _, e := range v.Entries {
			if err := c.Entry(e.Key, e.Value); err != nil {
				return c.written, err
			}
		}
		return c.Finish()
	}
	return 0, Errorf("cannot encode %s", v.Kind)
}

func (v Value) openSeq(s *Serializer) (*Compound, error) {
	switch {
	case v.Kind == KindTuple:
		return s.Tuple(len(v.Items))
	case v.Kind == KindTupleStruct:
		return s.TupleStruct(len(v.Items))
	case v.Kind == KindTupleVariant:
		return s.TupleVariant(v.Variant)
	case v.Unsized:
		return s.UnsizedSeq()
	}
	return s.Seq(len(v.Items))
}

func (v Value) openMap(s *Serializer) (*Compound, error) {
	switch {
	case v.Kind == KindStruct:
		return s.Struct(len(v.Entries))
	case v.Kind == KindStructVariant:
		return s.StructVariant(v.Variant)
	case v.Unsized:
		return s.UnsizedMap()
	}
	return s.Map(len(v.Entries))
}

// UnmarshalTagged decodes any self-describing value. Tuple and struct
// variants carry no arity on the wire and fail with *CustomError.
func (v *Value) UnmarshalTagged(d *Deserializer) error {
	t, err := d.PeekTag()
	if err != nil {
		return err
	}
	*v = Value{}
	return d.DecodeAny(&valueVisitor{v: v, tag: t})
}

// maxPrealloc caps the capacity reserved from an untrusted length prefix.
const maxPrealloc = 1024

func prealloc(n int, ok bool) int {
	if !ok {
		return 0
	}
	return min(n, maxPrealloc)
}

type valueVisitor struct {
	v   *Value
	tag Tag
}

func (vv *valueVisitor) VisitNone() error {
	vv.v.Kind = KindNone
	return nil
}

func (vv *valueVisitor) VisitSome(d *Deserializer) error {
	return vv.wrap(KindSome, d)
}

func (vv *valueVisitor) wrap(k Kind, d *Deserializer) error {
	var inner Value
	if err := inner.UnmarshalTagged(d); err != nil {
		return err
	}
	vv.v.Kind = k
	vv.v.Items = []Value{inner}
	return nil
}

func (vv *valueVisitor) VisitBool(b bool) error {
	vv.v.Kind, vv.v.Bool = KindBool, b
	return nil
}

func (vv *valueVisitor) VisitInt(i int64) error {
	vv.v.Kind, vv.v.Int, vv.v.Width = KindInt, i, vv.tag
	return nil
}

func (vv *valueVisitor) VisitUint(u uint64) error {
	vv.v.Kind, vv.v.Uint, vv.v.Width = KindUint, u, vv.tag
	return nil
}

func (vv *valueVisitor) VisitInt128(i Int128) error {
	vv.v.Kind, vv.v.Int128 = KindInt128, i
	return nil
}

func (vv *valueVisitor) VisitUint128(u Uint128) error {
	vv.v.Kind, vv.v.Uint128 = KindUint128, u
	return nil
}

func (vv *valueVisitor) VisitFloat32(f float32) error {
	vv.v.Kind, vv.v.Float = KindFloat32, float64(f)
	return nil
}

func (vv *valueVisitor) VisitFloat64(f float64) error {
	vv.v.Kind, vv.v.Float = KindFloat64, f
	return nil
}

func (vv *valueVisitor) VisitChar(r rune) error {
	vv.v.Kind, vv.v.Char = KindChar, r
	return nil
}

func (vv *valueVisitor) VisitString(s string, borrowed bool) error {
	if borrowed {
		s = strings.Clone(s)
	}
	vv.v.Kind, vv.v.Str = KindString, s
	vv.v.Marker = vv.tag == TagMarkerTerminatedString
	return nil
}

func (vv *valueVisitor) VisitBytes(b []byte, borrowed bool) error {
	if borrowed {
		b = bytes.Clone(b)
	}
	if b == nil {
		b = []byte{}
	}
	vv.v.Kind, vv.v.Bytes = KindBytes, b
	return nil
}

func (vv *valueVisitor) VisitUnit() error {
	vv.v.Kind = KindUnit
	if vv.tag == TagUnitStruct {
		vv.v.Kind = KindUnitStruct
	}
	return nil
}

func (vv *valueVisitor) VisitNewtype(d *Deserializer) error {
	return vv.wrap(KindNewtypeStruct, d)
}

func (vv *valueVisitor) VisitSeq(a *SeqAccess) error {
	switch a.Tag() {
	case TagTuple:
		vv.v.Kind = KindTuple
	case TagTupleStruct:
		vv.v.Kind = KindTupleStruct
	default:
		vv.v.Kind = KindSeq
		vv.v.Unsized = a.Tag() == TagUnsizedSeq
	}
	items := make([]Value, 0, prealloc(a.Len()))
	for {
		var it Value
		ok, err := a.Element(&it)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		items = append(items, it)
	}
	vv.v.Items = items
	return nil
}

func (vv *valueVisitor) VisitMap(a *MapAccess) error {
	switch a.Tag() {
	case TagStruct:
		vv.v.Kind = KindStruct
	default:
		vv.v.Kind = KindMap
		vv.v.Unsized = a.Tag() == TagUnsizedMap
	}
	entries := make([]Entry, 0, prealloc(a.Len()))
	for {
		var e Entry
		ok, err := a.Entry(&e.Key, &e.Value)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		entries = append(entries, e)
	}
	vv.v.Entries = entries
	return nil
}

func (vv *valueVisitor) VisitEnum(e *EnumAccess) error {
	vv.v.Variant = e.Index()
	switch e.Kind() {
	case TagUnitVariant:
		vv.v.Kind = KindUnitVariant
		return e.Unit()
	case TagNewtypeVariant:
		if err := e.Newtype(); err != nil {
			return err
		}
		return vv.wrap(KindNewtypeVariant, e.d)
	}
	return errArityUnknown(e)
}

// Equal reports semantic equality. Integers compare by value across widths
// of the same signedness, F32 and F64 compare by value, and the two string
// encodings and sized/unsized framing are not distinguished.
func (v Value) Equal(o Value) bool {
	if a, ok := v.signed(); ok {
		b, ok := o.signed()
		return ok && a == b
	}
	if a, ok := v.unsigned(); ok {
		b, ok := o.unsigned()
		return ok && a == b
	}
	if v.Kind == KindFloat32 || v.Kind == KindFloat64 {
		return (o.Kind == KindFloat32 || o.Kind == KindFloat64) && v.Float == o.Float
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNone, KindUnit, KindUnitStruct:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindChar:
		return v.Char == o.Char
	case KindString:
		return v.Str == o.Str
	case KindBytes:
		return bytes.Equal(v.Bytes, o.Bytes)
	case KindUnitVariant:
		return v.Variant == o.Variant
	case KindSome, KindNewtypeStruct, KindSeq, KindTuple, KindTupleStruct:
		return itemsEqual(v.Items, o.Items)
	case KindNewtypeVariant, KindTupleVariant:
		return v.Variant == o.Variant && itemsEqual(v.Items, o.Items)
	case KindMap, KindStruct:
		return entriesEqual(v.Entries, o.Entries)
	case KindStructVariant:
		return v.Variant == o.Variant && entriesEqual(v.Entries, o.Entries)
	}
	return false
}

func (v Value) signed() (Int128, bool) {
	switch v.Kind {
	case KindInt:
		return Int128FromInt64(v.Int), true
	case KindInt128:
		return v.Int128, true
	}
	return Int128{}, false
}

func (v Value) unsigned() (Uint128, bool) {
	switch v.Kind {
	case KindUint:
		return Uint128{Lo: v.Uint}, true
	case KindUint128:
		return v.Uint128, true
	}
	return Uint128{}, false
}

func itemsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func entriesEqual(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Key.Equal(b[i].Key) || !a[i].Value.Equal(b[i].Value) {
			return false
		}
	}
	return true
}

// String renders v in diagnostic notation. Unsized collections are shown
// with a leading underscore, as in CBOR diagnostic notation.
func (v Value) String() string {
	var b strings.Builder
	v.diag(&b)
	return b.String()
}

func (v Value) diag(b *strings.Builder) {
	switch v.Kind {
	case KindNone:
		b.WriteString("None")
	case KindSome:
		diagItems(b, "Some(", v.Items, ")")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case KindInt:
		fmt.Fprintf(b, "%s(%d)", coalesce(v.Width, TagI64), v.Int)
	case KindUint:
		fmt.Fprintf(b, "%s(%d)", coalesce(v.Width, TagU64), v.Uint)
	case KindInt128:
		fmt.Fprintf(b, "I128(%s)", v.Int128)
	case KindUint128:
		fmt.Fprintf(b, "U128(%s)", v.Uint128)
	case KindFloat32:
		fmt.Fprintf(b, "F32(%s)", strconv.FormatFloat(v.Float, 'g', -1, 32))
	case KindFloat64:
		fmt.Fprintf(b, "F64(%s)", strconv.FormatFloat(v.Float, 'g', -1, 64))
	case KindChar:
		b.WriteString(strconv.QuoteRune(v.Char))
	case KindString:
		b.WriteString(strconv.Quote(v.Str))
	case KindBytes:
		b.WriteString("h'")
		b.WriteString(hex.EncodeToString(v.Bytes))
		b.WriteString("'")
	case KindUnit:
		b.WriteString("()")
	case KindUnitStruct:
		b.WriteString("UnitStruct")
	case KindNewtypeStruct:
		diagItems(b, "Newtype(", v.Items, ")")
	case KindSeq:
		open := "["
		if v.Unsized {
			open = "[_ "
		}
		diagItems(b, open, v.Items, "]")
	case KindTuple:
		diagItems(b, "(", v.Items, ")")
	case KindTupleStruct:
		diagItems(b, "TupleStruct(", v.Items, ")")
	case KindMap:
		open := "{"
		if v.Unsized {
			open = "{_ "
		}
		diagEntries(b, open, v.Entries, "}")
	case KindStruct:
		diagEntries(b, "Struct{", v.Entries, "}")
	case KindUnitVariant:
		fmt.Fprintf(b, "#%d", v.Variant)
	case KindNewtypeVariant, KindTupleVariant:
		diagItems(b, fmt.Sprintf("#%d(", v.Variant), v.Items, ")")
	case KindStructVariant:
		diagEntries(b, fmt.Sprintf("#%d{", v.Variant), v.Entries, "}")
	default:
		b.WriteString(v.Kind.String())
	}
}

func diagItems(b *strings.Builder, open string, items []Value, end string) {
	b.WriteString(open)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		it.diag(b)
	}
	b.WriteString(end)
}

func diagEntries(b *strings.Builder, open string, entries []Entry, end string) {
	b.WriteString(open)
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		e.Key.diag(b)
		b.WriteString(": ")
		e.Value.diag(b)
	}
	b.WriteString(end)
}
