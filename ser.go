package tagbin

import (
	"fmt"
	"io"
	"sort"

	"github.com/unkn0wn-root/tagbin/internal/wire"
)

// Marshaler is implemented by types that describe themselves to a Serializer.
// It returns the number of bytes written.
type Marshaler interface {
	MarshalTagged(s *Serializer) (int, error)
}

// MarshalFunc adapts a function to Marshaler.
type MarshalFunc func(s *Serializer) (int, error)

func (f MarshalFunc) MarshalTagged(s *Serializer) (int, error) { return f(s) }

// Serializer writes tagged values to a Writer. It is not safe for concurrent use.
type Serializer struct {
	w       Writer
	compact bool
	scratch [1 + 16]byte // tag + widest fixed payload
}

func NewSerializer(w Writer, opts ...Option) *Serializer {
	cfg := newConfig(opts)
	return &Serializer{w: w, compact: cfg.compact}
}

func (s *Serializer) write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		return 0, writeErr(err)
	}
	return n, nil
}

func (s *Serializer) writeTag(t Tag) (int, error) {
	if err := s.w.WriteByte(byte(t)); err != nil {
		return 0, writeErr(err)
	}
	return 1, nil
}

// writeUint is the single routine behind every unsigned width. With compact
// set it walks the width table narrowest first and stops at declared.
func (s *Serializer) writeUint(declared Tag, v uint64, compact bool) (int, error) {
	tag := declared
	if compact {
		for _, t := range widthsUpTo(unsignedTags[:], declared) {
			if wire.FitsUint(v, t.size()) {
				tag = t
				break
			}
		}
	}
	size := tag.size()
	s.scratch[0] = byte(tag)
	wire.PutUint(s.scratch[1:1+size], v)
	return s.write(s.scratch[:1+size])
}

// writeInt is the signed counterpart of writeUint.
func (s *Serializer) writeInt(declared Tag, v int64, compact bool) (int, error) {
	tag := declared
	if compact {
		for _, t := range widthsUpTo(signedTags[:], declared) {
			if wire.FitsInt(v, t.size()) {
				tag = t
				break
			}
		}
	}
	size := tag.size()
	s.scratch[0] = byte(tag)
	wire.PutUint(s.scratch[1:1+size], uint64(v))
	return s.write(s.scratch[:1+size])
}

// writeLen writes a tag followed by a length. Lengths are always compacted.
func (s *Serializer) writeLen(t Tag, n int) (int, error) {
	wb, err := s.writeTag(t)
	if err != nil {
		return wb, err
	}
	nb, err := s.writeUint(TagU64, uint64(n), true)
	return wb + nb, err
}

// writeVariant writes an enum case tag and its compacted variant index.
func (s *Serializer) writeVariant(t Tag, index uint32) (int, error) {
	wb, err := s.writeTag(t)
	if err != nil {
		return wb, err
	}
	nb, err := s.writeUint(TagU32, uint64(index), true)
	return wb + nb, err
}

func (s *Serializer) writeTagThen(t Tag, v any) (int, error) {
	wb, err := s.writeTag(t)
	if err != nil {
		return wb, err
	}
	nb, err := s.Encode(v)
	return wb + nb, err
}

func (s *Serializer) Bool(v bool) (int, error) {
	if v {
		return s.writeTag(TagBoolTrue)
	}
	return s.writeTag(TagBoolFalse)
}

func (s *Serializer) Int8(v int8) (int, error)   { return s.writeInt(TagI8, int64(v), s.compact) }
func (s *Serializer) Int16(v int16) (int, error) { return s.writeInt(TagI16, int64(v), s.compact) }
func (s *Serializer) Int32(v int32) (int, error) { return s.writeInt(TagI32, int64(v), s.compact) }
func (s *Serializer) Int64(v int64) (int, error) { return s.writeInt(TagI64, v, s.compact) }

func (s *Serializer) Uint8(v uint8) (int, error)   { return s.writeUint(TagU8, uint64(v), s.compact) }
func (s *Serializer) Uint16(v uint16) (int, error) { return s.writeUint(TagU16, uint64(v), s.compact) }
func (s *Serializer) Uint32(v uint32) (int, error) { return s.writeUint(TagU32, uint64(v), s.compact) }
func (s *Serializer) Uint64(v uint64) (int, error) { return s.writeUint(TagU64, v, s.compact) }

// Int128 writes a 128-bit signed integer. Under compaction a value that fits
// in 64 bits continues down the 64-bit width table.
func (s *Serializer) Int128(v Int128) (int, error) {
	if s.compact {
		if i, ok := v.Int64(); ok {
			return s.writeInt(TagI64, i, true)
		}
	}
	s.scratch[0] = byte(TagI128)
	wire.PutUint128(s.scratch[1:17], uint64(v.Hi), v.Lo)
	return s.write(s.scratch[:17])
}

func (s *Serializer) Uint128(v Uint128) (int, error) {
	if s.compact && v.Hi == 0 {
		return s.writeUint(TagU64, v.Lo, true)
	}
	s.scratch[0] = byte(TagU128)
	wire.PutUint128(s.scratch[1:17], v.Hi, v.Lo)
	return s.write(s.scratch[:17])
}

// Float32 and Float64 are never compacted.
func (s *Serializer) Float32(v float32) (int, error) {
	s.scratch[0] = byte(TagF32)
	wire.PutFloat32(s.scratch[1:5], v)
	return s.write(s.scratch[:5])
}

func (s *Serializer) Float64(v float64) (int, error) {
	s.scratch[0] = byte(TagF64)
	wire.PutFloat64(s.scratch[1:9], v)
	return s.write(s.scratch[:9])
}

// Char writes one code point; the tag carries its UTF-8 length.
// Invalid code points are written as U+FFFD.
func (s *Serializer) Char(r rune) (int, error) {
	tag, b := charTag(r)
	s.scratch[0] = byte(tag)
	n := copy(s.scratch[1:], b)
	return s.write(s.scratch[:1+n])
}

// String writes a length-prefixed string.
func (s *Serializer) String(v string) (int, error) {
	wb, err := s.writeLen(TagString, len(v))
	if err != nil {
		return wb, err
	}
	n, err := io.WriteString(s.w, v)
	if err != nil {
		return wb + n, writeErr(err)
	}
	return wb + n, nil
}

// StreamString writes a marker-terminated string whose content fn streams
// straight to the sink. The EndOfString marker is not escaped: content that
// contains 0xD8 0x00 will be cut short when decoded.
func (s *Serializer) StreamString(fn func(w io.Writer) error) (int, error) {
	wb, err := s.writeTag(TagMarkerTerminatedString)
	if err != nil {
		return wb, err
	}
	cw := &countWriter{w: s.w}
	if err := fn(cw); err != nil {
		if cw.err != nil {
			return wb + cw.n, writeErr(cw.err)
		}
		return wb + cw.n, &CustomError{Msg: err.Error()}
	}
	wb += cw.n
	nb, err := s.write(EndOfString[:])
	return wb + nb, err
}

// CollectString writes the fmt.Sprint form of v as a marker-terminated string
// without building it in memory first.
func (s *Serializer) CollectString(v any) (int, error) {
	return s.StreamString(func(w io.Writer) error {
		_, err := fmt.Fprint(w, v)
		return err
	})
}

type countWriter struct {
	w   io.Writer
	n   int
	err error
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	if err != nil {
		c.err = err
	}
	return n, err
}

func (s *Serializer) Bytes(v []byte) (int, error) {
	wb, err := s.writeLen(TagBytes, len(v))
	if err != nil {
		return wb, err
	}
	nb, err := s.write(v)
	return wb + nb, err
}

func (s *Serializer) None() (int, error)      { return s.writeTag(TagNone) }
func (s *Serializer) Some(v any) (int, error) { return s.writeTagThen(TagSome, v) }
func (s *Serializer) Unit() (int, error)      { return s.writeTag(TagUnit) }
func (s *Serializer) UnitStruct() (int, error) {
	return s.writeTag(TagUnitStruct)
}

func (s *Serializer) NewtypeStruct(v any) (int, error) { return s.writeTagThen(TagNewtypeStruct, v) }

func (s *Serializer) UnitVariant(index uint32) (int, error) {
	return s.writeVariant(TagUnitVariant, index)
}

func (s *Serializer) NewtypeVariant(index uint32, v any) (int, error) {
	wb, err := s.writeVariant(TagNewtypeVariant, index)
	if err != nil {
		return wb, err
	}
	nb, err := s.Encode(v)
	return wb + nb, err
}

// Seq opens a length-prefixed sequence of n elements.
func (s *Serializer) Seq(n int) (*Compound, error) { return s.sized(TagSeq, n) }

// UnsizedSeq opens a sequence whose length is not known up front. Finish
// appends the end marker.
func (s *Serializer) UnsizedSeq() (*Compound, error) { return s.unsized(TagUnsizedSeq) }

func (s *Serializer) Tuple(n int) (*Compound, error)       { return s.sized(TagTuple, n) }
func (s *Serializer) TupleStruct(n int) (*Compound, error) { return s.sized(TagTupleStruct, n) }
func (s *Serializer) Map(n int) (*Compound, error)         { return s.sized(TagMap, n) }
func (s *Serializer) UnsizedMap() (*Compound, error)       { return s.unsized(TagUnsizedMap) }

// Struct opens a struct of n named fields; write them with Field.
func (s *Serializer) Struct(n int) (*Compound, error) { return s.sized(TagStruct, n) }

// TupleVariant opens a tuple enum case. No length is written: the reader
// supplies the arity.
func (s *Serializer) TupleVariant(index uint32) (*Compound, error) {
	return s.variant(TagTupleVariant, index)
}

// StructVariant opens a struct enum case; like TupleVariant, arity is out-of-band.
func (s *Serializer) StructVariant(index uint32) (*Compound, error) {
	return s.variant(TagStructVariant, index)
}

func (s *Serializer) sized(t Tag, n int) (*Compound, error) {
	if n < 0 {
		return nil, Errorf("negative length %d for %s", n, t)
	}
	wb, err := s.writeLen(t, n)
	if err != nil {
		return nil, err
	}
	return &Compound{s: s, tag: t, written: wb, want: n}, nil
}

func (s *Serializer) unsized(t Tag) (*Compound, error) {
	wb, err := s.writeTag(t)
	if err != nil {
		return nil, err
	}
	return &Compound{s: s, tag: t, written: wb, want: -1, unsized: true}, nil
}

func (s *Serializer) variant(t Tag, index uint32) (*Compound, error) {
	wb, err := s.writeVariant(t, index)
	if err != nil {
		return nil, err
	}
	return &Compound{s: s, tag: t, written: wb, want: -1}, nil
}

// Compound is the cursor returned by the composite openers. Push children
// with Element, Entry or Field, then call Finish.
type Compound struct {
	s       *Serializer
	tag     Tag
	written int
	count   int
	want    int // declared length, -1 when the wire carries none
	unsized bool
	done    bool
}

func (c *Compound) push(v any) error {
	if c.done {
		return Errorf("%s already finished", c.tag)
	}
	n, err := c.s.Encode(v)
	c.written += n
	return err
}

// Element writes one sequence or tuple element.
func (c *Compound) Element(v any) error {
	if err := c.push(v); err != nil {
		return err
	}
	c.count++
	return nil
}

// Entry writes one map key and its value.
func (c *Compound) Entry(key, value any) error {
	if err := c.push(key); err != nil {
		return err
	}
	if err := c.push(value); err != nil {
		return err
	}
	c.count++
	return nil
}

// Field writes one struct field as a string name followed by its value.
func (c *Compound) Field(name string, value any) error {
	return c.Entry(name, value)
}

// Finish closes the compound and returns the total bytes written for it,
// including the opening tag and any end marker.
func (c *Compound) Finish() (int, error) {
	if c.done {
		return c.written, Errorf("%s already finished", c.tag)
	}
	c.done = true
	if c.want >= 0 && c.count != c.want {
		return c.written, Errorf("%s declared %d entries but %d were written", c.tag, c.want, c.count)
	}
	if c.unsized {
		n, err := c.s.writeTag(TagUnsizedSeqEnd)
		c.written += n
		if err != nil {
			return c.written, err
		}
	}
	return c.written, nil
}

// Encode writes v. Marshalers describe themselves; Go builtins map to their
// natural shape; nil is None. Maps with string keys are written in key order.
func (s *Serializer) Encode(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return s.None()
	case Marshaler:
		return x.MarshalTagged(s)
	case bool:
		return s.Bool(x)
	case int8:
		return s.Int8(x)
	case int16:
		return s.Int16(x)
	case int32:
		return s.Int32(x)
	case int64:
		return s.Int64(x)
	case int:
		return s.Int64(int64(x))
	case uint8:
		return s.Uint8(x)
	case uint16:
		return s.Uint16(x)
	case uint32:
		return s.Uint32(x)
	case uint64:
		return s.Uint64(x)
	case uint:
		return s.Uint64(uint64(x))
	case float32:
		return s.Float32(x)
	case float64:
		return s.Float64(x)
	case string:
		return s.String(x)
	case []byte:
		return s.Bytes(x)
	case []string:
		return s.encodeSlice(len(x), func(i int) any { return x[i] })
	case []any:
		return s.encodeSlice(len(x), func(i int) any { return x[i] })
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m, err := s.Map(len(keys))
		if err != nil {
			return 0, err
		}
		for _, k := range keys {
			if err := m.Entry(k, x[k]); err != nil {
				return m.written, err
			}
		}
		return m.Finish()
	default:
		return 0, Errorf("cannot encode %T: implement Marshaler", v)
	}
}

func (s *Serializer) encodeSlice(n int, at func(int) any) (int, error) {
	seq, err := s.Seq(n)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		if err := seq.Element(at(i)); err != nil {
			return seq.written, err
		}
	}
	return seq.Finish()
}
