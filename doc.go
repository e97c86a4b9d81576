// Package tagbin implements a self-describing binary serialization format.
// Every value starts with a one-byte Tag naming its shape, so a stream can be
// walked without a schema (see Value and Deserializer.DecodeAny).
//
// Components:
//   - Serializer: writes values to a Writer (FixedWriter, BufferWriter,
//     CountingWriter, IOWriter).
//   - Deserializer: reads them back from a Reader with one tag of lookahead.
//     SliceReader borrows from the input; StreamReader always copies.
//   - Marshaler / Unmarshaler: user types describe themselves to the above.
//
// Wire layout:
//
//	[tag][payload]             fixed-width payloads are big-endian
//	[Seq][len][elems...]       lengths and variant indices are compacted
//	[UnsizedSeq][elems...][UnsizedSeqEnd]
//	[TupleVariant][index][elems...]  arity is known to the reader only
//
// Compaction (WithCompact) writes each integer at the narrowest width of the
// same signedness that holds it. Readers always accept narrower widths.
package tagbin
