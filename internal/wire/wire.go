// Package wire holds the width-parameterised integer primitives shared by the
// serializer and the deserializer. Every multi-byte number on the wire is
// big-endian; sizes are 1, 2, 4, 8 or 16 bytes.
package wire

import (
	"encoding/binary"
	"math"
)

// PutUint writes the low len(dst) bytes of v into dst, big-endian.
// len(dst) must be 1, 2, 4 or 8.
func PutUint(dst []byte, v uint64) {
	switch len(dst) {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(dst, v)
	default:
		panic("wire: invalid integer size")
	}
}

// Uint reads a big-endian unsigned integer of len(src) bytes, zero extended.
func Uint(src []byte) uint64 {
	switch len(src) {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(src))
	case 4:
		return uint64(binary.BigEndian.Uint32(src))
	case 8:
		return binary.BigEndian.Uint64(src)
	default:
		panic("wire: invalid integer size")
	}
}

// Int reads a big-endian two's complement integer of len(src) bytes, sign extended.
func Int(src []byte) int64 {
	shift := uint(64 - 8*len(src))
	return int64(Uint(src)<<shift) >> shift
}

// FitsUint reports whether v is representable in size bytes without loss.
func FitsUint(v uint64, size int) bool {
	if size >= 8 {
		return true
	}
	return v>>(8*uint(size)) == 0
}

// FitsInt reports whether v is representable in size bytes of two's complement.
func FitsInt(v int64, size int) bool {
	if size >= 8 {
		return true
	}
	shift := uint(64 - 8*size)
	return (v<<shift)>>shift == v
}

// PutUint128 writes hi:lo into a 16 byte slice, big-endian.
func PutUint128(dst []byte, hi, lo uint64) {
	_ = dst[15]
	binary.BigEndian.PutUint64(dst[:8], hi)
	binary.BigEndian.PutUint64(dst[8:16], lo)
}

// Uint128 reads a 16 byte big-endian value as hi:lo.
func Uint128(src []byte) (hi, lo uint64) {
	_ = src[15]
	return binary.BigEndian.Uint64(src[:8]), binary.BigEndian.Uint64(src[8:16])
}

// PutFloat32 / PutFloat64 write IEEE-754 bits big-endian.
func PutFloat32(dst []byte, f float32) { binary.BigEndian.PutUint32(dst, math.Float32bits(f)) }
func PutFloat64(dst []byte, f float64) { binary.BigEndian.PutUint64(dst, math.Float64bits(f)) }

func Float32(src []byte) float32 { return math.Float32frombits(binary.BigEndian.Uint32(src)) }
func Float64(src []byte) float64 { return math.Float64frombits(binary.BigEndian.Uint64(src)) }

// IndexPair returns the index just past the first 2-byte window of b that
// satisfies match, or -1 when no window matches.
func IndexPair(b []byte, match func([2]byte) bool) int {
	for i := 0; i+1 < len(b); i++ {
		if match([2]byte{b[i], b[i+1]}) {
			return i + 2
		}
	}
	return -1
}
