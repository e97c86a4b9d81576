package tagbin

import (
	"math"
	"math/big"
)

// Int128 is a 128-bit two's complement integer split into its high and low
// 64-bit halves.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Uint128 is a 128-bit unsigned integer split into its high and low halves.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

func Int128FromInt64(v int64) Int128 {
	if v < 0 {
		return Int128{Hi: -1, Lo: uint64(v)}
	}
	return Int128{Lo: uint64(v)}
}

// Int64 returns v as an int64 and whether it fits.
func (v Int128) Int64() (int64, bool) {
	switch {
	case v.Hi == 0 && v.Lo <= math.MaxInt64:
		return int64(v.Lo), true
	case v.Hi == -1 && v.Lo > math.MaxInt64:
		return int64(v.Lo), true
	}
	return 0, false
}

// Big returns v as a big.Int.
func (v Int128) Big() *big.Int {
	b := new(big.Int).SetInt64(v.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(v.Lo))
}

func (v Int128) String() string { return v.Big().String() }

func (v Int128) MarshalTagged(s *Serializer) (int, error) { return s.Int128(v) }

func (v *Int128) UnmarshalTagged(d *Deserializer) (err error) {
	*v, err = d.Int128()
	return err
}

// Big returns v as a big.Int.
func (v Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(v.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(v.Lo))
}

func (v Uint128) String() string { return v.Big().String() }

func (v Uint128) MarshalTagged(s *Serializer) (int, error) { return s.Uint128(v) }

func (v *Uint128) UnmarshalTagged(d *Deserializer) (err error) {
	*v, err = d.Uint128()
	return err
}

var (
	twoTo128   = new(big.Int).Lsh(big.NewInt(1), 128)
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	maxUint128 = new(big.Int).Sub(twoTo128, big.NewInt(1))
	mask64     = new(big.Int).SetUint64(math.MaxUint64)
)

func split128(u *big.Int) (hi, lo uint64) {
	lo = new(big.Int).And(u, mask64).Uint64()
	hi = new(big.Int).Rsh(u, 64).Uint64()
	return hi, lo
}

// Int128FromBig converts b, reporting false when it is out of range.
func Int128FromBig(b *big.Int) (Int128, bool) {
	if b.Cmp(minInt128) < 0 || b.Cmp(maxInt128) > 0 {
		return Int128{}, false
	}
	u := new(big.Int).Set(b)
	if u.Sign() < 0 {
		u.Add(u, twoTo128)
	}
	hi, lo := split128(u)
	return Int128{Hi: int64(hi), Lo: lo}, true
}

// Uint128FromBig converts b, reporting false when it is out of range.
func Uint128FromBig(b *big.Int) (Uint128, bool) {
	if b.Sign() < 0 || b.Cmp(maxUint128) > 0 {
		return Uint128{}, false
	}
	hi, lo := split128(b)
	return Uint128{Hi: hi, Lo: lo}, true
}
