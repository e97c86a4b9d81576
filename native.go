package tagbin

import (
	"encoding/json"
	"math/big"
	"sort"
	"strconv"
)

// Native converts v to plain Go values of the kind encoding/json, CBOR and
// MessagePack encoders accept:
//
//	None, Unit, UnitStruct     nil
//	Some, NewtypeStruct        the inner value
//	128-bit integers           int64/uint64 when they fit, *big.Int otherwise
//	Char                       a one-rune string
//	Seq, Tuple, TupleStruct    []any
//	Map, Struct                map[string]any
//	variants                   map[string]any{"<index>": payload}
//
// Map keys that are not strings use their diagnostic form, and entry order
// is lost.
func (v Value) Native() any {
	switch v.Kind {
	case KindSome, KindNewtypeStruct:
		if len(v.Items) == 1 {
			return v.Items[0].Native()
		}
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindUint:
		return v.Uint
	case KindInt128:
		if i, ok := v.Int128.Int64(); ok {
			return i
		}
		return v.Int128.Big()
	case KindUint128:
		if v.Uint128.Hi == 0 {
			return v.Uint128.Lo
		}
		return v.Uint128.Big()
	case KindFloat32:
		return float32(v.Float)
	case KindFloat64:
		return v.Float
	case KindChar:
		return string(v.Char)
	case KindString:
		return v.Str
	case KindBytes:
		return v.Bytes
	case KindSeq, KindTuple, KindTupleStruct:
		return nativeItems(v.Items)
	case KindMap, KindStruct:
		return nativeEntries(v.Entries)
	case KindUnitVariant:
		return map[string]any{v.variantKey(): nil}
	case KindNewtypeVariant:
		var inner any
		if len(v.Items) == 1 {
			inner = v.Items[0].Native()
		}
		return map[string]any{v.variantKey(): inner}
	case KindTupleVariant:
		return map[string]any{v.variantKey(): nativeItems(v.Items)}
	case KindStructVariant:
		return map[string]any{v.variantKey(): nativeEntries(v.Entries)}
	}
	return nil
}

func (v Value) variantKey() string { return strconv.FormatUint(uint64(v.Variant), 10) }

func nativeItems(items []Value) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it.Native()
	}
	return out
}

func nativeEntries(entries []Entry) map[string]any {
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[nativeKey(e.Key)] = e.Value.Native()
	}
	return out
}

func nativeKey(k Value) string {
	switch k.Kind {
	case KindString:
		return k.Str
	case KindChar:
		return string(k.Char)
	}
	return k.String()
}

// FromNative builds a Value from the output of a generic decoder
// (encoding/json with UseNumber, CBOR or MessagePack into any). Sized Go
// integers keep their width. Map entries are sorted by key so the result is
// deterministic.
func FromNative(x any) (Value, error) {
	switch n := x.(type) {
	case nil:
		return Value{Kind: KindNone}, nil
	case Value:
		return n, nil
	case bool:
		return Value{Kind: KindBool, Bool: n}, nil
	case int:
		return Value{Kind: KindInt, Int: int64(n)}, nil
	case int8:
		return Value{Kind: KindInt, Int: int64(n), Width: TagI8}, nil
	case int16:
		return Value{Kind: KindInt, Int: int64(n), Width: TagI16}, nil
	case int32:
		return Value{Kind: KindInt, Int: int64(n), Width: TagI32}, nil
	case int64:
		return Value{Kind: KindInt, Int: n}, nil
	case uint:
		return Value{Kind: KindUint, Uint: uint64(n)}, nil
	case uint8:
		return Value{Kind: KindUint, Uint: uint64(n), Width: TagU8}, nil
	case uint16:
		return Value{Kind: KindUint, Uint: uint64(n), Width: TagU16}, nil
	case uint32:
		return Value{Kind: KindUint, Uint: uint64(n), Width: TagU32}, nil
	case uint64:
		return Value{Kind: KindUint, Uint: n}, nil
	case float32:
		return Value{Kind: KindFloat32, Float: float64(n)}, nil
	case float64:
		return Value{Kind: KindFloat64, Float: n}, nil
	case json.Number:
		return fromNumber(n)
	case *big.Int:
		return fromBig(n)
	case big.Int:
		return fromBig(&n)
	case string:
		return Value{Kind: KindString, Str: n}, nil
	case []byte:
		return Value{Kind: KindBytes, Bytes: n}, nil
	case []any:
		items := make([]Value, len(n))
		for i, e := range n {
			it, err := FromNative(e)
			if err != nil {
				return Value{}, err
			}
			items[i] = it
		}
		return Value{Kind: KindSeq, Items: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			val, err := FromNative(n[k])
			if err != nil {
				return Value{}, err
			}
			entries[i] = Entry{Key: Value{Kind: KindString, Str: k}, Value: val}
		}
		return Value{Kind: KindMap, Entries: entries}, nil
	case map[any]any:
		entries := make([]Entry, 0, len(n))
		for k, val := range n {
			kv, err := FromNative(k)
			if err != nil {
				return Value{}, err
			}
			vv, err := FromNative(val)
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: kv, Value: vv})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Key.String() < entries[j].Key.String()
		})
		return Value{Kind: KindMap, Entries: entries}, nil
	}
	return Value{}, Errorf("cannot convert %T to a value", x)
}

func fromNumber(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Value{Kind: KindInt, Int: i}, nil
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return Value{Kind: KindUint, Uint: u}, nil
	}
	if b, ok := new(big.Int).SetString(string(n), 10); ok {
		return fromBig(b)
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, Errorf("invalid number %q", n)
	}
	return Value{Kind: KindFloat64, Float: f}, nil
}

func fromBig(b *big.Int) (Value, error) {
	if b.IsInt64() {
		return Value{Kind: KindInt, Int: b.Int64()}, nil
	}
	if b.IsUint64() {
		return Value{Kind: KindUint, Uint: b.Uint64()}, nil
	}
	if b.Sign() > 0 {
		if u, ok := Uint128FromBig(b); ok {
			return Value{Kind: KindUint128, Uint128: u}, nil
		}
	} else if i, ok := Int128FromBig(b); ok {
		return Value{Kind: KindInt128, Int128: i}, nil
	}
	return Value{}, Errorf("integer %s does not fit in 128 bits", b)
}
