package store

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/tagbin/codec"
	pr "github.com/unkn0wn-root/tagbin/provider"
)

// SetCostFunc computes the cost passed to Provider.Set. Cost-aware providers
// (Ristretto) evict by it; others ignore it.
type SetCostFunc func(key string, raw []byte) int64

// Store is a typed key/value store over a byte Provider. V is the caller's
// value type; serialization is handled by a pluggable Codec[V], typically
// codec.Tagged.
type Store[V any] interface {
	Enabled() bool
	Close(context.Context) error

	Get(ctx context.Context, key string) (v V, ok bool, err error)
	Put(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// GetMany is order-agnostic; use your own ordering by keys slice.
	// Providers implementing provider.MultiGetter are read in one round trip.
	GetMany(ctx context.Context, keys []string) (values map[string]V, missing []string, err error)
}

// Options tune the behavior of the store.
// Namespace, Provider and Codec are required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Namespace string // logical namespace to avoid collisions. e.g. "user", "session"
	Provider  pr.Provider
	Codec     c.Codec[V]

	Logger         Logger        // if nil, NopLogger is used
	Hooks          Hooks         // if nil, NopHooks is used
	DefaultTTL     time.Duration // 0 => 10m
	MaxEncodedSize int           // 0 => unlimited
	Disabled       bool          // default false (enabled)
	ComputeSetCost SetCostFunc   // default len(raw)
}

func New[V any](opts Options[V]) (Store[V], error) {
	return newStore[V](opts)
}
