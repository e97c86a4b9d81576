package store

import (
	"context"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/tagbin/codec"
	pr "github.com/unkn0wn-root/tagbin/provider"
)

type store[V any] struct {
	ns             string
	provider       pr.Provider
	codec          c.Codec[V]
	sizer          c.Sizer[V] // nil when the codec cannot size without encoding
	log            Logger
	hooks          Hooks
	enabled        bool
	defaultTTL     time.Duration
	maxSize        int
	computeSetCost SetCostFunc
}

func newStore[V any](opts Options[V]) (*store[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("store: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("store: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("store: namespace is required")
	}
	if opts.MaxEncodedSize < 0 {
		return nil, fmt.Errorf("store: negative MaxEncodedSize %d", opts.MaxEncodedSize)
	}

	s := &store[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		enabled:  !opts.Disabled,
		maxSize:  opts.MaxEncodedSize,
	}
	s.sizer, _ = opts.Codec.(c.Sizer[V])

	// defaults
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, defaultTTL)

	if opts.ComputeSetCost != nil {
		s.computeSetCost = opts.ComputeSetCost
	} else {
		s.computeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	return s, nil
}

func (s *store[V]) Enabled() bool { return s.enabled }

func (s *store[V]) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}

func (s *store[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if !s.enabled {
		return zero, false, nil
	}
	k := s.storageKey(key)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	v, ok := s.decode(ctx, k, raw)
	return v, ok, nil
}

// decode turns a stored entry into V, deleting entries that cannot be read.
func (s *store[V]) decode(ctx context.Context, storageKey string, raw []byte) (V, bool) {
	var zero V
	if s.maxSize > 0 && len(raw) > s.maxSize {
		s.selfHeal(ctx, storageKey, "too_large", Fields{"size": len(raw), "max": s.maxSize})
		return zero, false
	}
	v, err := s.codec.Decode(raw)
	if err != nil {
		s.selfHeal(ctx, storageKey, "value_decode", Fields{"err": err})
		return zero, false
	}
	return v, true
}

func (s *store[V]) selfHeal(ctx context.Context, storageKey, reason string, f Fields) {
	_ = s.provider.Del(ctx, storageKey)
	f["key"], f["reason"] = storageKey, reason
	s.log.Warn("dropped unreadable entry", f)
	s.hooks.SelfHeal(storageKey, reason)
}

func (s *store[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) error {
	if !s.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	k := s.storageKey(key)
	if s.maxSize > 0 && s.sizer != nil {
		n, err := s.sizer.Size(value)
		if err != nil {
			return err
		}
		if err := s.checkSize(key, k, n); err != nil {
			return err
		}
	}
	raw, err := s.codec.Encode(value)
	if err != nil {
		return err
	}
	if s.maxSize > 0 && s.sizer == nil {
		if err := s.checkSize(key, k, len(raw)); err != nil {
			return err
		}
	}
	ok, err := s.provider.Set(ctx, k, raw, s.computeSetCost(k, raw), ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Debug("Put rejected by provider (pressure)", Fields{"key": key})
		s.hooks.ProviderSetRejected(k)
	}
	return nil
}

func (s *store[V]) checkSize(key, storageKey string, n int) error {
	if n <= s.maxSize {
		return nil
	}
	s.log.Debug("Put rejected (too large)", Fields{"key": key, "size": n, "max": s.maxSize})
	s.hooks.ValueTooLarge(storageKey, n, s.maxSize)
	return &TooLargeError{Key: key, Size: n, Max: s.maxSize}
}

func (s *store[V]) Delete(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	return s.provider.Del(ctx, s.storageKey(key))
}

func (s *store[V]) GetMany(ctx context.Context, keys []string) (map[string]V, []string, error) {
	mg, ok := s.provider.(pr.MultiGetter)
	if !ok || !s.enabled {
		return s.getEach(ctx, keys)
	}
	sks := make([]string, len(keys))
	for i, k := range keys {
		sks[i] = s.storageKey(k)
	}
	raws, err := mg.GetMulti(ctx, sks)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string]V, len(keys))
	var missing []string
	for i, k := range keys {
		raw, hit := raws[sks[i]]
		if hit {
			var v V
			if v, hit = s.decode(ctx, sks[i], raw); hit {
				out[k] = v
			}
		}
		if !hit {
			missing = append(missing, k)
		}
	}
	return out, missing, nil
}

func (s *store[V]) getEach(ctx context.Context, keys []string) (map[string]V, []string, error) {
	out := make(map[string]V, len(keys))
	var missing []string
	for _, k := range keys {
		v, ok, err := s.Get(ctx, k)
		if err != nil {
			return out, nil, err
		}
		if ok {
			out[k] = v
		} else {
			missing = append(missing, k)
		}
	}
	return out, missing, nil
}

func (s *store[V]) storageKey(userKey string) string {
	// isolate by namespace
	return s.ns + ":" + userKey
}
