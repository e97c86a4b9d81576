package store

import "time"

const defaultTTL = 10 * time.Minute

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
