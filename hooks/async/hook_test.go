package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/tagbin/store"
)

type countHooks struct {
	store.NopHooks
	mu    sync.Mutex
	heals int
	gate  chan struct{}
}

func (c *countHooks) SelfHeal(string, string) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	c.heals++
	c.mu.Unlock()
}

func TestDeliversBeforeClose(t *testing.T) {
	inner := &countHooks{}
	h := New(inner, 2, 16)
	for i := 0; i < 10; i++ {
		h.SelfHeal("k", "value_decode")
	}
	h.Close()
	if inner.heals != 10 {
		t.Fatalf("delivered %d events, want 10", inner.heals)
	}
	h.SelfHeal("k", "value_decode")
	if h.Dropped() != 1 {
		t.Fatalf("event after Close not dropped: %d", h.Dropped())
	}
	h.Close() // idempotent
}

func TestDropsWhenFull(t *testing.T) {
	inner := &countHooks{gate: make(chan struct{})}
	h := New(inner, 1, 1)
	// the worker blocks on the first event; the queue holds one more
	for i := 0; i < 5; i++ {
		h.SelfHeal("k", "value_decode")
	}
	if h.Dropped() < 3 {
		t.Fatalf("expected at least 3 drops, got %d", h.Dropped())
	}
	close(inner.gate)
	h.Close()
	if uint64(inner.heals)+h.Dropped() != 5 {
		t.Fatalf("heals %d + dropped %d != 5", inner.heals, h.Dropped())
	}
}
