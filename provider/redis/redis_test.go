package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p, err := New(Config{
		Client:      goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
		CloseClient: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, mr
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)
	defer p.Close(ctx)

	if b, ok, err := p.Get(ctx, "ns:k"); err != nil || ok || b != nil {
		t.Fatalf("miss = %v, %v, %v", b, ok, err)
	}
	val := []byte{0x00, 0xD8, 0x00, 0xFF}
	if ok, err := p.Set(ctx, "ns:k", val, 0, time.Second); err != nil || !ok {
		t.Fatalf("Set = %v, %v", ok, err)
	}
	b, ok, err := p.Get(ctx, "ns:k")
	if err != nil || !ok || string(b) != string(val) {
		t.Fatalf("Get = %x, %v, %v", b, ok, err)
	}
	if err := p.Del(ctx, "ns:k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if mr.Exists("ns:k") {
		t.Fatal("key survived Del")
	}
}

func TestSetTTL(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)
	defer p.Close(ctx)

	if _, err := p.Set(ctx, "a", []byte("x"), 0, time.Second); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Set(ctx, "b", []byte("y"), 0, -time.Second); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("b"); ttl != 0 {
		t.Fatalf("negative ttl stored as %v, want no expiry", ttl)
	}
	mr.FastForward(2 * time.Second)
	if _, ok, _ := p.Get(ctx, "a"); ok {
		t.Fatal("a should have expired")
	}
	if _, ok, _ := p.Get(ctx, "b"); !ok {
		t.Fatal("b should not expire")
	}
}

func TestGetMulti(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)
	defer p.Close(ctx)

	mr.Set("a", "1")
	mr.Set("c", "3")
	got, err := p.GetMulti(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetMulti: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["c"]) != "3" {
		t.Fatalf("GetMulti = %q", got)
	}
	if got, err := p.GetMulti(ctx, nil); err != nil || len(got) != 0 {
		t.Fatalf("empty GetMulti = %v, %v", got, err)
	}
}

func TestCloseOwnership(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestRedis(t)
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("New(nil client) = %v", err)
	}
}
