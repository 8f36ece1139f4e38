package cache

import (
	"context"
	"testing"
	"time"
)

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("geico", "quote", []byte(`{"a":1}`))
	b := Key("geico", "quote", []byte(`{"a":1}`))
	if a != b {
		t.Fatalf("same inputs produced different keys: %q vs %q", a, b)
	}
	if Key("progressive", "quote", []byte(`{"a":1}`)) == a {
		t.Fatal("carrier id not part of key")
	}
	if Key("geico", "bind", []byte(`{"a":1}`)) == a {
		t.Fatal("endpoint not part of key")
	}
	if Key("geico", "quote", []byte(`{"a":2}`)) == a {
		t.Fatal("payload not part of key")
	}
}

func TestMemory_GetSet(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.Set(ctx, "k", []byte("v"))
	data, ok := c.Get(ctx, "k")
	if !ok || string(data) != "v" {
		t.Fatalf("get: ok=%v data=%q", ok, data)
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(20 * time.Millisecond)
	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"))
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestMemory_SweepOnSet(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)
	c.maxEntries = 4
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Set(ctx, k, []byte("v"))
	}
	time.Sleep(30 * time.Millisecond)
	c.Set(ctx, "e", []byte("v"))
	c.mu.Lock()
	n := len(c.m)
	c.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected stale entries swept, have %d", n)
	}
}
