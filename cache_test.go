package unireservas

import (
	"testing"
	"time"
)

func TestCacheFreshness(t *testing.T) {
	clock := newFakeClock()
	c := NewCache[string, int](30*time.Second, clock.Now)

	if _, ok := c.Get("k"); ok {
		t.Fatal("empty cache returned a value")
	}

	c.Set("k", 1)
	clock.Advance(29 * time.Second)
	if v, ok := c.Get("k"); !ok || v != 1 {
		t.Fatalf("expected fresh 1, got %d %v", v, ok)
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should be stale at exactly the TTL")
	}
	if v, ok := c.Peek("k"); !ok || v != 1 {
		t.Fatal("Peek should still return the stale entry")
	}
}

func TestCacheUpdateKeepsExpiry(t *testing.T) {
	clock := newFakeClock()
	c := NewCache[string, string](time.Minute, clock.Now)

	if c.Update("missing", func(s string) string { return s + "!" }) {
		t.Fatal("Update on a missing key should report false")
	}

	c.Set("k", "a")
	exp, _ := c.ExpiresAt("k")
	clock.Advance(40 * time.Second)
	if !c.Update("k", func(s string) string { return s + "b" }) {
		t.Fatal("Update should find the key")
	}
	if got, _ := c.ExpiresAt("k"); !got.Equal(exp) {
		t.Fatalf("expiry moved from %v to %v", exp, got)
	}
	if v, _ := c.Get("k"); v != "ab" {
		t.Fatalf("expected ab, got %q", v)
	}
	clock.Advance(20 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("updated entry should expire on the original schedule")
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := NewCache[int, int](time.Minute, nil)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Invalidate(1)
	if _, ok := c.Get(1); ok {
		t.Fatal("invalidated key still present")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
}

func TestPendingMutationSettlesOnce(t *testing.T) {
	m := newPendingMutation("k", 3)
	if m.id == "" {
		t.Fatal("expected a mutation id")
	}
	if v, ok := m.rollback(); !ok || v != 3 {
		t.Fatalf("expected snapshot 3, got %d %v", v, ok)
	}
	if _, ok := m.rollback(); ok {
		t.Fatal("second rollback should be refused")
	}

	m = newPendingMutation("k", 3)
	m.confirm()
	if _, ok := m.rollback(); ok {
		t.Fatal("rollback after confirm should be refused")
	}
}
