package ttlcache

import (
	"testing"
	"time"
)

type fakeClock struct {
	at time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.at
}

func (f *fakeClock) Advance(d time.Duration) {
	f.at = f.at.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{at: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCacheGetSetExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New[string, int](5*time.Minute, clock.Now)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set("a", 42)
	got, ok := c.Get("a")
	if !ok || got != 42 {
		t.Fatalf("get a: want=(42,true) got=(%d,%t)", got, ok)
	}

	clock.Advance(5 * time.Minute)
	if got, ok := c.Get("a"); !ok || got != 42 {
		t.Fatalf("entry should survive exactly at ttl boundary, got=(%d,%t)", got, ok)
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("entry should expire after ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", c.Len())
	}
}

func TestCacheSetRefreshesExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New[string, string](time.Minute, clock.Now)

	c.Set("k", "v1")
	clock.Advance(50 * time.Second)
	c.Set("k", "v2")
	clock.Advance(50 * time.Second)

	got, ok := c.Get("k")
	if !ok || got != "v2" {
		t.Fatalf("rewrite should refresh ttl: got=(%q,%t)", got, ok)
	}
}

func TestCacheExplicitInvalidation(t *testing.T) {
	clock := newFakeClock()
	c := New[int, string](time.Hour, clock.Now)

	c.Set(1, "one")
	c.Set(2, "two")
	if c.Len() != 2 {
		t.Fatalf("len: want=2 got=%d", c.Len())
	}

	c.Delete(1)
	if _, ok := c.Get(1); ok {
		t.Fatalf("deleted key should miss")
	}
	if _, ok := c.Get(2); !ok {
		t.Fatalf("other key should survive delete")
	}

	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("purge should empty the cache, len=%d", c.Len())
	}
}
