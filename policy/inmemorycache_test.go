package policy

import (
	"testing"
	"time"
)

func TestCacheStartsInvalid(t *testing.T) {
	cache := NewInMemoryRulesCache(DefaultCacheConfig())

	if cache.IsValid() {
		t.Error("fresh cache should be invalid")
	}
	if cache.Get() != nil {
		t.Error("fresh cache should return nil")
	}
}

func TestCacheSetAndGet(t *testing.T) {
	cache := NewInMemoryRulesCache(DefaultCacheConfig())

	rules := []*Rule{intentRule("r1", `true`, "A", 10)}
	cache.Set(rules)

	if !cache.IsValid() {
		t.Error("cache should be valid after Set")
	}
	got := cache.Get()
	if len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("Get() = %+v", got)
	}
}

// TestCacheGetReturnsCopy verifies callers may reorder the returned slice
// without disturbing the cached order.
func TestCacheGetReturnsCopy(t *testing.T) {
	cache := NewInMemoryRulesCache(DefaultCacheConfig())
	cache.Set([]*Rule{
		intentRule("a", `true`, "A", 10),
		intentRule("b", `true`, "B", 20),
	})

	first := cache.Get()
	first[0], first[1] = first[1], first[0]

	second := cache.Get()
	if second[0].ID != "a" {
		t.Error("reordering the returned slice mutated the cache")
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewInMemoryRulesCache(DefaultCacheConfig())
	cache.Set([]*Rule{intentRule("r1", `true`, "A", 10)})

	cache.Invalidate()
	if cache.IsValid() {
		t.Error("cache should be invalid after Invalidate")
	}
	if cache.Get() != nil {
		t.Error("invalidated cache should return nil")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewInMemoryRulesCache(CacheConfig{TTL: 10 * time.Millisecond})
	cache.Set([]*Rule{intentRule("r1", `true`, "A", 10)})

	if cache.Get() == nil {
		t.Fatal("cache should hit before the TTL elapses")
	}

	time.Sleep(20 * time.Millisecond)

	if cache.Get() != nil {
		t.Error("cache should miss after the TTL elapses")
	}
	if cache.IsValid() {
		t.Error("IsValid() should report expiry")
	}
}
