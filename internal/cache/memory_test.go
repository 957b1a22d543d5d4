package cache

import (
	"testing"
	"time"
)

func TestMemoryTier_FIFOEviction(t *testing.T) {
	t.Parallel()

	tier := NewMemoryTier(2)
	tier.Set("a", 1, time.Hour)
	tier.Set("b", 2, time.Hour)
	tier.Set("c", 3, time.Hour) // evicts "a"

	if _, ok := tier.Get("a"); ok {
		t.Fatal("oldest entry survived eviction")
	}
	if v, ok := tier.Get("b"); !ok || v != 2 {
		t.Fatalf("b = %v, %v", v, ok)
	}
	if v, ok := tier.Get("c"); !ok || v != 3 {
		t.Fatalf("c = %v, %v", v, ok)
	}
	if tier.Len() != 2 {
		t.Fatalf("len = %d", tier.Len())
	}
}

func TestMemoryTier_OverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	tier := NewMemoryTier(2)
	tier.Set("a", 1, time.Hour)
	tier.Set("b", 2, time.Hour)
	tier.Set("a", 10, time.Hour)

	if v, ok := tier.Get("a"); !ok || v != 10 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if _, ok := tier.Get("b"); !ok {
		t.Fatal("b evicted by an overwrite")
	}
}

func TestMemoryTier_ExpiryOnRead(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	tier := NewMemoryTier(4)
	tier.now = func() time.Time { return now }

	tier.Set("a", 1, time.Minute)
	now = now.Add(2 * time.Minute)

	if _, ok := tier.Get("a"); ok {
		t.Fatal("expired entry returned")
	}
	if tier.Len() != 0 {
		t.Fatalf("expired entry kept, len = %d", tier.Len())
	}
}
