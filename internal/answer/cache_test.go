package answer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, head *string, opts ...CacheOption) *Cache {
	t.Helper()

	opts = append([]CacheOption{
		WithHeadFunc(func(context.Context) (string, error) { return *head, nil }),
	}, opts...)

	cache, err := NewCache(t.TempDir(), ".", opts...)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return cache
}

func TestCache_SetAndGet(t *testing.T) {
	head := "abc123"
	cache := newTestCache(t, &head)
	ctx := context.Background()

	err := cache.Set(ctx, Entry{
		Component:      "PaymentButton",
		QueryType:      "usage",
		BriefOutput:    "brief",
		DetailedOutput: "detailed",
		RawOutput:      "raw",
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	entry, err := cache.Get(ctx, "PaymentButton", "usage")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a cache hit")
	}
	if entry.BriefOutput != "brief" || entry.DetailedOutput != "detailed" || entry.RawOutput != "raw" {
		t.Errorf("unexpected outputs: %+v", entry)
	}
	if entry.GitCommit != "abc123" {
		t.Errorf("GitCommit = %q, want abc123", entry.GitCommit)
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestCache_MissWhenAbsent(t *testing.T) {
	head := "abc123"
	cache := newTestCache(t, &head)

	entry, err := cache.Get(context.Background(), "Unknown", "usage")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Errorf("expected a miss, got %+v", entry)
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	head := "abc123"
	cache := newTestCache(t, &head, WithTTL(time.Nanosecond))
	ctx := context.Background()

	if err := cache.Set(ctx, Entry{Component: "X", QueryType: "usage"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)

	entry, err := cache.Get(ctx, "X", "usage")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Error("expected the entry to have expired")
	}

	if entries, _, _ := cache.Stats(); entries != 0 {
		t.Errorf("expected the expired entry to be deleted, %d entries remain", entries)
	}
}

func TestCache_InvalidatesOnNewCommit(t *testing.T) {
	head := "commit-1"
	cache := newTestCache(t, &head)
	ctx := context.Background()

	if err := cache.Set(ctx, Entry{Component: "X", QueryType: "usage", BriefOutput: "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	head = "commit-2"
	entry, err := cache.Get(ctx, "X", "usage")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Error("expected the entry to be invalidated by the new commit")
	}
}

func TestCache_KeepsStaleCommitWhenAutoInvalidateOff(t *testing.T) {
	head := "commit-1"
	cache := newTestCache(t, &head, WithAutoInvalidate(false))
	ctx := context.Background()

	if err := cache.Set(ctx, Entry{Component: "X", QueryType: "usage", BriefOutput: "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	head = "commit-2"
	entry, err := cache.Get(ctx, "X", "usage")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a hit with auto-invalidation disabled")
	}
}

func TestCache_DropsCorruptedEntry(t *testing.T) {
	head := "abc123"
	cache := newTestCache(t, &head)
	ctx := context.Background()

	if err := cache.Set(ctx, Entry{Component: "X", QueryType: "usage"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	path := cache.entryPath("X", "usage")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}

	entry, err := cache.Get(ctx, "X", "usage")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Error("expected a miss for the corrupted entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected the corrupted entry to be deleted")
	}
}

func TestCache_ClearAndStats(t *testing.T) {
	head := "abc123"
	cache := newTestCache(t, &head)
	ctx := context.Background()

	for _, e := range []Entry{
		{Component: "PaymentButton", QueryType: "usage"},
		{Component: "PaymentButton", QueryType: "restrictions"},
		{Component: "UserProfile", QueryType: "usage"},
	} {
		if err := cache.Set(ctx, e); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	entries, components, err := cache.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if entries != 3 || components != 2 {
		t.Errorf("Stats = %d entries, %d components, want 3 and 2", entries, components)
	}

	n, err := cache.Clear("PaymentButton")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear(PaymentButton) = %d, want 2", n)
	}

	n, err = cache.Clear("")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 1 {
		t.Errorf("Clear() = %d, want 1", n)
	}
}

func TestHashComponent(t *testing.T) {
	a, b := hashComponent("PaymentButton"), hashComponent("PaymentButton")
	if a != b {
		t.Error("hash must be deterministic")
	}
	if len(a) != 8 {
		t.Errorf("hash length = %d, want 8", len(a))
	}
	if filepath.Base(a) != a {
		t.Errorf("hash %q is not a plain path segment", a)
	}
	if a == hashComponent("UserProfile") {
		t.Error("distinct components should hash differently")
	}
}
