package cache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestMemoize_KeyDerivedFromArgs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	c := newTestCache(store, stubToggles{})

	calls := 0
	fn := Memoize(c, "quote", func(_ context.Context, args ...any) (string, error) {
		calls++
		return args[0].(string) + "-price", nil
	}, MemoOptions[string]{TTL: time.Minute})

	a1, err := fn(ctx, "SJC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, err := fn(ctx, "SJC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a1 != "SJC-price" || a2 != "SJC-price" || calls != 1 {
		t.Fatalf("same args recomputed: calls=%d", calls)
	}

	if _, err := fn(ctx, "DOJI"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("different args shared a key: calls=%d", calls)
	}
}

func TestMemoize_CustomKeyFunc(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	c := newTestCache(store, stubToggles{})

	fn := Memoize(c, "quote", func(_ context.Context, _ ...any) (int, error) {
		return 7, nil
	}, MemoOptions[int]{
		TTL:     time.Minute,
		KeyFunc: func(args []any) string { return args[0].(string) },
	})

	if _, err := fn(ctx, "SJC", 123); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, found, _ := store.Get(ctx, "quote_SJC"); !found {
		t.Fatal("custom key not used")
	}
}

func TestMemoize_PruneRecomputesAndRewrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	c := newTestCache(store, stubToggles{})

	calls := 0
	fn := Memoize(c, "p", func(_ context.Context, _ ...any) (int, error) {
		calls++
		return calls, nil
	}, MemoOptions[int]{TTL: time.Minute})

	if _, err := fn(ctx, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := fn(ctx, "x", Prune)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 || calls != 2 {
		t.Fatalf("prune did not force recomputation: got=%d calls=%d", got, calls)
	}

	// The refreshed value was written back: a plain call is now a hit.
	got, err = fn(ctx, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 || calls != 2 {
		t.Fatalf("refreshed value not cached: got=%d calls=%d", got, calls)
	}
}

func TestMemoize_ProducerErrorReturnsDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestCache(newFakeStore(), stubToggles{})

	fn := Memoize(c, "p", func(_ context.Context, _ ...any) (string, error) {
		return "", errors.New("boom")
	}, MemoOptions[string]{Default: "fallback"})

	got, err := fn(ctx)
	if err != nil {
		t.Fatalf("error escaped with PropagateErrors off: %v", err)
	}
	if got != "fallback" {
		t.Fatalf("got %q", got)
	}
}

func TestMemoize_ProducerErrorPropagatesWhenAsked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestCache(newFakeStore(), stubToggles{})

	wantErr := errors.New("boom")
	fn := Memoize(c, "p", func(_ context.Context, _ ...any) (string, error) {
		return "", wantErr
	}, MemoOptions[string]{PropagateErrors: true})

	if _, err := fn(ctx); !errors.Is(err, wantErr) {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestMemoize_MemoryTier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	c := newTestCache(store, stubToggles{})

	calls := 0
	fn := Memoize(c, "hot", func(_ context.Context, _ ...any) (int, error) {
		calls++
		return 5, nil
	}, MemoOptions[int]{UseMemoryTier: true, TTL: time.Minute})

	for i := 0; i < 3; i++ {
		if got, err := fn(ctx, "k"); err != nil || got != 5 {
			t.Fatalf("call %d: got=%d err=%v", i, got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("memory tier missed: calls=%d", calls)
	}
	if store.getCalls != 0 || store.setCalls != 0 {
		t.Fatalf("memory tier touched the networked store: get=%d set=%d", store.getCalls, store.setCalls)
	}
}

func TestMemoize_DisabledBypassesEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	c := New(store, NewMemoryTier(8), stubToggles{disabled: true}, slog.Default())

	calls := 0
	fn := Memoize(c, "p", func(_ context.Context, _ ...any) (int, error) {
		calls++
		return calls, nil
	}, MemoOptions[int]{TTL: time.Minute})

	if got, _ := fn(ctx); got != 1 {
		t.Fatalf("got %d", got)
	}
	if got, _ := fn(ctx); got != 2 {
		t.Fatalf("got %d", got)
	}
	if store.getCalls != 0 || store.setCalls != 0 {
		t.Fatalf("store touched while disabled: get=%d set=%d", store.getCalls, store.setCalls)
	}
}
