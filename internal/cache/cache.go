// Package cache implements the read-through caching layer: a Redis-backed
// store, a JSON envelope codec, GetOrSet, an argument-keyed memoizer and a
// bounded in-process tier. All consumers share one keyspace, so key-prefix
// discipline is on the caller.
package cache

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Toggles exposes the runtime cache switches. They are consulted on every
// call, not snapshotted at startup, so the switches can be flipped on a live
// process.
type Toggles interface {
	Disabled() bool
	Debug() bool
}

// EnvToggles reads NO_CACHE and CACHE_DEBUG from the environment per call.
type EnvToggles struct{}

func (EnvToggles) Disabled() bool { return os.Getenv("NO_CACHE") != "" }
func (EnvToggles) Debug() bool    { return os.Getenv("CACHE_DEBUG") != "" }

// Cache composes the networked store, the local tier and the toggles.
type Cache struct {
	store   Store
	local   *MemoryTier
	toggles Toggles
	logger  *slog.Logger
}

func New(store Store, local *MemoryTier, toggles Toggles, logger *slog.Logger) *Cache {
	if toggles == nil {
		toggles = EnvToggles{}
	}
	return &Cache{store: store, local: local, toggles: toggles, logger: logger}
}

// trace logs cache outcomes (hit/miss/bypass) when the debug toggle is on.
func (c *Cache) trace(msg, key string) {
	if c.toggles.Debug() {
		c.logger.Info(msg, slog.String("key", key))
	}
}

// GetOrSet returns the value cached under key, or calls producer, stores the
// result with ttl and returns it.
//
// Concurrent callers racing on the same miss each invoke producer (last
// writer wins on the set). That stampede is accepted: the producers wrapped
// here are idempotent and safe to call more than once, and a single-flight
// lock would trade it for cross-request coupling nothing requires.
//
// Producer errors propagate unmodified. Store errors degrade: a failed get
// counts as a miss, a failed set leaves the fresh value uncached.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, producer func(context.Context) (T, error), ttl time.Duration, disabled bool) (T, error) {
	if disabled || c.toggles.Disabled() {
		c.trace("cache bypass", key)
		return producer(ctx)
	}

	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache store get failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		found = false
	}
	if found {
		v, derr := Decode[T](raw)
		if derr == nil {
			c.trace("cache hit", key)
			return v, nil
		}
		c.logger.Warn("cache decode failed, treating as miss",
			slog.String("key", key),
			slog.String("error", derr.Error()),
		)
	}

	c.trace("cache miss", key)
	v, err := producer(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	encoded, eerr := Encode(v)
	if eerr != nil {
		c.logger.Warn("cache encode failed",
			slog.String("key", key),
			slog.String("error", eerr.Error()),
		)
		return v, nil
	}
	if serr := c.store.Set(ctx, key, encoded, ttl); serr != nil {
		c.logger.Warn("cache store set failed",
			slog.String("key", key),
			slog.String("error", serr.Error()),
		)
	}
	return v, nil
}

// Purge removes cached entries under prefix. Without args the prefix is
// issued both as an exact key and as a glob pattern; zero matches is fine.
// With args only the single derived key is removed. Failures are logged,
// never returned.
func (c *Cache) Purge(ctx context.Context, prefix string, args ...any) {
	if len(args) == 0 {
		if err := c.store.Delete(ctx, prefix); err != nil {
			c.logger.Warn("cache purge exact key failed",
				slog.String("key", prefix),
				slog.String("error", err.Error()),
			)
		}
		n, err := c.store.DeleteByPattern(ctx, prefix)
		if err != nil {
			c.logger.Warn("cache purge pattern failed",
				slog.String("pattern", prefix),
				slog.String("error", err.Error()),
			)
			return
		}
		if n > 0 {
			c.logger.Info("cache purged", slog.String("pattern", prefix), slog.Int64("keys", n))
		}
		return
	}

	key, err := memoKey(prefix, nil, args)
	if err != nil {
		c.logger.Warn("cache purge key derivation failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache purge failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
