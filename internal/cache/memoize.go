package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Prune is the sentinel trailing argument to a memoized function: it forces
// a fresh computation while still writing the refreshed value back to the
// cache (bypass read, not bypass write).
var Prune = pruneFlag{}

type pruneFlag struct{}

// MemoOptions tunes Memoize.
type MemoOptions[T any] struct {
	// Default is returned when the producer or the cache fails and
	// PropagateErrors is off.
	Default T
	TTL     time.Duration
	// KeyFunc replaces the canonical JSON serialization of the arguments.
	KeyFunc func(args []any) string
	// UseMemoryTier short-circuits to the bounded in-process tier instead of
	// the networked store. Intended for very hot keys in short-lived
	// processes.
	UseMemoryTier bool
	Disabled      bool
	// Lossless decodes cached payloads preserving big integers. The wrapped
	// function must then be typed over the lossless shapes
	// (map[string]any, []any, *big.Int, float64, string, bool).
	Lossless        bool
	PropagateErrors bool
}

const memoryTierDefaultTTL = 365 * 24 * time.Hour

// Memoize wraps fn with a cache keyed by keyPrefix plus its arguments. On
// any internal error (key derivation, decode, store, producer) the wrapper
// returns opts.Default unless PropagateErrors is set.
func Memoize[T any](c *Cache, keyPrefix string, fn func(ctx context.Context, args ...any) (T, error), opts MemoOptions[T]) func(ctx context.Context, args ...any) (T, error) {
	return func(ctx context.Context, args ...any) (T, error) {
		prune := false
		if len(args) > 0 {
			if _, ok := args[len(args)-1].(pruneFlag); ok {
				prune = true
				args = args[:len(args)-1]
			}
		}
		if args == nil {
			args = []any{}
		}

		key, err := memoKey(keyPrefix, opts.KeyFunc, args)
		if err != nil {
			return memoFail(c, opts, keyPrefix, err)
		}

		if opts.Disabled || c.toggles.Disabled() {
			c.trace("cache bypass", key)
			v, err := fn(ctx, args...)
			if err != nil {
				return memoFail(c, opts, key, err)
			}
			return v, nil
		}

		if opts.UseMemoryTier && c.local != nil {
			if !prune {
				if cached, ok := c.local.Get(key); ok {
					if v, ok := cached.(T); ok {
						c.trace("cache hit (memory)", key)
						return v, nil
					}
				}
			}
			c.trace("cache miss (memory)", key)
			v, err := fn(ctx, args...)
			if err != nil {
				return memoFail(c, opts, key, err)
			}
			ttl := opts.TTL
			if ttl <= 0 {
				ttl = memoryTierDefaultTTL
			}
			c.local.Set(key, v, ttl)
			return v, nil
		}

		if !prune {
			raw, found, gerr := c.store.Get(ctx, key)
			switch {
			case gerr != nil:
				c.logger.Warn("cache store get failed",
					slog.String("key", key),
					slog.String("error", gerr.Error()),
				)
			case found:
				v, derr := memoDecode[T](raw, opts.Lossless)
				if derr == nil {
					c.trace("cache hit", key)
					return v, nil
				}
				c.logger.Warn("cache decode failed, treating as miss",
					slog.String("key", key),
					slog.String("error", derr.Error()),
				)
			}
		}

		c.trace("cache miss", key)
		v, err := fn(ctx, args...)
		if err != nil {
			return memoFail(c, opts, key, err)
		}

		if encoded, eerr := Encode(v); eerr != nil {
			c.logger.Warn("cache encode failed",
				slog.String("key", key),
				slog.String("error", eerr.Error()),
			)
		} else if serr := c.store.Set(ctx, key, encoded, opts.TTL); serr != nil {
			c.logger.Warn("cache store set failed",
				slog.String("key", key),
				slog.String("error", serr.Error()),
			)
		}
		return v, nil
	}
}

func memoFail[T any](c *Cache, opts MemoOptions[T], key string, err error) (T, error) {
	if opts.PropagateErrors {
		var zero T
		return zero, err
	}
	c.logger.Warn("memoized call failed, returning default",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	return opts.Default, nil
}

func memoDecode[T any](raw string, lossless bool) (T, error) {
	if !lossless {
		return Decode[T](raw)
	}
	var zero T
	v, err := DecodeLossless(raw)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: lossless value has type %T", v)
	}
	return t, nil
}

func memoKey(prefix string, keyFn func([]any) string, args []any) (string, error) {
	if keyFn != nil {
		return prefix + "_" + keyFn(args), nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cache: derive key: %w", err)
	}
	return prefix + "_" + string(b), nil
}
