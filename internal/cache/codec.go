package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Cached payloads are wrapped in an envelope under a fixed field so that an
// encoded nil result stays distinguishable from an absent key.
type envelope[T any] struct {
	Value T `json:"value"`
}

// Encode serializes a value into the cache envelope.
func Encode(v any) (string, error) {
	b, err := json.Marshal(envelope[any]{Value: v})
	if err != nil {
		return "", fmt.Errorf("cache: encode: %w", err)
	}
	return string(b), nil
}

// Decode unwraps an envelope into T. Callers treat a decode error as a cache
// miss, never as fatal.
func Decode[T any](s string) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		var zero T
		return zero, fmt.Errorf("cache: decode: %w", err)
	}
	return env.Value, nil
}

// DecodeLossless unwraps an envelope keeping numeric precision: integers
// beyond the float64 safe range come back as *big.Int, every other number as
// float64.
func DecodeLossless(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cache: decode: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("cache: decode: payload is not an envelope")
	}
	v, ok := obj["value"]
	if !ok {
		return nil, errors.New("cache: decode: envelope has no value field")
	}
	return convertNumbers(v), nil
}

var (
	maxSafeInt = big.NewInt(1<<53 - 1)
	minSafeInt = new(big.Int).Neg(maxSafeInt)
)

func convertNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = convertNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = convertNumbers(e)
		}
		return t
	case json.Number:
		return convertNumber(t)
	default:
		return v
	}
}

func convertNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, ok := new(big.Int).SetString(s, 10); ok {
			if i.Cmp(maxSafeInt) > 0 || i.Cmp(minSafeInt) < 0 {
				return i
			}
		}
	}
	f, err := n.Float64()
	if err != nil {
		return float64(0)
	}
	return f
}
