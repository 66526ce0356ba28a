// Package cache holds the query cache shared by the view surface and the action controller.
// Keys are path-like; invalidating a key also drops every key below it.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

const (
	KeyMarkets   = "/api/lending/markets"
	KeyStats     = "/api/lending/stats"
	KeyPositions = "/api/lending/positions"
)

// MutationKeys are invalidated after every successful action.
var MutationKeys = []string{KeyMarkets, KeyPositions, KeyStats}

// PositionKey returns the per-wallet key under KeyPositions.
func PositionKey(address string) string {
	return KeyPositions + "/" + strings.ToLower(address)
}

// Invalidator is the only cache operation the action layer depends on.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Store is a byte cache with per-entry expiry.
type Store interface {
	Invalidator
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// covers reports whether invalidating prefix should drop key.
func covers(prefix, key string) bool {
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}

// Fetch returns the cached value for key, or calls load and caches its result for ttl.
// A ttl of zero disables caching for the call. The store is best-effort: its
// errors are logged and never fail the read.
func Fetch[T any](ctx context.Context, s Store, logger *slog.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var out T
	if ttl > 0 {
		raw, ok, err := s.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn("cache get failed", slog.String("key", key), slog.Any("error", err))
		case ok:
			if err := json.Unmarshal(raw, &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if ttl <= 0 {
		return out, nil
	}

	raw, err := json.Marshal(out)
	if err != nil {
		logger.Warn("cache encode failed", slog.String("key", key), slog.Any("error", err))
		return out, nil
	}
	if err := s.Set(ctx, key, raw, ttl); err != nil {
		logger.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
	}
	return out, nil
}
