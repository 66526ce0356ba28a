package cache

import (
	"context"
	"log/slog"
	"time"

	"lending_go/internal/domain"
)

// Source is the upstream for cached reads.
type Source interface {
	Markets(ctx context.Context) ([]domain.Market, error)
	Stats(ctx context.Context) (*domain.LendingStats, error)
	Position(ctx context.Context, address string) (*domain.LendingPosition, error)
}

// StaleTimes holds how long each read stays fresh.
type StaleTimes struct {
	Markets   time.Duration
	Stats     time.Duration
	Positions time.Duration
}

// DefaultStaleTimes matches the dashboard's query client.
var DefaultStaleTimes = StaleTimes{
	Markets:   30 * time.Second,
	Stats:     10 * time.Second,
	Positions: 15 * time.Second,
}

// Reader serves reads through a Store.
type Reader struct {
	store  Store
	src    Source
	stale  StaleTimes
	logger *slog.Logger
}

func NewReader(store Store, src Source, stale StaleTimes, logger *slog.Logger) *Reader {
	return &Reader{
		store:  store,
		src:    src,
		stale:  stale,
		logger: logger.With("component", "cache_reader"),
	}
}

func (r *Reader) Markets(ctx context.Context) ([]domain.Market, error) {
	return Fetch(ctx, r.store, r.logger, KeyMarkets, r.stale.Markets, r.src.Markets)
}

func (r *Reader) Stats(ctx context.Context) (*domain.LendingStats, error) {
	return Fetch(ctx, r.store, r.logger, KeyStats, r.stale.Stats, r.src.Stats)
}

func (r *Reader) Position(ctx context.Context, address string) (*domain.LendingPosition, error) {
	return Fetch(ctx, r.store, r.logger, PositionKey(address), r.stale.Positions, func(ctx context.Context) (*domain.LendingPosition, error) {
		return r.src.Position(ctx, address)
	})
}

// Invalidate drops key and logs the refetch trigger.
func (r *Reader) Invalidate(ctx context.Context, key string) error {
	r.logger.Debug("cache_invalidate", "key", key)
	return r.store.Invalidate(ctx, key)
}
