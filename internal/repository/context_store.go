package repository

import (
	"context"
	"errors"
	"fmt"

	"MarketBrief/internal/domain/models"
	domrepo "MarketBrief/internal/domain/repository"
	pkgcache "MarketBrief/pkg/cache"
)

// contextKeyPrefix namespaces persisted context rows in Redis.
const contextKeyPrefix = "mb:ctx"

// RedisContextStore persists one context row per (tier, origin) pair as a
// JSON value. Rows never expire; each refresh overwrites in place and the
// newest LastUpdate wins on both write and read.
type RedisContextStore struct {
	cache pkgcache.Service
}

// NewRedisContextStore creates the store on any cache backend.
func NewRedisContextStore(c pkgcache.Service) domrepo.ContextStore {
	return &RedisContextStore{cache: c}
}

func contextKey(tier models.Tier, origin models.ContextOrigin) string {
	return fmt.Sprintf("%s:%s:%s", contextKeyPrefix, tier, origin)
}

// Upsert writes the row unless a newer one is already stored. Two instances
// refreshing the same tier concurrently converge on the later LastUpdate
// without locking.
func (s *RedisContextStore) Upsert(ctx context.Context, row *models.MarketNewsContext) error {
	if row == nil {
		return fmt.Errorf("nil context row")
	}
	existing, err := s.Get(ctx, row.Tier, row.Origin)
	if err != nil {
		return err
	}
	if existing != nil && existing.LastUpdate.After(row.LastUpdate) {
		return nil
	}
	if err := s.cache.Set(ctx, contextKey(row.Tier, row.Origin), row, 0); err != nil {
		return fmt.Errorf("store context %s: %w", row.ID(), err)
	}
	return nil
}

// Get loads one row by composite key, nil when absent.
func (s *RedisContextStore) Get(ctx context.Context, tier models.Tier, origin models.ContextOrigin) (*models.MarketNewsContext, error) {
	var row models.MarketNewsContext
	err := s.cache.Get(ctx, contextKey(tier, origin), &row)
	if errors.Is(err, pkgcache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load context %s/%s: %w", tier, origin, err)
	}
	return &row, nil
}

// Latest returns the most-recently-updated row serving the tier across both
// origins. A manual override therefore shadows the auto row until the next
// auto refresh carries a newer timestamp.
func (s *RedisContextStore) Latest(ctx context.Context, tier models.Tier) (*models.MarketNewsContext, error) {
	var latest *models.MarketNewsContext
	for _, origin := range []models.ContextOrigin{models.OriginAuto, models.OriginManual} {
		row, err := s.Get(ctx, tier, origin)
		if err != nil {
			return nil, err
		}
		if row == nil || !row.ServesTier(tier) {
			continue
		}
		if latest == nil || row.LastUpdate.After(latest.LastUpdate) {
			latest = row
		}
	}
	return latest, nil
}

func (s *RedisContextStore) Health(ctx context.Context) error {
	_, err := s.cache.Exists(ctx, contextKeyPrefix+":probe")
	return err
}
