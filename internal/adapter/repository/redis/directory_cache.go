package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/domain"
)

const exactKeyPrefix = "menuhub:dir:exact:"

// cachedRecord is the stored form of a TenantRecord. Unlike the domain type
// it keeps the access key in plaintext, since a hit must be usable without
// the database. Entries expire with the TTL; rotating a key requires an
// Invalidate for the tenant name.
type cachedRecord struct {
	ID            uuid.UUID `json:"id"`
	DisplayName   string    `json:"name"`
	DataEndpoint  string    `json:"endpoint"`
	DataAccessKey string    `json:"key"`
}

// DirectoryCache is a read-through cache in front of a domain.DirectoryStore.
// Only exact hits are cached: misses and partial lookups always reach the
// underlying store, so new tenants become visible immediately.
// When Redis is unreachable the cache steps aside and every lookup goes to
// the store.
type DirectoryCache struct {
	client      *redis.Client
	next        domain.DirectoryStore
	ttl         time.Duration
	logger      *slog.Logger
	metrics     *metrics.MenuMetrics
	isAvailable atomic.Bool
}

// NewDirectoryCache wraps next with a Redis cache whose entries live for ttl.
func NewDirectoryCache(client *redis.Client, next domain.DirectoryStore, ttl time.Duration, logger *slog.Logger, m *metrics.MenuMetrics) *DirectoryCache {
	c := &DirectoryCache{
		client:  client,
		next:    next,
		ttl:     ttl,
		logger:  logger.With("component", "directory_cache"),
		metrics: m,
	}
	c.isAvailable.Store(true)
	return c
}

func (c *DirectoryCache) FindByExactName(ctx context.Context, name string) (*domain.TenantRecord, error) {
	key := exactKeyPrefix + name

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cr cachedRecord
		if jsonErr := json.Unmarshal(raw, &cr); jsonErr == nil {
			c.markAvailable()
			c.hit()
			rec := domain.TenantRecord(cr)
			return &rec, nil
		}
		c.logger.Warn("dropping undecodable directory cache entry", "name", name)
		c.client.Del(ctx, key)
	case errors.Is(err, redis.Nil):
		c.markAvailable()
	default:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.markUnavailable(err)
	}
	c.miss()

	rec, err := c.next.FindByExactName(ctx, name)
	if err != nil || rec == nil {
		return rec, err
	}

	if c.isAvailable.Load() {
		payload, err := json.Marshal(cachedRecord(*rec))
		if err == nil {
			err = c.client.Set(ctx, key, payload, c.ttl).Err()
		}
		if err != nil {
			c.logger.Warn("failed to cache directory record", "name", name, "error", err)
		}
	}
	return rec, nil
}

func (c *DirectoryCache) FindByPartialName(ctx context.Context, pattern string) ([]domain.TenantRecord, error) {
	return c.next.FindByPartialName(ctx, pattern)
}

// Invalidate drops the cached entry for name.
func (c *DirectoryCache) Invalidate(ctx context.Context, name string) error {
	if err := c.client.Del(ctx, exactKeyPrefix+name).Err(); err != nil {
		return fmt.Errorf("invalidate directory cache for %q: %w", name, err)
	}
	c.logger.Info("directory cache entry invalidated", "name", name)
	return nil
}

func (c *DirectoryCache) markAvailable() {
	if !c.isAvailable.Swap(true) {
		c.logger.Info("directory cache is reachable again")
	}
}

func (c *DirectoryCache) markUnavailable(err error) {
	if c.isAvailable.Swap(false) {
		c.logger.Warn("directory cache unreachable, reading through to the store", "error", err)
	}
}

func (c *DirectoryCache) hit() {
	if c.metrics != nil {
		c.metrics.DirectoryCacheHits.Inc()
	}
}

func (c *DirectoryCache) miss() {
	if c.metrics != nil {
		c.metrics.DirectoryCacheMiss.Inc()
	}
}
