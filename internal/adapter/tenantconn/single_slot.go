package tenantconn

import (
	"context"
	"log/slog"
	"sync"

	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/domain"
)

// SingleSlotCache remembers the connection for the most recently used
// endpoint. Asking for the same endpoint again returns the same handle;
// asking for a different one dials a new handle and replaces the slot.
// Replaced handles are dropped without being closed, since a caller may
// still hold them. There is no expiry.
type SingleSlotCache struct {
	mu       sync.Mutex
	dial     DialFunc
	endpoint string
	conn     *domain.TenantConnection
	logger   *slog.Logger
	metrics  *metrics.MenuMetrics
}

// NewSingleSlotCache creates an empty SingleSlotCache.
func NewSingleSlotCache(dial DialFunc, logger *slog.Logger, m *metrics.MenuMetrics) *SingleSlotCache {
	return &SingleSlotCache{
		dial:    dial,
		logger:  logger.With("component", "single_slot_cache"),
		metrics: m,
	}
}

func (c *SingleSlotCache) Connection(ctx context.Context, rec domain.TenantRecord) (*domain.TenantConnection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.endpoint == rec.DataEndpoint {
		if c.metrics != nil {
			c.metrics.ConnectionHits.Inc()
		}
		return c.conn, nil
	}

	if c.metrics != nil {
		c.metrics.ConnectionMisses.Inc()
	}
	conn, err := c.dial(ctx, rec)
	if err != nil {
		// The previous slot stays valid for its own endpoint.
		return nil, err
	}
	if c.conn != nil {
		c.logger.Debug("replacing cached connection", "old", c.conn.Endpoint, "new", conn.Endpoint)
		if c.metrics != nil {
			c.metrics.ConnectionEvictions.Inc()
		}
	}
	c.endpoint = rec.DataEndpoint
	c.conn = conn
	return conn, nil
}

// Release is a no-op: replaced handles are left to their holders.
func (c *SingleSlotCache) Release(conn *domain.TenantConnection) {}

// Current returns the cached connection, if any.
func (c *SingleSlotCache) Current() *domain.TenantConnection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
