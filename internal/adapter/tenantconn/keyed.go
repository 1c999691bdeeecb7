package tenantconn

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/domain"
)

// KeyedCache holds connections for many tenants at once, keyed by endpoint.
// When the cache is full the least recently used connection is evicted; it
// is closed once every caller holding it has called Release.
// Concurrent requests for an endpoint that is not cached share one dial.
type KeyedCache struct {
	dial    DialFunc
	conns   *lru.Cache[string, *domain.TenantConnection]
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.MenuMetrics

	mu    sync.Mutex
	inUse map[*domain.TenantConnection]*lease // open handles; removed when closed
}

type lease struct {
	refs    int
	evicted bool
}

// NewKeyedCache creates a KeyedCache holding at most size connections.
func NewKeyedCache(size int, dial DialFunc, logger *slog.Logger, m *metrics.MenuMetrics) (*KeyedCache, error) {
	c := &KeyedCache{
		dial:    dial,
		logger:  logger.With("component", "keyed_connection_cache"),
		metrics: m,
		inUse:   make(map[*domain.TenantConnection]*lease),
	}
	conns, err := lru.NewWithEvict(size, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create connection cache: %w", err)
	}
	c.conns = conns
	return c, nil
}

// Connection returns the cached handle for rec.DataEndpoint, dialing one if
// needed. Every successful call must be paired with Release.
func (c *KeyedCache) Connection(ctx context.Context, rec domain.TenantRecord) (*domain.TenantConnection, error) {
	for {
		conn, err := c.lookup(ctx, rec)
		if err != nil {
			return nil, err
		}
		if c.acquire(conn) {
			return conn, nil
		}
		// Evicted and closed between lookup and acquire.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (c *KeyedCache) lookup(ctx context.Context, rec domain.TenantRecord) (*domain.TenantConnection, error) {
	key := rec.DataEndpoint
	if conn, ok := c.conns.Get(key); ok {
		if c.metrics != nil {
			c.metrics.ConnectionHits.Inc()
		}
		return conn, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// Another caller may have finished dialing between Get and Do.
		if conn, ok := c.conns.Get(key); ok {
			return conn, nil
		}
		if c.metrics != nil {
			c.metrics.ConnectionMisses.Inc()
		}
		conn, err := c.dial(ctx, rec)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.inUse[conn] = &lease{}
		c.mu.Unlock()
		c.conns.Add(key, conn)
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("shared in-flight dial", "endpoint", Redact(key))
	}
	return v.(*domain.TenantConnection), nil
}

func (c *KeyedCache) acquire(conn *domain.TenantConnection) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.inUse[conn]
	if !ok {
		return false
	}
	l.refs++
	return true
}

// Release returns a handle obtained from Connection. An evicted handle is
// closed when its last holder releases it.
func (c *KeyedCache) Release(conn *domain.TenantConnection) {
	if conn == nil {
		return
	}
	c.mu.Lock()
	l, ok := c.inUse[conn]
	if !ok || l.refs == 0 {
		c.mu.Unlock()
		return
	}
	l.refs--
	closeNow := l.refs == 0 && l.evicted
	if closeNow {
		delete(c.inUse, conn)
	}
	c.mu.Unlock()

	if closeNow {
		c.logger.Info("closing released tenant connection", "endpoint", conn.Endpoint)
		conn.Store.Close()
	}
}

func (c *KeyedCache) onEvict(key string, conn *domain.TenantConnection) {
	if c.metrics != nil {
		c.metrics.ConnectionEvictions.Inc()
	}

	c.mu.Lock()
	l, ok := c.inUse[conn]
	held := ok && l.refs > 0
	if held {
		l.evicted = true
	} else {
		delete(c.inUse, conn)
	}
	c.mu.Unlock()

	if held {
		c.logger.Info("evicted tenant connection still in use, closing on release", "endpoint", conn.Endpoint)
		return
	}
	c.logger.Info("closing evicted tenant connection", "endpoint", conn.Endpoint)
	conn.Store.Close()
}

// Endpoints lists the cached endpoints with credentials redacted, sorted.
func (c *KeyedCache) Endpoints() []string {
	keys := c.conns.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Redact(k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached connections.
func (c *KeyedCache) Len() int {
	return c.conns.Len()
}

// Close evicts every cached connection. Handles still held are closed as
// they are released.
func (c *KeyedCache) Close() {
	c.conns.Purge()
}
