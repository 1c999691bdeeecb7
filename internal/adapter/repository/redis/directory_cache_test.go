package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/domain"
	"github.com/V4T54L/menuhub/internal/domain/mocks"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func lagoon() domain.TenantRecord {
	return domain.TenantRecord{
		ID:            uuid.New(),
		DisplayName:   "The Blue Lagoon",
		DataEndpoint:  "https://lagoon.example.test",
		DataAccessKey: "secret",
	}
}

func TestDirectoryCache_Unreachable(t *testing.T) {
	// Nothing listens on this port; every Redis call fails fast.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	rec := lagoon()
	store := &mocks.MockDirectoryStore{Records: []domain.TenantRecord{rec}}
	cache := NewDirectoryCache(client, store, time.Minute, discard, nil)

	got, err := cache.FindByExactName(context.Background(), rec.DisplayName)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.False(t, cache.isAvailable.Load())

	_, err = cache.FindByExactName(context.Background(), rec.DisplayName)
	require.NoError(t, err)
	assert.Len(t, store.ExactCalls, 2, "all lookups reach the store while Redis is down")
}

func TestDirectoryCache_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()
	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	rec := lagoon()
	store := &mocks.MockDirectoryStore{Records: []domain.TenantRecord{rec}}
	m := metrics.NewMenuMetrics(prometheus.NewRegistry())
	cache := NewDirectoryCache(client, store, time.Minute, discard, m)

	t.Run("Exact Hit Is Cached With Key", func(t *testing.T) {
		first, err := cache.FindByExactName(ctx, rec.DisplayName)
		require.NoError(t, err)
		second, err := cache.FindByExactName(ctx, rec.DisplayName)
		require.NoError(t, err)

		assert.Len(t, store.ExactCalls, 1)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "secret", second.DataAccessKey)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DirectoryCacheHits))

		ttl, err := client.TTL(ctx, exactKeyPrefix+rec.DisplayName).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("Misses Are Not Cached", func(t *testing.T) {
		got, err := cache.FindByExactName(ctx, "Nowhere")
		require.NoError(t, err)
		assert.Nil(t, got)

		n, err := client.Exists(ctx, exactKeyPrefix+"Nowhere").Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Invalidate", func(t *testing.T) {
		require.NoError(t, cache.Invalidate(ctx, rec.DisplayName))
		before := len(store.ExactCalls)

		_, err := cache.FindByExactName(ctx, rec.DisplayName)
		require.NoError(t, err)
		assert.Len(t, store.ExactCalls, before+1)
	})

	t.Run("Rotated Key Is Served After Invalidate", func(t *testing.T) {
		_, err := cache.FindByExactName(ctx, rec.DisplayName)
		require.NoError(t, err)

		store.Records[0].DataAccessKey = "rotated"
		stale, err := cache.FindByExactName(ctx, rec.DisplayName)
		require.NoError(t, err)
		assert.Equal(t, "secret", stale.DataAccessKey)

		require.NoError(t, cache.Invalidate(ctx, rec.DisplayName))
		fresh, err := cache.FindByExactName(ctx, rec.DisplayName)
		require.NoError(t, err)
		assert.Equal(t, "rotated", fresh.DataAccessKey)

		raw, err := client.Get(ctx, exactKeyPrefix+rec.DisplayName).Bytes()
		require.NoError(t, err)
		assert.NotContains(t, string(raw), `"secret"`)
	})

	t.Run("Store Errors Pass Through", func(t *testing.T) {
		failing := &mocks.MockDirectoryStore{ExactErr: errors.New("db down")}
		c := NewDirectoryCache(client, failing, time.Minute, discard, nil)
		_, err := c.FindByExactName(ctx, "Something Else")
		assert.Error(t, err)
	})
}
