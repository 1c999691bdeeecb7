package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/V4T54L/menuhub/internal/adapter/metrics"
)

const apiKeyCacheSize = 1024

// APIKeyRepository implements domain.APIKeyRepository for the admin API.
// Keys are stored as SHA-256 hex digests in admin_api_keys; verdicts are
// cached in memory for cacheTTL, keyed by digest.
type APIKeyRepository struct {
	db      *sql.DB
	logger  *slog.Logger
	cache   *expirable.LRU[string, bool]
	metrics *metrics.MenuMetrics
}

// NewAPIKeyRepository creates a new instance of the PostgreSQL API key repository.
func NewAPIKeyRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration, m *metrics.MenuMetrics) *APIKeyRepository {
	return &APIKeyRepository{
		db:      db,
		logger:  logger.With("component", "apikey_repository"),
		cache:   expirable.NewLRU[string, bool](apiKeyCacheSize, nil, cacheTTL),
		metrics: m,
	}
}

// IsValid reports whether key is an active, unexpired admin key.
// Database errors are not cached.
func (r *APIKeyRepository) IsValid(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	digest := HashKey(key)

	if ok, found := r.cache.Get(digest); found {
		if r.metrics != nil {
			r.metrics.APIKeyCacheHits.Inc()
		}
		return ok, nil
	}
	if r.metrics != nil {
		r.metrics.APIKeyCacheMisses.Inc()
	}

	const query = `SELECT EXISTS(SELECT 1 FROM admin_api_keys
		WHERE key_hash = $1 AND is_active = true AND (expires_at IS NULL OR expires_at > NOW()))`

	var valid bool
	if err := r.db.QueryRowContext(ctx, query, digest).Scan(&valid); err != nil {
		r.logger.Error("failed to validate admin API key", "error", describe(err))
		return false, err
	}

	r.cache.Add(digest, valid)
	return valid, nil
}

// HashKey returns the stored form of an API key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
