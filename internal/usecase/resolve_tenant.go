package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/domain"
	"github.com/V4T54L/menuhub/internal/pkg/slug"
)

const (
	defaultRetryCount   = 3
	defaultRetryBackoff = 200 * time.Millisecond
	maxRetryBackoff     = 2 * time.Second
)

// DirectoryClient resolves candidate names to a tenant record.
type DirectoryClient struct {
	store        domain.DirectoryStore
	logger       *slog.Logger
	metrics      *metrics.MenuMetrics
	retryCount   uint64
	retryBackoff time.Duration
}

// NewDirectoryClient creates a DirectoryClient. Store errors are retried up to
// retryCount times with exponential backoff starting at retryBackoff; zero
// values select the defaults.
func NewDirectoryClient(store domain.DirectoryStore, logger *slog.Logger, m *metrics.MenuMetrics, retryCount uint64, retryBackoff time.Duration) *DirectoryClient {
	if retryCount == 0 {
		retryCount = defaultRetryCount
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &DirectoryClient{
		store:        store,
		logger:       logger.With("component", "directory_client"),
		metrics:      m,
		retryCount:   retryCount,
		retryBackoff: retryBackoff,
	}
}

// Resolve tries each candidate as an exact display name, in order, and
// returns the first hit. If none matches, it runs one case-insensitive
// partial lookup with the first candidate and accepts the result only when
// exactly one tenant matches.
//
// Misses and ambiguous partial matches return *domain.TenantNotFoundError.
// Store failures that outlast the retries wrap domain.ErrConnectionUnavailable.
func (c *DirectoryClient) Resolve(ctx context.Context, candidates slug.Candidates) (*domain.TenantRecord, error) {
	if len(candidates) == 0 {
		return nil, &domain.TenantNotFoundError{}
	}

	for _, name := range candidates {
		rec, err := withRetry(ctx, c, "exact", func() (*domain.TenantRecord, error) {
			return c.store.FindByExactName(ctx, name)
		})
		if err != nil {
			c.count("exact", "error")
			return nil, c.lookupFailed(ctx, "exact", name, err)
		}
		if rec != nil {
			c.count("exact", "hit")
			c.logger.Debug("tenant resolved by exact name", "candidate", name, "tenant_id", rec.ID)
			return rec, nil
		}
		c.count("exact", "miss")
	}

	pattern := candidates.First()
	matches, err := withRetry(ctx, c, "partial", func() ([]domain.TenantRecord, error) {
		return c.store.FindByPartialName(ctx, pattern)
	})
	if err != nil {
		c.count("partial", "error")
		return nil, c.lookupFailed(ctx, "partial", pattern, err)
	}

	switch len(matches) {
	case 1:
		c.count("partial", "hit")
		c.logger.Info("tenant resolved by partial name", "pattern", pattern, "tenant", matches[0].DisplayName)
		return &matches[0], nil
	case 0:
		c.count("partial", "miss")
	default:
		c.count("partial", "ambiguous")
		c.logger.Warn("refusing ambiguous partial tenant match", "pattern", pattern, "matches", len(matches))
	}

	return nil, &domain.TenantNotFoundError{
		Candidates: append([]string(nil), candidates...),
		Matches:    len(matches),
	}
}

func (c *DirectoryClient) lookupFailed(ctx context.Context, kind, name string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.logger.Error("directory lookup failed", "kind", kind, "name", name, "error", err)
	return fmt.Errorf("%w: directory %s lookup for %q: %w", domain.ErrConnectionUnavailable, kind, name, err)
}

func (c *DirectoryClient) count(kind, result string) {
	if c.metrics != nil {
		c.metrics.DirectoryLookups.WithLabelValues(kind, result).Inc()
	}
}

func (c *DirectoryClient) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryBackoff
	eb.MaxInterval = maxRetryBackoff
	eb.MaxElapsedTime = 0 // bounded by the retry count instead
	return backoff.WithContext(backoff.WithMaxRetries(eb, c.retryCount), ctx)
}

// withRetry runs op until it succeeds, the retry budget is spent, or ctx ends.
func withRetry[T any](ctx context.Context, c *DirectoryClient, kind string, op func() (T, error)) (T, error) {
	attempt := 0
	return backoff.RetryNotifyWithData[T](func() (T, error) {
		attempt++
		v, err := op()
		if err != nil && ctx.Err() != nil {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, c.newBackOff(ctx), func(err error, wait time.Duration) {
		c.logger.Warn("directory lookup failed, retrying", "kind", kind, "attempt", attempt, "wait", wait, "error", err)
	})
}
