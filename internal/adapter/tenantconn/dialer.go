// Package tenantconn builds and caches live connections to tenant data endpoints.
package tenantconn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/V4T54L/menuhub/internal/adapter/tenantstore/pgstore"
	"github.com/V4T54L/menuhub/internal/adapter/tenantstore/reststore"
	"github.com/V4T54L/menuhub/internal/domain"
)

// DialFunc builds a new connection for a tenant record.
type DialFunc func(ctx context.Context, rec domain.TenantRecord) (*domain.TenantConnection, error)

// DialerConfig configures how connections are built.
type DialerConfig struct {
	// StorageBucket is the public bucket holding menu images on REST endpoints.
	StorageBucket string
	// ImageBaseURL, when set, overrides per-endpoint storage URLs.
	ImageBaseURL string
	HTTPClient   *http.Client
}

// Dialer picks a store implementation from the endpoint scheme.
type Dialer struct {
	cfg    DialerConfig
	logger *slog.Logger
}

// NewDialer creates a new Dialer.
func NewDialer(cfg DialerConfig, logger *slog.Logger) *Dialer {
	return &Dialer{cfg: cfg, logger: logger.With("component", "tenant_dialer")}
}

// Dial builds a connection for rec. Every failure wraps
// domain.ErrConnectionUnavailable.
func (d *Dialer) Dial(ctx context.Context, rec domain.TenantRecord) (*domain.TenantConnection, error) {
	conn, err := d.dial(ctx, rec)
	if err != nil {
		endpoint := Redact(rec.DataEndpoint)
		d.logger.Error("failed to dial tenant endpoint", "tenant", rec.DisplayName, "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: dial %s: %w", domain.ErrConnectionUnavailable, endpoint, err)
	}
	d.logger.Info("dialed tenant endpoint", "tenant", rec.DisplayName, "endpoint", conn.Endpoint)
	return conn, nil
}

func (d *Dialer) dial(ctx context.Context, rec domain.TenantRecord) (*domain.TenantConnection, error) {
	if strings.TrimSpace(rec.DataEndpoint) == "" {
		return nil, errors.New("tenant has no data endpoint")
	}
	u, err := url.Parse(rec.DataEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	var images domain.ImageResolver
	if d.cfg.ImageBaseURL != "" {
		images = NewBaseURLResolver(d.cfg.ImageBaseURL)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		store, err := pgstore.Open(ctx, rec.DataEndpoint, rec.DataAccessKey)
		if err != nil {
			return nil, err
		}
		return &domain.TenantConnection{Endpoint: Redact(rec.DataEndpoint), Store: store, Images: images}, nil

	case "http", "https":
		store, err := reststore.New(rec.DataEndpoint, rec.DataAccessKey, d.cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		if images == nil && d.cfg.StorageBucket != "" {
			sr, err := reststore.NewStorageResolver(rec.DataEndpoint, d.cfg.StorageBucket)
			if err != nil {
				return nil, err
			}
			images = sr
		}
		return &domain.TenantConnection{Endpoint: store.Endpoint(), Store: store, Images: images}, nil

	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// Redact hides any password embedded in an endpoint URL.
func Redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "<unparseable endpoint>"
	}
	return u.Redacted()
}

// BaseURLResolver serves images from a fixed CDN or bucket URL.
type BaseURLResolver struct {
	base string
}

// NewBaseURLResolver creates a resolver that prefixes paths with base.
func NewBaseURLResolver(base string) *BaseURLResolver {
	return &BaseURLResolver{base: strings.TrimRight(base, "/")}
}

func (r *BaseURLResolver) PublicURL(path string) (string, error) {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return "", errors.New("empty image path")
	}
	return r.base + "/" + path, nil
}
