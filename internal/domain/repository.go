package domain

import "context"

// DirectoryStore is the read side of the central tenant directory.
// This abstracts away the specific implementations (e.g., PostgreSQL, a Redis read-through cache).
type DirectoryStore interface {
	// FindByExactName returns the tenant whose display name equals name.
	// Returns (nil, nil) when there is no such tenant.
	FindByExactName(ctx context.Context, name string) (*TenantRecord, error)

	// FindByPartialName returns every tenant whose display name contains
	// pattern, compared case-insensitively.
	FindByPartialName(ctx context.Context, pattern string) ([]TenantRecord, error)
}

// DirectoryCacheInvalidator drops cached directory entries for a display name.
type DirectoryCacheInvalidator interface {
	Invalidate(ctx context.Context, name string) error
}

// ConnectionProvider hands out connections for resolved tenants.
type ConnectionProvider interface {
	// Connection returns the live handle for record.DataEndpoint, building
	// one if needed. Dial failures wrap ErrConnectionUnavailable.
	Connection(ctx context.Context, record TenantRecord) (*TenantConnection, error)

	// Release hands back a connection obtained from Connection once the
	// caller is done with it. A provider never closes a handle that has
	// not been released.
	Release(conn *TenantConnection)
}

// APIKeyRepository defines the interface for validating admin API keys.
type APIKeyRepository interface {
	// IsValid checks if the provided API key is valid and active.
	// Implementations should handle caching to reduce database load.
	IsValid(ctx context.Context, key string) (bool, error)
}
