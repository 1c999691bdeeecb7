package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/V4T54L/menuhub/internal/domain"
	"github.com/V4T54L/menuhub/internal/pkg/slug"
)

// TenantResolver maps candidate names to a directory record.
type TenantResolver interface {
	Resolve(ctx context.Context, candidates slug.Candidates) (*domain.TenantRecord, error)
}

// MenuLoader runs one aggregation pass.
type MenuLoader interface {
	Load(ctx context.Context, conn *domain.TenantConnection, filter domain.MenuFilter) (*domain.MenuView, error)
}

// MenuService turns a URL slug into a menu view.
type MenuService struct {
	resolver    TenantResolver
	connections domain.ConnectionProvider
	loader      MenuLoader
	logger      *slog.Logger
}

// NewMenuService creates a new MenuService.
func NewMenuService(resolver TenantResolver, connections domain.ConnectionProvider, loader MenuLoader, logger *slog.Logger) *MenuService {
	return &MenuService{
		resolver:    resolver,
		connections: connections,
		loader:      loader,
		logger:      logger.With("component", "menu_service"),
	}
}

// Menu resolves slug to a tenant, connects to its endpoint and aggregates the
// menu. Resolution and connection failures stop the pipeline before any data
// fetch is issued. The record is returned whenever resolution succeeded, even
// if a later step failed.
func (s *MenuService) Menu(ctx context.Context, rawSlug string, filter domain.MenuFilter) (*domain.MenuView, *domain.TenantRecord, error) {
	candidates, err := slug.ExpandCandidates(rawSlug)
	if err != nil {
		return nil, nil, err
	}

	rec, err := s.resolver.Resolve(ctx, candidates)
	if err != nil {
		return nil, nil, err
	}

	conn, err := s.connections.Connection(ctx, *rec)
	if err != nil {
		return nil, rec, err
	}
	defer s.connections.Release(conn)
	if err := conn.Store.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, rec, ctx.Err()
		}
		s.logger.Error("tenant endpoint unreachable", "tenant", rec.DisplayName, "error", err)
		return nil, rec, fmt.Errorf("%w: ping %s: %w", domain.ErrConnectionUnavailable, rec.DisplayName, err)
	}

	view, err := s.loader.Load(ctx, conn, filter)
	if err != nil {
		return nil, rec, err
	}
	return view, rec, nil
}
