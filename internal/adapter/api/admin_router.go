package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/menuhub/internal/adapter/api/handler"
	"github.com/V4T54L/menuhub/internal/adapter/api/middleware"
	"github.com/V4T54L/menuhub/internal/domain"
)

// NewAdminRouter creates the operator router. Everything under /admin/
// requires a valid X-API-Key; /health and /metrics are open.
func NewAdminRouter(
	adminHandler *handler.AdminHandler,
	broker *handler.SSEBroker,
	metricsHandler http.Handler,
	apiKeyRepo domain.APIKeyRepository,
	logger *slog.Logger,
) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(apiKeyRepo, logger)

	mux.HandleFunc("GET /health", adminHandler.HealthCheck)
	mux.Handle("GET /metrics", metricsHandler)

	mux.Handle("GET /admin/connections", auth(http.HandlerFunc(adminHandler.ListConnections)))
	mux.Handle("DELETE /admin/directory/cache", auth(http.HandlerFunc(adminHandler.InvalidateDirectoryCache)))
	mux.Handle("GET /admin/views/stream", auth(broker))

	return middleware.RequestID(middleware.Logging(logger)(mux))
}
