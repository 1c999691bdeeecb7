package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/V4T54L/menuhub/internal/adapter/api/middleware"
	"github.com/V4T54L/menuhub/internal/domain"
	"github.com/V4T54L/menuhub/internal/pkg/slug"
)

// ConnectionLister exposes the tenant connection cache.
type ConnectionLister interface {
	Endpoints() []string
}

// ClientCounter reports live dashboard connections.
type ClientCounter interface {
	Clients() int
}

// AdminHandler handles operator requests.
type AdminHandler struct {
	connections ConnectionLister
	invalidator domain.DirectoryCacheInvalidator
	feed        ClientCounter
	logger      *slog.Logger
}

// NewAdminHandler creates a new AdminHandler. invalidator and feed may be nil.
func NewAdminHandler(connections ConnectionLister, invalidator domain.DirectoryCacheInvalidator, feed ClientCounter, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{connections: connections, invalidator: invalidator, feed: feed, logger: logger}
}

// HealthCheck is a simple health check endpoint.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// ListConnections reports the cached tenant endpoints.
// GET /admin/connections
func (h *AdminHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	endpoints := h.connections.Endpoints()
	resp := map[string]any{
		"count":     len(endpoints),
		"endpoints": endpoints,
	}
	if h.feed != nil {
		resp["stream_clients"] = h.feed.Clients()
	}
	respondWithJSON(w, h.logger, http.StatusOK, resp)
}

// InvalidateDirectoryCache drops cached directory entries.
// DELETE /admin/directory/cache?name=<display name>
// DELETE /admin/directory/cache?slug=<url slug> drops every candidate of the slug.
func (h *AdminHandler) InvalidateDirectoryCache(w http.ResponseWriter, r *http.Request) {
	if h.invalidator == nil {
		http.Error(w, "Directory cache is not configured", http.StatusNotImplemented)
		return
	}

	var names []string
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		names = append(names, name)
	}
	if s := r.URL.Query().Get("slug"); s != "" {
		cands, err := slug.ExpandCandidates(s)
		if err != nil {
			http.Error(w, "Invalid slug", http.StatusBadRequest)
			return
		}
		names = append(names, cands...)
	}
	if len(names) == 0 {
		http.Error(w, "name or slug is required", http.StatusBadRequest)
		return
	}

	if err := h.invalidateAll(r.Context(), names); err != nil {
		h.logger.Error("failed to invalidate directory cache", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("directory cache invalidated", "names", names, "operator", middleware.OperatorFrom(r))
	respondWithJSON(w, h.logger, http.StatusOK, map[string]any{"invalidated": names})
}

func (h *AdminHandler) invalidateAll(ctx context.Context, names []string) error {
	for _, n := range names {
		if err := h.invalidator.Invalidate(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
