package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/menuhub/internal/adapter/api/handler"
	"github.com/V4T54L/menuhub/internal/adapter/api/middleware"
)

// NewRouter creates the public HTTP router of the menu service.
func NewRouter(logger *slog.Logger, menuHandler *handler.MenuHandler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /menu/{slug}", menuHandler)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return middleware.RequestID(middleware.Logging(logger)(mux))
}
