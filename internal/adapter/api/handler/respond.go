package handler

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

type errorResponse struct {
	Error       string         `json:"error"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
