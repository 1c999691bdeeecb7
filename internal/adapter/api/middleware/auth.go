package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/V4T54L/menuhub/internal/domain"
)

const APIKeyHeader = "X-API-Key"

type operatorKey struct{}

// Auth guards operator endpoints. The key is read from X-API-Key or from an
// "Authorization: Bearer" header. Keys never reach the logs; a short
// fingerprint identifies the operator instead and is available to handlers
// through OperatorFrom.
func Auth(repo domain.APIKeyRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "admin_auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.With("request_id", RequestIDFrom(r), "method", r.Method, "path", r.URL.Path)

			apiKey := presentedKey(r)
			if apiKey == "" {
				log.Warn("admin request without API key", "remote_addr", r.RemoteAddr)
				denyJSON(w, http.StatusUnauthorized, "API key required")
				return
			}
			operator := Fingerprint(apiKey)

			isValid, err := repo.IsValid(r.Context(), apiKey)
			if err != nil {
				log.Error("admin key store unavailable", "operator", operator, "error", err)
				denyJSON(w, http.StatusServiceUnavailable, "Key validation unavailable")
				return
			}
			if !isValid {
				log.Warn("rejected admin API key", "operator", operator, "remote_addr", r.RemoteAddr)
				denyJSON(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			log.Debug("admin request authorized", "operator", operator)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), operatorKey{}, operator)))
		})
	}
}

// OperatorFrom returns the fingerprint of the key that authorized r, or "".
func OperatorFrom(r *http.Request) string {
	op, _ := r.Context().Value(operatorKey{}).(string)
	return op
}

// Fingerprint is the first 12 hex digits of the key's SHA-256 digest.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}

func presentedKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(APIKeyHeader)); k != "" {
		return k
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func denyJSON(w http.ResponseWriter, code int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	w.Header().Set("Content-Type", "application/json")
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="menuhub-admin"`)
	}
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
