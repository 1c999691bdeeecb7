package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/V4T54L/menuhub/internal/domain/mocks"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestAuth(t *testing.T) {
	tests := []struct {
		name             string
		headers          map[string]string
		repo             *mocks.MockAPIKeyRepository
		expectedStatus   int
		expectedOperator string
	}{
		{name: "Missing Key", repo: &mocks.MockAPIKeyRepository{}, expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Key", headers: map[string]string{APIKeyHeader: "nope"}, repo: &mocks.MockAPIKeyRepository{}, expectedStatus: http.StatusUnauthorized},
		{
			name:             "Valid Key",
			headers:          map[string]string{APIKeyHeader: "ops-key"},
			repo:             &mocks.MockAPIKeyRepository{Valid: map[string]bool{"ops-key": true}},
			expectedStatus:   http.StatusNoContent,
			expectedOperator: Fingerprint("ops-key"),
		},
		{
			name:             "Bearer Token",
			headers:          map[string]string{"Authorization": "Bearer ops-key"},
			repo:             &mocks.MockAPIKeyRepository{Valid: map[string]bool{"ops-key": true}},
			expectedStatus:   http.StatusNoContent,
			expectedOperator: Fingerprint("ops-key"),
		},
		{name: "Basic Auth Is Not A Key", headers: map[string]string{"Authorization": "Basic b3BzOmtleQ=="}, repo: &mocks.MockAPIKeyRepository{}, expectedStatus: http.StatusUnauthorized},
		{name: "Repository Error", headers: map[string]string{APIKeyHeader: "ops-key"}, repo: &mocks.MockAPIKeyRepository{Err: errors.New("db down")}, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

			var operator string
			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				operator = OperatorFrom(r)
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin/connections", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()

			RequestID(Auth(tt.repo, logger)(ok)).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if operator != tt.expectedOperator {
				t.Errorf("expected operator %q, got %q", tt.expectedOperator, operator)
			}
			if tt.expectedStatus != http.StatusNoContent && rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("expected a JSON error body, got %q", rr.Header().Get("Content-Type"))
			}
			if strings.Contains(logs.String(), "ops-key") {
				t.Errorf("API key leaked into logs: %s", logs.String())
			}
			if !strings.Contains(logs.String(), "request_id=") {
				t.Errorf("expected request id in auth logs: %s", logs.String())
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	if got := Fingerprint("ops-key"); len(got) != 12 || got != Fingerprint("ops-key") {
		t.Errorf("unexpected fingerprint %q", got)
	}
	if Fingerprint("a") == Fingerprint("b") {
		t.Error("different keys must not share a fingerprint")
	}
}

func TestLogging_KeepsFlusher(t *testing.T) {
	var flushable bool
	h := Logging(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !flushable {
		t.Error("wrapped writer must implement http.Flusher")
	}
	if rr.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rr, req)
	if seen != "abc-123" || rr.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("expected propagated id, got %q / %q", seen, rr.Header().Get(RequestIDHeader))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc-123" {
		t.Errorf("expected a fresh id, got %q", seen)
	}
}
