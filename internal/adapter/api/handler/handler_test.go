package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/menuhub/internal/adapter/diag"
	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/domain"
	"github.com/V4T54L/menuhub/internal/pkg/currency"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type menuFunc func(ctx context.Context, slug string, filter domain.MenuFilter) (*domain.MenuView, *domain.TenantRecord, error)

func (f menuFunc) Menu(ctx context.Context, slug string, filter domain.MenuFilter) (*domain.MenuView, *domain.TenantRecord, error) {
	return f(ctx, slug, filter)
}

type countingReporter struct{ n int }

func (c *countingReporter) ReportViews(n int) { c.n += n }

func price(v float64) *float64 { return &v }

func sampleView() *domain.MenuView {
	return &domain.MenuView{
		Profile: &domain.Profile{Name: domain.LocalizedText{Base: "The Blue Lagoon", Variants: map[string]string{"sq": "Laguna Blu"}}},
		Categories: []domain.Category{
			{ID: "c1", Name: domain.LocalizedText{Base: "Starters"}},
		},
		Items: []domain.Item{
			{ID: "i1", CategoryID: "c1", Name: domain.LocalizedText{Base: "Pizza", Variants: map[string]string{"sq": ""}}, Price: price(10)},
		},
		Theme:    domain.DefaultTheme,
		Language: &domain.LanguageSettings{DefaultLanguage: "en", EnabledLanguages: []string{"en", "sq"}},
		Currency: &domain.CurrencySettings{BaseCurrency: "EUR", Rates: map[string]float64{"EUR": 1, "ALL": 100}},
	}
}

func serveMenu(h *MenuHandler, target, slug string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.SetPathValue("slug", slug)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMenuHandler_Success(t *testing.T) {
	rec := &domain.TenantRecord{ID: uuid.New(), DisplayName: "The Blue Lagoon"}
	var gotFilter domain.MenuFilter
	provider := menuFunc(func(ctx context.Context, slug string, filter domain.MenuFilter) (*domain.MenuView, *domain.TenantRecord, error) {
		gotFilter = filter
		return sampleView(), rec, nil
	})
	views := &countingReporter{}
	m := metrics.NewMenuMetrics(prometheus.NewRegistry())
	h := NewMenuHandler(provider, discard, m, views, nil, currency.ModeLegacy)

	rr := serveMenu(h, "/menu/the-blue-lagoon?lang=sq&currency=all&category=c1", "the-blue-lagoon")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Tenant   tenantSummary `json:"tenant"`
		Lang     string        `json:"lang"`
		Currency string        `json:"currency"`
		Display  displayView   `json:"display"`
		Menu     struct {
			Theme domain.Theme `json:"theme"`
		} `json:"menu"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, "c1", gotFilter.CategoryID)
	assert.Equal(t, rec.ID.String(), body.Tenant.ID)
	assert.Equal(t, "sq", body.Lang)
	assert.Equal(t, "ALL", body.Currency)
	assert.Equal(t, "Laguna Blu", body.Display.RestaurantName)
	require.Len(t, body.Display.Items, 1)
	assert.Equal(t, "Pizza", body.Display.Items[0].Name, "empty translation falls back to base")
	require.NotNil(t, body.Display.Items[0].Price)
	assert.Equal(t, 1000.0, *body.Display.Items[0].Price)
	assert.Equal(t, domain.DefaultTheme, body.Menu.Theme)
	assert.Equal(t, 1, views.n)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MenuRequests.WithLabelValues("ok")))
}

func TestMenuHandler_Defaults(t *testing.T) {
	provider := menuFunc(func(ctx context.Context, slug string, filter domain.MenuFilter) (*domain.MenuView, *domain.TenantRecord, error) {
		return sampleView(), &domain.TenantRecord{ID: uuid.New()}, nil
	})
	h := NewMenuHandler(provider, discard, nil, nil, nil, currency.ModeLegacy)

	rr := serveMenu(h, "/menu/x", "x")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"lang":"en"`)
	assert.Contains(t, rr.Body.String(), `"currency":"EUR"`)
}

func TestMenuHandler_StrictCurrency(t *testing.T) {
	provider := menuFunc(func(ctx context.Context, slug string, filter domain.MenuFilter) (*domain.MenuView, *domain.TenantRecord, error) {
		return sampleView(), &domain.TenantRecord{ID: uuid.New()}, nil
	})

	strict := NewMenuHandler(provider, discard, nil, nil, nil, currency.ModeStrict)
	rr := serveMenu(strict, "/menu/x?currency=GBP", "x")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	legacy := NewMenuHandler(provider, discard, nil, nil, nil, currency.ModeLegacy)
	rr = serveMenu(legacy, "/menu/x?currency=GBP", "x")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"price":10`)
}

func TestMenuHandler_Errors(t *testing.T) {
	secretRec := &domain.TenantRecord{ID: uuid.New(), DisplayName: "Lagoon", DataEndpoint: "postgres://u:pw-5555@db/x", DataAccessKey: "tenant-secret"}

	tests := []struct {
		name           string
		err            error
		rec            *domain.TenantRecord
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Malformed Slug",
			err:            &domain.MalformedSlugError{Slug: "%zz", Reason: "invalid percent-encoding"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  domain.MessageInvalidLink,
		},
		{
			name:           "Not Found",
			err:            &domain.TenantNotFoundError{Candidates: []string{"Pizza Palace", "pizza-palace"}},
			expectedStatus: http.StatusNotFound,
			expectedError:  domain.MessageNotFound,
		},
		{
			name:           "Unavailable",
			err:            fmt.Errorf("%w: ping: password authentication failed for key tenant-secret", domain.ErrConnectionUnavailable),
			rec:            secretRec,
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  domain.MessageUnavailable,
		},
		{
			name:           "Deadline",
			err:            context.DeadlineExceeded,
			rec:            secretRec,
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  domain.MessageUnavailable,
		},
		{
			name:           "Unknown",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  domain.MessageUnknownError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := menuFunc(func(ctx context.Context, slug string, filter domain.MenuFilter) (*domain.MenuView, *domain.TenantRecord, error) {
				return nil, tt.rec, tt.err
			})

			hidden := NewMenuHandler(provider, discard, nil, nil, nil, currency.ModeLegacy)
			rr := serveMenu(hidden, "/menu/x", "x")
			assert.Equal(t, tt.expectedStatus, rr.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedError, body.Error)
			assert.Nil(t, body.Diagnostics, "diagnostics are off by default")
			assert.NotContains(t, rr.Body.String(), "tenant-secret")

			redactor := diag.NewRedactor([]string{"data_access_key", "password"}, discard)
			exposed := NewMenuHandler(provider, discard, nil, nil, redactor, currency.ModeLegacy)
			rr = serveMenu(exposed, "/menu/x", "x")
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), `"diagnostics"`)
			assert.NotContains(t, rr.Body.String(), "tenant-secret")
			assert.NotContains(t, rr.Body.String(), "pw-5555")
		})
	}
}

type fakeLister []string

func (f fakeLister) Endpoints() []string { return f }

type recordingInvalidator struct {
	names []string
	err   error
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, name string) error {
	r.names = append(r.names, name)
	return r.err
}

func TestAdminHandler(t *testing.T) {
	t.Run("List Connections", func(t *testing.T) {
		h := NewAdminHandler(fakeLister{"https://a.example.test"}, nil, nil, discard)
		rr := httptest.NewRecorder()
		h.ListConnections(rr, httptest.NewRequest(http.MethodGet, "/admin/connections", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"count":1`)
	})

	t.Run("Invalidate By Slug", func(t *testing.T) {
		inv := &recordingInvalidator{}
		h := NewAdminHandler(fakeLister{}, inv, nil, discard)
		rr := httptest.NewRecorder()
		h.InvalidateDirectoryCache(rr, httptest.NewRequest(http.MethodDelete, "/admin/directory/cache?slug=the-blue-lagoon", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"The Blue Lagoon", "the-blue-lagoon", "the blue lagoon"}, inv.names)
	})

	t.Run("Invalidate Requires Name", func(t *testing.T) {
		h := NewAdminHandler(fakeLister{}, &recordingInvalidator{}, nil, discard)
		rr := httptest.NewRecorder()
		h.InvalidateDirectoryCache(rr, httptest.NewRequest(http.MethodDelete, "/admin/directory/cache", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Invalidate Without Cache", func(t *testing.T) {
		h := NewAdminHandler(fakeLister{}, nil, nil, discard)
		rr := httptest.NewRecorder()
		h.InvalidateDirectoryCache(rr, httptest.NewRequest(http.MethodDelete, "/admin/directory/cache?name=X", nil))
		assert.Equal(t, http.StatusNotImplemented, rr.Code)
	})
}

func TestSSEBroker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker := NewSSEBroker(ctx, discard, 10*time.Millisecond)

	srv := httptest.NewServer(broker)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return broker.Clients() == 1 }, time.Second, 5*time.Millisecond)
	broker.ReportViews(5)

	buf := make([]byte, 512)
	var got strings.Builder
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(got.String(), `"total_views":5`) {
		n, err := resp.Body.Read(buf)
		got.Write(buf[:n])
		if err != nil {
			break
		}
	}
	assert.Contains(t, got.String(), "event: views")
	assert.Contains(t, got.String(), `"total_views":5`)
}
