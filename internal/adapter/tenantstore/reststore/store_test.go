package reststore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/menuhub/internal/domain"
)

func TestEncodeQuery(t *testing.T) {
	v := EncodeQuery(domain.Query{
		Table:   domain.TableMenuItems,
		Filters: []domain.Filter{{Column: "is_available", Value: true}, {Column: "category_id", Value: "c1"}},
		Order:   []domain.Order{{Column: "is_featured", Desc: true}, {Column: "display_order"}},
		Limit:   10,
	})

	assert.Equal(t, "*", v.Get("select"))
	assert.Equal(t, "eq.true", v.Get("is_available"))
	assert.Equal(t, "eq.c1", v.Get("category_id"))
	assert.Equal(t, "is_featured.desc,display_order.asc", v.Get("order"))
	assert.Equal(t, "10", v.Get("limit"))
}

func TestStore_Select(t *testing.T) {
	var gotPath, gotKey, gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 42, "name": "Pizza", "price": 9.5, "exchange_rates": {"ALL": 100}}]`))
	}))
	defer srv.Close()

	store, err := New(srv.URL+"/", "anon-key", srv.Client())
	require.NoError(t, err)

	rows, err := store.Select(context.Background(), domain.Query{Table: domain.TableMenuItems, Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/menu_items", gotPath)
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, "Bearer anon-key", gotAuth)
	assert.Contains(t, gotQuery, "limit=1")

	require.Len(t, rows, 1)
	assert.Equal(t, "42", rows[0].ID("id"))
	assert.Equal(t, "Pizza", rows[0].String("name"))
	require.NotNil(t, rows[0].OptFloat("price"))
	assert.Equal(t, 9.5, *rows[0].OptFloat("price"))
	assert.Equal(t, 100.0, rows[0].FloatMap("exchange_rates")["ALL"])
}

func TestStore_SelectErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"relation does not exist"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	store, err := New(srv.URL, "k", srv.Client())
	require.NoError(t, err)

	_, err = store.Select(context.Background(), domain.Query{Table: domain.TableCategories})
	var se *StatusError
	require.True(t, errors.As(err, &se), "expected StatusError, got %v", err)
	assert.Equal(t, http.StatusNotFound, se.Code)

	_, err = store.Select(context.Background(), domain.Query{Table: "tenants"})
	assert.Error(t, err, "non-tenant tables are refused")
}

func TestStore_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	good, err := New(srv.URL, "good", srv.Client())
	require.NoError(t, err)
	assert.NoError(t, good.Ping(context.Background()))

	bad, err := New(srv.URL, "bad", srv.Client())
	require.NoError(t, err)
	assert.Error(t, bad.Ping(context.Background()))
}

func TestNew_RejectsScheme(t *testing.T) {
	_, err := New("ftp://example.test", "k", nil)
	assert.Error(t, err)
}

func TestStorageResolver(t *testing.T) {
	r, err := NewStorageResolver("https://abc.example.test/", "menu-images")
	require.NoError(t, err)

	got, err := r.PublicURL("/items/sea bass.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://abc.example.test/storage/v1/object/public/menu-images/items/sea%20bass.jpg", got)

	_, err = r.PublicURL("")
	assert.Error(t, err)

	_, err = NewStorageResolver("https://abc.example.test", "")
	assert.Error(t, err)
}
