// Package reststore reads a tenant's menu tables through a PostgREST-style
// HTTP endpoint and resolves images from its public storage bucket.
package reststore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/V4T54L/menuhub/internal/domain"
)

const maxErrorBody = 512

// Store implements domain.TenantStore over HTTP.
type Store struct {
	baseURL   *url.URL
	accessKey string
	client    *http.Client
}

// New creates a Store for endpoint. The access key is sent both as the
// apikey header and as a bearer token.
func New(endpoint, accessKey string, client *http.Client) (*Store, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tenant endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("tenant endpoint scheme %q is not http(s)", u.Scheme)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Store{baseURL: u, accessKey: accessKey, client: client}, nil
}

// Endpoint returns the normalized base URL.
func (s *Store) Endpoint() string {
	return s.baseURL.String()
}

func (s *Store) Select(ctx context.Context, q domain.Query) ([]domain.Row, error) {
	if !domain.IsTenantTable(q.Table) {
		return nil, fmt.Errorf("table %q is not readable", q.Table)
	}

	u := s.baseURL.JoinPath("rest", "v1", q.Table)
	u.RawQuery = EncodeQuery(q).Encode()

	resp, err := s.do(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("select %s: %w", q.Table, statusError(resp))
	}

	var rows []map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", q.Table, err)
	}

	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = domain.Row(r)
	}
	return out, nil
}

// Ping checks that the endpoint answers and accepts the access key.
func (s *Store) Ping(ctx context.Context) error {
	resp, err := s.do(ctx, s.baseURL.JoinPath("rest", "v1/").String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Close releases idle connections.
func (s *Store) Close() {
	s.client.CloseIdleConnections()
}

func (s *Store) do(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.accessKey != "" {
		req.Header.Set("apikey", s.accessKey)
		req.Header.Set("Authorization", "Bearer "+s.accessKey)
	}
	return s.client.Do(req)
}

// EncodeQuery renders q as PostgREST query parameters.
func EncodeQuery(q domain.Query) url.Values {
	v := url.Values{}
	v.Set("select", "*")
	for _, f := range q.Filters {
		v.Add(f.Column, "eq."+fmt.Sprint(f.Value))
	}
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		v.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// StatusError is a non-success HTTP answer from a tenant endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
