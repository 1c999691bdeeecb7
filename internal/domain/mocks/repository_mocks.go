package mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/menuhub/internal/domain"
)

// MockDirectoryStore is an in-memory domain.DirectoryStore that records calls.
type MockDirectoryStore struct {
	mu           sync.Mutex
	Records      []domain.TenantRecord
	ExactErr     error
	PartialErr   error
	FailFirstN   int // number of initial calls that return ExactErr before succeeding
	ExactCalls   []string
	PartialCalls []string
}

func (m *MockDirectoryStore) FindByExactName(ctx context.Context, name string) (*domain.TenantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExactCalls = append(m.ExactCalls, name)
	if m.ExactErr != nil {
		if m.FailFirstN <= 0 || len(m.ExactCalls) <= m.FailFirstN {
			return nil, m.ExactErr
		}
	}
	for _, r := range m.Records {
		if r.DisplayName == name {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *MockDirectoryStore) FindByPartialName(ctx context.Context, pattern string) ([]domain.TenantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PartialCalls = append(m.PartialCalls, pattern)
	if m.PartialErr != nil {
		return nil, m.PartialErr
	}
	var out []domain.TenantRecord
	needle := strings.ToLower(pattern)
	for _, r := range m.Records {
		if strings.Contains(strings.ToLower(r.DisplayName), needle) {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockTenantStore serves canned rows per table.
type MockTenantStore struct {
	mu      sync.Mutex
	Tables  map[string][]domain.Row
	Errs    map[string]error
	Delay   map[string]time.Duration
	PingErr error
	Queries []domain.Query
	Closed  bool
}

// ErrStoreClosed is returned by MockTenantStore after Close, the way a closed
// connection pool fails.
var ErrStoreClosed = errors.New("store is closed")

func (m *MockTenantStore) Select(ctx context.Context, q domain.Query) ([]domain.Row, error) {
	m.mu.Lock()
	if m.Closed {
		m.mu.Unlock()
		return nil, ErrStoreClosed
	}
	m.Queries = append(m.Queries, q)
	delay := m.Delay[q.Table]
	err := m.Errs[q.Table]
	rows := m.Tables[q.Table]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	var out []domain.Row
	for _, r := range rows {
		if matches(r, q.Filters) {
			out = append(out, r)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MockTenantStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return ErrStoreClosed
	}
	return m.PingErr
}

// IsClosed reports whether Close was called.
func (m *MockTenantStore) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

func (m *MockTenantStore) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}

// QueriesFor returns the recorded queries against table.
func (m *MockTenantStore) QueriesFor(table string) []domain.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Query
	for _, q := range m.Queries {
		if q.Table == table {
			out = append(out, q)
		}
	}
	return out
}

func matches(r domain.Row, filters []domain.Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(r[f.Column]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

// MockImageResolver prefixes paths with BaseURL, or fails with Err.
type MockImageResolver struct {
	BaseURL string
	Err     error
}

func (m *MockImageResolver) PublicURL(path string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return strings.TrimRight(m.BaseURL, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

// MockTranslator returns "[target] text" or Err.
type MockTranslator struct {
	Err   error
	Calls int
}

func (m *MockTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return "[" + targetLang + "] " + text, nil
}

// MockAPIKeyRepository accepts the keys in Valid.
type MockAPIKeyRepository struct {
	Valid map[string]bool
	Err   error
}

func (m *MockAPIKeyRepository) IsValid(ctx context.Context, key string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.Valid[key], nil
}

// MockConnectionProvider always hands out Conn, or fails with Err.
type MockConnectionProvider struct {
	Conn     *domain.TenantConnection
	Err      error
	Dials    []string
	Released int
}

func (m *MockConnectionProvider) Release(conn *domain.TenantConnection) {
	m.Released++
}

func (m *MockConnectionProvider) Connection(ctx context.Context, rec domain.TenantRecord) (*domain.TenantConnection, error) {
	m.Dials = append(m.Dials, rec.DataEndpoint)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Conn, nil
}
