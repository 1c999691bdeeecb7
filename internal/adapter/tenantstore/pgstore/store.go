// Package pgstore reads a tenant's menu tables from a Postgres endpoint.
package pgstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/V4T54L/menuhub/internal/domain"
)

var columnName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store implements domain.TenantStore over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open creates a pool for endpoint. A non-empty accessKey replaces the
// password in the connection string. The pool connects lazily; use Ping to
// check reachability.
func Open(ctx context.Context, endpoint, accessKey string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse tenant endpoint: %w", err)
	}
	if accessKey != "" {
		cfg.ConnConfig.Password = accessKey
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create tenant pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Select(ctx context.Context, q domain.Query) ([]domain.Row, error) {
	sql, args, err := BuildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", q.Table, err)
	}

	out := make([]domain.Row, len(maps))
	for i, m := range maps {
		for k, v := range m {
			m[k] = normalize(v)
		}
		out[i] = domain.Row(m)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// BuildSelect renders q as a parameterized SELECT. Only the logical tenant
// tables and plain lower-case column names are accepted.
func BuildSelect(q domain.Query) (string, []any, error) {
	if !domain.IsTenantTable(q.Table) {
		return "", nil, fmt.Errorf("table %q is not readable", q.Table)
	}

	var b strings.Builder
	args := make([]any, 0, len(q.Filters))
	b.WriteString("SELECT * FROM ")
	b.WriteString(pgx.Identifier{q.Table}.Sanitize())

	for i, f := range q.Filters {
		if !columnName.MatchString(f.Column) {
			return "", nil, fmt.Errorf("invalid filter column %q", f.Column)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, f.Value)
		fmt.Fprintf(&b, "%s = $%d", pgx.Identifier{f.Column}.Sanitize(), len(args))
	}

	for i, o := range q.Order {
		if !columnName.MatchString(o.Column) {
			return "", nil, fmt.Errorf("invalid order column %q", o.Column)
		}
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{o.Column}.Sanitize())
		if o.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args, nil
}

// normalize converts driver values into the kinds domain.Row understands.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	default:
		return v
	}
}
