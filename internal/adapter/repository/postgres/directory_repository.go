package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/V4T54L/menuhub/internal/domain"
)

// partialLimit caps partial-match results. Anything above one is ambiguous
// anyway, so a few rows are enough to report how ambiguous.
const partialLimit = 25

// Open connects to the directory database and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping directory database: %w", err)
	}
	return db, nil
}

// DirectoryRepository implements domain.DirectoryStore over the tenants table.
type DirectoryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDirectoryRepository creates a new PostgreSQL directory repository.
func NewDirectoryRepository(db *sql.DB, logger *slog.Logger) *DirectoryRepository {
	return &DirectoryRepository{db: db, logger: logger.With("component", "directory_repository")}
}

func (r *DirectoryRepository) FindByExactName(ctx context.Context, name string) (*domain.TenantRecord, error) {
	const query = `SELECT id, name, data_endpoint, data_access_key FROM tenants WHERE name = $1 LIMIT 1`

	var rec domain.TenantRecord
	err := r.db.QueryRowContext(ctx, query, name).Scan(&rec.ID, &rec.DisplayName, &rec.DataEndpoint, &rec.DataAccessKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, describe(err)
	}
	return &rec, nil
}

func (r *DirectoryRepository) FindByPartialName(ctx context.Context, pattern string) ([]domain.TenantRecord, error) {
	const query = `SELECT id, name, data_endpoint, data_access_key FROM tenants
		WHERE name ILIKE $1 ESCAPE '\' ORDER BY name LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, "%"+EscapeLike(pattern)+"%", partialLimit)
	if err != nil {
		return nil, describe(err)
	}
	defer rows.Close()

	var out []domain.TenantRecord
	for rows.Next() {
		var rec domain.TenantRecord
		if err := rows.Scan(&rec.ID, &rec.DisplayName, &rec.DataEndpoint, &rec.DataAccessKey); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, describe(err)
	}
	return out, nil
}

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// describe adds the Postgres error code to driver errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("directory query failed (%s %s): %w", pqErr.Code, pqErr.Code.Name(), err)
	}
	return err
}
