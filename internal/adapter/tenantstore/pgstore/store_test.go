package pgstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/V4T54L/menuhub/internal/domain"
)

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		query    domain.Query
		wantSQL  string
		wantArgs []any
		wantErr  bool
	}{
		{
			name:    "Single Row",
			query:   domain.Query{Table: domain.TableProfile, Limit: 1},
			wantSQL: `SELECT * FROM "restaurant_profile" LIMIT 1`,
		},
		{
			name: "Items With Filters And Order",
			query: domain.Query{
				Table:   domain.TableMenuItems,
				Filters: []domain.Filter{{Column: "is_available", Value: true}, {Column: "category_id", Value: "c1"}},
				Order:   []domain.Order{{Column: "is_featured", Desc: true}, {Column: "display_order"}},
			},
			wantSQL:  `SELECT * FROM "menu_items" WHERE "is_available" = $1 AND "category_id" = $2 ORDER BY "is_featured" DESC, "display_order" ASC`,
			wantArgs: []any{true, "c1"},
		},
		{
			name:    "Unknown Table",
			query:   domain.Query{Table: "tenants"},
			wantErr: true,
		},
		{
			name:    "Injected Column",
			query:   domain.Query{Table: domain.TableCategories, Filters: []domain.Filter{{Column: `id"; DROP TABLE x; --`, Value: 1}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := BuildSelect(tt.query)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, len(tt.wantArgs), len(args))
			for i := range tt.wantArgs {
				assert.Equal(t, tt.wantArgs[i], args[i])
			}
		})
	}
}

func TestStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tenant"),
		postgres.WithUsername("tenant"),
		postgres.WithPassword("secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	store, err := Open(ctx, connStr, "secret")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	_, err = store.pool.Exec(ctx, `
		CREATE TABLE menu_items (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			name_sq TEXT,
			price NUMERIC(10,2),
			allergens TEXT[],
			translation_metadata JSONB,
			is_available BOOLEAN NOT NULL DEFAULT true,
			is_featured BOOLEAN NOT NULL DEFAULT false,
			display_order INT NOT NULL DEFAULT 0
		);
		INSERT INTO menu_items (id, name, name_sq, price, allergens, translation_metadata, is_featured, display_order) VALUES
			('6f1c2a8e-3b7d-4a51-9e0f-1d2c3b4a5e6f', 'Pizza', '', 9.50, ARRAY['gluten'], '{"name_sq":{"status":"approved","timestamp":"2026-01-02T03:04:05Z"}}', false, 1),
			('7a2d3b9f-4c8e-4b62-8f1a-2e3d4c5b6a7b', 'Pasta', 'Makarona', 11.00, NULL, NULL, true, 2);
	`)
	require.NoError(t, err)

	rows, err := store.Select(ctx, domain.Query{
		Table:   domain.TableMenuItems,
		Filters: []domain.Filter{{Column: "is_available", Value: true}},
		Order:   []domain.Order{{Column: "is_featured", Desc: true}, {Column: "display_order"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	pasta, _ := domain.ItemFromRow(rows[0])
	assert.Equal(t, "7a2d3b9f-4c8e-4b62-8f1a-2e3d4c5b6a7b", pasta.ID)
	assert.Equal(t, "Makarona", pasta.Name.In("sq"))
	require.NotNil(t, pasta.Price)
	assert.InDelta(t, 11.0, *pasta.Price, 1e-9)

	pizza, skipped := domain.ItemFromRow(rows[1])
	assert.Empty(t, skipped)
	assert.Equal(t, "Pizza", pizza.Name.In("sq"), "empty variant falls back to base")
	assert.Equal(t, []string{"gluten"}, pizza.Allergens)
	status, ok := pizza.Translations.Status(domain.FieldKey{Field: "name", Lang: "sq"})
	assert.True(t, ok)
	assert.Equal(t, domain.StatusApproved, status)
}
