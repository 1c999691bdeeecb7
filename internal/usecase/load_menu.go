package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/domain"
)

const defaultFetchTimeout = 5 * time.Second

// Field names used in logs and metrics.
const (
	fieldProfile    = "profile"
	fieldCategories = "categories"
	fieldItems      = "items"
	fieldTheme      = "theme"
	fieldLanguage   = "language_settings"
	fieldCurrency   = "currency_settings"
	fieldPopup      = "popup_settings"
)

// MenuAggregator runs one aggregation pass against a tenant connection.
type MenuAggregator struct {
	logger       *slog.Logger
	metrics      *metrics.MenuMetrics
	fetchTimeout time.Duration
}

// NewMenuAggregator creates a MenuAggregator. Each of the seven fetches is
// bounded by fetchTimeout; zero selects the default.
func NewMenuAggregator(logger *slog.Logger, m *metrics.MenuMetrics, fetchTimeout time.Duration) *MenuAggregator {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &MenuAggregator{
		logger:       logger.With("component", "menu_aggregator"),
		metrics:      m,
		fetchTimeout: fetchTimeout,
	}
}

// Load issues the seven fetches concurrently and merges them into a view.
// A failed fetch degrades its own field only: categories and items become
// empty, theme becomes DefaultTheme, the rest are left nil.
//
// If ctx ends before the pass completes, the partial result is discarded and
// ctx.Err() is returned.
func (a *MenuAggregator) Load(ctx context.Context, conn *domain.TenantConnection, filter domain.MenuFilter) (*domain.MenuView, error) {
	start := time.Now()
	view := &domain.MenuView{
		Categories: []domain.Category{},
		Items:      []domain.Item{},
		Theme:      domain.DefaultTheme,
	}

	// Every goroutine writes a distinct field of view and always returns nil,
	// so one failure never cancels its siblings.
	var g errgroup.Group
	a.spawn(&g, fieldProfile, func() { view.Profile = a.loadProfile(ctx, conn) })
	a.spawn(&g, fieldCategories, func() { view.Categories = a.loadCategories(ctx, conn) })
	a.spawn(&g, fieldItems, func() { view.Items = a.loadItems(ctx, conn, filter) })
	a.spawn(&g, fieldTheme, func() { view.Theme = a.loadTheme(ctx, conn) })
	a.spawn(&g, fieldLanguage, func() { view.Language = a.loadLanguage(ctx, conn) })
	a.spawn(&g, fieldCurrency, func() { view.Currency = a.loadCurrency(ctx, conn) })
	a.spawn(&g, fieldPopup, func() { view.Popup = a.loadPopup(ctx, conn) })
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		a.logger.Debug("discarding aggregation pass", "endpoint", conn.Endpoint, "error", err)
		return nil, err
	}

	if a.metrics != nil {
		a.metrics.AggregationSeconds.Observe(time.Since(start).Seconds())
	}
	a.logger.Debug("aggregation pass complete",
		"endpoint", conn.Endpoint,
		"categories", len(view.Categories),
		"items", len(view.Items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return view, nil
}

// spawn runs fn in the group and turns a panic into a field failure.
func (a *MenuAggregator) spawn(g *errgroup.Group, field string, fn func()) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				a.fieldFailed(field, fmt.Errorf("%w: %s: panic: %v", domain.ErrFieldFetchFailed, field, r))
			}
		}()
		fn()
		return nil
	})
}

// fetch runs q under the per-fetch timeout. ok is false when the fetch failed;
// the failure has already been logged and counted.
func (a *MenuAggregator) fetch(ctx context.Context, conn *domain.TenantConnection, field string, q domain.Query) (rows []domain.Row, ok bool) {
	fctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	rows, err := conn.Store.Select(fctx, q)
	if err != nil {
		if ctx.Err() == nil {
			a.fieldFailed(field, fmt.Errorf("%w: %s: %w", domain.ErrFieldFetchFailed, field, err))
		}
		return nil, false
	}
	return rows, true
}

func (a *MenuAggregator) fieldFailed(field string, err error) {
	a.logger.Warn("menu field unavailable, using fallback", "field", field, "error", err)
	if a.metrics != nil {
		a.metrics.FieldFetchFailures.WithLabelValues(field).Inc()
	}
}

func (a *MenuAggregator) single(ctx context.Context, conn *domain.TenantConnection, field, table string) (domain.Row, bool) {
	rows, ok := a.fetch(ctx, conn, field, domain.Query{Table: table, Limit: 1})
	if !ok || len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

func (a *MenuAggregator) loadProfile(ctx context.Context, conn *domain.TenantConnection) *domain.Profile {
	row, ok := a.single(ctx, conn, fieldProfile, domain.TableProfile)
	if !ok {
		return nil
	}
	p := domain.ProfileFromRow(row)
	p.LogoURL = a.imageURL(conn, p.LogoPath)
	p.CoverURL = a.imageURL(conn, p.CoverPath)
	return &p
}

func (a *MenuAggregator) loadCategories(ctx context.Context, conn *domain.TenantConnection) []domain.Category {
	rows, ok := a.fetch(ctx, conn, fieldCategories, domain.Query{
		Table:   domain.TableCategories,
		Filters: []domain.Filter{{Column: "is_active", Value: true}},
		Order:   []domain.Order{{Column: "display_order"}},
	})
	if !ok {
		return []domain.Category{}
	}

	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		c, skipped := domain.CategoryFromRow(row)
		if !c.Active {
			continue
		}
		a.warnSkipped(domain.TableCategories, c.ID, skipped)
		c.ImageURL = a.imageURL(conn, c.ImagePath)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

func (a *MenuAggregator) loadItems(ctx context.Context, conn *domain.TenantConnection, filter domain.MenuFilter) []domain.Item {
	q := domain.Query{
		Table:   domain.TableMenuItems,
		Filters: []domain.Filter{{Column: "is_available", Value: true}},
		Order: []domain.Order{
			{Column: "is_featured", Desc: true},
			{Column: "display_order"},
		},
	}
	if filter.CategoryID != "" {
		q.Filters = append(q.Filters, domain.Filter{Column: "category_id", Value: filter.CategoryID})
	}

	rows, ok := a.fetch(ctx, conn, fieldItems, q)
	if !ok {
		return []domain.Item{}
	}

	out := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		it, skipped := domain.ItemFromRow(row)
		if !it.Available {
			continue
		}
		if filter.CategoryID != "" && it.CategoryID != filter.CategoryID {
			continue
		}
		a.warnSkipped(domain.TableMenuItems, it.ID, skipped)
		it.ImageURL = a.imageURL(conn, it.ImagePath)
		out = append(out, it)
	}
	SortItems(out)
	return out
}

// SortItems orders featured items first, then by display order. Items that
// tie keep their storage order.
func SortItems(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Featured != items[j].Featured {
			return items[i].Featured
		}
		return items[i].DisplayOrder < items[j].DisplayOrder
	})
}

func (a *MenuAggregator) loadTheme(ctx context.Context, conn *domain.TenantConnection) domain.Theme {
	row, ok := a.single(ctx, conn, fieldTheme, domain.TableCustomization)
	if !ok {
		return domain.DefaultTheme
	}
	return domain.ThemeFromRow(row)
}

func (a *MenuAggregator) loadLanguage(ctx context.Context, conn *domain.TenantConnection) *domain.LanguageSettings {
	row, ok := a.single(ctx, conn, fieldLanguage, domain.TableLanguage)
	if !ok {
		return nil
	}
	ls := domain.LanguageSettingsFromRow(row)
	return &ls
}

func (a *MenuAggregator) loadCurrency(ctx context.Context, conn *domain.TenantConnection) *domain.CurrencySettings {
	row, ok := a.single(ctx, conn, fieldCurrency, domain.TableCurrency)
	if !ok {
		return nil
	}
	cs := domain.CurrencySettingsFromRow(row)
	return &cs
}

func (a *MenuAggregator) loadPopup(ctx context.Context, conn *domain.TenantConnection) *domain.PopupSettings {
	row, ok := a.single(ctx, conn, fieldPopup, domain.TablePopup)
	if !ok {
		return nil
	}
	ps := domain.PopupSettingsFromRow(row)
	ps.ImageURL = a.imageURL(conn, ps.ImagePath)
	return &ps
}

// imageURL resolves a stored image path. It never fails: a missing resolver
// or a resolver error yields "".
func (a *MenuAggregator) imageURL(conn *domain.TenantConnection, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if conn.Images == nil {
		return ""
	}
	u, err := conn.Images.PublicURL(path)
	if err != nil {
		a.logger.Debug("image url unavailable", "path", path, "error", err)
		return ""
	}
	return u
}

func (a *MenuAggregator) warnSkipped(table, id string, keys []string) {
	if len(keys) > 0 {
		a.logger.Warn("skipping malformed translation metadata", "table", table, "id", id, "keys", keys)
	}
}
