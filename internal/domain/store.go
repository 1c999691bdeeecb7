package domain

import "context"

// Logical tables of a tenant's data project.
const (
	TableProfile       = "restaurant_profile"
	TableCategories    = "categories"
	TableMenuItems     = "menu_items"
	TableCustomization = "restaurant_customization"
	TableLanguage      = "language_settings"
	TableCurrency      = "currency_settings"
	TablePopup         = "popup_settings"
)

var tenantTables = map[string]struct{}{
	TableProfile:       {},
	TableCategories:    {},
	TableMenuItems:     {},
	TableCustomization: {},
	TableLanguage:      {},
	TableCurrency:      {},
	TablePopup:         {},
}

// IsTenantTable reports whether name is one of the seven logical tables.
func IsTenantTable(name string) bool {
	_, ok := tenantTables[name]
	return ok
}

// Filter is an equality predicate on one column.
type Filter struct {
	Column string
	Value  any
}

// Order sorts by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query is a select against one logical table. Limit 0 means no limit.
type Query struct {
	Table   string
	Filters []Filter
	Order   []Order
	Limit   int
}

// TenantStore runs selects against one tenant's data endpoint.
// Rows are loosely typed; missing columns are simply absent from the map.
type TenantStore interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Ping(ctx context.Context) error
	Close()
}

// ImageResolver turns a stored relative image path into a fetchable URL.
type ImageResolver interface {
	PublicURL(path string) (string, error)
}

// Translator is the third-party text translation backend.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
