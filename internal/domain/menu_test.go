package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
)

func TestThemeFromRow(t *testing.T) {
	theme := ThemeFromRow(Row{"primary_color": "#ff0000", "font_family": ""})

	if theme.PrimaryColor != "#ff0000" {
		t.Errorf("expected stored primary color, got %q", theme.PrimaryColor)
	}
	if theme.FontFamily != DefaultTheme.FontFamily {
		t.Errorf("expected empty font to keep default, got %q", theme.FontFamily)
	}
	if theme.TextColor != DefaultTheme.TextColor {
		t.Errorf("expected missing column to keep default, got %q", theme.TextColor)
	}
}

func TestItemFromRow(t *testing.T) {
	row := Row{
		"id":            float64(42),
		"category_id":   "c1",
		"name":          "Pizza",
		"name_sq":       "Piceri",
		"price":         int64(9),
		"is_featured":   true,
		"display_order": float64(3),
		"allergens":     []any{"gluten", 7, "dairy"},
		"translation_metadata": map[string]any{
			"name_sq": map[string]any{"status": "approved"},
			"bogus":   map[string]any{"status": "approved"},
		},
	}

	item, skipped := ItemFromRow(row)

	if item.ID != "42" {
		t.Errorf("expected id 42, got %q", item.ID)
	}
	if item.Price == nil || *item.Price != 9 {
		t.Errorf("expected price 9, got %v", item.Price)
	}
	if !item.Available {
		t.Error("expected missing is_available to default to true")
	}
	if item.DisplayOrder != 3 {
		t.Errorf("expected display order 3, got %d", item.DisplayOrder)
	}
	if len(item.Allergens) != 2 {
		t.Errorf("expected 2 allergens, got %v", item.Allergens)
	}
	if len(skipped) != 1 || skipped[0] != "bogus" {
		t.Errorf("expected bogus key to be skipped, got %v", skipped)
	}
	if item.Name.In("sq") != "Piceri" {
		t.Errorf("unexpected localized name %q", item.Name.In("sq"))
	}
}

func TestItemFromRow_NoPrice(t *testing.T) {
	item, _ := ItemFromRow(Row{"id": "a", "price": nil})
	if item.Price != nil {
		t.Errorf("expected nil price, got %v", *item.Price)
	}
}

func TestCurrencySettingsFromRow(t *testing.T) {
	cs := CurrencySettingsFromRow(Row{
		"base_currency":  "ALL",
		"exchange_rates": map[string]any{"EUR": 0.0095, "USD": json.Number("0.011"), "BAD": "x"},
	})
	if len(cs.Rates) != 2 {
		t.Fatalf("expected 2 numeric rates, got %v", cs.Rates)
	}
	if cs.Rates["USD"] != 0.011 {
		t.Errorf("expected json.Number rate to decode, got %v", cs.Rates["USD"])
	}
}

func TestMenuViewJSON_EmptySlices(t *testing.T) {
	view := MenuView{Categories: []Category{}, Items: []Item{}, Theme: DefaultTheme}
	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["categories"].([]any); !ok {
		t.Errorf("expected categories to serialize as an array, got %v", decoded["categories"])
	}
	if _, ok := decoded["profile"]; ok {
		t.Error("expected absent profile to be omitted")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&MalformedSlugError{Slug: "%zz", Reason: "bad escape"}, MessageInvalidLink},
		{fmt.Errorf("resolve: %w", &TenantNotFoundError{Candidates: []string{"A"}}), MessageNotFound},
		{fmt.Errorf("dial: %w", ErrConnectionUnavailable), MessageUnavailable},
		{errors.New("pq: relation does not exist"), MessageUnknownError},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTenantNotFoundError(t *testing.T) {
	err := &TenantNotFoundError{Candidates: []string{"The Blue Lagoon", "the-blue-lagoon"}, Matches: 2}
	if !errors.Is(err, ErrTenantNotFound) {
		t.Error("expected errors.Is to match ErrTenantNotFound")
	}
	if got := err.Error(); got != "tenant not found: 2 ambiguous partial matches for [The Blue Lagoon, the-blue-lagoon]" {
		t.Errorf("unexpected message %q", got)
	}
}
