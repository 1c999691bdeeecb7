package domain

// Profile is the restaurant's public profile.
type Profile struct {
	ID          string        `json:"id"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	LogoPath    string        `json:"logo_path,omitempty"`
	LogoURL     string        `json:"logo_url,omitempty"`
	CoverPath   string        `json:"cover_path,omitempty"`
	CoverURL    string        `json:"cover_url,omitempty"`
	Address     *string       `json:"address,omitempty"`
	Phone       *string       `json:"phone,omitempty"`
	Email       *string       `json:"email,omitempty"`
	Website     *string       `json:"website,omitempty"`
}

// Category groups menu items.
type Category struct {
	ID           string          `json:"id"`
	Name         LocalizedText   `json:"name"`
	Description  LocalizedText   `json:"description"`
	ImagePath    string          `json:"image_path,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	DisplayOrder int             `json:"display_order"`
	Active       bool            `json:"is_active"`
	Translations TranslationMeta `json:"translation_metadata,omitempty"`
}

// Item is one dish or drink.
type Item struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"category_id,omitempty"`
	Name         LocalizedText   `json:"name"`
	Description  LocalizedText   `json:"description"`
	Price        *float64        `json:"price,omitempty"`
	ImagePath    string          `json:"image_path,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	Available    bool            `json:"is_available"`
	Featured     bool            `json:"is_featured"`
	DisplayOrder int             `json:"display_order"`
	Allergens    []string        `json:"allergens,omitempty"`
	Translations TranslationMeta `json:"translation_metadata,omitempty"`
}

// Theme is the public menu's customization.
type Theme struct {
	PrimaryColor    string `json:"primary_color"`
	SecondaryColor  string `json:"secondary_color"`
	AccentColor     string `json:"accent_color"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	FontFamily      string `json:"font_family"`
	Layout          string `json:"layout"`
}

// DefaultTheme is used when a tenant has no stored customization.
var DefaultTheme = Theme{
	PrimaryColor:    "#1f2937",
	SecondaryColor:  "#374151",
	AccentColor:     "#f59e0b",
	BackgroundColor: "#ffffff",
	TextColor:       "#111827",
	FontFamily:      "Inter",
	Layout:          "list",
}

// LanguageSettings lists the languages a tenant publishes.
type LanguageSettings struct {
	DefaultLanguage  string   `json:"default_language"`
	EnabledLanguages []string `json:"enabled_languages"`
	AutoTranslate    bool     `json:"auto_translate"`
}

// CurrencySettings holds the tenant's exchange rates, each relative to one
// fixed base currency.
type CurrencySettings struct {
	BaseCurrency      string             `json:"base_currency"`
	EnabledCurrencies []string           `json:"enabled_currencies"`
	Rates             map[string]float64 `json:"rates"`
}

// PopupSettings configures the promotional popup.
type PopupSettings struct {
	Enabled      bool          `json:"enabled"`
	Title        LocalizedText `json:"title"`
	Message      LocalizedText `json:"message"`
	ImagePath    string        `json:"image_path,omitempty"`
	ImageURL     string        `json:"image_url,omitempty"`
	ButtonText   LocalizedText `json:"button_text"`
	ButtonURL    string        `json:"button_url,omitempty"`
	DelaySeconds int           `json:"delay_seconds"`
	ShowOnce     bool          `json:"show_once"`
}

// MenuView is the result of one aggregation pass. Categories and Items are
// never nil and Theme is always populated; the pointer fields are optional.
type MenuView struct {
	Profile    *Profile          `json:"profile,omitempty"`
	Categories []Category        `json:"categories"`
	Items      []Item            `json:"items"`
	Theme      Theme             `json:"theme"`
	Language   *LanguageSettings `json:"language_settings,omitempty"`
	Currency   *CurrencySettings `json:"currency_settings,omitempty"`
	Popup      *PopupSettings    `json:"popup_settings,omitempty"`
}

// MenuFilter narrows the items of an aggregation pass.
type MenuFilter struct {
	CategoryID string
}

// ProfileFromRow decodes a restaurant_profile row.
func ProfileFromRow(r Row) Profile {
	return Profile{
		ID:          r.ID("id"),
		Name:        LocalizedFrom(r, "name"),
		Description: LocalizedFrom(r, "description"),
		LogoPath:    r.String("logo_url"),
		CoverPath:   r.String("cover_image_url"),
		Address:     r.OptString("address"),
		Phone:       r.OptString("phone"),
		Email:       r.OptString("email"),
		Website:     r.OptString("website"),
	}
}

// CategoryFromRow decodes a categories row. It returns the translation
// metadata keys that had to be skipped.
func CategoryFromRow(r Row) (Category, []string) {
	meta, skipped := TranslationMetaFrom(r.Map("translation_metadata"))
	active, ok := r.OptBool("is_active")
	if !ok {
		active = true
	}
	return Category{
		ID:           r.ID("id"),
		Name:         LocalizedFrom(r, "name"),
		Description:  LocalizedFrom(r, "description"),
		ImagePath:    r.String("image_url"),
		DisplayOrder: r.Int("display_order"),
		Active:       active,
		Translations: meta,
	}, skipped
}

// ItemFromRow decodes a menu_items row. It returns the translation metadata
// keys that had to be skipped.
func ItemFromRow(r Row) (Item, []string) {
	meta, skipped := TranslationMetaFrom(r.Map("translation_metadata"))
	available, ok := r.OptBool("is_available")
	if !ok {
		available = true
	}
	return Item{
		ID:           r.ID("id"),
		CategoryID:   r.ID("category_id"),
		Name:         LocalizedFrom(r, "name"),
		Description:  LocalizedFrom(r, "description"),
		Price:        r.OptFloat("price"),
		ImagePath:    r.String("image_url"),
		Available:    available,
		Featured:     r.Bool("is_featured"),
		DisplayOrder: r.Int("display_order"),
		Allergens:    r.StringSlice("allergens"),
		Translations: meta,
	}, skipped
}

// ThemeFromRow overlays a restaurant_customization row onto DefaultTheme.
// Missing or empty columns keep the default value.
func ThemeFromRow(r Row) Theme {
	t := DefaultTheme
	overlay := func(dst *string, col string) {
		if v := r.String(col); v != "" {
			*dst = v
		}
	}
	overlay(&t.PrimaryColor, "primary_color")
	overlay(&t.SecondaryColor, "secondary_color")
	overlay(&t.AccentColor, "accent_color")
	overlay(&t.BackgroundColor, "background_color")
	overlay(&t.TextColor, "text_color")
	overlay(&t.FontFamily, "font_family")
	overlay(&t.Layout, "layout")
	return t
}

// LanguageSettingsFromRow decodes a language_settings row.
func LanguageSettingsFromRow(r Row) LanguageSettings {
	return LanguageSettings{
		DefaultLanguage:  r.String("default_language"),
		EnabledLanguages: r.StringSlice("enabled_languages"),
		AutoTranslate:    r.Bool("auto_translate"),
	}
}

// CurrencySettingsFromRow decodes a currency_settings row.
func CurrencySettingsFromRow(r Row) CurrencySettings {
	return CurrencySettings{
		BaseCurrency:      r.String("base_currency"),
		EnabledCurrencies: r.StringSlice("enabled_currencies"),
		Rates:             r.FloatMap("exchange_rates"),
	}
}

// PopupSettingsFromRow decodes a popup_settings row.
func PopupSettingsFromRow(r Row) PopupSettings {
	return PopupSettings{
		Enabled:      r.Bool("is_enabled"),
		Title:        LocalizedFrom(r, "title"),
		Message:      LocalizedFrom(r, "message"),
		ImagePath:    r.String("image_url"),
		ButtonText:   LocalizedFrom(r, "button_text"),
		ButtonURL:    r.String("button_url"),
		DelaySeconds: r.Int("delay_seconds"),
		ShowOnce:     r.Bool("show_once"),
	}
}
