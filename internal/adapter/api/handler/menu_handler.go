package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/V4T54L/menuhub/internal/adapter/diag"
	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/domain"
	"github.com/V4T54L/menuhub/internal/pkg/currency"
)

// MenuProvider produces the menu for a slug.
type MenuProvider interface {
	Menu(ctx context.Context, slug string, filter domain.MenuFilter) (*domain.MenuView, *domain.TenantRecord, error)
}

// ViewReporter counts served menus.
type ViewReporter interface {
	ReportViews(count int)
}

// MenuHandler serves GET /menu/{slug}.
type MenuHandler struct {
	menus        MenuProvider
	logger       *slog.Logger
	metrics      *metrics.MenuMetrics
	views        ViewReporter
	redactor     *diag.Redactor
	currencyMode currency.Mode
}

// NewMenuHandler creates a new MenuHandler. A nil redactor disables the
// diagnostics block in error responses.
func NewMenuHandler(menus MenuProvider, logger *slog.Logger, m *metrics.MenuMetrics, views ViewReporter, redactor *diag.Redactor, mode currency.Mode) *MenuHandler {
	return &MenuHandler{
		menus:        menus,
		logger:       logger,
		metrics:      m,
		views:        views,
		redactor:     redactor,
		currencyMode: mode,
	}
}

type tenantSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type menuResponse struct {
	Tenant   tenantSummary    `json:"tenant"`
	Lang     string           `json:"lang,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Menu     *domain.MenuView `json:"menu"`
	Display  displayView      `json:"display"`
}

// displayView is the menu rendered for one language and currency.
type displayView struct {
	RestaurantName string            `json:"restaurant_name"`
	Description    string            `json:"description,omitempty"`
	Categories     []displayCategory `json:"categories"`
	Items          []displayItem     `json:"items"`
	Popup          *displayPopup     `json:"popup,omitempty"`
}

type displayCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type displayItem struct {
	ID          string   `json:"id"`
	CategoryID  string   `json:"category_id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Featured    bool     `json:"is_featured"`
	Allergens   []string `json:"allergens,omitempty"`
}

type displayPopup struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ImageURL     string `json:"image_url,omitempty"`
	ButtonText   string `json:"button_text,omitempty"`
	ButtonURL    string `json:"button_url,omitempty"`
	DelaySeconds int    `json:"delay_seconds"`
	ShowOnce     bool   `json:"show_once"`
}

func (h *MenuHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	q := r.URL.Query()
	filter := domain.MenuFilter{CategoryID: strings.TrimSpace(q.Get("category"))}

	view, rec, err := h.menus.Menu(r.Context(), slug, filter)
	if err != nil {
		h.fail(w, r, slug, rec, err)
		return
	}

	lang := strings.TrimSpace(q.Get("lang"))
	if lang == "" && view.Language != nil {
		lang = view.Language.DefaultLanguage
	}
	// Without currency settings prices are shown as stored.
	var cur string
	if view.Currency != nil {
		cur = strings.ToUpper(strings.TrimSpace(q.Get("currency")))
		if cur == "" {
			cur = strings.ToUpper(view.Currency.BaseCurrency)
		}
	}

	display, err := h.render(view, lang, cur)
	if err != nil {
		h.count("invalid_currency")
		respondWithJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: "Unsupported currency."})
		return
	}

	h.count("ok")
	if h.views != nil {
		h.views.ReportViews(1)
	}
	respondWithJSON(w, h.logger, http.StatusOK, menuResponse{
		Tenant:   tenantSummary{ID: rec.ID.String(), Name: rec.DisplayName},
		Lang:     lang,
		Currency: cur,
		Menu:     view,
		Display:  display,
	})
}

func (h *MenuHandler) render(view *domain.MenuView, lang, cur string) (displayView, error) {
	var base string
	var rates map[string]float64
	if view.Currency != nil {
		base = view.Currency.BaseCurrency
		rates = view.Currency.Rates
	}

	d := displayView{
		Categories: make([]displayCategory, 0, len(view.Categories)),
		Items:      make([]displayItem, 0, len(view.Items)),
	}
	if view.Profile != nil {
		d.RestaurantName = view.Profile.Name.In(lang)
		d.Description = view.Profile.Description.In(lang)
	}
	for _, c := range view.Categories {
		d.Categories = append(d.Categories, displayCategory{
			ID:          c.ID,
			Name:        c.Name.In(lang),
			Description: c.Description.In(lang),
			ImageURL:    c.ImageURL,
		})
	}
	for _, it := range view.Items {
		item := displayItem{
			ID:          it.ID,
			CategoryID:  it.CategoryID,
			Name:        it.Name.In(lang),
			Description: it.Description.In(lang),
			ImageURL:    it.ImageURL,
			Featured:    it.Featured,
			Allergens:   it.Allergens,
		}
		if it.Price != nil {
			price := *it.Price
			if base != "" && cur != "" {
				converted, err := currency.Convert(price, base, cur, rates, h.currencyMode)
				if err != nil {
					return displayView{}, err
				}
				price = math.Round(converted*100) / 100
			}
			item.Price = &price
		}
		d.Items = append(d.Items, item)
	}
	if p := view.Popup; p != nil && p.Enabled {
		d.Popup = &displayPopup{
			Title:        p.Title.In(lang),
			Message:      p.Message.In(lang),
			ImageURL:     p.ImageURL,
			ButtonText:   p.ButtonText.In(lang),
			ButtonURL:    p.ButtonURL,
			DelaySeconds: p.DelaySeconds,
			ShowOnce:     p.ShowOnce,
		}
	}
	return d, nil
}

func (h *MenuHandler) fail(w http.ResponseWriter, r *http.Request, slug string, rec *domain.TenantRecord, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		h.count("canceled")
		h.logger.Debug("client went away", "slug", slug)
		return
	}

	code, outcome := http.StatusInternalServerError, "error"
	switch {
	case errors.Is(err, domain.ErrMalformedSlug):
		code, outcome = http.StatusBadRequest, "invalid_link"
	case errors.Is(err, domain.ErrTenantNotFound):
		code, outcome = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConnectionUnavailable), errors.Is(err, context.DeadlineExceeded):
		code, outcome = http.StatusServiceUnavailable, "unavailable"
	}
	h.count(outcome)

	if code >= http.StatusInternalServerError {
		h.logger.Error("menu request failed", "slug", slug, "status", code, "error", err)
	} else {
		h.logger.Info("menu request rejected", "slug", slug, "status", code, "error", err)
	}

	resp := errorResponse{Error: domain.UserMessage(err)}
	if code == http.StatusServiceUnavailable {
		resp.Error = domain.MessageUnavailable
	}
	if h.redactor != nil {
		resp.Diagnostics = h.redactor.Report(slug, err, rec)
	}
	respondWithJSON(w, h.logger, code, resp)
}

func (h *MenuHandler) count(outcome string) {
	if h.metrics != nil {
		h.metrics.MenuRequests.WithLabelValues(outcome).Inc()
	}
}
