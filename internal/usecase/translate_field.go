package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/V4T54L/menuhub/internal/domain"
)

// ErrTranslationProtected is returned when a machine translation would
// overwrite a value a person edited or approved.
var ErrTranslationProtected = errors.New("translation is manually edited or approved")

// TranslationUseCase fills language variants of localized fields and keeps
// their provenance metadata current.
type TranslationUseCase struct {
	translator domain.Translator
	logger     *slog.Logger
	now        func() time.Time
}

// NewTranslationUseCase creates a new TranslationUseCase.
func NewTranslationUseCase(translator domain.Translator, logger *slog.Logger) *TranslationUseCase {
	return &TranslationUseCase{
		translator: translator,
		logger:     logger.With("component", "translation"),
		now:        time.Now,
	}
}

// TranslateField machine-translates text.Base into key.Lang, stores it as a
// variant and marks it auto_translated. Variants marked manually_edited or
// approved are left alone unless force is set.
func (uc *TranslationUseCase) TranslateField(ctx context.Context, meta domain.TranslationMeta, key domain.FieldKey, text *domain.LocalizedText, sourceLang string, force bool) error {
	if meta == nil {
		return errors.New("translation metadata map is nil")
	}
	if status, ok := meta.Status(key); ok && !force && status != domain.StatusAutoTranslated {
		return fmt.Errorf("%w: %s is %s", ErrTranslationProtected, key, status)
	}
	if strings.TrimSpace(text.Base) == "" {
		return nil
	}

	out, err := uc.translator.Translate(ctx, text.Base, sourceLang, key.Lang)
	if err != nil {
		return fmt.Errorf("translate %s: %w", key, err)
	}

	if text.Variants == nil {
		text.Variants = make(map[string]string)
	}
	text.Variants[key.Lang] = out
	meta.Mark(key, domain.StatusAutoTranslated, sourceLang, uc.now())
	uc.logger.Debug("field translated", "key", key.String(), "source", sourceLang)
	return nil
}

// MarkEdited records that a person changed the variant for key. A nil meta
// is allocated; the returned map must be stored back.
func (uc *TranslationUseCase) MarkEdited(meta domain.TranslationMeta, key domain.FieldKey) domain.TranslationMeta {
	if meta == nil {
		meta = make(domain.TranslationMeta)
	}
	meta.Mark(key, domain.StatusManuallyEdited, meta[key].Source, uc.now())
	return meta
}

// Approve records that a person accepted the current variant for key.
// Approving a variant with no provenance is an error.
func (uc *TranslationUseCase) Approve(meta domain.TranslationMeta, key domain.FieldKey) error {
	cur, ok := meta[key]
	if !ok {
		return fmt.Errorf("no translation recorded for %s", key)
	}
	meta.Mark(key, domain.StatusApproved, cur.Source, uc.now())
	return nil
}

// TranslateEntity translates every field into every target language, skipping
// the source language and protected variants. It returns the (possibly newly
// allocated) metadata and the joined translator failures.
func (uc *TranslationUseCase) TranslateEntity(ctx context.Context, meta domain.TranslationMeta, fields map[string]*domain.LocalizedText, sourceLang string, targets []string) (domain.TranslationMeta, error) {
	if meta == nil {
		meta = make(domain.TranslationMeta)
	}
	var errs []error
	for field, text := range fields {
		for _, lang := range targets {
			if strings.EqualFold(lang, sourceLang) {
				continue
			}
			err := uc.TranslateField(ctx, meta, domain.FieldKey{Field: field, Lang: strings.ToLower(lang)}, text, sourceLang, false)
			switch {
			case err == nil:
			case errors.Is(err, ErrTranslationProtected):
				uc.logger.Debug("keeping protected translation", "field", field, "lang", lang)
			default:
				errs = append(errs, err)
			}
			if ctx.Err() != nil {
				return meta, errors.Join(append(errs, ctx.Err())...)
			}
		}
	}
	return meta, errors.Join(errs...)
}
