package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// TranslationStatus records where a translated field value came from.
type TranslationStatus string

const (
	StatusAutoTranslated TranslationStatus = "auto_translated"
	StatusManuallyEdited TranslationStatus = "manually_edited"
	StatusApproved       TranslationStatus = "approved"
)

// Valid reports whether s is a known status.
func (s TranslationStatus) Valid() bool {
	switch s {
	case StatusAutoTranslated, StatusManuallyEdited, StatusApproved:
		return true
	}
	return false
}

// FieldKey names one language variant of one field, e.g. {name, sq}.
// Its wire form is "name_sq".
type FieldKey struct {
	Field string
	Lang  string
}

func (k FieldKey) String() string {
	return k.Field + "_" + k.Lang
}

// ParseFieldKey parses "<field>_<lang>". The language part must be a lower-case
// base language; "name-sq" or "name_" are rejected.
func ParseFieldKey(s string) (FieldKey, error) {
	i := strings.LastIndexByte(s, '_')
	if i <= 0 || i == len(s)-1 {
		return FieldKey{}, fmt.Errorf("invalid translation key %q", s)
	}
	field, lang := s[:i], s[i+1:]
	base, ok := baseLanguage(lang)
	if !ok || base != lang {
		return FieldKey{}, fmt.Errorf("invalid language %q in translation key %q", lang, s)
	}
	return FieldKey{Field: field, Lang: lang}, nil
}

// FieldTranslation is the provenance of one translated value.
type FieldTranslation struct {
	Status    TranslationStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source,omitempty"`
}

// TranslationMeta is the per-entity translation provenance map.
type TranslationMeta map[FieldKey]FieldTranslation

// Mark sets the provenance of a field variant.
func (m TranslationMeta) Mark(key FieldKey, status TranslationStatus, source string, at time.Time) {
	m[key] = FieldTranslation{Status: status, Timestamp: at.UTC(), Source: source}
}

// Status returns the provenance status for key, if any.
func (m TranslationMeta) Status(key FieldKey) (TranslationStatus, bool) {
	t, ok := m[key]
	return t.Status, ok
}

// MarshalJSON writes the map keyed by "<field>_<lang>".
func (m TranslationMeta) MarshalJSON() ([]byte, error) {
	out := make(map[string]FieldTranslation, len(m))
	for k, v := range m {
		out[k.String()] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the "<field>_<lang>" keyed form. Malformed keys or
// unknown statuses fail the decode.
func (m *TranslationMeta) UnmarshalJSON(data []byte) error {
	var raw map[string]FieldTranslation
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(TranslationMeta, len(raw))
	for k, v := range raw {
		key, err := ParseFieldKey(k)
		if err != nil {
			return err
		}
		if !v.Status.Valid() {
			return fmt.Errorf("unknown translation status %q for %s", v.Status, k)
		}
		out[key] = v
	}
	*m = out
	return nil
}

// TranslationMetaFrom decodes a loosely typed metadata column. Entries with
// malformed keys or unknown statuses are returned in skipped rather than
// failing the whole row.
func TranslationMetaFrom(raw map[string]any) (meta TranslationMeta, skipped []string) {
	if len(raw) == 0 {
		return nil, nil
	}
	meta = make(TranslationMeta, len(raw))
	for k, v := range raw {
		key, err := ParseFieldKey(k)
		if err != nil {
			skipped = append(skipped, k)
			continue
		}
		entry := Row(asMap(v))
		status := TranslationStatus(entry.String("status"))
		if !status.Valid() {
			skipped = append(skipped, k)
			continue
		}
		ft := FieldTranslation{Status: status, Source: entry.String("source")}
		if ts := entry.String("timestamp"); ts != "" {
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				ft.Timestamp = parsed
			}
		}
		meta[key] = ft
	}
	sort.Strings(skipped)
	return meta, skipped
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
