package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// LocalizedText is a translatable field: the source-language value plus
// per-language overrides keyed by lower-case base language ("sq", "en").
type LocalizedText struct {
	Base     string            `json:"base"`
	Variants map[string]string `json:"variants,omitempty"`
}

// In returns the text for lang. An empty override counts as absent, so the
// chain is: override, base, "". A regional tag such as "sq-AL" also matches
// the "sq" override.
func (t LocalizedText) In(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang != "" {
		if v := t.Variants[lang]; v != "" {
			return v
		}
		if base, ok := baseLanguage(lang); ok && base != lang {
			if v := t.Variants[base]; v != "" {
				return v
			}
		}
	}
	return t.Base
}

// LocalizedFrom reads field and every field_<lang> column from row.
func LocalizedFrom(row Row, field string) LocalizedText {
	text := LocalizedText{Base: row.String(field)}
	prefix := field + "_"
	for col, v := range row {
		suffix, ok := strings.CutPrefix(col, prefix)
		if !ok {
			continue
		}
		lang, ok := baseLanguage(suffix)
		if !ok || lang != strings.ToLower(suffix) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if text.Variants == nil {
			text.Variants = make(map[string]string)
		}
		text.Variants[lang] = s
	}
	return text
}

// baseLanguage parses s as a BCP 47 tag and returns its base language.
func baseLanguage(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return base.String(), true
}
