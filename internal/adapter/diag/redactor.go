// Package diag builds redacted diagnostics for failed menu requests.
package diag

import (
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/V4T54L/menuhub/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor removes secrets from diagnostic payloads. Field names are matched
// case-insensitively, at any depth.
type Redactor struct {
	fields  map[string]struct{}
	inlined *regexp.Regexp // name=value and name: value pairs inside free text
	logger  *slog.Logger
}

// NewRedactor creates a Redactor for the given field names.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	set := make(map[string]struct{}, len(fields))
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, dup := set[f]; !dup {
			quoted = append(quoted, regexp.QuoteMeta(f))
		}
		set[f] = struct{}{}
	}
	r := &Redactor{fields: set, logger: logger}
	if len(quoted) > 0 {
		r.inlined = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)(\s*[=:]\s*)("[^"]*"|[^\s&,;]+)`)
	}
	return r
}

// RedactMap replaces the values of sensitive keys in m, recursing into nested
// maps and slices. It reports whether anything was replaced.
func (r *Redactor) RedactMap(m map[string]any) bool {
	redacted := false
	for k, v := range m {
		if _, ok := r.fields[strings.ToLower(k)]; ok {
			m[k] = RedactedPlaceholder
			redacted = true
			continue
		}
		switch x := v.(type) {
		case map[string]any:
			redacted = r.RedactMap(x) || redacted
		case []any:
			for _, e := range x {
				if em, ok := e.(map[string]any); ok {
					redacted = r.RedactMap(em) || redacted
				}
			}
		case string:
			if s := r.Scrub(x); s != x {
				m[k] = s
				redacted = true
			}
		}
	}
	return redacted
}

// Scrub hides sensitive name=value pairs, URL passwords and the given literal
// secrets inside free text.
func (r *Redactor) Scrub(s string, secrets ...string) string {
	for _, secret := range secrets {
		if len(secret) >= 4 {
			s = strings.ReplaceAll(s, secret, RedactedPlaceholder)
		}
	}
	if r.inlined != nil {
		s = r.inlined.ReplaceAllString(s, "${1}${2}"+RedactedPlaceholder)
	}
	return scrubURLs(s)
}

var urlWithUserinfo = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s/@]+@[^\s]+`)

func scrubURLs(s string) string {
	return urlWithUserinfo.ReplaceAllStringFunc(s, func(raw string) string {
		u, err := url.Parse(raw)
		if err != nil || u.User == nil {
			return raw
		}
		return u.Redacted()
	})
}

// Report describes a failed menu request for operators.
func (r *Redactor) Report(slug string, err error, rec *domain.TenantRecord) map[string]any {
	report := map[string]any{
		"slug":  slug,
		"error": "",
		"kind":  kind(err),
	}

	var secrets []string
	if rec != nil {
		secrets = append(secrets, rec.DataAccessKey)
		report["tenant"] = map[string]any{
			"id":            rec.ID.String(),
			"display_name":  rec.DisplayName,
			"data_endpoint": rec.DataEndpoint,
		}
	}
	if err != nil {
		report["error"] = r.Scrub(err.Error(), secrets...)
	}

	var nf *domain.TenantNotFoundError
	if errors.As(err, &nf) {
		report["candidates"] = nf.Candidates
		report["partial_matches"] = nf.Matches
	}

	if r.RedactMap(report) && r.logger != nil {
		r.logger.Debug("redacted diagnostics", "slug", slug)
	}
	return report
}

func kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrMalformedSlug):
		return "malformed_slug"
	case errors.Is(err, domain.ErrTenantNotFound):
		return "tenant_not_found"
	case errors.Is(err, domain.ErrConnectionUnavailable):
		return "connection_unavailable"
	default:
		return "unknown"
	}
}
