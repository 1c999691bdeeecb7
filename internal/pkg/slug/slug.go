// Package slug turns a menu URL segment into the display names it may stand for.
package slug

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/V4T54L/menuhub/internal/domain"
)

// Candidates is an ordered, duplicate-free list of display names to try.
// Exact-match lookups happen in this order; the first element doubles as
// the partial-match pattern.
type Candidates []string

// First returns the preferred candidate.
func (c Candidates) First() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// ExpandCandidates derives candidate display names from slug, in order:
//  1. the decoded slug with '-' and '_' as spaces, title-cased ("The Blue Lagoon")
//  2. the raw slug ("the-blue-lagoon")
//  3. the percent-decoded slug, NFC-normalized, when it differs from the raw slug
//  4. the decoded slug with '-' and '_' as spaces, case preserved ("the blue lagoon")
//
// It fails with a *domain.MalformedSlugError when the slug is blank, has an
// invalid percent escape, or does not decode to valid UTF-8.
func ExpandCandidates(s string) (Candidates, error) {
	if strings.TrimSpace(s) == "" {
		return nil, &domain.MalformedSlugError{Slug: s, Reason: "empty"}
	}
	if !utf8.ValidString(s) {
		return nil, &domain.MalformedSlugError{Slug: s, Reason: "invalid utf-8"}
	}

	decoded, err := url.PathUnescape(s)
	if err != nil {
		return nil, &domain.MalformedSlugError{Slug: s, Reason: "invalid percent-encoding"}
	}
	if !utf8.ValidString(decoded) {
		return nil, &domain.MalformedSlugError{Slug: s, Reason: "decodes to invalid utf-8"}
	}
	decoded = norm.NFC.String(decoded)

	spaced := strings.Join(strings.FieldsFunc(decoded, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	}), " ")
	// Casers keep state, so each call gets its own. NoLower keeps acronyms
	// such as "BBQ" intact.
	titled := cases.Title(language.Und, cases.NoLower).String(spaced)

	out := make(Candidates, 0, 4)
	seen := make(map[string]struct{}, 4)
	for _, c := range []string{titled, s, decoded, spaced} {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
