// Package currency converts menu prices between a tenant's enabled currencies.
package currency

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCurrency is returned in strict mode when a rate is missing.
var ErrUnknownCurrency = errors.New("unknown currency")

// Mode selects how a missing rate is handled.
type Mode int

const (
	// ModeLegacy treats a missing or non-positive rate as 1. Prices in that
	// currency silently convert at parity; kept for compatibility with
	// existing tenant data.
	ModeLegacy Mode = iota
	// ModeStrict fails with ErrUnknownCurrency instead.
	ModeStrict
)

// ParseMode accepts "legacy" and "strict".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return ModeLegacy, nil
	case "strict":
		return ModeStrict, nil
	default:
		return ModeLegacy, fmt.Errorf("unknown currency mode %q", s)
	}
}

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "legacy"
}

// Convert moves price from one currency to another using rates expressed
// against a common base: price / rates[from] * rates[to].
// Currency codes are matched case-insensitively.
func Convert(price float64, from, to string, rates map[string]float64, mode Mode) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return price, nil
	}
	rf, err := rate(rates, from, mode)
	if err != nil {
		return 0, err
	}
	rt, err := rate(rates, to, mode)
	if err != nil {
		return 0, err
	}
	return price / rf * rt, nil
}

func rate(rates map[string]float64, code string, mode Mode) (float64, error) {
	r, ok := lookup(rates, code)
	if ok && r > 0 {
		return r, nil
	}
	if mode == ModeStrict {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return 1, nil
}

func lookup(rates map[string]float64, code string) (float64, bool) {
	if r, ok := rates[code]; ok {
		return r, true
	}
	for k, r := range rates {
		if strings.EqualFold(k, code) {
			return r, true
		}
	}
	return 0, false
}
