package domain

import (
	"fmt"
	"math"
)

// Row is one record as returned by a TenantStore.
type Row map[string]any

// String returns the column as a string, or "" when absent or not a string.
func (r Row) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// OptString returns the column when it is present and a string.
func (r Row) OptString(key string) *string {
	s, ok := r[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// ID renders an identifier column, which may be textual or numeric.
func (r Row) ID(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprint(v)
	case int, int32, int64:
		return fmt.Sprint(v)
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// Bool returns the column as a bool, or false when absent or not a bool.
func (r Row) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// OptBool returns the column value and whether it was a bool.
func (r Row) OptBool(key string) (bool, bool) {
	b, ok := r[key].(bool)
	return b, ok
}

// OptFloat returns a numeric column as float64.
func (r Row) OptFloat(key string) *float64 {
	f, ok := toFloat(r[key])
	if !ok {
		return nil
	}
	return &f
}

// Int returns a numeric column truncated to int, or 0 when absent.
func (r Row) Int(key string) int {
	f, ok := toFloat(r[key])
	if !ok {
		return 0
	}
	return int(f)
}

// StringSlice returns an array column of strings. Non-string elements are skipped.
func (r Row) StringSlice(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Map returns an object column, or nil when absent or not an object.
func (r Row) Map(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

// FloatMap returns an object column whose values are numeric.
// Non-numeric values are skipped.
func (r Row) FloatMap(key string) map[string]float64 {
	m := r.Map(key)
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := toFloat(v); ok {
			out[k] = f
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
