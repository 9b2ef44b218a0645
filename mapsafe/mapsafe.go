// Package mapsafe reads typed values out of loosely typed option maps, such as
// those decoded from YAML (integers arrive as int) or JSON (as float64).
package mapsafe

import "time"

// Get retrieves a typed value from a map[string]any.
// If the key is missing or the type cannot be converted, it returns the default value.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case int:
		if n, ok := toInt64(val); ok {
			return any(int(n)).(T)
		}
	case int64:
		if n, ok := toInt64(val); ok {
			return any(n).(T)
		}
	case float64:
		if f, ok := toFloat64(val); ok {
			return any(f).(T)
		}
	case time.Duration:
		switch x := val.(type) {
		case time.Duration:
			return any(x).(T)
		case string:
			if d, err := time.ParseDuration(x); err == nil {
				return any(d).(T)
			}
		}
	default:
		// fallback: if type matches exactly
		if v, ok := val.(T); ok {
			return v
		}
	}

	return defaultValue
}

func toInt64(val any) (int64, bool) {
	switch x := val.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func toFloat64(val any) (float64, bool) {
	switch x := val.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
