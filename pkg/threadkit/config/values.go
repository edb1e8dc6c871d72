package config

// values wraps a decoded document for lenient, typed lookups. Every accessor
// returns defaultVal when the key is missing or holds an unusable type.
type values map[string]any

func (v values) getString(key, defaultVal string) string {
	if s, ok := v[key].(string); ok {
		return s
	}
	return defaultVal
}

func (v values) getBool(key string, defaultVal bool) bool {
	if b, ok := v[key].(bool); ok {
		return b
	}
	return defaultVal
}

// getInt accepts int, int64 and whole float64 values (JSON numbers).
func (v values) getInt(key string, defaultVal int) int {
	switch val := v[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}
