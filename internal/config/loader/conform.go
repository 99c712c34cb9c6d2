package loader

import (
	"math"
	"strconv"
	"strings"
)

// Conform converts the scalars in data to the types of the matching keys
// in schema, so a numeric-looking string stays a string and "2000" becomes
// an integer where the schema holds one. Keys missing from schema and
// values that cannot be converted are left unchanged for the decoder to
// report. data is modified in place and returned.
func Conform(data, schema map[string]any) map[string]any {
	for key, val := range data {
		want, ok := schema[key]
		if !ok {
			continue
		}
		switch w := want.(type) {
		case map[string]any:
			if m, ok := val.(map[string]any); ok {
				data[key] = Conform(m, w)
			}
		case string:
			if s, ok := formatScalar(val); ok {
				data[key] = s
			}
		case int64:
			if i, ok := toInt(val); ok {
				data[key] = i
			}
		case float64:
			if f, ok := toFloat(val); ok {
				data[key] = f
			}
		case bool:
			if b, ok := toBool(val); ok {
				data[key] = b
			}
		}
	}
	return data
}

func formatScalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt64 || x < math.MinInt64 {
			return 0, false
		}
		return int64(x), true
	case string:
		i, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(x), "_", ""), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "on", "1":
			return true, true
		case "false", "no", "off", "0":
			return false, true
		}
	}
	return false, false
}
