package repository

import "encoding/json"

// Quarantine writes receive the record as the raw map it failed in, so the
// identifying columns are picked straight out of it. Missing or mistyped
// values default to zero: a record can be quarantined precisely because the
// field is absent.

func rawInt64(raw map[string]any, key string) int64 {
	switch v := raw[key].(type) {
	case json.Number:
		n, _ := v.Int64()
		return n
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func rawString(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func rawNumber(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	}
	return ""
}
