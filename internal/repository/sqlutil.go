package repository

import (
	"encoding/json"
	"time"
)

// jsonText marshals v for storage in a TEXT column. Nil slices/maps are
// stored as their empty JSON form so scans never see NULL.
func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		switch v.(type) {
		case map[string]any:
			return "{}"
		default:
			return "[]"
		}
	}
	return string(b)
}

// fromJSONText unmarshals a TEXT column into out, ignoring empty values.
func fromJSONText(s string, out any) {
	if s == "" {
		return
	}
	_ = json.Unmarshal([]byte(s), out)
}

// formatTime stores timestamps as RFC3339 TEXT. Nanosecond precision keeps
// lexicographic ORDER BY consistent with insertion order.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
