package logs

import (
	"encoding/json"
	"strings"

	"wesline/internal/logging"
)

// FieldFilter narrows JSON log lines by their structured fields. Empty
// fields match everything.
type FieldFilter struct {
	Component string
	RequestID string
	Level     string
}

// Empty reports whether the filter matches every line.
func (f FieldFilter) Empty() bool {
	return strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.RequestID) == "" &&
		strings.TrimSpace(f.Level) == ""
}

// Matcher returns a TailOptions.Match function for the filter, or nil when
// the filter is empty. Lines that are not JSON objects never match a
// non-empty filter.
func (f FieldFilter) Matcher() func(string) bool {
	if f.Empty() {
		return nil
	}
	component := strings.TrimSpace(f.Component)
	requestID := strings.TrimSpace(f.RequestID)
	level := strings.TrimSpace(f.Level)
	return func(line string) bool {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return false
		}
		if component != "" && !strings.EqualFold(component, stringField(record, logging.FieldComponent)) {
			return false
		}
		if requestID != "" && requestID != stringField(record, logging.FieldRequestID) {
			return false
		}
		if level != "" && !strings.EqualFold(level, stringField(record, "level")) {
			return false
		}
		return true
	}
}

func stringField(record map[string]any, key string) string {
	value, _ := record[key].(string)
	return value
}
