package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// field is one flattened attribute. Group members are joined with dots, so
// slog.Group("req", slog.String("path", p)) becomes req.path.
type field struct {
	key   string
	value slog.Value
}

// collectFields flattens handler-level attrs followed by the record's own
// attrs, qualifying record attrs with any open groups. Secret values are
// replaced on the way through.
func collectFields(pre []slog.Attr, groups []string, record slog.Record) []field {
	out := make([]field, 0, len(pre)+record.NumAttrs())
	for _, attr := range pre {
		out = appendField(out, "", attr)
	}
	prefix := strings.Join(groups, ".")
	record.Attrs(func(attr slog.Attr) bool {
		out = appendField(out, prefix, attr)
		return true
	})
	return out
}

func appendField(out []field, prefix string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return out
	}
	value := attr.Value.Resolve()
	key := joinKey(prefix, attr.Key)
	if value.Kind() == slog.KindGroup {
		for _, member := range value.Group() {
			out = appendField(out, key, member)
		}
		return out
	}
	if key == "" {
		return out
	}
	return append(out, field{key: key, value: redactValue(key, value)})
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// valueText renders a value without quoting, for event maps and IDs.
func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// consoleValue quotes values that would otherwise break key=value parsing.
func consoleValue(v slog.Value) string {
	s := valueText(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
