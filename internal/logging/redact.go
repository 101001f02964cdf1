package logging

import (
	"log/slog"
	"strings"
)

// Redacted replaces the value of any attribute named like a credential.
const Redacted = "<redacted>"

// secretKeys match the last segment of an attribute key, case-insensitively.
var secretKeys = map[string]struct{}{
	"authorization": {},
	"api_token":     {},
	"token":         {},
	"ntfy_topic":    {},
}

func isSecretKey(key string) bool {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	_, ok := secretKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

func redactValue(key string, value slog.Value) slog.Value {
	if isSecretKey(key) {
		return slog.StringValue(Redacted)
	}
	return value
}
