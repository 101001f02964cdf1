package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wesline/internal/services"
)

// Kind identifies what produced an entry.
type Kind string

const (
	KindLine         Kind = "line"
	KindCounterpoint Kind = "counterpoint"
	KindTab          Kind = "tab"
)

// ParseKind validates a kind name. An empty value is returned as-is so
// callers can use it as "any kind".
func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case "", KindLine, KindCounterpoint, KindTab:
		return kind, nil
	}
	return "", services.Wrap(services.ErrValidation, "history", "kind",
		fmt.Sprintf("unknown kind %q (want line, counterpoint, or tab)", value), nil)
}

// Entry is one stored result.
type Entry struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Title     string          `json:"title,omitempty"`
	Request   json.RawMessage `json:"request,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Notes     []string        `json:"notes,omitempty"`
	ABC       string          `json:"abc"`
	Upstream  string          `json:"upstream,omitempty"`
	Valid     *bool           `json:"valid,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Filter narrows List results.
type Filter struct {
	Kind  Kind
	Limit int
}

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	default:
		return f.Limit
	}
}
