package api

import (
	"time"

	"wesline/internal/history"
	"wesline/internal/notation"
	"wesline/internal/services/wesapi"
)

// Header carries the optional ABC header overrides accepted by every
// rendering endpoint. Unset fields fall back to the [notation] config.
type Header struct {
	Title       string `json:"title,omitempty"`
	Composer    string `json:"composer,omitempty"`
	Meter       string `json:"meter,omitempty"`
	UnitLength  string `json:"unit_length,omitempty"`
	Tempo       int    `json:"tempo,omitempty"`
	Key         string `json:"key,omitempty"`
	BarsPerLine int    `json:"bars_per_line,omitempty"`
	PreferFlats *bool  `json:"prefer_flats,omitempty"`
}

// LineRenderRequest renders an existing note list as a single-voice tune.
type LineRenderRequest struct {
	Header
	Notes []string `json:"notes"`
	Chord string   `json:"chord,omitempty"`
}

// CounterpointRenderRequest renders a two-voice exercise with optional
// violation annotations.
type CounterpointRenderRequest struct {
	Header
	CantusFirmus []string             `json:"cantus_firmus"`
	Counterpoint []string             `json:"counterpoint"`
	Species      int                  `json:"species"`
	Violations   []notation.Violation `json:"violations,omitempty"`
}

// TabRenderRequest converts guitar tab positions to notation.
type TabRenderRequest struct {
	Header
	Positions []notation.TabPosition `json:"positions"`
	Tuning    string                 `json:"tuning,omitempty"`
	Record    bool                   `json:"record,omitempty"`
}

// NotationResponse is returned by the rendering endpoints.
type NotationResponse struct {
	ID        string                 `json:"id,omitempty"`
	ABC       string                 `json:"abc"`
	Notes     []string               `json:"notes,omitempty"`
	ASCII     string                 `json:"ascii,omitempty"`
	Intervals []notation.Interval    `json:"intervals,omitempty"`
	Positions []notation.TabPosition `json:"positions,omitempty"`
}

// GenerateLineRequest asks the Wes API for a line and renders it.
type GenerateLineRequest struct {
	Header
	wesapi.LineRequest
	Record *bool `json:"record,omitempty"`
}

// GenerateLineResponse combines the upstream line with its ABC rendering.
type GenerateLineResponse struct {
	ID       string   `json:"id,omitempty"`
	Notes    []string `json:"notes"`
	Chord    string   `json:"chord,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	ABC      string   `json:"abc"`
	Upstream string   `json:"upstream"`
}

// ValidateCounterpointRequest sends a counterpoint exercise to the Wes API
// and renders the result with violations marked.
type ValidateCounterpointRequest struct {
	Header
	wesapi.CounterpointRequest
	Record *bool `json:"record,omitempty"`
}

// ValidateCounterpointResponse reports the upstream verdict and the
// annotated rendering.
type ValidateCounterpointResponse struct {
	ID        string               `json:"id,omitempty"`
	Valid     bool                 `json:"valid"`
	Errors    []notation.Violation `json:"errors,omitempty"`
	Intervals []notation.Interval  `json:"intervals,omitempty"`
	ABC       string               `json:"abc"`
	Upstream  string               `json:"upstream"`
}

// PatternsResponse lists the line patterns the upstream offers.
type PatternsResponse struct {
	Patterns []wesapi.Pattern `json:"patterns"`
	Upstream string           `json:"upstream"`
}

// UpstreamStatus is the result of probing one upstream's health endpoint.
type UpstreamStatus struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Detail    string `json:"detail,omitempty"`
}

// StatusResponse describes the running service.
type StatusResponse struct {
	Version      string           `json:"version"`
	PID          int              `json:"pid"`
	StartedAt    time.Time        `json:"started_at"`
	Mode         string           `json:"mode"`
	ProxyPrefix  string           `json:"proxy_prefix"`
	RateLimited  bool             `json:"rate_limited"`
	History      bool             `json:"history"`
	HistoryCount int              `json:"history_count"`
	Upstreams    []UpstreamStatus `json:"upstreams"`
}

// HistoryListResponse wraps stored entries.
type HistoryListResponse struct {
	Entries []*history.Entry `json:"entries"`
}

// LogStreamResponse is one page of in-memory log events.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// LogEvent is the transport form of a logging.LogEvent.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp time.Time         `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Route     string            `json:"route,omitempty"`
	Upstream  string            `json:"upstream,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
