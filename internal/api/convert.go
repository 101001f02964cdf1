package api

import (
	"strings"

	"wesline/internal/config"
	"wesline/internal/logging"
	"wesline/internal/notation"
)

// Options merges the request header over the configured notation defaults.
func (h Header) Options(defaults config.Notation) notation.Options {
	opts := notation.Options{
		Title:       strings.TrimSpace(h.Title),
		Composer:    strings.TrimSpace(h.Composer),
		Meter:       firstNonEmpty(h.Meter, defaults.Meter),
		UnitLength:  firstNonEmpty(h.UnitLength, defaults.UnitLength),
		Tempo:       defaults.Tempo,
		Key:         strings.TrimSpace(h.Key),
		BarsPerLine: defaults.BarsPerLine,
		PreferFlats: defaults.PreferFlats,
	}
	if h.Tempo > 0 {
		opts.Tempo = h.Tempo
	}
	if h.BarsPerLine > 0 {
		opts.BarsPerLine = h.BarsPerLine
	}
	if h.PreferFlats != nil {
		opts.PreferFlats = *h.PreferFlats
	}
	return opts
}

// FromLogEvents converts hub events to their transport form.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:  evt.Sequence,
			Timestamp: evt.Timestamp,
			Level:     evt.Level,
			Message:   evt.Message,
			Component: evt.Component,
			RequestID: evt.RequestID,
			Route:     evt.Route,
			Upstream:  evt.Upstream,
			Fields:    evt.Fields,
		})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
