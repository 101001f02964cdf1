package api_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"wesline/internal/api"
	"wesline/internal/config"
	"wesline/internal/logging"
	"wesline/internal/notation"
)

func TestHeaderOptionsFallsBackToConfig(t *testing.T) {
	defaults := config.Default().Notation
	defaults.Tempo = 160
	defaults.PreferFlats = true

	got := api.Header{Title: "  Blues Head ", Key: "F"}.Options(defaults)
	want := notation.Options{
		Title:       "Blues Head",
		Meter:       defaults.Meter,
		UnitLength:  defaults.UnitLength,
		Tempo:       160,
		Key:         "F",
		BarsPerLine: defaults.BarsPerLine,
		PreferFlats: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderOptionsOverrides(t *testing.T) {
	flats := false
	defaults := config.Default().Notation
	defaults.PreferFlats = true

	got := api.Header{Meter: "6/8", UnitLength: "1/16", Tempo: 90, BarsPerLine: 2, PreferFlats: &flats}.Options(defaults)
	if got.Meter != "6/8" || got.UnitLength != "1/16" || got.Tempo != 90 || got.BarsPerLine != 2 || got.PreferFlats {
		t.Fatalf("overrides not applied: %+v", got)
	}
}

func TestFromLogEvents(t *testing.T) {
	if got := api.FromLogEvents(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	got := api.FromLogEvents([]logging.LogEvent{{
		Sequence:  7,
		Timestamp: ts,
		Level:     "WARN",
		Message:   "upstream failed; trying next",
		Component: "proxy",
		RequestID: "req-1",
		Upstream:  "api",
		Fields:    map[string]string{"path": "/patterns"},
	}})
	want := []api.LogEvent{{
		Sequence:  7,
		Timestamp: ts,
		Level:     "WARN",
		Message:   "upstream failed; trying next",
		Component: "proxy",
		RequestID: "req-1",
		Upstream:  "api",
		Fields:    map[string]string{"path": "/patterns"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}
