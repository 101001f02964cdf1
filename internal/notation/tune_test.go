package notation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"wesline/internal/notation"
)

func note(t *testing.T, name string) *notation.Note {
	t.Helper()
	n, err := notation.ParseNote(name)
	if err != nil {
		t.Fatalf("ParseNote(%q): %v", name, err)
	}
	return &n
}

func render(t *testing.T, tune notation.Tune) string {
	t.Helper()
	out, err := tune.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

// body returns the rendered lines after the K: header.
func body(t *testing.T, abc string) string {
	t.Helper()
	_, after, ok := strings.Cut(abc, "\nK:")
	if !ok {
		t.Fatalf("missing K: line in %q", abc)
	}
	_, rest, _ := strings.Cut(after, "\n")
	return strings.TrimSuffix(rest, "\n")
}

func TestLineTuneRendersHeaderAndBeams(t *testing.T) {
	tune, err := notation.LineTune(
		[]string{"C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5", "D5"},
		"C7",
		notation.Options{Title: "blue  line", Tempo: 160},
	)
	if err != nil {
		t.Fatalf("LineTune: %v", err)
	}
	want := strings.Join([]string{
		"X:1",
		"T:Blue Line",
		"M:4/4",
		"L:1/8",
		"Q:1/4=160",
		"K:C",
		`"C7"CD EF GA Bc | d |]`,
		"",
	}, "\n")
	if diff := cmp.Diff(want, render(t, tune)); diff != "" {
		t.Fatalf("unexpected ABC (-want +got):\n%s", diff)
	}
}

func TestLineTuneRestsAndEmpty(t *testing.T) {
	tune, err := notation.LineTune([]string{"C", "rest", "E"}, "", notation.Options{})
	if err != nil {
		t.Fatalf("LineTune: %v", err)
	}
	if got := body(t, render(t, tune)); got != "Cz E |]" {
		t.Fatalf("unexpected body %q", got)
	}
	if !strings.Contains(render(t, tune), "T:Bebop Line\n") {
		t.Fatal("expected default title")
	}

	if _, err := notation.LineTune(nil, "", notation.Options{}); !errors.Is(err, notation.ErrEmptyLine) {
		t.Fatalf("expected ErrEmptyLine, got %v", err)
	}
	if _, err := notation.LineTune([]string{"C4", "Y"}, "", notation.Options{}); !errors.Is(err, notation.ErrInvalidNote) {
		t.Fatalf("expected ErrInvalidNote, got %v", err)
	}
}

func TestRenderCarriesAccidentalsThroughBar(t *testing.T) {
	tune, err := notation.LineTune([]string{"F#4", "F4", "F#4", "G4", "F#4"}, "", notation.Options{Meter: "2/4"})
	if err != nil {
		t.Fatalf("LineTune: %v", err)
	}
	if got := body(t, render(t, tune)); got != "^F=F ^FG | ^F |]" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestRenderUsesKeySignature(t *testing.T) {
	tune, err := notation.LineTune([]string{"F#4", "F4", "F#4", "G4", "Bb4", "B4"}, "", notation.Options{Key: "G"})
	if err != nil {
		t.Fatalf("LineTune: %v", err)
	}
	out := render(t, tune)
	if !strings.Contains(out, "\nK:G\n") {
		t.Fatalf("expected K:G header, got %q", out)
	}
	if got := body(t, out); got != "F=F ^FG _B=B |]" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestRenderSplitsLongNotesWithTies(t *testing.T) {
	tune := notation.Tune{
		Meter:      "4/4",
		UnitLength: "1/8",
		Voices: []notation.Voice{{Events: []notation.Event{
			{Note: note(t, "C4"), Duration: notation.Units(12)},
			{Duration: notation.Units(4)},
			{Note: note(t, "C#4"), Duration: notation.Units(10)},
		}}},
	}
	if got := body(t, render(t, tune)); got != "C8- | C4 z4 | ^C8- | ^C2 |]" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestRenderBreaksLinesAndCompoundMeter(t *testing.T) {
	tune := notation.Tune{
		Meter:       "4/4",
		UnitLength:  "1/8",
		BarsPerLine: 2,
		Voices: []notation.Voice{{Events: []notation.Event{
			{Note: note(t, "C4"), Duration: notation.Units(8)},
			{Note: note(t, "D4"), Duration: notation.Units(8)},
			{Note: note(t, "E4"), Duration: notation.Units(8)},
		}}},
	}
	if got := body(t, render(t, tune)); got != "C8 | D8 |\nE8 |]" {
		t.Fatalf("unexpected body %q", got)
	}

	jig, err := notation.LineTune([]string{"C", "D", "E", "F", "G", "A"}, "", notation.Options{Meter: "6/8"})
	if err != nil {
		t.Fatalf("LineTune: %v", err)
	}
	if got := body(t, render(t, jig)); got != "CDE FGA |]" {
		t.Fatalf("unexpected 6/8 body %q", got)
	}
}

func TestRenderUnitLengthScalesEighths(t *testing.T) {
	tune, err := notation.LineTune([]string{"C", "D", "E", "F"}, "", notation.Options{UnitLength: "1/16"})
	if err != nil {
		t.Fatalf("LineTune: %v", err)
	}
	if got := body(t, render(t, tune)); got != "C2D2 E2F2 |]" {
		t.Fatalf("unexpected body %q", got)
	}

	tune, err = notation.LineTune([]string{"C", "D"}, "", notation.Options{UnitLength: "1/4"})
	if err != nil {
		t.Fatalf("LineTune: %v", err)
	}
	if got := body(t, render(t, tune)); got != "C/2D/2 |]" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestRenderRejectsBadHeaders(t *testing.T) {
	for _, tune := range []notation.Tune{
		{Meter: "four"},
		{UnitLength: "1/0"},
		{Key: "H"},
	} {
		if _, err := tune.Render(); !errors.Is(err, notation.ErrInvalidTune) {
			t.Fatalf("expected ErrInvalidTune for %+v, got %v", tune, err)
		}
	}
}

func TestRenderEmptyVoiceIsFullBarRest(t *testing.T) {
	tune := notation.Tune{Meter: "3/4", Voices: []notation.Voice{{Clef: "bass"}}}
	out := render(t, tune)
	if !strings.Contains(out, "\nK:C clef=bass\n") {
		t.Fatalf("expected clef on K line, got %q", out)
	}
	if got := body(t, out); got != "z6 |]" {
		t.Fatalf("unexpected body %q", got)
	}
}
