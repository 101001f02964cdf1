package notation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"wesline/internal/notation"
)

func TestCounterpointTuneFirstSpecies(t *testing.T) {
	cf := []string{"D3", "F3", "E3", "D3"}
	cp := []string{"A4", "A4", "G4", "A4"}
	violations := []notation.Violation{
		{Index: 2, Rule: "parallel fifths"},
		{Index: 9, Message: "ignored"},
	}
	tune, err := notation.CounterpointTune(cf, cp, 1, violations, notation.Options{})
	if err != nil {
		t.Fatalf("CounterpointTune: %v", err)
	}
	want := strings.Join([]string{
		"X:1",
		"T:Species 1 Counterpoint",
		"M:4/4",
		"L:1/8",
		"K:C",
		`V:1 name="Counterpoint" clef=treble`,
		`A8 | A8 | "^parallel fifths"G8 | A8 |]`,
		`V:2 name="Cantus Firmus" clef=bass`,
		"D,8 | F,8 | E,8 | D,8 |]",
		"",
	}, "\n")
	if diff := cmp.Diff(want, render(t, tune)); diff != "" {
		t.Fatalf("unexpected ABC (-want +got):\n%s", diff)
	}
}

func TestCounterpointTuneSecondSpeciesClosesOnWholeNote(t *testing.T) {
	tune, err := notation.CounterpointTune(
		[]string{"C4", "D4"},
		[]string{"C5", "E5", "F5"},
		2,
		[]notation.Violation{{Index: 1, Rule: "dissonance", Message: "unprepared \"M7\""}},
		notation.Options{Title: "two to one"},
	)
	if err != nil {
		t.Fatalf("CounterpointTune: %v", err)
	}
	out := render(t, tune)
	if !strings.Contains(out, "T:Two To One\n") {
		t.Fatalf("expected title, got %q", out)
	}
	if !strings.Contains(out, `c4 "^dissonance: unprepared 'M7'"e4 | f8 |]`) {
		t.Fatalf("unexpected counterpoint voice in %q", out)
	}
	if !strings.Contains(out, `V:2 name="Cantus Firmus" clef=treble`+"\nC8 | D8 |]") {
		t.Fatalf("unexpected cantus voice in %q", out)
	}
}

func TestCounterpointTuneThirdSpecies(t *testing.T) {
	tune, err := notation.CounterpointTune(
		[]string{"C3", "C3"},
		[]string{"C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"},
		3, nil, notation.Options{},
	)
	if err != nil {
		t.Fatalf("CounterpointTune: %v", err)
	}
	if !strings.Contains(render(t, tune), "C2 D2 E2 F2 | G2 A2 B2 c2 |]") {
		t.Fatalf("unexpected third species layout:\n%s", render(t, tune))
	}
}

func TestCheckLengths(t *testing.T) {
	cases := []struct {
		cf, cp, species int
		wantErr         error
	}{
		{4, 4, 1, nil},
		{4, 3, 1, notation.ErrLengthMismatch},
		{3, 6, 2, nil},
		{3, 5, 2, nil},
		{3, 4, 2, notation.ErrLengthMismatch},
		{2, 8, 3, nil},
		{2, 5, 3, nil},
		{0, 0, 1, notation.ErrLengthMismatch},
		{4, 4, 4, notation.ErrUnsupportedSpecies},
		{4, 4, 0, notation.ErrUnsupportedSpecies},
	}
	for _, tc := range cases {
		err := notation.CheckLengths(tc.cf, tc.cp, tc.species)
		if tc.wantErr == nil {
			if err != nil {
				t.Fatalf("CheckLengths(%d, %d, %d) = %v", tc.cf, tc.cp, tc.species, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("CheckLengths(%d, %d, %d) = %v, want %v", tc.cf, tc.cp, tc.species, err, tc.wantErr)
		}
	}
}

func TestIntervalsBetween(t *testing.T) {
	cf := []notation.Note{notation.MustParseNote("C3"), notation.MustParseNote("D3")}
	cp := []notation.Note{notation.MustParseNote("C4"), notation.MustParseNote("E4"), notation.MustParseNote("F4")}
	got := notation.IntervalsBetween(cf, cp, 2)
	want := []notation.Interval{
		{Index: 0, CantusFirmus: "C3", Counterpoint: "C4", Semitones: 12, Name: "P8"},
		{Index: 1, CantusFirmus: "C3", Counterpoint: "E4", Semitones: 16, Name: "P8+M3"},
		{Index: 2, CantusFirmus: "D3", Counterpoint: "F4", Semitones: 15, Name: "P8+m3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("IntervalsBetween mismatch (-want +got):\n%s", diff)
	}
	if notation.IntervalsBetween(nil, cp, 1) != nil {
		t.Fatal("expected nil for empty cantus firmus")
	}
}

func TestCounterpointIntervals(t *testing.T) {
	got, err := notation.CounterpointIntervals([]string{"D3", "F3"}, []string{"A3", "A3"}, 1)
	if err != nil {
		t.Fatalf("CounterpointIntervals: %v", err)
	}
	want := []notation.Interval{
		{Index: 0, CantusFirmus: "D3", Counterpoint: "A3", Semitones: 7, Name: "P5"},
		{Index: 1, CantusFirmus: "F3", Counterpoint: "A3", Semitones: 4, Name: "M3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("CounterpointIntervals mismatch (-want +got):\n%s", diff)
	}
	if _, err := notation.CounterpointIntervals([]string{"D3"}, []string{"Q9"}, 1); err == nil {
		t.Fatal("expected error for bad counterpoint note")
	}
	if _, err := notation.CounterpointIntervals([]string{"D3"}, []string{"A3"}, 5); err == nil {
		t.Fatal("expected error for unsupported species")
	}
}

func TestIntervalName(t *testing.T) {
	cases := map[int]string{
		0:   "P1",
		1:   "m2",
		6:   "TT",
		7:   "P5",
		11:  "M7",
		12:  "P8",
		19:  "P8+P5",
		24:  "2P8",
		26:  "2P8+M2",
		-5:  "-P4",
		-13: "-P8+m2",
	}
	for in, want := range cases {
		if got := notation.IntervalName(in); got != want {
			t.Fatalf("IntervalName(%d) = %q, want %q", in, got, want)
		}
	}
	if got := notation.Semitones(notation.MustParseNote("A3"), notation.MustParseNote("E3")); got != -5 {
		t.Fatalf("Semitones = %d", got)
	}
}
