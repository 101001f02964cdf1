package textutil

import "testing"

func TestNormalizeNoteName(t *testing.T) {
	cases := map[string]string{
		" C#4 ": "C#4",
		"F♯5":   "F#5",
		"B♭":    "Bb",
		"Ｃ４":    "C4",
		"E𝄫3":   "Ebb3",
		"G♮":    "Gn",
	}
	for input, want := range cases {
		if got := NormalizeNoteName(input); got != want {
			t.Errorf("NormalizeNoteName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTuneTitle(t *testing.T) {
	if got := TuneTitle("  bebop   dominant\nline "); got != "Bebop Dominant Line" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := TuneTitle("blues in BB"); got != "Blues In BB" {
		t.Fatalf("expected upper-case runs to be kept, got %q", got)
	}
	if got := TuneTitle("   "); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}

func TestFileNameForTitle(t *testing.T) {
	if got := FileNameForTitle("Line: C7 / F", "abc"); got != "Line- C7 - F.abc" {
		t.Fatalf("unexpected file name: %q", got)
	}
	if got := FileNameForTitle(`"?"`, ".abc"); got != "untitled.abc" {
		t.Fatalf("unexpected fallback: %q", got)
	}
}
