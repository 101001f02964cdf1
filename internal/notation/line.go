package notation

import (
	"errors"
	"fmt"
	"strings"

	"wesline/internal/textutil"
)

// ErrEmptyLine reports a request with no notes.
var ErrEmptyLine = errors.New("no notes to render")

// ParseEvent reads a note name, or a rest token ("r", "rest", "z"), into an
// event of the given length.
func ParseEvent(value string, length Duration) (Event, error) {
	if isRest(value) {
		return Event{Duration: length}, nil
	}
	n, err := ParseNote(value)
	if err != nil {
		return Event{}, err
	}
	return Event{Note: &n, Duration: length}, nil
}

func isRest(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "r", "rest", "z":
		return true
	}
	return false
}

// eighth returns an eighth note in units of the tune's unit length.
func eighth(unitLength string) (Duration, error) {
	num, den, err := parseFraction(unitLength, "1/8")
	if err != nil {
		return Duration{}, fmt.Errorf("%w: unit length: %v", ErrInvalidTune, err)
	}
	return Frac(den, 8*num), nil
}

// LineTune lays a bebop line out as continuous eighth notes. A chord symbol,
// when given, is printed over the first note.
func LineTune(notes []string, chord string, opts Options) (Tune, error) {
	if len(notes) == 0 {
		return Tune{}, ErrEmptyLine
	}
	opts = opts.withDefaults()
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = "Bebop Line"
	}
	opts.Title = textutil.TuneTitle(opts.Title)

	length, err := eighth(opts.UnitLength)
	if err != nil {
		return Tune{}, err
	}
	events := make([]Event, 0, len(notes))
	for i, value := range notes {
		ev, err := ParseEvent(value, length)
		if err != nil {
			return Tune{}, fmt.Errorf("note %d: %w", i+1, err)
		}
		events = append(events, ev)
	}
	if chord = strings.TrimSpace(chord); chord != "" {
		events[0].Chord = chord
	}

	tune := opts.tune()
	tune.Voices = []Voice{{ID: "1", Clef: "treble", Events: events}}
	return tune, nil
}

// NoteNames returns the note names of the events, with "z" for rests.
func NoteNames(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		if ev.Rest() {
			out = append(out, "z")
			continue
		}
		out = append(out, ev.Note.String())
	}
	return out
}
