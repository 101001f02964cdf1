package notation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wesline/internal/textutil"
)

// MaxFret is the highest fret accepted by the tab helpers.
const MaxFret = 24

// ErrInvalidPosition reports a string or fret outside the instrument.
var ErrInvalidPosition = errors.New("invalid tab position")

// TabPosition is a fretted note. String 1 is the high e string.
type TabPosition struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
}

// Tuning lists the open-string pitches from string 1 to string 6.
type Tuning [6]Note

// StandardTuning is E A D G B E at sounding pitch.
var StandardTuning = Tuning{
	MustParseNote("E4"),
	MustParseNote("B3"),
	MustParseNote("G3"),
	MustParseNote("D3"),
	MustParseNote("A2"),
	MustParseNote("E2"),
}

// ParseTuning reads six note names listed high string first, e.g.
// "E4 B3 G3 D3 A2 E2". An empty value is standard tuning.
func ParseTuning(value string) (Tuning, error) {
	fields := strings.Fields(strings.ReplaceAll(value, ",", " "))
	if len(fields) == 0 {
		return StandardTuning, nil
	}
	if len(fields) != 6 {
		return Tuning{}, fmt.Errorf("tuning needs six notes, got %d", len(fields))
	}
	var t Tuning
	for i, f := range fields {
		n, err := ParseNote(f)
		if err != nil {
			return Tuning{}, fmt.Errorf("string %d: %w", i+1, err)
		}
		t[i] = n
	}
	return t, nil
}

func (p TabPosition) validate() error {
	if p.String < 1 || p.String > 6 {
		return fmt.Errorf("%w: string %d", ErrInvalidPosition, p.String)
	}
	if p.Fret < 0 || p.Fret > MaxFret {
		return fmt.Errorf("%w: fret %d", ErrInvalidPosition, p.Fret)
	}
	return nil
}

// TabToNotes returns the sounding notes for the positions.
func TabToNotes(positions []TabPosition, tuning Tuning, preferFlats bool) ([]Note, error) {
	out := make([]Note, 0, len(positions))
	for i, p := range positions {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("position %d: %w", i+1, err)
		}
		open := tuning[p.String-1]
		out = append(out, FromMIDI(open.MIDI()+p.Fret, preferFlats))
	}
	return out, nil
}

// NoteToTab finds the position with the lowest fret that sounds the note.
// Ties go to the thinner string.
func NoteToTab(n Note, tuning Tuning, maxFret int) (TabPosition, error) {
	if maxFret <= 0 || maxFret > MaxFret {
		maxFret = MaxFret
	}
	target := n.MIDI()
	best := TabPosition{}
	found := false
	for i, open := range tuning {
		fret := target - open.MIDI()
		if fret < 0 || fret > maxFret {
			continue
		}
		if !found || fret < best.Fret {
			best = TabPosition{String: i + 1, Fret: fret}
			found = true
		}
	}
	if !found {
		return TabPosition{}, fmt.Errorf("%w: %s is out of range", ErrInvalidPosition, n)
	}
	return best, nil
}

// TabTune renders positions as eighth notes on a treble-8 staff so the
// written notes match guitar notation while the pitches stay at sounding
// pitch.
func TabTune(positions []TabPosition, tuning Tuning, opts Options) (Tune, []Note, error) {
	if len(positions) == 0 {
		return Tune{}, nil, ErrEmptyLine
	}
	opts = opts.withDefaults()
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = "Guitar Tab"
	}
	opts.Title = textutil.TuneTitle(opts.Title)

	notes, err := TabToNotes(positions, tuning, opts.PreferFlats)
	if err != nil {
		return Tune{}, nil, err
	}
	length, err := eighth(opts.UnitLength)
	if err != nil {
		return Tune{}, nil, err
	}
	events := make([]Event, len(notes))
	for i := range notes {
		events[i] = Event{Note: &notes[i], Duration: length}
	}

	tune := opts.tune()
	tune.Voices = []Voice{{ID: "1", Clef: "treble-8", Events: events}}
	return tune, notes, nil
}

// RenderASCIITab draws the positions as six text lines, high string first:
//
//	e|-3-----|
//	B|---5---|
func RenderASCIITab(positions []TabPosition, tuning Tuning) (string, error) {
	labels := tabLabels(tuning)
	width := 0
	for _, l := range labels {
		width = max(width, len(l))
	}

	cells := make([][]string, 6)
	for i, p := range positions {
		if err := p.validate(); err != nil {
			return "", fmt.Errorf("position %d: %w", i+1, err)
		}
		fret := strconv.Itoa(p.Fret)
		for s := range cells {
			if s == p.String-1 {
				cells[s] = append(cells[s], fret)
			} else {
				cells[s] = append(cells[s], strings.Repeat("-", len(fret)))
			}
		}
	}

	var b strings.Builder
	for s := range cells {
		b.WriteString(labels[s])
		b.WriteString(strings.Repeat(" ", width-len(labels[s])))
		b.WriteString("|-")
		b.WriteString(strings.Join(cells[s], "-"))
		b.WriteString("-|\n")
	}
	return b.String(), nil
}

func tabLabels(tuning Tuning) []string {
	labels := make([]string, len(tuning))
	for i, n := range tuning {
		name := strings.TrimSuffix(n.String(), strconv.Itoa(n.Octave))
		if i == 0 && n.Letter == tuning[len(tuning)-1].Letter {
			name = strings.ToLower(name[:1]) + name[1:]
		}
		labels[i] = name
	}
	return labels
}
