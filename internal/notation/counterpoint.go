package notation

import (
	"errors"
	"fmt"
	"strings"

	"wesline/internal/textutil"
)

var (
	// ErrUnsupportedSpecies reports a species other than first, second, or third.
	ErrUnsupportedSpecies = errors.New("unsupported species")
	// ErrLengthMismatch reports voices whose lengths do not fit the species.
	ErrLengthMismatch = errors.New("voice lengths do not match species")
)

// Violation marks a rule broken at a counterpoint note.
type Violation struct {
	Index   int    `json:"index"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// Label is the text printed over the offending note.
func (v Violation) Label() string {
	msg := strings.TrimSpace(v.Message)
	rule := strings.TrimSpace(v.Rule)
	switch {
	case msg == "":
		return rule
	case rule == "":
		return msg
	default:
		return rule + ": " + msg
	}
}

// NotesPerBar returns how many counterpoint notes sound against each cantus
// firmus note in the given species.
func NotesPerBar(species int) (int, error) {
	switch species {
	case 1:
		return 1, nil
	case 2:
		return 2, nil
	case 3:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedSpecies, species)
	}
}

// CheckLengths verifies that the counterpoint fills the cantus firmus in the
// given species. Above first species the final note may be a single whole
// note.
func CheckLengths(cfLen, cpLen, species int) error {
	per, err := NotesPerBar(species)
	if err != nil {
		return err
	}
	if cfLen == 0 {
		return fmt.Errorf("%w: cantus firmus is empty", ErrLengthMismatch)
	}
	full := per * cfLen
	closing := per*(cfLen-1) + 1
	if cpLen == full || (per > 1 && cpLen == closing) {
		return nil
	}
	if per == 1 {
		return fmt.Errorf("%w: species 1 needs %d counterpoint notes, got %d", ErrLengthMismatch, full, cpLen)
	}
	return fmt.Errorf("%w: species %d needs %d or %d counterpoint notes, got %d", ErrLengthMismatch, species, full, closing, cpLen)
}

// CounterpointTune builds a two-voice tune with the counterpoint on top and the
// cantus firmus below. Each cantus note fills one bar. Violations are printed
// over the counterpoint note they name; indexes outside the line are ignored.
func CounterpointTune(cf, cp []string, species int, violations []Violation, opts Options) (Tune, error) {
	if err := CheckLengths(len(cf), len(cp), species); err != nil {
		return Tune{}, err
	}
	per, _ := NotesPerBar(species)

	opts = opts.withDefaults()
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = fmt.Sprintf("Species %d Counterpoint", species)
	}
	opts.Title = textutil.TuneTitle(opts.Title)

	tune := opts.tune()
	bar, err := tune.BarLength()
	if err != nil {
		return Tune{}, err
	}

	cfNotes, err := ParseNotes(cf)
	if err != nil {
		return Tune{}, fmt.Errorf("cantus firmus: %w", err)
	}
	cpNotes, err := ParseNotes(cp)
	if err != nil {
		return Tune{}, fmt.Errorf("counterpoint: %w", err)
	}

	cfEvents := make([]Event, len(cfNotes))
	for i := range cfNotes {
		cfEvents[i] = Event{Note: &cfNotes[i], Duration: bar}
	}

	cpEvents := make([]Event, len(cpNotes))
	short := bar.Div(per)
	for i := range cpNotes {
		length := short
		if i == len(cpNotes)-1 && per > 1 && len(cpNotes)%per == 1 {
			length = bar
		}
		cpEvents[i] = Event{Note: &cpNotes[i], Duration: length}
	}

	labels := make(map[int][]string)
	for _, v := range violations {
		if v.Index < 0 || v.Index >= len(cpEvents) {
			continue
		}
		if label := v.Label(); label != "" {
			labels[v.Index] = append(labels[v.Index], label)
		}
	}
	for idx, texts := range labels {
		cpEvents[idx].Annotation = strings.Join(texts, "; ")
	}

	tune.Voices = []Voice{
		{ID: "1", Name: "Counterpoint", Clef: "treble", Events: cpEvents},
		{ID: "2", Name: "Cantus Firmus", Clef: clefFor(cfNotes), Events: cfEvents},
	}
	return tune, nil
}

// clefFor picks bass clef for lines that sit below middle C on average.
func clefFor(notes []Note) string {
	if len(notes) == 0 {
		return "treble"
	}
	total := 0
	for _, n := range notes {
		total += n.MIDI()
	}
	if total < MiddleC*len(notes) {
		return "bass"
	}
	return "treble"
}

// CounterpointIntervals parses both voices and measures the harmonic
// interval at every counterpoint note for the given species.
func CounterpointIntervals(cf, cp []string, species int) ([]Interval, error) {
	per, err := NotesPerBar(species)
	if err != nil {
		return nil, err
	}
	cfNotes, err := ParseNotes(cf)
	if err != nil {
		return nil, fmt.Errorf("cantus firmus: %w", err)
	}
	cpNotes, err := ParseNotes(cp)
	if err != nil {
		return nil, fmt.Errorf("counterpoint: %w", err)
	}
	return IntervalsBetween(cfNotes, cpNotes, per), nil
}
