package notation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTune reports a tune whose header fields cannot be rendered.
var ErrInvalidTune = errors.New("invalid tune")

// Event is one note or rest in a voice. A nil Note is a rest.
type Event struct {
	Note       *Note
	Duration   Duration
	Chord      string // chord symbol printed above, e.g. "G7"
	Annotation string // free text printed above the note
}

// Rest reports whether the event is silent.
func (e Event) Rest() bool { return e.Note == nil }

// Voice is one staff of a tune.
type Voice struct {
	ID     string
	Name   string
	Clef   string
	Events []Event
}

// Tune is an ABC tune ready to render.
type Tune struct {
	Index       int
	Title       string
	Composer    string
	Meter       string
	UnitLength  string
	Tempo       int
	Key         string
	BarsPerLine int
	Voices      []Voice
}

// Options carries the header settings shared by the tune builders.
type Options struct {
	Title       string
	Composer    string
	Meter       string
	UnitLength  string
	Tempo       int
	Key         string
	BarsPerLine int
	PreferFlats bool
}

// DefaultOptions mirrors the [notation] config defaults.
func DefaultOptions() Options {
	return Options{Meter: "4/4", UnitLength: "1/8", Key: "C", BarsPerLine: 4}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if strings.TrimSpace(o.Meter) == "" {
		o.Meter = def.Meter
	}
	if strings.TrimSpace(o.UnitLength) == "" {
		o.UnitLength = def.UnitLength
	}
	if strings.TrimSpace(o.Key) == "" {
		o.Key = def.Key
	}
	if o.BarsPerLine <= 0 {
		o.BarsPerLine = def.BarsPerLine
	}
	return o
}

func (o Options) tune() Tune {
	return Tune{
		Index:       1,
		Title:       o.Title,
		Composer:    o.Composer,
		Meter:       o.Meter,
		UnitLength:  o.UnitLength,
		Tempo:       o.Tempo,
		Key:         o.Key,
		BarsPerLine: o.BarsPerLine,
	}
}

// layout holds the parsed header values Render needs.
type layout struct {
	bar  Duration
	beat Duration
	key  KeySignature
}

func (t Tune) layout() (layout, error) {
	meterNum, meterDen, err := parseFraction(t.Meter, "4/4")
	if err != nil {
		return layout{}, fmt.Errorf("%w: meter: %v", ErrInvalidTune, err)
	}
	unitNum, unitDen, err := parseFraction(t.UnitLength, "1/8")
	if err != nil {
		return layout{}, fmt.Errorf("%w: unit length: %v", ErrInvalidTune, err)
	}
	key, err := ParseKey(keyName(t.Key))
	if err != nil {
		return layout{}, fmt.Errorf("%w: %v", ErrInvalidTune, err)
	}

	unit := Frac(unitNum, unitDen)
	toUnits := func(num, den int) Duration {
		return Frac(num*unit.Den, den*unit.Num)
	}
	beat := toUnits(1, meterDen)
	if meterDen == 8 && meterNum > 3 && meterNum%3 == 0 {
		beat = toUnits(3, 8)
	}
	return layout{
		bar:  toUnits(meterNum, meterDen),
		beat: beat,
		key:  key,
	}, nil
}

// BarLength returns the length of one bar in unit note lengths.
func (t Tune) BarLength() (Duration, error) {
	l, err := t.layout()
	if err != nil {
		return Duration{}, err
	}
	return l.bar, nil
}

// Render produces the ABC text. Header fields come first with K: last; voice
// definitions follow when the tune has more than one voice.
func (t Tune) Render() (string, error) {
	l, err := t.layout()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	index := t.Index
	if index <= 0 {
		index = 1
	}
	fmt.Fprintf(&b, "X:%d\n", index)
	if title := headerText(t.Title); title != "" {
		fmt.Fprintf(&b, "T:%s\n", title)
	}
	if composer := headerText(t.Composer); composer != "" {
		fmt.Fprintf(&b, "C:%s\n", composer)
	}
	fmt.Fprintf(&b, "M:%s\n", fallback(t.Meter, "4/4"))
	fmt.Fprintf(&b, "L:%s\n", fallback(t.UnitLength, "1/8"))
	if t.Tempo > 0 {
		fmt.Fprintf(&b, "Q:1/4=%d\n", t.Tempo)
	}

	bars := t.BarsPerLine
	if bars <= 0 {
		bars = 4
	}

	keyLine := "K:" + keyName(t.Key)
	if len(t.Voices) == 1 {
		if clef := strings.TrimSpace(t.Voices[0].Clef); clef != "" && clef != "treble" {
			keyLine += " clef=" + clef
		}
	}
	b.WriteString(keyLine)
	b.WriteByte('\n')

	switch len(t.Voices) {
	case 0:
	case 1:
		b.WriteString(renderVoice(t.Voices[0].Events, l, bars))
		b.WriteByte('\n')
	default:
		for i, v := range t.Voices {
			id := strings.TrimSpace(v.ID)
			if id == "" {
				id = strconv.Itoa(i + 1)
			}
			b.WriteString("V:")
			b.WriteString(id)
			if name := annotationText(v.Name); name != "" {
				fmt.Fprintf(&b, " name=\"%s\"", name)
			}
			if clef := strings.TrimSpace(v.Clef); clef != "" {
				b.WriteString(" clef=")
				b.WriteString(clef)
			}
			b.WriteByte('\n')
			b.WriteString(renderVoice(v.Events, l, bars))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// piece is an event fragment that fits inside one bar.
type piece struct {
	event  Event
	length Duration
	first  bool
	tied   bool
}

func renderVoice(events []Event, l layout, barsPerLine int) string {
	bars := splitBars(events, l.bar)
	if len(bars) == 0 {
		return "z" + l.bar.ABC() + " |]"
	}

	var b strings.Builder
	for i, bar := range bars {
		b.WriteString(renderBar(bar, l))
		switch {
		case i == len(bars)-1:
			b.WriteString(" |]")
		case (i+1)%barsPerLine == 0:
			b.WriteString(" |\n")
		default:
			b.WriteString(" | ")
		}
	}
	return b.String()
}

// splitBars distributes events over bars, cutting any event that overruns the
// bar into tied pieces.
func splitBars(events []Event, bar Duration) [][]piece {
	var (
		bars      [][]piece
		current   []piece
		remaining = bar
	)
	for _, ev := range events {
		left := ev.Duration
		if !left.Positive() {
			continue
		}
		first := true
		for left.Positive() {
			take := left
			if take.Cmp(remaining) > 0 {
				take = remaining
			}
			left = left.Sub(take)
			current = append(current, piece{
				event:  ev,
				length: take,
				first:  first,
				tied:   left.Positive() && !ev.Rest(),
			})
			first = false
			remaining = remaining.Sub(take)
			if remaining.Zero() {
				bars = append(bars, current)
				current = nil
				remaining = bar
			}
		}
	}
	if len(current) > 0 {
		bars = append(bars, current)
	}
	return bars
}

func renderBar(pieces []piece, l layout) string {
	var (
		b        strings.Builder
		pos      = Duration{Num: 0, Den: 1}
		inBar    = make(map[[2]int]int)
		wroteAny bool
	)
	for _, p := range pieces {
		if wroteAny && pos.Multiple(l.beat) {
			b.WriteByte(' ')
		}
		if p.first {
			if chord := annotationText(p.event.Chord); chord != "" {
				fmt.Fprintf(&b, "\"%s\"", chord)
			}
			if text := annotationText(p.event.Annotation); text != "" {
				fmt.Fprintf(&b, "\"^%s\"", text)
			}
		}
		if p.event.Rest() {
			b.WriteByte('z')
		} else {
			n := *p.event.Note
			slot := [2]int{int(n.Letter), n.Octave}
			current, seen := inBar[slot]
			if !seen {
				current = l.key.Accidental(n.Letter)
			}
			if n.Accidental != current {
				b.WriteString(accidentalABC(n.Accidental, true))
				inBar[slot] = n.Accidental
			}
			b.WriteString(n.abcPitch())
		}
		b.WriteString(p.length.ABC())
		if p.tied {
			b.WriteByte('-')
		}
		pos = pos.Add(p.length)
		wroteAny = true
	}
	return b.String()
}

func keyName(key string) string {
	return fallback(key, "C")
}

func fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

func headerText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func annotationText(value string) string {
	return strings.ReplaceAll(headerText(value), `"`, "'")
}

func parseFraction(value, def string) (int, int, error) {
	value = fallback(value, def)
	if value == "C" {
		return 4, 4, nil
	}
	if value == "C|" {
		return 2, 2, nil
	}
	numText, denText, ok := strings.Cut(value, "/")
	if !ok {
		return 0, 0, fmt.Errorf("expected a fraction, got %q", value)
	}
	num, err := strconv.Atoi(strings.TrimSpace(numText))
	if err != nil || num <= 0 {
		return 0, 0, fmt.Errorf("bad numerator in %q", value)
	}
	den, err := strconv.Atoi(strings.TrimSpace(denText))
	if err != nil || den <= 0 {
		return 0, 0, fmt.Errorf("bad denominator in %q", value)
	}
	return num, den, nil
}
