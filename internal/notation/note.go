package notation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wesline/internal/textutil"
)

// ErrInvalidNote reports a note name or ABC token that cannot be parsed.
var ErrInvalidNote = errors.New("invalid note")

// MiddleC is the MIDI number of C4.
const MiddleC = 60

// DefaultOctave is assumed when a note name carries no octave.
const DefaultOctave = 4

var letterSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var (
	sharpSpelling = [12]spelling{{'C', 0}, {'C', 1}, {'D', 0}, {'D', 1}, {'E', 0}, {'F', 0}, {'F', 1}, {'G', 0}, {'G', 1}, {'A', 0}, {'A', 1}, {'B', 0}}
	flatSpelling  = [12]spelling{{'C', 0}, {'D', -1}, {'D', 0}, {'E', -1}, {'E', 0}, {'F', 0}, {'G', -1}, {'G', 0}, {'A', -1}, {'A', 0}, {'B', -1}, {'B', 0}}
)

type spelling struct {
	letter     byte
	accidental int
}

// Note is a pitch in scientific pitch notation; C4 is middle C.
type Note struct {
	Letter     byte
	Accidental int // -2 double flat .. +2 double sharp
	Octave     int
}

// ParseNote parses names such as "C", "c#4", "Db3", "F♯5", "Ebb2", or "Cx".
// A missing octave defaults to 4.
func ParseNote(value string) (Note, error) {
	raw := value
	value = textutil.NormalizeNoteName(value)
	if value == "" {
		return Note{}, fmt.Errorf("%w: empty note name", ErrInvalidNote)
	}

	letter := upper(value[0])
	if _, ok := letterSemitones[letter]; !ok {
		return Note{}, fmt.Errorf("%w: %q has no note letter", ErrInvalidNote, raw)
	}
	rest := value[1:]

	accidental := 0
	explicitNatural := false
	for rest != "" {
		switch rest[0] {
		case '#':
			accidental++
		case 'x':
			accidental += 2
		case 'b':
			accidental--
		case 'n':
			explicitNatural = true
		default:
			goto octave
		}
		rest = rest[1:]
	}
octave:
	if explicitNatural && accidental != 0 {
		return Note{}, fmt.Errorf("%w: %q mixes a natural with other accidentals", ErrInvalidNote, raw)
	}
	if accidental < -2 || accidental > 2 {
		return Note{}, fmt.Errorf("%w: %q has more than two accidentals", ErrInvalidNote, raw)
	}

	oct := DefaultOctave
	if rest != "" {
		parsed, err := strconv.Atoi(rest)
		if err != nil {
			return Note{}, fmt.Errorf("%w: %q has an unreadable octave", ErrInvalidNote, raw)
		}
		if parsed < -1 || parsed > 9 {
			return Note{}, fmt.Errorf("%w: %q octave out of range", ErrInvalidNote, raw)
		}
		oct = parsed
	}

	return Note{Letter: letter, Accidental: accidental, Octave: oct}, nil
}

// MustParseNote is ParseNote for constant tables; it panics on error.
func MustParseNote(value string) Note {
	n, err := ParseNote(value)
	if err != nil {
		panic(err)
	}
	return n
}

// ParseNotes parses a list of note names, reporting the first failure with its index.
func ParseNotes(values []string) ([]Note, error) {
	out := make([]Note, 0, len(values))
	for i, value := range values {
		n, err := ParseNote(value)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", i+1, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// FromMIDI spells a MIDI number with sharps, or flats when preferFlats is set.
func FromMIDI(midi int, preferFlats bool) Note {
	pc := mod(midi, 12)
	octave := floorDiv(midi, 12) - 1
	sp := sharpSpelling[pc]
	if preferFlats {
		sp = flatSpelling[pc]
	}
	return Note{Letter: sp.letter, Accidental: sp.accidental, Octave: octave}
}

// MIDI returns the MIDI note number.
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + letterSemitones[n.Letter] + n.Accidental
}

// PitchClass returns the pitch class 0..11 with C = 0.
func (n Note) PitchClass() int {
	return mod(n.MIDI(), 12)
}

// String renders the note as a name such as "C#4" or "Bb3".
func (n Note) String() string {
	var b strings.Builder
	b.WriteByte(n.Letter)
	switch n.Accidental {
	case 2:
		b.WriteString("##")
	case 1:
		b.WriteByte('#')
	case -1:
		b.WriteByte('b')
	case -2:
		b.WriteString("bb")
	}
	b.WriteString(strconv.Itoa(n.Octave))
	return b.String()
}

// ABC renders the note as an ABC pitch with its accidental, ignoring any key
// signature. Octave 4 is upper case, octave 5 lower case; octave marks extend
// either direction.
func (n Note) ABC() string {
	return accidentalABC(n.Accidental, false) + n.abcPitch()
}

func (n Note) abcPitch() string {
	var b strings.Builder
	if n.Octave >= 5 {
		b.WriteByte(lower(n.Letter))
		b.WriteString(strings.Repeat("'", n.Octave-5))
	} else {
		b.WriteByte(n.Letter)
		b.WriteString(strings.Repeat(",", 4-n.Octave))
	}
	return b.String()
}

func accidentalABC(accidental int, natural bool) string {
	switch accidental {
	case 2:
		return "^^"
	case 1:
		return "^"
	case -1:
		return "_"
	case -2:
		return "__"
	}
	if natural {
		return "="
	}
	return ""
}

// ParseABCNote parses a single ABC pitch such as "^F", "_b'", or "C,,". Any
// trailing length suffix is ignored. A token without an accidental reports
// Accidental 0.
func ParseABCNote(token string) (Note, error) {
	raw := token
	token = strings.TrimSpace(token)
	accidental := 0
	for token != "" {
		switch token[0] {
		case '^':
			accidental++
		case '_':
			accidental--
		case '=':
		default:
			goto pitch
		}
		token = token[1:]
	}
pitch:
	if token == "" {
		return Note{}, fmt.Errorf("%w: %q has no pitch", ErrInvalidNote, raw)
	}
	if accidental < -2 || accidental > 2 {
		return Note{}, fmt.Errorf("%w: %q has more than two accidentals", ErrInvalidNote, raw)
	}
	c := token[0]
	letter := upper(c)
	if _, ok := letterSemitones[letter]; !ok {
		return Note{}, fmt.Errorf("%w: %q has no note letter", ErrInvalidNote, raw)
	}
	octave := DefaultOctave
	if c >= 'a' && c <= 'g' {
		octave = 5
	}
	for _, mark := range token[1:] {
		switch mark {
		case '\'':
			octave++
		case ',':
			octave--
		default:
			return Note{Letter: letter, Accidental: accidental, Octave: octave}, nil
		}
	}
	return Note{Letter: letter, Accidental: accidental, Octave: octave}, nil
}

// Transpose moves the note by the given number of semitones and respells it.
func Transpose(n Note, semitones int, preferFlats bool) Note {
	return FromMIDI(n.MIDI()+semitones, preferFlats)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
