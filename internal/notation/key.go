package notation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey reports a key field that cannot be mapped to a signature.
var ErrInvalidKey = errors.New("invalid key")

var tonicFifths = map[byte]int{
	'F': -1, 'C': 0, 'G': 1, 'D': 2, 'A': 3, 'E': 4, 'B': 5,
}

var modeFifths = map[string]int{
	"":    0,
	"maj": 0,
	"ion": 0,
	"m":   -3,
	"min": -3,
	"aeo": -3,
	"dor": -2,
	"phr": -4,
	"lyd": 1,
	"mix": -1,
	"loc": -5,
}

const (
	sharpOrder = "FCGDAEB"
	flatOrder  = "BEADGCF"
)

// KeySignature maps note letters to the accidental the key applies to them.
type KeySignature struct {
	Name   string
	Fifths int
	alter  map[byte]int
}

// ParseKey reads an ABC key field such as "C", "Am", "Bb", "F#m", "D dorian",
// or "Eb mix". An empty key is C major. "none" and "HP" yield no accidentals.
func ParseKey(value string) (KeySignature, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return newKeySignature("C", 0), nil
	}
	lowered := strings.ToLower(trimmed)
	if lowered == "none" || lowered == "hp" {
		return newKeySignature(trimmed, 0), nil
	}

	letter := upper(trimmed[0])
	fifths, ok := tonicFifths[letter]
	if !ok {
		return KeySignature{}, fmt.Errorf("%w: %q", ErrInvalidKey, value)
	}
	rest := trimmed[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		fifths += 7
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		fifths -= 7
		rest = rest[1:]
	}

	mode := strings.ToLower(strings.TrimSpace(rest))
	if len(mode) > 3 {
		mode = mode[:3]
	}
	offset, ok := modeFifths[mode]
	if !ok {
		return KeySignature{}, fmt.Errorf("%w: unknown mode in %q", ErrInvalidKey, value)
	}
	fifths += offset
	if fifths < -7 || fifths > 7 {
		return KeySignature{}, fmt.Errorf("%w: %q needs more than seven accidentals", ErrInvalidKey, value)
	}
	return newKeySignature(trimmed, fifths), nil
}

func newKeySignature(name string, fifths int) KeySignature {
	alter := make(map[byte]int, 7)
	switch {
	case fifths > 0:
		for i := 0; i < fifths; i++ {
			alter[sharpOrder[i]] = 1
		}
	case fifths < 0:
		for i := 0; i < -fifths; i++ {
			alter[flatOrder[i]] = -1
		}
	}
	return KeySignature{Name: name, Fifths: fifths, alter: alter}
}

// Accidental returns the alteration the key signature applies to a letter.
func (k KeySignature) Accidental(letter byte) int {
	return k.alter[upper(letter)]
}

// PrefersFlats reports whether chromatic notes in this key read better with flats.
func (k KeySignature) PrefersFlats() bool {
	return k.Fifths < 0
}
