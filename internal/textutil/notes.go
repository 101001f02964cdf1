package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// accidentalReplacer maps musical symbols onto the ASCII spellings the note
// parser understands.
var accidentalReplacer = strings.NewReplacer(
	"♯", "#",
	"♭", "b",
	"♮", "n",
	"𝄪", "x",
	"𝄫", "bb",
	"−", "-",
)

// NormalizeNoteName folds compatibility forms (full-width letters, digits) and
// musical accidental symbols into plain ASCII and strips surrounding space.
func NormalizeNoteName(value string) string {
	value = norm.NFKC.String(strings.TrimSpace(value))
	return accidentalReplacer.Replace(value)
}
