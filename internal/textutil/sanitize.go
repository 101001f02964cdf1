package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// FileNameForTitle turns a tune title into a safe file name with the given
// extension. Empty titles fall back to "untitled".
func FileNameForTitle(title, ext string) string {
	name := strings.Join(strings.Fields(fileNameReplacer.Replace(title)), " ")
	if name == "" {
		name = "untitled"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return name + ext
}

// TuneTitle normalizes a free-form title for ABC T: headers: whitespace is
// collapsed, line breaks removed, and words title-cased.
func TuneTitle(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return ""
	}
	return cases.Title(language.Und, cases.NoLower).String(value)
}
