// Package textutil provides small text helpers shared by the notation code
// and the CLI: note-name normalization (unicode accidentals, full-width
// characters), tune title casing, and safe file names for exported ABC.
package textutil
