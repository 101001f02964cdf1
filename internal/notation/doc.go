// Package notation converts note names into ABC text for browser renderers.
//
// Notes use scientific pitch notation (C4 is middle C, MIDI 60). The tune
// builders (LineTune, CounterpointTune, TabTune) lay events out in bars and
// Tune.Render writes the header, bar lines, ties, and key-relative accidentals
// the way ABC 2.1 readers expect. Guitar tunes are written at sounding pitch on
// a treble-8 staff.
//
// Nothing here generates lines or judges counterpoint; those results arrive
// from the Wes API and are only formatted.
package notation
