package notation

import (
	"fmt"
	"strconv"
)

var simpleIntervals = [13]string{"P1", "m2", "M2", "m3", "M3", "P4", "TT", "P5", "m6", "M6", "m7", "M7", "P8"}

// Semitones returns the signed distance from a to b.
func Semitones(a, b Note) int {
	return b.MIDI() - a.MIDI()
}

// IntervalName names a distance in semitones. Compound intervals read
// "P8+M3" (or "2P8+m2" past two octaves); descending intervals carry a
// leading "-".
func IntervalName(semitones int) string {
	if semitones < 0 {
		return "-" + IntervalName(-semitones)
	}
	if semitones <= 12 {
		return simpleIntervals[semitones]
	}
	octaves := semitones / 12
	rem := semitones % 12
	prefix := "P8"
	if octaves > 1 {
		prefix = strconv.Itoa(octaves) + "P8"
	}
	if rem == 0 {
		return prefix
	}
	return fmt.Sprintf("%s+%s", prefix, simpleIntervals[rem])
}

// Interval is the harmonic interval at one counterpoint position.
type Interval struct {
	Index        int    `json:"index"`
	CantusFirmus string `json:"cantus_firmus"`
	Counterpoint string `json:"counterpoint"`
	Semitones    int    `json:"semitones"`
	Name         string `json:"name"`
}

// IntervalsBetween measures each counterpoint note against the cantus firmus
// note sounding with it. With several counterpoint notes per cantus note
// (perNote > 1) they share that cantus note; a trailing counterpoint note
// beyond the cantus is measured against its last note.
func IntervalsBetween(cf, cp []Note, perNote int) []Interval {
	if len(cf) == 0 || len(cp) == 0 {
		return nil
	}
	if perNote < 1 {
		perNote = 1
	}
	out := make([]Interval, 0, len(cp))
	for i, top := range cp {
		bottom := cf[min(i/perNote, len(cf)-1)]
		dist := Semitones(bottom, top)
		out = append(out, Interval{
			Index:        i,
			CantusFirmus: bottom.String(),
			Counterpoint: top.String(),
			Semitones:    dist,
			Name:         IntervalName(dist),
		})
	}
	return out
}
