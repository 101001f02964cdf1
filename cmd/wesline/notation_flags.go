package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wesline/internal/api"
	"wesline/internal/notation"
)

// headerFlags binds the ABC header overrides shared by every rendering
// command.
type headerFlags struct {
	header      api.Header
	preferFlats bool
}

func (h *headerFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&h.header.Title, "title", "", "Tune title (T:)")
	flags.StringVar(&h.header.Composer, "composer", "", "Composer (C:)")
	flags.StringVar(&h.header.Meter, "meter", "", "Meter (M:), e.g. 4/4")
	flags.StringVar(&h.header.UnitLength, "unit", "", "Default note length (L:), e.g. 1/8")
	flags.IntVar(&h.header.Tempo, "tempo", 0, "Quarter-note tempo (Q:)")
	flags.StringVar(&h.header.Key, "key", "", "Key (K:), e.g. Bb or F#m")
	flags.IntVar(&h.header.BarsPerLine, "bars-per-line", 0, "Bars per output line")
	flags.BoolVar(&h.preferFlats, "prefer-flats", false, "Spell accidentals as flats")
}

// resolve returns the header with --prefer-flats applied only when set.
func (h *headerFlags) resolve(cmd *cobra.Command) api.Header {
	header := h.header
	if cmd.Flags().Changed("prefer-flats") {
		value := h.preferFlats
		header.PreferFlats = &value
	}
	return header
}

// splitNotes accepts notes as separate arguments or as space or comma
// separated lists.
func splitNotes(values ...string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(strings.ReplaceAll(v, ",", " "))...)
	}
	return out
}

// parsePositions reads tab positions written "string:fret", e.g. "2:5".
func parsePositions(values []string) ([]notation.TabPosition, error) {
	fields := splitNotes(values...)
	positions := make([]notation.TabPosition, 0, len(fields))
	for _, field := range fields {
		str, fret, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("position %q: want string:fret", field)
		}
		s, err := strconv.Atoi(str)
		if err != nil {
			return nil, fmt.Errorf("position %q: string: %w", field, err)
		}
		f, err := strconv.Atoi(fret)
		if err != nil {
			return nil, fmt.Errorf("position %q: fret: %w", field, err)
		}
		positions = append(positions, notation.TabPosition{String: s, Fret: f})
	}
	return positions, nil
}

// parseViolations reads annotations written "index=message" or
// "index=rule: message". Indexes count counterpoint notes from zero.
func parseViolations(values []string) ([]notation.Violation, error) {
	out := make([]notation.Violation, 0, len(values))
	for _, value := range values {
		idx, text, ok := strings.Cut(value, "=")
		if !ok {
			return nil, fmt.Errorf("violation %q: want index=message", value)
		}
		index, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("violation %q: index: %w", value, err)
		}
		v := notation.Violation{Index: index, Message: strings.TrimSpace(text)}
		if rule, msg, found := strings.Cut(v.Message, ":"); found {
			v.Rule = strings.TrimSpace(rule)
			v.Message = strings.TrimSpace(msg)
		}
		out = append(out, v)
	}
	return out, nil
}
