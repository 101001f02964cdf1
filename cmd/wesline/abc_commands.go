package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wesline/internal/api"
	"wesline/internal/history"
	"wesline/internal/notation"
)

func newABCCommand(ctx *commandContext) *cobra.Command {
	abcCmd := &cobra.Command{
		Use:   "abc",
		Short: "Render ABC notation locally",
	}
	abcCmd.AddCommand(newABCLineCommand(ctx))
	abcCmd.AddCommand(newABCCounterpointCommand(ctx))
	abcCmd.AddCommand(newABCTabCommand(ctx))
	return abcCmd
}

func newABCLineCommand(ctx *commandContext) *cobra.Command {
	var header headerFlags
	var chord string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "line NOTE...",
		Short: "Render a note list as a single-voice line of eighth notes",
		Example: `  wesline abc line --chord G7 B3 D4 F4 Ab4 G4 F4 D4
  wesline abc line --key F "C4, D4, E4, F4"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			opts := header.resolve(cmd).Options(cfg.Notation)
			tune, err := notation.LineTune(splitNotes(args...), chord, opts)
			if err != nil {
				return err
			}
			abc, err := tune.Render()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.NotationResponse{ABC: abc, Notes: notation.NoteNames(tune.Voices[0].Events)})
			}
			fmt.Fprint(cmd.OutOrStdout(), abc)
			return nil
		},
	}
	header.register(cmd)
	cmd.Flags().StringVar(&chord, "chord", "", "Chord symbol printed over the first note")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newABCCounterpointCommand(ctx *commandContext) *cobra.Command {
	var header headerFlags
	var cf, cp string
	var species int
	var violationFlags []string
	var showIntervals bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "counterpoint",
		Short: "Render a cantus firmus and counterpoint as a two-voice score",
		Example: `  wesline abc counterpoint --cf "D3 F3 E3 D3" --cp "A3 A3 G3 F#3"
  wesline abc counterpoint --cf "D3 F3" --cp "A3 A3" --violation "1=parallel fifths"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			cfNotes := splitNotes(cf)
			cpNotes := splitNotes(cp)
			if len(cfNotes) == 0 || len(cpNotes) == 0 {
				return errors.New("--cf and --cp are required")
			}
			violations, err := parseViolations(violationFlags)
			if err != nil {
				return err
			}
			opts := header.resolve(cmd).Options(cfg.Notation)
			tune, err := notation.CounterpointTune(cfNotes, cpNotes, species, violations, opts)
			if err != nil {
				return err
			}
			abc, err := tune.Render()
			if err != nil {
				return err
			}
			intervals, err := notation.CounterpointIntervals(cfNotes, cpNotes, species)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.NotationResponse{ABC: abc, Intervals: intervals})
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, abc)
			if showIntervals {
				fmt.Fprintln(out)
				fmt.Fprint(out, renderIntervals(intervals))
			}
			return nil
		},
	}
	header.register(cmd)
	cmd.Flags().StringVar(&cf, "cf", "", "Cantus firmus notes, e.g. \"D3 F3 E3 D3\"")
	cmd.Flags().StringVar(&cp, "cp", "", "Counterpoint notes")
	cmd.Flags().IntVar(&species, "species", 1, "Species (1, 2, or 3)")
	cmd.Flags().StringArrayVar(&violationFlags, "violation", nil, "Annotate a counterpoint note: index=[rule:] message (repeatable)")
	cmd.Flags().BoolVar(&showIntervals, "intervals", false, "Print the harmonic interval table after the score")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newABCTabCommand(ctx *commandContext) *cobra.Command {
	var header headerFlags
	var tuningFlag string
	var showASCII bool
	var record bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tab STRING:FRET...",
		Short: "Render guitar tab positions as notation",
		Example: `  wesline abc tab 5:3 4:5 3:2 2:3 --ascii
  wesline abc tab --tuning "D4 A3 F3 D3 A2 D2" 6:0 5:2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			positions, err := parsePositions(args)
			if err != nil {
				return err
			}
			tuning, err := notation.ParseTuning(tuningFlag)
			if err != nil {
				return err
			}
			tune, notes, err := notation.TabTune(positions, tuning, header.resolve(cmd).Options(cfg.Notation))
			if err != nil {
				return err
			}
			abc, err := tune.Render()
			if err != nil {
				return err
			}
			ascii, err := notation.RenderASCIITab(positions, tuning)
			if err != nil {
				return err
			}
			names := make([]string, len(notes))
			for i, n := range notes {
				names[i] = n.String()
			}

			resp := api.NotationResponse{ABC: abc, Notes: names, ASCII: ascii, Positions: positions}
			if record {
				store, err := ctx.openHistory()
				if err != nil {
					return err
				}
				defer store.Close()
				entry, err := store.Record(cmd.Context(), history.Entry{
					Kind:  history.KindTab,
					Title: tune.Title,
					Notes: names,
					ABC:   abc,
				})
				if err != nil {
					return err
				}
				resp.ID = entry.ID
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, abc)
			if showASCII {
				fmt.Fprintln(out)
				fmt.Fprint(out, ascii)
			}
			if resp.ID != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %s\n", resp.ID)
			}
			return nil
		},
	}
	header.register(cmd)
	cmd.Flags().StringVar(&tuningFlag, "tuning", "", "Six open-string notes, high string first (default standard tuning)")
	cmd.Flags().BoolVar(&showASCII, "ascii", false, "Print ASCII tab after the score")
	cmd.Flags().BoolVar(&record, "record", false, "Store the result in history")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func renderIntervals(intervals []notation.Interval) string {
	rows := make([][]string, 0, len(intervals))
	for _, iv := range intervals {
		rows = append(rows, []string{
			strconv.Itoa(iv.Index),
			iv.CantusFirmus,
			iv.Counterpoint,
			strconv.Itoa(iv.Semitones),
			iv.Name,
		})
	}
	return renderTable([]column{
		numCol("#"), textCol("Cantus"), textCol("Counterpoint"), numCol("Semitones"), textCol("Interval"),
	}, rows)
}
