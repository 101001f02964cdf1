package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wesline/internal/api"
	"wesline/internal/history"
	"wesline/internal/notation"
	"wesline/internal/services/wesapi"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var header headerFlags
	var req wesapi.LineRequest
	var record bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Ask the Wes API for a bebop line and render it",
		Example: `  wesline generate --chord G7 --pattern enclosure --length 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if strings.TrimSpace(req.Chord) == "" {
				return errors.New("--chord is required")
			}
			client, err := wesapi.NewFromConfig(cfg, ctx.logger())
			if err != nil {
				return err
			}
			line, err := client.GenerateLine(cmd.Context(), req)
			if err != nil {
				return err
			}

			chord := line.Chord
			if chord == "" {
				chord = req.Chord
			}
			opts := header.resolve(cmd).Options(cfg.Notation)
			if opts.Title == "" {
				opts.Title = "Bebop Line over " + chord
			}
			tune, err := notation.LineTune(line.Notes, chord, opts)
			if err != nil {
				return fmt.Errorf("render %s notes: %w", line.Upstream, err)
			}
			abc, err := tune.Render()
			if err != nil {
				return err
			}

			resp := api.GenerateLineResponse{
				Notes:    line.Notes,
				Chord:    chord,
				Patterns: line.Patterns,
				Warnings: line.Warnings,
				ABC:      abc,
				Upstream: line.Upstream,
			}
			if record {
				resp.ID, err = recordEntry(cmd.Context(), ctx, history.Entry{
					Kind:     history.KindLine,
					Title:    tune.Title,
					Request:  mustJSON(req),
					Result:   mustJSON(line),
					Notes:    line.Notes,
					ABC:      abc,
					Upstream: line.Upstream,
				})
				if err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}

			stderr := cmd.ErrOrStderr()
			for _, w := range line.Warnings {
				fmt.Fprintf(stderr, "warning: %s\n", w)
			}
			fmt.Fprintf(stderr, "Generated by %s: %s\n", line.Upstream, strings.Join(line.Notes, " "))
			if resp.ID != "" {
				fmt.Fprintf(stderr, "Recorded %s\n", resp.ID)
			}
			fmt.Fprint(cmd.OutOrStdout(), abc)
			return nil
		},
	}
	header.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&req.Chord, "chord", "", "Chord to play over, e.g. G7 or Cmaj7")
	flags.StringVar(&req.Scale, "scale", "", "Scale the line is built from")
	flags.StringSliceVar(&req.Patterns, "pattern", nil, "Pattern IDs to use (repeatable; see `wesline patterns`)")
	flags.StringVar(&req.StartNote, "start", "", "Starting note, e.g. B3")
	flags.StringVar(&req.Direction, "direction", "", "Overall direction (up or down)")
	flags.IntVar(&req.Length, "length", 0, "Number of notes")
	flags.BoolVar(&record, "record", false, "Store the result in history")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var header headerFlags
	var cf, cp string
	var req wesapi.CounterpointRequest
	var record bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "validate",
		Short:   "Check a counterpoint exercise with the Wes API",
		Example: `  wesline validate --cf "D3 F3 E3 D3" --cp "A3 A3 G3 F#3" --species 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			req.CantusFirmus = splitNotes(cf)
			req.Counterpoint = splitNotes(cp)
			if len(req.CantusFirmus) == 0 || len(req.Counterpoint) == 0 {
				return errors.New("--cf and --cp are required")
			}
			client, err := wesapi.NewFromConfig(cfg, ctx.logger())
			if err != nil {
				return err
			}
			result, err := client.ValidateCounterpoint(cmd.Context(), req)
			if err != nil {
				return err
			}

			tune, err := notation.CounterpointTune(req.CantusFirmus, req.Counterpoint, req.Species, result.Errors, header.resolve(cmd).Options(cfg.Notation))
			if err != nil {
				return err
			}
			abc, err := tune.Render()
			if err != nil {
				return err
			}
			intervals, err := notation.CounterpointIntervals(req.CantusFirmus, req.Counterpoint, req.Species)
			if err != nil {
				return err
			}

			resp := api.ValidateCounterpointResponse{
				Valid:     result.Valid,
				Errors:    result.Errors,
				Intervals: intervals,
				ABC:       abc,
				Upstream:  result.Upstream,
			}
			if record {
				valid := result.Valid
				resp.ID, err = recordEntry(cmd.Context(), ctx, history.Entry{
					Kind:     history.KindCounterpoint,
					Title:    tune.Title,
					Request:  mustJSON(req),
					Result:   mustJSON(result),
					Notes:    req.Counterpoint,
					ABC:      abc,
					Upstream: result.Upstream,
					Valid:    &valid,
				})
				if err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			if result.Valid {
				fmt.Fprintf(out, "Valid (checked by %s)\n", result.Upstream)
			} else {
				fmt.Fprintf(out, "%d violation(s) (checked by %s)\n", len(result.Errors), result.Upstream)
				fmt.Fprint(out, renderViolations(result.Errors, req.Counterpoint))
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, abc)
			if resp.ID != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %s\n", resp.ID)
			}
			return nil
		},
	}
	header.register(cmd)
	cmd.Flags().StringVar(&cf, "cf", "", "Cantus firmus notes")
	cmd.Flags().StringVar(&cp, "cp", "", "Counterpoint notes")
	cmd.Flags().IntVar(&req.Species, "species", 1, "Species (1, 2, or 3)")
	cmd.Flags().StringVar(&req.Mode, "mode", "", "Church mode of the exercise, e.g. dorian")
	cmd.Flags().BoolVar(&record, "record", false, "Store the result in history")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newPatternsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the line-building patterns the Wes API knows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := wesapi.NewFromConfig(ctx.configValue(), ctx.logger())
			if err != nil {
				return err
			}
			patterns, err := client.Patterns(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.PatternsResponse{Patterns: patterns, Upstream: client.Name()})
			}
			if len(patterns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No patterns available")
				return nil
			}
			rows := make([][]string, 0, len(patterns))
			for _, p := range patterns {
				rows = append(rows, []string{p.ID, p.Name, p.Description})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{textCol("ID"), textCol("Name"), wideCol("Description", 60)}, rows))
			return nil
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func renderViolations(violations []notation.Violation, counterpoint []string) string {
	rows := make([][]string, 0, len(violations))
	for _, v := range violations {
		note := ""
		if v.Index >= 0 && v.Index < len(counterpoint) {
			note = counterpoint[v.Index]
		}
		rows = append(rows, []string{strconv.Itoa(v.Index), note, v.Rule, v.Message})
	}
	return renderTable([]column{numCol("#"), textCol("Note"), textCol("Rule"), textCol("Message")}, rows)
}

func recordEntry(ctx context.Context, cc *commandContext, entry history.Entry) (string, error) {
	store, err := cc.openHistory()
	if err != nil {
		return "", err
	}
	defer store.Close()
	stored, err := store.Record(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("record history: %w", err)
	}
	return stored.ID, nil
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
