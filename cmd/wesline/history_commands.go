package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wesline/internal/api"
	"wesline/internal/fileutil"
	"wesline/internal/history"
	"wesline/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage stored results",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryDeleteCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	historyCmd.AddCommand(newHistoryExportCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := history.ParseKind(kind)
			if err != nil {
				return err
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), history.Filter{Kind: parsed, Limit: limit})
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []*history.Entry{}
				}
				return writeJSON(cmd, api.HistoryListResponse{Entries: entries})
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored results")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					shortID(e.ID),
					string(e.Kind),
					e.Title,
					strconv.Itoa(len(e.Notes)),
					validLabel(e.Valid),
					e.Upstream,
					e.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{
				textCol("ID"), textCol("Kind"), wideCol("Title", 40), numCol("Notes"),
				textCol("Valid"), textCol("Upstream"), textCol("Created"),
			}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only show one kind (line, counterpoint, tab)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var abcOnly bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one stored result (an unambiguous ID prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := resolveEntryID(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			entry, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, entry)
			}
			out := cmd.OutOrStdout()
			if abcOnly {
				fmt.Fprint(out, entry.ABC)
				return nil
			}
			fmt.Fprintf(out, "ID:       %s\n", entry.ID)
			fmt.Fprintf(out, "Kind:     %s\n", entry.Kind)
			fmt.Fprintf(out, "Title:    %s\n", entry.Title)
			fmt.Fprintf(out, "Created:  %s\n", entry.CreatedAt.Local().Format(time.RFC3339))
			if entry.Upstream != "" {
				fmt.Fprintf(out, "Upstream: %s\n", entry.Upstream)
			}
			if entry.Valid != nil {
				fmt.Fprintf(out, "Valid:    %s\n", yesNo(*entry.Valid))
			}
			if len(entry.Notes) > 0 {
				fmt.Fprintf(out, "Notes:    %s\n", strings.Join(entry.Notes, " "))
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, entry.ABC)
			return nil
		},
	}
	cmd.Flags().BoolVar(&abcOnly, "abc", false, "Print only the ABC notation")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete stored results",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				id, err := resolveEntryID(cmd.Context(), store, arg)
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %s\n", id)
			}
			return nil
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThanDays int
	var maxEntries int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old results using the [history] retention settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			retention := cfg.HistoryRetention()
			if cmd.Flags().Changed("older-than") {
				retention = time.Duration(olderThanDays) * 24 * time.Hour
			}
			keep := cfg.History.MaxEntries
			if cmd.Flags().Changed("max-entries") {
				keep = maxEntries
			}

			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), retention, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete entries older than this many days (0 keeps all ages)")
	cmd.Flags().IntVar(&maxEntries, "max-entries", 0, "Keep at most this many newest entries (0 means no limit)")
	return cmd
}

func newHistoryExportCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var kind string
	var limit int

	cmd := &cobra.Command{
		Use:   "export [ID...]",
		Short: "Write stored results to .abc files named after their titles",
		Long: `Writes the ABC of each stored result to its own file. With no IDs the
newest results are exported, optionally narrowed with --kind and --limit.
Existing files are never overwritten; a numbered name is chosen instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := history.ParseKind(kind)
			if err != nil {
				return err
			}
			target, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolve export directory: %w", err)
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create export directory %q: %w", target, err)
			}

			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []*history.Entry
			if len(args) == 0 {
				entries, err = store.List(cmd.Context(), history.Filter{Kind: parsed, Limit: limit})
				if err != nil {
					return err
				}
			}
			for _, arg := range args {
				id, err := resolveEntryID(cmd.Context(), store, arg)
				if err != nil {
					return err
				}
				entry, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				path := fileutil.UniquePath(filepath.Join(target, textutil.FileNameForTitle(entry.Title, "abc")))
				if err := fileutil.WriteFileAtomic(path, []byte(entry.ABC), 0o644); err != nil {
					return fmt.Errorf("export %s: %w", shortID(entry.ID), err)
				}
				fmt.Fprintf(out, "%s -> %s\n", shortID(entry.ID), path)
			}
			fmt.Fprintf(out, "Exported %d entries to %s\n", len(entries), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to write .abc files into")
	cmd.Flags().StringVar(&kind, "kind", "", "Only export one kind when no IDs are given")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to export when no IDs are given")
	return cmd
}

// resolveEntryID expands an ID prefix to the full ID of the single stored
// entry it matches.
func resolveEntryID(ctx context.Context, store *history.Store, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", errors.New("entry id is required")
	}
	return store.ResolvePrefix(ctx, value)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func validLabel(valid *bool) string {
	if valid == nil {
		return ""
	}
	return yesNo(*valid)
}
