package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wesline/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, the history database, and upstream reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			results := preflight.RunAll(cmd.Context(), ctx.configValue())
			failed := preflight.Failed(results)

			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				p := newStatusPrinter(cmd.OutOrStdout())
				p.section("Preflight")
				for _, result := range results {
					p.check(result)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}
