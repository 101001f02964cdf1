package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wesline/internal/api"
	"wesline/internal/logging"
	"wesline/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow    bool
		fromFile  bool
		lines     int
		component string
		requestID string
		level     string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs from the running service or the log file",
		Long: `Shows recent daemon log events. A running daemon is read through its
/logs endpoint; otherwise, or with --file, the JSON log file is tailed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			filter := logs.FieldFilter{Component: component, RequestID: requestID, Level: level}
			out := cmd.OutOrStdout()

			if !fromFile {
				client, err := logs.NewStreamClient(cfg.Server.Bind, cfg.Server.APIToken)
				if err != nil {
					return err
				}
				err = streamLogs(cmd.Context(), out, client, filter, lines, follow)
				if err == nil || !logs.IsAPIUnavailable(err) {
					return ignoreCanceled(err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Daemon not reachable at %s; reading %s\n", cfg.Server.Bind, cfg.LogPath())
			}
			return ignoreCanceled(tailLogFile(cmd.Context(), out, cfg.LogPath(), filter, lines, follow))
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&follow, "follow", "f", false, "Keep printing new events")
	flags.BoolVar(&fromFile, "file", false, "Read the log file even when the daemon is running")
	flags.IntVarP(&lines, "lines", "n", 50, "Number of recent events to show")
	flags.StringVar(&component, "component", "", "Only show events from one component (http, proxy, server, daemon, history)")
	flags.StringVar(&requestID, "request-id", "", "Only show events for one request ID")
	flags.StringVar(&level, "level", "", "Only show events at one level")
	return cmd
}

func streamLogs(ctx context.Context, out io.Writer, client *logs.StreamClient, filter logs.FieldFilter, limit int, follow bool) error {
	query := logs.StreamQuery{
		Tail:      true,
		Limit:     limit,
		Component: filter.Component,
		RequestID: filter.RequestID,
	}
	resp, err := client.Fetch(ctx, query)
	if err != nil {
		return err
	}
	printEvents(out, resp.Events, filter.Level)
	if !follow {
		return nil
	}

	next := resp.Next
	for {
		resp, err := client.Fetch(ctx, logs.StreamQuery{
			Since:     next,
			Follow:    true,
			Component: filter.Component,
			RequestID: filter.RequestID,
		})
		if err != nil {
			return err
		}
		printEvents(out, resp.Events, filter.Level)
		if resp.Next > next {
			next = resp.Next
		}
	}
}

func tailLogFile(ctx context.Context, out io.Writer, path string, filter logs.FieldFilter, limit int, follow bool) error {
	opts := logs.TailOptions{Offset: -1, Limit: limit, Match: filter.Matcher()}
	result, err := logs.Tail(ctx, path, opts)
	if err != nil {
		return err
	}
	for _, line := range result.Lines {
		fmt.Fprintln(out, formatLogLine(line))
	}
	if !follow {
		return nil
	}

	offset := result.Offset
	for {
		result, err := logs.Tail(ctx, path, logs.TailOptions{
			Offset: offset,
			Follow: true,
			Wait:   5 * time.Second,
			Match:  opts.Match,
		})
		if err != nil {
			return err
		}
		for _, line := range result.Lines {
			fmt.Fprintln(out, formatLogLine(line))
		}
		offset = result.Offset
	}
}

// printEvents writes events one per line, skipping the daemon's access log
// entries for the /logs polling itself.
func printEvents(out io.Writer, events []api.LogEvent, level string) {
	for _, evt := range events {
		if level != "" && !strings.EqualFold(level, evt.Level) {
			continue
		}
		if evt.Fields["path"] == "/logs" {
			continue
		}
		fields := make(map[string]string, len(evt.Fields)+3)
		for k, v := range evt.Fields {
			fields[k] = v
		}
		if evt.RequestID != "" {
			fields[logging.FieldRequestID] = evt.RequestID
		}
		if evt.Route != "" {
			fields[logging.FieldRoute] = evt.Route
		}
		if evt.Upstream != "" {
			fields[logging.FieldUpstream] = evt.Upstream
		}
		fmt.Fprintln(out, formatEvent(evt.Timestamp, evt.Level, evt.Component, evt.Message, fields))
	}
}

// formatLogLine renders one JSON log file record like a stream event.
// Lines that are not JSON are returned unchanged.
func formatLogLine(line string) string {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return line
	}
	take := func(key string) string {
		value, _ := record[key].(string)
		delete(record, key)
		return value
	}
	ts, _ := time.Parse(time.RFC3339Nano, take("ts"))
	level := take("level")
	component := take(logging.FieldComponent)
	msg := take("msg")
	fields := make(map[string]string, len(record))
	for k, v := range record {
		fields[k] = fmt.Sprint(v)
	}
	return formatEvent(ts, level, component, msg, fields)
}

func formatEvent(ts time.Time, level, component, msg string, fields map[string]string) string {
	var b strings.Builder
	if !ts.IsZero() {
		b.WriteString(ts.Local().Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(level))
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, fields[k])
	}
	return b.String()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
