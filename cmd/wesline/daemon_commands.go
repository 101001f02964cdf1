package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"wesline/internal/api"
	"wesline/internal/daemonctl"
	"wesline/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the wesline daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			result, err := daemonctl.EnsureStarted(
				cmd.Context(),
				ctx.configValue(),
				exe,
				daemonctl.LaunchOptions{ConfigPath: ctx.configFlagValue(), LogLevel: startLogLevel},
				10*time.Second,
			)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override [logging] level for the daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the wesline daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(cmd.Context(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and upstream status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			client, err := daemonctl.NewClient(cfg.Server.Bind, cfg.Server.APIToken)
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil && !daemonctl.IsUnavailable(err) {
				return err
			}

			if statusJSON {
				if status == nil {
					return writeJSON(cmd, map[string]any{"running": false})
				}
				return writeJSON(cmd, status)
			}

			p := newStatusPrinter(cmd.OutOrStdout())
			p.section("Daemon")
			if status == nil {
				p.line("Daemon", levelWarn, "Not running ("+client.BaseURL()+")")
				p.blank()
				p.section("Environment")
				for _, result := range preflight.RunAll(cmd.Context(), cfg) {
					p.check(result)
				}
				return nil
			}
			printDaemonStatus(p, status, client.BaseURL())
			p.blank()
			p.section("Upstreams")
			printUpstreamStatus(p, status.Upstreams)
			return nil
		},
	}
	addJSONFlag(statusCmd, &statusJSON)

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func printDaemonStatus(p *statusPrinter, status *api.StatusResponse, baseURL string) {
	uptime := time.Since(status.StartedAt).Round(time.Second)
	p.line("Daemon", levelOK, fmt.Sprintf("Running (pid %d, version %s, up %s)", status.PID, status.Version, uptime))
	p.line("Address", levelInfo, baseURL)
	p.line("Upstream mode", levelInfo, status.Mode)
	p.line("Proxy prefix", levelInfo, status.ProxyPrefix)
	p.line("Rate limited", levelInfo, yesNo(status.RateLimited))
	if status.History {
		p.line("History", levelOK, strconv.Itoa(status.HistoryCount)+" entries")
	} else {
		p.line("History", levelWarn, "Disabled")
	}
}

func printUpstreamStatus(p *statusPrinter, upstreams []api.UpstreamStatus) {
	if len(upstreams) == 0 {
		p.line("Upstreams", levelWarn, "None configured")
		return
	}
	for _, u := range upstreams {
		switch {
		case u.Healthy:
			p.line(u.Name, levelOK, fmt.Sprintf("%s (%d ms)", u.URL, u.LatencyMS))
		case u.Detail != "":
			p.line(u.Name, levelError, fmt.Sprintf("%s (%s)", u.URL, u.Detail))
		default:
			p.line(u.Name, levelError, u.URL)
		}
	}
}
