package main

import (
	"os"
	"strings"
	"testing"
	"time"

	"wesline/internal/logging"
)

func writeLogFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}
}

func TestLogsFileModeFormatsAndFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	writeLogFile(t, env.cfg.LogPath(),
		`{"ts":"2026-10-17T10:00:00Z","level":"INFO","msg":"listening","component":"server","bind":"127.0.0.1:7487"}`,
		`{"ts":"2026-10-17T10:00:01Z","level":"WARN","msg":"upstream failed","component":"proxy","request_id":"req-1","upstream":"api"}`,
		"not json",
	)

	stdout, _, err := runCLI(t, env.configPath, "logs", "--file")
	if err != nil {
		t.Fatalf("logs --file: %v", err)
	}
	requireContains(t, stdout, "INFO  server: listening bind=127.0.0.1:7487")
	requireContains(t, stdout, "WARN  proxy: upstream failed request_id=req-1 upstream=api")
	requireContains(t, stdout, "not json")

	stdout, _, err = runCLI(t, env.configPath, "logs", "--file", "--component", "proxy")
	if err != nil {
		t.Fatalf("logs --file --component: %v", err)
	}
	requireContains(t, stdout, "upstream failed")
	if strings.Contains(stdout, "listening") {
		t.Fatalf("component filter leaked other events:\n%s", stdout)
	}
}

func TestLogsFallsBackToFileWhenDaemonDown(t *testing.T) {
	env := setupCLITestEnv(t)
	writeLogFile(t, env.cfg.LogPath(),
		`{"ts":"2026-10-17T10:00:00Z","level":"INFO","msg":"daemon stopped","component":"daemon"}`,
	)

	stdout, stderr, err := runCLI(t, env.configPath, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, stderr, "Daemon not reachable")
	requireContains(t, stdout, "daemon: daemon stopped")
}

func TestLogsStreamsFromDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	hub := startTestDaemon(t, env)
	now := time.Now()
	hub.Publish(logging.LogEvent{Timestamp: now, Level: "info", Message: "generated line", Component: "server", RequestID: "req-9"})
	hub.Publish(logging.LogEvent{Timestamp: now, Level: "info", Message: "request", Component: "http", Fields: map[string]string{"path": "/logs"}})
	hub.Publish(logging.LogEvent{Timestamp: now, Level: "debug", Message: "cache miss", Component: "server"})

	stdout, stderr, err := runCLI(t, env.configPath, "logs", "--level", "info")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if stderr != "" {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
	requireContains(t, stdout, "INFO  server: generated line request_id=req-9")
	if strings.Contains(stdout, "/logs") || strings.Contains(stdout, "cache miss") {
		t.Fatalf("expected /logs access and debug events to be hidden:\n%s", stdout)
	}
}
