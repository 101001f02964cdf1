package main

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"wesline/internal/logging"
	"wesline/internal/server"
	"wesline/internal/testsupport"
)

// startTestDaemon serves the daemon HTTP surface for env and points the
// config's bind address at it.
func startTestDaemon(t *testing.T, env *cliTestEnv) *logging.StreamHub {
	t.Helper()
	hub := logging.NewStreamHub(32)
	srv, err := server.New(env.cfg, server.Deps{
		Logger:  logging.NewNop(),
		History: testsupport.MustOpenHistory(t, env.cfg),
		Hub:     hub,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	env.cfg.Server.Bind = strings.TrimPrefix(ts.URL, "http://")
	env.rewriteConfig(t)
	return hub
}

func TestStatusWhenNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "== Daemon ==")
	requireContains(t, stdout, "[WARN] Not running")
	requireContains(t, stdout, "== Environment ==")
	requireContains(t, stdout, "Wes API:")
}

func TestStatusJSONWhenNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "status", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if payload["running"] != false {
		t.Fatalf("expected running=false, got %v", payload)
	}
}

func TestStatusWhenRunning(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIToken("token"))
	startTestDaemon(t, env)

	stdout, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, fmt.Sprintf("Running (pid %d, version test", os.Getpid()))
	requireContains(t, stdout, "Upstream mode:")
	requireContains(t, stdout, "[OK] 0 entries")
	requireContains(t, stdout, "== Upstreams ==")
	requireContains(t, stdout, "[OK] "+env.wes.URL)
}

func TestStopWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, stdout, "Daemon is not running")
}

func TestPreflightPassesWithReachableUpstream(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "preflight")
	if err != nil {
		t.Fatalf("preflight: %v\n%s", err, stdout)
	}
	requireContains(t, stdout, "== Preflight ==")
	requireContains(t, stdout, "History database:")
	requireContains(t, stdout, "[OK] "+env.wes.URL+" (reachable")
}

func TestPreflightFailsWhenUpstreamDown(t *testing.T) {
	env := setupCLITestEnv(t)
	env.wes.Close()

	stdout, _, err := runCLI(t, env.configPath, "preflight")
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, err.Error(), "1 of 4 checks failed")
	requireContains(t, stdout, "[ERROR]")
}
