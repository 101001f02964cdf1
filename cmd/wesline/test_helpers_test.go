package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wesline/internal/config"
	"wesline/internal/notation"
	"wesline/internal/services/wesapi"
	"wesline/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	wes        *httptest.Server
}

// setupCLITestEnv writes a config whose Wes API points at a fake upstream.
// Options run after the upstream is wired, so they may override it.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("NO_COLOR", "1")

	wes := newFakeWesAPI(t)
	all := append([]testsupport.ConfigOption{testsupport.WithUpstreams(wes.URL, "")}, opts...)
	cfg := testsupport.NewConfig(t, all...)
	return &cliTestEnv{
		cfg:        cfg,
		configPath: testsupport.WriteConfigFile(t, cfg),
		wes:        wes,
	}
}

// rewriteConfig persists changes made to env.cfg after setup.
func (e *cliTestEnv) rewriteConfig(t *testing.T) {
	t.Helper()
	e.configPath = testsupport.WriteConfigFile(t, e.cfg)
}

func newFakeWesAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /generate-line", func(w http.ResponseWriter, r *http.Request) {
		var req wesapi.LineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeTestJSON(w, wesapi.LineResponse{
			Notes:    []string{"B3", "D4", "F4", "A4", "Ab4", "G4", "F4", "D4"},
			Chord:    req.Chord,
			Patterns: []string{"enclosure"},
			Warnings: []string{"length rounded to 8"},
		})
	})
	mux.HandleFunc("POST /counterpoint/validate", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, wesapi.CounterpointResult{
			Valid:  false,
			Errors: []notation.Violation{{Index: 1, Rule: "dissonance", Message: "tritone"}},
		})
	})
	mux.HandleFunc("GET /patterns", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, map[string]any{"patterns": []wesapi.Pattern{
			{ID: "enclosure", Name: "Enclosure", Description: "Approach the target from above and below"},
			{ID: "arpeggio", Name: "Arpeggio"},
		}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
