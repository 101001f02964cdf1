package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wesline/internal/testsupport"
)

func TestConfigInitWritesSample(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	stdout, _, err := runCLI(t, env.configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to "+target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	requireContains(t, string(data), "[upstream]")

	_, _, err = runCLI(t, env.configPath, "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected error when config already exists")
	}
	requireContains(t, err.Error(), "--overwrite")

	if _, _, err := runCLI(t, env.configPath, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Config path: "+env.configPath)
	requireContains(t, stdout, "Upstream mode: api")
	requireContains(t, stdout, "Wes API: "+env.wes.URL)
	requireContains(t, stdout, "Worker: -")
	requireContains(t, stdout, "Notifications: no")
	requireContains(t, stdout, "Configuration valid")
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[upstream]\nmode = \"carrier-pigeon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := runCLI(t, env.configPath, "config", "validate"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIToken("s3cret"))

	stdout, _, err := runCLI(t, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout, "# "+env.configPath)
	requireContains(t, stdout, "<redacted>")
	if strings.Contains(stdout, "s3cret") {
		t.Fatalf("token leaked in output:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, env.configPath, "config", "show", "--show-secrets")
	if err != nil {
		t.Fatalf("config show --show-secrets: %v", err)
	}
	requireContains(t, stdout, "s3cret")
}

func TestConfigShowRedactsNtfyTopic(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithNtfyTopic("https://ntfy.example/private-topic"))

	stdout, _, err := runCLI(t, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(stdout, "private-topic") {
		t.Fatalf("ntfy topic leaked in output:\n%s", stdout)
	}
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "ntfy_topic") {
			requireContains(t, line, "<redacted>")
			return
		}
	}
	t.Fatalf("ntfy_topic missing from output:\n%s", stdout)
}
