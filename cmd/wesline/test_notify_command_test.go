package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, stdout, "Notifications disabled")
}

func TestTestNotifySends(t *testing.T) {
	var title string
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("Title")
		w.WriteHeader(http.StatusOK)
	}))
	defer ntfy.Close()

	env := setupCLITestEnv(t)
	env.cfg.Notifications.NtfyTopic = ntfy.URL
	env.rewriteConfig(t)

	stdout, _, err := runCLI(t, env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, stdout, "Test notification sent to "+ntfy.URL)
	if title != "wesline - Test" {
		t.Fatalf("unexpected ntfy title %q", title)
	}
}
