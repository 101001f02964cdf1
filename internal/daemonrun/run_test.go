package daemonrun_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"wesline/internal/daemonrun"
	"wesline/internal/testsupport"
)

func TestRunWithCanceledContextCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "json"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := daemonrun.Run(ctx, cfg, daemonrun.Options{Version: "test"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.DataDir, "wesline.pid")); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, stat err = %v", err)
	}
	data, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected startup records in log file")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := daemonrun.Run(context.Background(), nil, daemonrun.Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
