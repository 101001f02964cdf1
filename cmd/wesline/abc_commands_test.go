package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"wesline/internal/api"
	"wesline/internal/history"
	"wesline/internal/testsupport"
)

func TestABCLineRendersChordAndKeyAccidentals(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "abc", "line", "--chord", "G7", "B3", "D4", "F4", "A4", "Ab4", "G4", "F4", "D4")
	if err != nil {
		t.Fatalf("abc line: %v", err)
	}
	requireContains(t, stdout, "X:1\n")
	requireContains(t, stdout, `"G7"B,D FA _AG FD`)
}

func TestABCLineJSONListsNotes(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "abc", "line", "--json", "C4, E4, G4")
	if err != nil {
		t.Fatalf("abc line --json: %v", err)
	}
	var resp api.NotationResponse
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if diff := cmp.Diff([]string{"C4", "E4", "G4"}, resp.Notes); diff != "" {
		t.Fatalf("unexpected notes (-want +got):\n%s", diff)
	}
	if resp.ABC == "" {
		t.Fatal("expected abc in json output")
	}
}

func TestABCLineRejectsBadNote(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "abc", "line", "H4"); err == nil {
		t.Fatal("expected error for unknown note")
	}
}

func TestABCCounterpointPrintsIntervals(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "abc", "counterpoint", "--cf", "D3 F3", "--cp", "A3 A3", "--intervals", "--violation", "1=parallel: hidden fifth")
	if err != nil {
		t.Fatalf("abc counterpoint: %v", err)
	}
	requireContains(t, stdout, "V:1")
	requireContains(t, stdout, "P5")
	requireContains(t, stdout, "M3")
}

func TestABCCounterpointRequiresBothVoices(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "abc", "counterpoint", "--cf", "D3 F3")
	if err == nil {
		t.Fatal("expected error without --cp")
	}
	requireContains(t, err.Error(), "--cf and --cp are required")
}

func TestABCTabPrintsASCIIAndRecords(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, stderr, err := runCLI(t, env.configPath, "abc", "tab", "--ascii", "--record", "1:3", "2:1", "5:10")
	if err != nil {
		t.Fatalf("abc tab: %v", err)
	}
	requireContains(t, stdout, "e|-3------|\n")
	requireContains(t, stdout, "A|-----10-|\n")
	requireContains(t, stderr, "Recorded ")

	store := testsupport.MustOpenHistory(t, env.cfg)
	entries, err := store.List(context.Background(), history.Filter{Kind: history.KindTab})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one tab entry, got %d", len(entries))
	}
	if diff := cmp.Diff([]string{"G4", "C4", "G3"}, entries[0].Notes); diff != "" {
		t.Fatalf("unexpected recorded notes (-want +got):\n%s", diff)
	}
}

func TestABCTabRejectsMalformedPosition(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "abc", "tab", "7:1"); err == nil {
		t.Fatal("expected error for string 7")
	}
	if _, _, err := runCLI(t, env.configPath, "abc", "tab", "fret"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}
