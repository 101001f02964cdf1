package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"wesline/internal/history"
	"wesline/internal/services"
	"wesline/internal/testsupport"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newStore(t *testing.T) (*history.Store, *stepClock) {
	t.Helper()
	clock := &stepClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := testsupport.NewConfig(t)
	return testsupport.MustOpenHistory(t, cfg, history.WithClock(clock.Now)), clock
}

func TestRecordAndGetRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	valid := false
	recorded, err := store.Record(ctx, history.Entry{
		Kind:     history.KindCounterpoint,
		Title:    "Species 1 Counterpoint",
		Request:  json.RawMessage(`{"species":1}`),
		Result:   json.RawMessage(`{"valid":false}`),
		Notes:    []string{"D4", "F4"},
		ABC:      "X:1\n",
		Upstream: "worker",
		Valid:    &valid,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if recorded.ID == "" {
		t.Fatal("expected generated id")
	}
	if recorded.CreatedAt.IsZero() {
		t.Fatal("expected created_at")
	}

	got, err := store.Get(ctx, recorded.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(&recorded, got); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRejectsUnknownKind(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Record(context.Background(), history.Entry{Kind: "melody"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = store.Record(context.Background(), history.Entry{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty kind, got %v", err)
	}
}

func TestListNewestFirstWithKindFilter(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	first := testsupport.RecordLine(t, store, "first", "C4")
	if _, err := store.Record(ctx, history.Entry{Kind: history.KindTab, Title: "tab", Notes: []string{"E2"}}); err != nil {
		t.Fatalf("Record tab: %v", err)
	}
	third := testsupport.RecordLine(t, store, "third", "D4")

	lines, err := store.List(ctx, history.Filter{Kind: history.KindLine})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var titles []string
	for _, e := range lines {
		titles = append(titles, e.Title)
	}
	if diff := cmp.Diff([]string{third.Title, first.Title}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}

	all, err := store.List(ctx, history.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 || all[0].ID != third.ID || all[1].Kind != history.KindTab {
		t.Fatalf("unexpected limited list %+v", all)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	entry := testsupport.RecordLine(t, store, "gone", "C4")
	if err := store.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, entry.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
	if err := store.Delete(ctx, entry.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestResolvePrefix(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"abc_1", "abcx1", "abd", "abd-2"} {
		if _, err := store.Record(ctx, history.Entry{ID: id, Kind: history.KindLine}); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	tests := []struct {
		prefix  string
		want    string
		wantErr error
	}{
		{prefix: "abc_", want: "abc_1"},
		{prefix: "abcx", want: "abcx1"},
		{prefix: "abd", want: "abd"},
		{prefix: "abd-", want: "abd-2"},
		{prefix: "abc", wantErr: services.ErrValidation},
		{prefix: "a%", wantErr: services.ErrNotFound},
		{prefix: "zzz", wantErr: services.ErrNotFound},
		{prefix: "  ", wantErr: services.ErrValidation},
	}
	for _, tc := range tests {
		got, err := store.ResolvePrefix(ctx, tc.prefix)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ResolvePrefix(%q) error = %v, want %v", tc.prefix, err, tc.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ResolvePrefix(%q): %v", tc.prefix, err)
		}
		if got != tc.want {
			t.Fatalf("ResolvePrefix(%q) = %q, want %q", tc.prefix, got, tc.want)
		}
	}
}

func TestResolvePrefixFindsOldEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("records over a thousand entries")
	}
	store, _ := newStore(t)
	ctx := context.Background()

	oldest := testsupport.RecordLine(t, store, "oldest", "C4")
	for i := 0; i < 1005; i++ {
		testsupport.RecordLine(t, store, "filler", "D4")
	}
	got, err := store.ResolvePrefix(ctx, oldest.ID[:13])
	if err != nil {
		t.Fatalf("ResolvePrefix: %v", err)
	}
	if got != oldest.ID {
		t.Fatalf("ResolvePrefix = %q, want %q", got, oldest.ID)
	}
}

func TestPruneByAgeAndCount(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c", "d"} {
		testsupport.RecordLine(t, store, title, "C4")
	}

	clock.mu.Lock()
	clock.now = clock.now.Add(time.Hour)
	clock.mu.Unlock()
	newest := testsupport.RecordLine(t, store, "e", "C4")

	removed, err := store.Prune(ctx, 30*time.Minute, 0)
	if err != nil {
		t.Fatalf("Prune by age: %v", err)
	}
	if removed != 4 {
		t.Fatalf("removed = %d, want 4", removed)
	}

	testsupport.RecordLine(t, store, "f", "C4")
	testsupport.RecordLine(t, store, "g", "C4")
	removed, err = store.Prune(ctx, 0, 2)
	if err != nil {
		t.Fatalf("Prune by count: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := store.Get(ctx, newest.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("oldest entry should be pruned, got %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entry := testsupport.RecordLine(t, store, "persisted", "G4")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenHistory(t, cfg)
	got, err := reopened.Get(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Title != "persisted" {
		t.Fatalf("title = %q", got.Title)
	}
}
