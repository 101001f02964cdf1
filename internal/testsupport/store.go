package testsupport

import (
	"context"
	"testing"

	"wesline/internal/config"
	"wesline/internal/history"
)

// MustOpenHistory opens a history.Store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config, opts ...history.Option) *history.Store {
	t.Helper()

	store, err := history.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordLine stores a line entry with the given notes.
func RecordLine(t testing.TB, store *history.Store, title string, notes ...string) history.Entry {
	t.Helper()

	entry, err := store.Record(context.Background(), history.Entry{
		Kind:  history.KindLine,
		Title: title,
		Notes: notes,
		ABC:   "X:1\nT:" + title + "\nK:C\nz8 |]\n",
	})
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return entry
}
