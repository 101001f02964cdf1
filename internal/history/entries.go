package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wesline/internal/services"
)

// timeLayout keeps fixed-width UTC timestamps so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = "id, kind, title, request, result, notes, abc, upstream, valid, created_at"

// Record stores e, assigning an ID and timestamp when they are unset.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	kind, err := ParseKind(string(e.Kind))
	if err != nil {
		return Entry{}, err
	}
	if kind == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "history", "record", "kind is required", nil)
	}
	e.Kind = kind
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	notes, err := json.Marshal(nonNilNotes(e.Notes))
	if err != nil {
		return Entry{}, fmt.Errorf("encode notes: %w", err)
	}
	var valid sql.NullBool
	if e.Valid != nil {
		valid = sql.NullBool{Bool: *e.Valid, Valid: true}
	}

	_, err = s.exec(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		string(e.Kind),
		e.Title,
		rawOrEmpty(e.Request),
		rawOrEmpty(e.Result),
		string(notes),
		e.ABC,
		e.Upstream,
		valid,
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert history entry: %w", err)
	}
	return e, nil
}

// Get fetches one entry by ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(orBackground(ctx),
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "history", "get", "entry "+id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return entry, nil
}

// ResolvePrefix expands an ID prefix to the full ID of the one entry it
// matches. An exact ID always wins over longer IDs sharing it as a prefix.
func (s *Store) ResolvePrefix(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", services.Wrap(services.ErrValidation, "history", "resolve", "entry id is required", nil)
	}
	rows, err := s.db.QueryContext(orBackground(ctx),
		`SELECT id FROM entries WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC, id LIMIT 2`,
		prefix, likeEscaper.Replace(prefix)+"%", prefix)
	if err != nil {
		return "", fmt.Errorf("resolve history id: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolve history id: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve history id: %w", err)
	}

	switch {
	case len(matches) == 0:
		return "", services.Wrap(services.ErrNotFound, "history", "resolve", "entry "+prefix, nil)
	case matches[0] == prefix || len(matches) == 1:
		return matches[0], nil
	default:
		return "", services.Wrap(services.ErrValidation, "history", "resolve",
			fmt.Sprintf("id prefix %q matches more than one entry", prefix), nil)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns entries newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	var args []any
	if filter.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(filter.Kind))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(orBackground(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes one entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "delete", "entry "+id, nil)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(orBackground(ctx), `SELECT COUNT(1) FROM entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}

// Prune deletes entries older than olderThan and then everything beyond the
// newest maxEntries. Zero disables either rule. It returns how many rows were
// removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration, maxEntries int) (int, error) {
	var removed int64
	if olderThan > 0 {
		cutoff := s.now().Add(-olderThan).UTC().Format(timeLayout)
		res, err := s.exec(ctx, `DELETE FROM entries WHERE created_at < ?`, cutoff)
		if err != nil {
			return 0, fmt.Errorf("prune by age: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if maxEntries > 0 {
		res, err := s.exec(ctx,
			`DELETE FROM entries WHERE id NOT IN (
				SELECT id FROM entries ORDER BY created_at DESC, rowid DESC LIMIT ?
			)`, maxEntries)
		if err != nil {
			return int(removed), fmt.Errorf("prune by count: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return int(removed), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		entry     Entry
		kind      string
		request   string
		result    string
		notes     string
		valid     sql.NullBool
		createdAt string
	)
	if err := row.Scan(
		&entry.ID,
		&kind,
		&entry.Title,
		&request,
		&result,
		&notes,
		&entry.ABC,
		&entry.Upstream,
		&valid,
		&createdAt,
	); err != nil {
		return nil, err
	}
	entry.Kind = Kind(kind)
	entry.Request = rawOrNil(request)
	entry.Result = rawOrNil(result)
	if err := json.Unmarshal([]byte(notes), &entry.Notes); err != nil {
		return nil, fmt.Errorf("decode notes for %s: %w", entry.ID, err)
	}
	if valid.Valid {
		v := valid.Bool
		entry.Valid = &v
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", entry.ID, err)
	}
	entry.CreatedAt = ts
	return &entry, nil
}

func nonNilNotes(notes []string) []string {
	if notes == nil {
		return []string{}
	}
	return notes
}

func rawOrEmpty(raw json.RawMessage) string {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "{}"
	}
	return string(raw)
}

func rawOrNil(value string) json.RawMessage {
	if value == "" || value == "{}" {
		return nil
	}
	return json.RawMessage(value)
}
