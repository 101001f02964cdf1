// Package history persists generated lines, counterpoint validations, and
// tab conversions in SQLite so they can be listed and re-rendered later.
//
// The store runs in WAL mode and retries writes that hit SQLITE_BUSY with a
// short exponential backoff, which lets the CLI read while the daemon writes.
// The schema is embedded and stamped with a version; a mismatch is reported
// instead of migrated.
package history
