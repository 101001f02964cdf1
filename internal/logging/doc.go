// Package logging assembles structured slog loggers and formatting helpers used
// across wesline.
//
// It owns the console and JSON handlers, duplicates records into the JSON log
// file and the in-memory stream served at /logs, and exposes context-aware
// helpers so handlers automatically tag log lines with request IDs, routes,
// and the upstream that answered. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
