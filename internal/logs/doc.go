// Package logs reads wesline logs for the CLI, either from a running
// daemon's in-memory stream (GET /logs) or by tailing the JSON log file.
//
// File tailing uses bounded memory, supports a negative offset for "last N
// lines", and powers `wesline logs --file --follow`. Callers supply context
// deadlines so follow polling stops when the CLI exits.
package logs
