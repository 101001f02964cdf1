// Package daemon coordinates the long-running wesline process.
//
// It takes a flock-based lock so only one instance serves a data directory,
// opens the history store, and runs the HTTP server and the history pruner
// together in an errgroup. When an ntfy topic is configured the group also
// runs an upstream health watcher. Canceling the Run context shuts everything
// down; an error from one goroutine stops the rest.
//
// Keep orchestration logic here: request handling lives in server and
// persistence in history.
package daemon
