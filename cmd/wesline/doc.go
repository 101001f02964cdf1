// Command wesline is the CLI for the wesline notation service. It runs the
// daemon in the foreground, queries a running daemon, renders ABC notation
// locally, calls the Wes API directly, and manages stored results.
package main
