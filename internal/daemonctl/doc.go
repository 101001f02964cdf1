// Package daemonctl talks to a running wesline daemon over its HTTP API and
// manages the daemon process through its pid file. The CLI status, start,
// and stop commands are built on it.
package daemonctl
