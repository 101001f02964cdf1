// Package api defines the JSON payloads exchanged between the wesline HTTP
// service and its clients, plus the helpers that turn them into notation
// options and history entries. The CLI decodes the same types when it talks
// to a running daemon.
package api
