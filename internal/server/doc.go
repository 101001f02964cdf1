// Package server exposes wesline over HTTP: ABC rendering, Wes API calls
// with rendered results, stored history, the in-memory log stream, and the
// /api reverse proxy.
//
// Every route shares one middleware chain (request ID, access log, CORS,
// rate limiting). Non-proxy routes other than /healthz additionally require
// the configured bearer token.
package server
