// Package wesapi is the typed client for the Wes API and its Cloudflare
// Worker twin.
//
// Both deployments expose the same JSON routes (/generate-line,
// /counterpoint/validate, /patterns, /health). Client targets one of them;
// Failover tries the Wes API first and replays the call against the Worker on
// transport errors, timeouts, or 5xx answers. Errors carry services markers so
// HTTP handlers can map them to status codes without inspecting messages.
package wesapi
