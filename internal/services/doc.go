// Package services defines shared utilities consumed by the HTTP handlers,
// the reverse proxy, and the Wes API client.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, route names, and the answering
//     upstream for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP status codes.
//
// Use these helpers when wiring new handlers so operational behaviour (error
// handling, observability) stays uniform across the service.
package services
