// Package proxy forwards browser requests to the Wes API or its Cloudflare
// Worker and carries the HTTP middleware shared with the rest of the service:
// CORS, request IDs, access logging, and per-client rate limiting.
//
// In failover mode the request body is buffered (bounded by
// upstream.max_body_bytes) so a request that fails on the Wes API with a
// transport error or 5xx can be replayed against the Worker. The
// X-Wesline-Upstream response header names whichever upstream answered.
// Upstream CORS headers are dropped so the service's own policy is the only
// one a browser sees.
package proxy
