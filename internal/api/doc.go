// Package api is the REST half of the transport boundary to the lexdesk
// backend. It is the only package that performs request/response network
// I/O; everything above it works with the typed results.
//
// # Envelope
//
// Every backend response is wrapped in a JSON envelope:
//
//	{"data": ..., "error": {"message": "...", "fields": {...}}, "pagination": {...}}
//
// Client.do unwraps the envelope and decodes the data payload into the
// caller's type.
//
// # Error Taxonomy
//
// Failures are returned as *Error with a Kind:
//
//   - KindNetwork: no response (DNS failure, connection refused, timeout)
//   - KindAuth: 401, the bearer token was rejected or expired
//   - KindValidation: other 4xx, with optional per-field messages
//   - KindServer: 5xx
//
// Network and server errors are Retryable, but only for idempotent
// operations; message sends carry idempotency keys and are never retried
// automatically, so a user-initiated retry cannot double-post.
//
// # Streaming
//
// StreamMessage sends a message and consumes the reply as an SSE-framed
// body, yielding StreamChunk values until a "done" or "error" frame.
// Cancelling the context aborts the underlying request.
package api
