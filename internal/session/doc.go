// ABOUTME: Package documentation for the chat session layer
// ABOUTME: Describes the stores, the streaming state machine, and the change feed

// Package session holds the client-side state of a chat session: the
// conversation list, the active conversation's message log, and the
// pending human-handoff requests.
//
// # Architecture
//
// Session is the façade. It owns one store per concern and is the only
// caller of the REST transport; push events enter through its
// push.Handler implementation. Each store guards its state with its own
// mutex and hands out snapshots, so UI layers never observe a partial
// mutation.
//
//   - Conversations: ordered list plus a nullable active pointer.
//   - MessageLog: ordered history with a monotonic sequence counter and
//     the streaming state machine (at most one open stream; completion
//     never reverts; late deltas are dropped).
//   - Handoffs: optimistic pending list reconciled against backend
//     acknowledgments.
//   - Notifier: fan-out change feed driving UI redraws.
//
// # Optimistic writes
//
// User messages and handoff requests appear locally before the backend
// answers. A failed message send flips the entry to DeliveryFailed and
// leaves it visible for retry; a failed handoff send removes the
// provisional entry and surfaces the error. Errors never corrupt state.
//
// # Construction
//
// Everything is dependency-injected through New; there are no package
// singletons. Construct one Session per signed-in user and Close it on
// teardown.
package session
