// Package push is the server-to-client half of the transport boundary:
// a long-lived websocket delivering JSON events the backend pushes as
// conversations progress.
//
// # Events
//
// Frames are {"type": "...", ...payload} and decode into a sealed union:
//
//   - new_message: message content, batch or incremental (delta/final)
//   - handoff_accepted: a human operator took over a handoff request
//   - handoff_cancelled: a handoff request was withdrawn
//   - typing_indicator: typing activity for a conversation
//
// Unrecognized types decode to Unknown and are dropped, keeping the
// channel forward compatible. Known events dispatch through the typed
// Handler interface.
//
// # Reconnection
//
// The Listener reconnects on disconnect with exponential backoff and
// full jitter, doubling from ReconnectPolicy.Min to Max. After
// MaxRetries consecutive failures it reports a terminal disconnect and
// stops. A successful connection resets the budget.
//
// Connection state transitions (connected, disconnected, terminal) are
// reported to the handler so the session layer can stop any in-flight
// stream and surface the state in the UI.
package push
