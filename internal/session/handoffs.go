// ABOUTME: Handoffs tracks pending human-handoff requests
// ABOUTME: Optimistic entries are provisional until the backend acknowledges them

package session

import (
	"log/slog"
	"sync"
)

// Handoffs holds the pending handoff-request list. Requests enter
// optimistically when the user asks for a human, are reconciled against
// the backend's acknowledged copy, and leave on accepted/cancelled push
// events or when the initial send fails.
type Handoffs struct {
	mu      sync.Mutex
	pending []Handoff
	logger  *slog.Logger
}

// NewHandoffs creates an empty list. Pass nil logger for default.
func NewHandoffs(logger *slog.Logger) *Handoffs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handoffs{
		logger: logger.With("component", "handoffs"),
	}
}

// AddProvisional appends an optimistic local copy awaiting backend
// acknowledgment.
func (h *Handoffs) AddProvisional(ho Handoff) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ho.Status = HandoffPending
	ho.Provisional = true
	h.pending = append(h.pending, ho)

	h.logger.Debug("handoff requested", "request_id", ho.ID, "priority", ho.Priority)
}

// Reconcile replaces the provisional entry with the backend's
// acknowledged copy, matched by id. If the id is no longer pending
// (already accepted elsewhere) the acknowledgment is dropped.
func (h *Handoffs) Reconcile(ho Handoff) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.pending {
		if h.pending[i].ID == ho.ID {
			ho.Provisional = false
			if ho.Status == "" {
				ho.Status = HandoffPending
			}
			h.pending[i] = ho
			return true
		}
	}
	return false
}

// Accept removes the request from the pending list, returning the entry
// marked accepted. Used on handoff_accepted push events.
func (h *Handoffs) Accept(id, acceptedBy string) (Handoff, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.pending {
		if h.pending[i].ID == id {
			ho := h.pending[i]
			ho.Status = HandoffAccepted
			ho.AcceptedBy = acceptedBy
			h.pending = append(h.pending[:i], h.pending[i+1:]...)

			h.logger.Debug("handoff accepted", "request_id", id, "accepted_by", acceptedBy)
			return ho, true
		}
	}
	return Handoff{}, false
}

// Remove drops a request from the pending list without further action.
// Used on handoff_cancelled events and on failed sends.
func (h *Handoffs) Remove(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.pending {
		if h.pending[i].ID == id {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			h.logger.Debug("handoff removed", "request_id", id)
			return true
		}
	}
	return false
}

// Pending returns a snapshot of the pending list.
func (h *Handoffs) Pending() []Handoff {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Handoff, len(h.pending))
	copy(out, h.pending)
	return out
}
