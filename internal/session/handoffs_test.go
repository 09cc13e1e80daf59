// ABOUTME: Tests for the optimistic handoff pending list
// ABOUTME: Covers reconcile, accept, cancel, and failed-send removal

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionalUntilReconciled(t *testing.T) {
	h := NewHandoffs(nil)
	h.AddProvisional(Handoff{ID: "req-1", Reason: "needs a human", Priority: PriorityUrgent})

	pending := h.Pending()
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Provisional)
	assert.Equal(t, HandoffPending, pending[0].Status)

	require.True(t, h.Reconcile(Handoff{ID: "req-1", Reason: "needs a human", Priority: PriorityUrgent, Status: HandoffPending}))

	pending = h.Pending()
	require.Len(t, pending, 1)
	assert.False(t, pending[0].Provisional)
}

func TestReconcileUnknownID(t *testing.T) {
	h := NewHandoffs(nil)
	assert.False(t, h.Reconcile(Handoff{ID: "missing"}))
}

func TestAcceptRemovesFromPending(t *testing.T) {
	h := NewHandoffs(nil)
	h.AddProvisional(Handoff{ID: "req-1"})
	h.AddProvisional(Handoff{ID: "req-2"})

	accepted, ok := h.Accept("req-1", "maria")
	require.True(t, ok)
	assert.Equal(t, HandoffAccepted, accepted.Status)
	assert.Equal(t, "maria", accepted.AcceptedBy)

	pending := h.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "req-2", pending[0].ID)
}

func TestAcceptUnknownID(t *testing.T) {
	h := NewHandoffs(nil)
	_, ok := h.Accept("missing", "maria")
	assert.False(t, ok)
}

func TestRemoveOnCancelOrFailedSend(t *testing.T) {
	h := NewHandoffs(nil)
	h.AddProvisional(Handoff{ID: "req-1"})

	assert.True(t, h.Remove("req-1"))
	assert.Empty(t, h.Pending())
	assert.False(t, h.Remove("req-1"))
}
