// ABOUTME: Tests for the message log ordering and streaming state machine
// ABOUTME: Covers delivery marking, stop/complete semantics, and late deltas

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendOrderBySequence(t *testing.T) {
	log := NewMessageLog(nil)

	first := log.AppendUserMessage("first")
	second := log.AppendAssistantMessage("", "second", nil)
	third := log.AppendUserMessage("third")

	require.Less(t, first.Seq, second.Seq)
	require.Less(t, second.Seq, third.Seq)

	msgs := log.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}

func TestUserMessageStartsPending(t *testing.T) {
	log := NewMessageLog(nil)

	msg := log.AppendUserMessage("hello")
	assert.Equal(t, DeliveryPending, msg.Delivery)

	require.True(t, log.MarkDelivery(msg.ID, DeliverySent))
	assert.Equal(t, DeliverySent, log.Messages()[0].Delivery)
}

func TestMarkDeliveryUnknownID(t *testing.T) {
	log := NewMessageLog(nil)
	assert.False(t, log.MarkDelivery("nope", DeliveryFailed))
}

func TestFailedMessageStaysVisible(t *testing.T) {
	log := NewMessageLog(nil)

	msg := log.AppendUserMessage("will fail")
	require.True(t, log.MarkDelivery(msg.ID, DeliveryFailed))

	msgs := log.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, DeliveryFailed, msgs[0].Delivery)
	assert.Equal(t, "will fail", msgs[0].Content)
}

func TestStreamAccumulatesDeltas(t *testing.T) {
	log := NewMessageLog(nil)

	id := log.BeginAssistantStream()
	require.True(t, log.Streaming())
	require.Equal(t, id, log.OpenStream())

	require.True(t, log.AppendStreamDelta(id, "Oi"))
	require.True(t, log.AppendStreamDelta(id, ", tudo bem?"))

	msgs := log.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)
	assert.Equal(t, "Oi, tudo bem?", msgs[0].Content)
	assert.True(t, msgs[0].Streaming)
}

func TestCompleteStreamIsImmutable(t *testing.T) {
	log := NewMessageLog(nil)

	id := log.BeginAssistantStream()
	log.AppendStreamDelta(id, "done text")

	meta := &Meta{Model: "lex-1", Confidence: 0.91}
	require.True(t, log.CompleteStream(id, meta))
	assert.False(t, log.Streaming())

	// Deltas after completion are dropped, not queued.
	assert.False(t, log.AppendStreamDelta(id, " more"))

	msgs := log.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "done text", msgs[0].Content)
	assert.False(t, msgs[0].Streaming)
	require.NotNil(t, msgs[0].Meta)
	assert.Equal(t, "lex-1", msgs[0].Meta.Model)

	// Completing again is a no-op.
	assert.False(t, log.CompleteStream(id, nil))
}

func TestStopStreamKeepsPartialContent(t *testing.T) {
	log := NewMessageLog(nil)

	aborted := false
	id := log.BeginAssistantStream()
	log.SetAbort(func() { aborted = true })
	log.AppendStreamDelta(id, "partial answ")

	require.True(t, log.StopStream())
	assert.True(t, aborted)
	assert.False(t, log.Streaming())

	msgs := log.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "partial answ", msgs[0].Content)
	assert.False(t, msgs[0].Streaming)

	assert.False(t, log.AppendStreamDelta(id, "late delta"))
	assert.Equal(t, "partial answ", log.Messages()[0].Content)
}

func TestStopStreamWithoutOpenStream(t *testing.T) {
	log := NewMessageLog(nil)
	assert.False(t, log.StopStream())
}

func TestBeginStreamFinalizesPreviousStream(t *testing.T) {
	log := NewMessageLog(nil)

	first := log.BeginAssistantStream()
	log.AppendStreamDelta(first, "one")

	second := log.BeginAssistantStream()
	log.AppendStreamDelta(second, "two")

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
	assert.False(t, msgs[0].Streaming)
	assert.Equal(t, second, msgs[1].ID)
	assert.Equal(t, "two", msgs[1].Content)
	assert.True(t, msgs[1].Streaming)
}

func TestStaleStreamIDCannotTouchSuccessor(t *testing.T) {
	log := NewMessageLog(nil)

	first := log.BeginAssistantStream()
	log.AppendStreamDelta(first, "old-partial")
	require.True(t, log.StopStream())

	second := log.BeginAssistantStream()
	log.AppendStreamDelta(second, "new")

	// Writes keyed on the stopped stream are no-ops against the new one.
	assert.False(t, log.AppendStreamDelta(first, "STALE"))
	assert.False(t, log.CompleteStream(first, nil))
	assert.True(t, log.Streaming())

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "old-partial", msgs[0].Content)
	assert.Equal(t, "new", msgs[1].Content)
	assert.True(t, msgs[1].Streaming)

	require.True(t, log.CompleteStream(second, nil))
	assert.Equal(t, "new", log.Messages()[1].Content)
}

func TestResetReassignsSequence(t *testing.T) {
	log := NewMessageLog(nil)
	log.AppendUserMessage("old")

	history := []Message{
		{ID: "m1", Role: RoleUser, Content: "hello"},
		{ID: "m2", Role: RoleAssistant, Content: "hi there"},
	}
	log.Reset("conv-1", history)

	assert.Equal(t, "conv-1", log.ConversationID())
	msgs := log.Messages()
	require.Len(t, msgs, 2)
	assert.Less(t, msgs[0].Seq, msgs[1].Seq)
	assert.Equal(t, "conv-1", msgs[0].ConversationID)

	appended := log.AppendUserMessage("new")
	assert.Greater(t, appended.Seq, msgs[1].Seq)
}

func TestClearForgetsOpenStream(t *testing.T) {
	log := NewMessageLog(nil)
	log.BindConversation("conv-1")
	log.BeginAssistantStream()

	log.Clear()

	assert.Empty(t, log.ConversationID())
	assert.False(t, log.Streaming())
	assert.Zero(t, log.Len())
}
