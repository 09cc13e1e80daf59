// ABOUTME: Tests for the conversation list and active-pointer invariants
// ABOUTME: Covers select, delete-active, and rehydration behavior

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConversations(ids ...string) []Conversation {
	out := make([]Conversation, 0, len(ids))
	for _, id := range ids {
		out = append(out, Conversation{ID: id, Title: "Conversation " + id})
	}
	return out
}

func TestSelectKnownConversation(t *testing.T) {
	c := NewConversations(nil)
	c.Replace(testConversations("a", "b"))

	require.True(t, c.Select("b"))
	assert.Equal(t, "b", c.Active())
}

func TestSelectUnknownIsNoOp(t *testing.T) {
	c := NewConversations(nil)
	c.Replace(testConversations("a"))
	require.True(t, c.Select("a"))

	assert.False(t, c.Select("missing"))
	assert.Equal(t, "a", c.Active())
}

func TestDeleteActiveClearsPointer(t *testing.T) {
	c := NewConversations(nil)
	c.Replace(testConversations("a", "b"))
	require.True(t, c.Select("a"))

	removed, wasActive := c.Delete("a")
	assert.True(t, removed)
	assert.True(t, wasActive)
	assert.Empty(t, c.Active())

	list := c.List()
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}

func TestDeleteInactiveKeepsPointer(t *testing.T) {
	c := NewConversations(nil)
	c.Replace(testConversations("a", "b"))
	require.True(t, c.Select("a"))

	removed, wasActive := c.Delete("b")
	assert.True(t, removed)
	assert.False(t, wasActive)
	assert.Equal(t, "a", c.Active())
}

func TestDeleteUnknown(t *testing.T) {
	c := NewConversations(nil)
	removed, wasActive := c.Delete("missing")
	assert.False(t, removed)
	assert.False(t, wasActive)
}

func TestReplaceKeepsSurvivingActive(t *testing.T) {
	c := NewConversations(nil)
	c.Replace(testConversations("a", "b"))
	require.True(t, c.Select("b"))

	c.Replace(testConversations("b", "c"))
	assert.Equal(t, "b", c.Active())

	c.Replace(testConversations("c", "d"))
	assert.Empty(t, c.Active())
}

func TestUpsertNewGoesToFront(t *testing.T) {
	c := NewConversations(nil)
	c.Replace(testConversations("a"))

	c.Upsert(Conversation{ID: "b", Title: "newest"})
	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)

	c.Upsert(Conversation{ID: "a", Title: "renamed"})
	list = c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "renamed", list[1].Title)
}

func TestDeselect(t *testing.T) {
	c := NewConversations(nil)
	c.Replace(testConversations("a"))
	require.True(t, c.Select("a"))

	c.Deselect()
	assert.Empty(t, c.Active())
	assert.Len(t, c.List(), 1)
}
