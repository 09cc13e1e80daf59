// ABOUTME: Conversations holds the ordered conversation list and the active pointer
// ABOUTME: At most one conversation is active; deleting it clears the pointer

package session

import (
	"log/slog"
	"sync"
)

// Conversations is the single writer for the conversation list and the
// nullable active-conversation pointer.
type Conversations struct {
	mu     sync.Mutex
	list   []Conversation
	active string // empty means no active conversation
	logger *slog.Logger
}

// NewConversations creates an empty store. Pass nil logger for default.
func NewConversations(logger *slog.Logger) *Conversations {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversations{
		logger: logger.With("component", "conversations"),
	}
}

// Replace rehydrates the list from the backend, preserving the given
// order. The active pointer is kept if its conversation survived,
// cleared otherwise.
func (c *Conversations) Replace(list []Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list = make([]Conversation, len(list))
	copy(c.list, list)

	if c.active != "" && c.indexLocked(c.active) < 0 {
		c.active = ""
	}
}

// Upsert inserts or updates a conversation by id. New conversations go
// to the front of the list (most recent first).
func (c *Conversations) Upsert(conv Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(conv.ID); i >= 0 {
		c.list[i] = conv
		return
	}
	c.list = append([]Conversation{conv}, c.list...)
}

// Deselect clears the active pointer without touching the list.
// This is the conversation-store half of start-new-chat.
func (c *Conversations) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = ""
}

// Select sets the active pointer. Unknown ids are a logged no-op and
// return false.
func (c *Conversations) Select(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexLocked(id) < 0 {
		c.logger.Debug("select ignored for unknown conversation", "conversation_id", id)
		return false
	}
	c.active = id
	return true
}

// Delete removes a conversation from the list. Reports whether it was
// removed and whether it was the active conversation; in the latter
// case the active pointer is cleared.
func (c *Conversations) Delete(id string) (removed, wasActive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return false, false
	}
	c.list = append(c.list[:i], c.list[i+1:]...)

	if c.active == id {
		c.active = ""
		return true, true
	}
	return true, false
}

// Active returns the active conversation id, empty if none.
func (c *Conversations) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Get returns a conversation by id.
func (c *Conversations) Get(id string) (Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(id); i >= 0 {
		return c.list[i], true
	}
	return Conversation{}, false
}

// List returns a snapshot of the conversation list.
func (c *Conversations) List() []Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Conversation, len(c.list))
	copy(out, c.list)
	return out
}

// indexLocked returns the position of id in the list, -1 if absent.
// Must be called with mu held.
func (c *Conversations) indexLocked(id string) int {
	for i := range c.list {
		if c.list[i].ID == id {
			return i
		}
	}
	return -1
}
