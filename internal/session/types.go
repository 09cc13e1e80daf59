// ABOUTME: Domain types for the chat session layer
// ABOUTME: Conversations, messages, delivery states, and handoff requests

package session

import "time"

// ContextTag selects which assistant persona/context handles a conversation.
type ContextTag string

const (
	ContextGeneral   ContextTag = "general"
	ContextLegal     ContextTag = "legal"
	ContextTechnical ContextTag = "technical"
	ContextBusiness  ContextTag = "business"
	ContextAcademic  ContextTag = "academic"
)

// Valid reports whether the tag is one of the fixed set.
func (t ContextTag) Valid() bool {
	switch t {
	case ContextGeneral, ContextLegal, ContextTechnical, ContextBusiness, ContextAcademic:
		return true
	}
	return false
}

// Conversation is a titled thread grouping an ordered sequence of messages.
type Conversation struct {
	ID           string
	Title        string
	Context      ContextTag
	MessageCount int
	Pinned       bool
	Favorite     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role identifies the author side of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Delivery tracks an optimistic user message through send confirmation.
// Pending entries are awaiting the backend's acknowledgment; failed
// entries stay visible so the user can retry, never silently dropped.
type Delivery int

const (
	DeliveryNone    Delivery = iota // not an outgoing message
	DeliveryPending                 // appended locally, send in flight
	DeliverySent                    // backend accepted the send
	DeliveryFailed                  // send failed, retry offered
)

// String returns a short label for the delivery state.
func (d Delivery) String() string {
	switch d {
	case DeliveryPending:
		return "pending"
	case DeliverySent:
		return "sent"
	case DeliveryFailed:
		return "failed"
	default:
		return "none"
	}
}

// Meta carries optional model metadata on assistant messages.
type Meta struct {
	Model        string
	Confidence   float64
	InputTokens  int32
	OutputTokens int32
	CostUSD      float64
}

// Message is one entry in a conversation's ordered history.
// Seq is a monotonic per-log counter assigned at append time; it, not
// the wall-clock timestamp, defines intra-session ordering.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	Seq            uint64
	Timestamp      time.Time
	Streaming      bool
	Delivery       Delivery
	Meta           *Meta
}

// Priority ranks a handoff request.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// HandoffStatus tracks a handoff request's lifecycle.
type HandoffStatus string

const (
	HandoffPending   HandoffStatus = "pending"
	HandoffAccepted  HandoffStatus = "accepted"
	HandoffCompleted HandoffStatus = "completed"
)

// Handoff is a request to transfer a conversation to a human operator.
type Handoff struct {
	ID             string
	ConversationID string
	Requester      string
	Priority       Priority
	Reason         string
	Status         HandoffStatus
	AcceptedBy     string
	CreatedAt      time.Time

	// Provisional marks a local optimistic copy not yet acknowledged
	// by the backend.
	Provisional bool
}
