// ABOUTME: Typed push event union and JSON decoding for the push channel
// ABOUTME: Each wire event type maps to a concrete struct; unknown types decode to Unknown

package push

import (
	"encoding/json"
	"fmt"
)

// Event is the sealed union of push channel events. Concrete types are
// NewMessage, HandoffAccepted, HandoffCancelled, TypingIndicator, and
// Unknown. The Listener dispatches each through the typed Handler
// interface, so a new member added here without a handler method is a
// compile error rather than a silent fallthrough.
type Event interface {
	pushEvent()
}

// NewMessage delivers message content for a conversation. Delta marks an
// incremental streaming chunk to be appended to the open assistant
// message; Final marks the end of that stream. A non-delta event carries
// a complete message.
type NewMessage struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	Delta          bool   `json:"delta"`
	Final          bool   `json:"final"`
}

func (NewMessage) pushEvent() {}

// HandoffAccepted signals a human operator took over a handoff request.
type HandoffAccepted struct {
	RequestID  string `json:"request_id"`
	AcceptedBy string `json:"accepted_by"`
}

func (HandoffAccepted) pushEvent() {}

// HandoffCancelled signals a handoff request was withdrawn or resolved
// elsewhere and should leave the pending list.
type HandoffCancelled struct {
	RequestID string `json:"request_id"`
}

func (HandoffCancelled) pushEvent() {}

// TypingIndicator signals assistant or operator typing activity.
type TypingIndicator struct {
	ConversationID string `json:"conversation_id"`
	Typing         bool   `json:"typing"`
}

func (TypingIndicator) pushEvent() {}

// Unknown is produced for event types this client does not recognize.
// The dispatcher drops it, which keeps the channel forward compatible.
type Unknown struct {
	Type string
}

func (Unknown) pushEvent() {}

// Wire event type names.
const (
	typeNewMessage       = "new_message"
	typeHandoffAccepted  = "handoff_accepted"
	typeHandoffCancelled = "handoff_cancelled"
	typeTypingIndicator  = "typing_indicator"
)

// ParseEvent decodes one push channel frame: {"type": "...", ...payload}.
// Unrecognized types return Unknown, not an error; an error means the
// frame itself was malformed.
func ParseEvent(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing event frame: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("event frame missing type")
	}

	switch head.Type {
	case typeNewMessage:
		var ev NewMessage
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parsing %s event: %w", head.Type, err)
		}
		return ev, nil

	case typeHandoffAccepted:
		var ev HandoffAccepted
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parsing %s event: %w", head.Type, err)
		}
		return ev, nil

	case typeHandoffCancelled:
		var ev HandoffCancelled
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parsing %s event: %w", head.Type, err)
		}
		return ev, nil

	case typeTypingIndicator:
		var ev TypingIndicator
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parsing %s event: %w", head.Type, err)
		}
		return ev, nil

	default:
		return Unknown{Type: head.Type}, nil
	}
}
