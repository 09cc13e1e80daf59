// ABOUTME: MessageLog holds the ordered message history of the active conversation
// ABOUTME: Serializes appends by local invocation order and runs the streaming state machine

package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageLog is the single writer for the active conversation's message
// list. Appends are ordered by a monotonic sequence counter assigned
// under the log's lock, so messages render in invocation order even when
// network completion order differs.
//
// At most one assistant message is streaming at a time. Its lifecycle is
// streaming → complete; completion never reverts, and deltas arriving
// after completion are dropped.
type MessageLog struct {
	mu             sync.Mutex
	messages       []Message
	conversationID string
	seq            uint64
	streamID       string // id of the open streaming message, "" if none
	abort          func() // cancels the in-flight transport stream
	logger         *slog.Logger
}

// NewMessageLog creates an empty log. Pass nil logger for default.
func NewMessageLog(logger *slog.Logger) *MessageLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageLog{
		logger: logger.With("component", "messages"),
	}
}

// Reset replaces the log contents with rehydrated history for a
// conversation. Sequence numbers are reassigned in slice order.
func (l *MessageLog) Reset(conversationID string, history []Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.conversationID = conversationID
	l.streamID = ""
	l.abort = nil
	l.messages = make([]Message, 0, len(history))
	for _, msg := range history {
		l.seq++
		msg.Seq = l.seq
		msg.ConversationID = conversationID
		msg.Streaming = false
		l.messages = append(l.messages, msg)
	}
}

// Clear empties the log, as on start-new-chat or active-conversation delete.
// Any open stream is forgotten without calling its abort; the caller
// decides whether the underlying request should be cancelled.
func (l *MessageLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.conversationID = ""
	l.streamID = ""
	l.abort = nil
	l.messages = nil
}

// ConversationID returns the conversation the log currently holds.
func (l *MessageLog) ConversationID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conversationID
}

// BindConversation records which conversation the log belongs to without
// touching existing messages. Used when the backend assigns an id to a
// conversation that began as a new chat.
func (l *MessageLog) BindConversation(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conversationID = id
}

// AppendUserMessage appends an optimistic user message and returns a copy.
// The message starts in DeliveryPending; the send pipeline marks it sent
// or failed when the backend answers.
func (l *MessageLog) AppendUserMessage(content string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	msg := Message{
		ID:             uuid.New().String(),
		ConversationID: l.conversationID,
		Role:           RoleUser,
		Content:        content,
		Seq:            l.seq,
		Timestamp:      time.Now(),
		Delivery:       DeliveryPending,
	}
	l.messages = append(l.messages, msg)

	l.logger.Debug("user message appended", "message_id", msg.ID, "seq", msg.Seq)
	return msg
}

// AppendAssistantMessage appends a complete (non-streaming) assistant
// message, as delivered by a batch push event.
func (l *MessageLog) AppendAssistantMessage(id, content string, meta *Meta) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id == "" {
		id = uuid.New().String()
	}
	l.seq++
	msg := Message{
		ID:             id,
		ConversationID: l.conversationID,
		Role:           RoleAssistant,
		Content:        content,
		Seq:            l.seq,
		Timestamp:      time.Now(),
		Meta:           meta,
	}
	l.messages = append(l.messages, msg)
	return msg
}

// MarkDelivery updates the delivery state of a message by id.
// Returns false if the id is unknown.
func (l *MessageLog) MarkDelivery(id string, state Delivery) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.messages {
		if l.messages[i].ID == id {
			l.messages[i].Delivery = state
			l.logger.Debug("delivery state changed", "message_id", id, "state", state.String())
			return true
		}
	}
	return false
}

// BeginAssistantStream appends an empty assistant placeholder with the
// streaming flag set and returns its id. If a stream is already open it
// is finalized first; the state machine never runs two streams at once.
func (l *MessageLog) BeginAssistantStream() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.streamID != "" {
		l.finalizeStreamLocked()
	}

	l.seq++
	msg := Message{
		ID:             uuid.New().String(),
		ConversationID: l.conversationID,
		Role:           RoleAssistant,
		Seq:            l.seq,
		Timestamp:      time.Now(),
		Streaming:      true,
	}
	l.messages = append(l.messages, msg)
	l.streamID = msg.ID

	l.logger.Debug("assistant stream opened", "message_id", msg.ID)
	return msg.ID
}

// AppendStreamDelta concatenates delta onto the streaming message with
// the given id. Returns false when that stream is no longer open, which
// is how deltas arriving after a stop or completion get dropped rather
// than queued, and how a consumer of a stopped stream is kept away from
// its successor.
func (l *MessageLog) AppendStreamDelta(streamID, delta string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if streamID == "" || streamID != l.streamID {
		l.logger.Debug("dropping delta for closed stream", "message_id", streamID)
		return false
	}
	for i := range l.messages {
		if l.messages[i].ID == l.streamID {
			l.messages[i].Content += delta
			return true
		}
	}
	return false
}

// CompleteStream finalizes the streaming message with the given id,
// making it immutable. The accumulated content is preserved. A no-op
// when that stream is not the open one.
func (l *MessageLog) CompleteStream(streamID string, meta *Meta) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if streamID == "" || streamID != l.streamID {
		return false
	}
	if meta != nil {
		for i := range l.messages {
			if l.messages[i].ID == l.streamID {
				l.messages[i].Meta = meta
				break
			}
		}
	}
	l.finalizeStreamLocked()
	return true
}

// StopStream is the user-initiated early completion: partial content is
// retained, the streaming flag clears, and the registered abort runs so
// the transport request stops generating. Safe to call when no stream is
// open.
func (l *MessageLog) StopStream() bool {
	l.mu.Lock()
	if l.streamID == "" {
		l.mu.Unlock()
		return false
	}
	l.finalizeStreamLocked()
	abort := l.abort
	l.abort = nil
	l.mu.Unlock()

	if abort != nil {
		abort()
	}
	return true
}

// SetAbort registers the cancel function for the in-flight stream request.
func (l *MessageLog) SetAbort(abort func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.abort = abort
}

// finalizeStreamLocked clears the streaming flag on the open stream.
// Must be called with mu held.
func (l *MessageLog) finalizeStreamLocked() {
	for i := range l.messages {
		if l.messages[i].ID == l.streamID {
			l.messages[i].Streaming = false
			break
		}
	}
	l.logger.Debug("assistant stream closed", "message_id", l.streamID)
	l.streamID = ""
}

// Streaming reports whether a stream is currently open.
func (l *MessageLog) Streaming() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.streamID != ""
}

// OpenStream returns the id of the open streaming message, empty if none.
func (l *MessageLog) OpenStream() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.streamID
}

// Messages returns a snapshot of the log in sequence order.
func (l *MessageLog) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
