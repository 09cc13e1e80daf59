// ABOUTME: Session wires the conversation/message/handoff stores to the transport
// ABOUTME: Owns the send and stream pipelines and implements the push event handler

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexdesk/lexdesk/internal/api"
	"github.com/lexdesk/lexdesk/internal/push"
)

// Transport defines what the session needs from the REST boundary.
// *api.Client satisfies it; tests substitute fakes.
type Transport interface {
	SendMessage(ctx context.Context, req *api.SendMessageRequest) (*api.SendMessageResult, error)
	StreamMessage(ctx context.Context, req *api.SendMessageRequest) (<-chan api.StreamChunk, error)
	ListConversations(ctx context.Context, page, perPage int) ([]api.Conversation, *api.Pagination, error)
	GetMessages(ctx context.Context, conversationID string, limit int) ([]api.MessageRecord, error)
	DeleteConversation(ctx context.Context, id string) error
	UpdateConversation(ctx context.Context, conv *api.Conversation) (*api.Conversation, error)
	RequestHandoff(ctx context.Context, req *api.HandoffRecord) (*api.HandoffRecord, error)
}

// historyLimit caps how many messages are rehydrated on conversation select.
const historyLimit = 200

// Session is the client-side state of one chat session. It owns the
// conversation list, the active conversation's message log, and the
// pending handoff list, and is the only caller of the transport. UI
// layers subscribe to the Notifier and render from snapshots.
//
// Lifecycle: construct on login, Close on logout/unmount. No ambient
// singletons; everything reaches the session through its constructor.
type Session struct {
	transport Transport
	userName  string
	context   ContextTag

	conversations *Conversations
	log           *MessageLog
	handoffs      *Handoffs
	notifier      *Notifier
	logger        *slog.Logger

	mu        sync.Mutex
	connected bool
	connErr   error
	typing    map[string]bool
}

// New creates a session for the given user. Pass nil logger for default.
func New(transport Transport, userName string, contextTag ContextTag, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if !contextTag.Valid() {
		contextTag = ContextGeneral
	}
	return &Session{
		transport:     transport,
		userName:      userName,
		context:       contextTag,
		conversations: NewConversations(logger),
		log:           NewMessageLog(logger),
		handoffs:      NewHandoffs(logger),
		notifier:      NewNotifier(logger),
		logger:        logger.With("component", "session"),
		typing:        make(map[string]bool),
	}
}

// Accessors for the UI layer. The returned stores hand out snapshots.

func (s *Session) Conversations() *Conversations { return s.conversations }
func (s *Session) Messages() *MessageLog         { return s.log }
func (s *Session) Handoffs() *Handoffs           { return s.handoffs }
func (s *Session) Notifier() *Notifier           { return s.notifier }

// Rehydrate loads the conversation list from the backend.
func (s *Session) Rehydrate(ctx context.Context) error {
	records, _, err := s.transport.ListConversations(ctx, 1, 100)
	if err != nil {
		s.publishError(err)
		return err
	}

	list := make([]Conversation, 0, len(records))
	for _, rec := range records {
		list = append(list, conversationFromRecord(rec))
	}
	s.conversations.Replace(list)
	s.notifier.Publish(Change{Kind: ChangeConversations})
	return nil
}

// StartNewChat deselects the active conversation and clears the message
// log. Persisted conversations are untouched.
func (s *Session) StartNewChat() {
	s.conversations.Deselect()
	s.log.Clear()
	s.notifier.Publish(Change{Kind: ChangeConversations})
	s.notifier.Publish(Change{Kind: ChangeMessages})
}

// SelectConversation activates a conversation and loads its history.
// Unknown ids are a silent no-op.
func (s *Session) SelectConversation(ctx context.Context, id string) error {
	if !s.conversations.Select(id) {
		return nil
	}

	records, err := s.transport.GetMessages(ctx, id, historyLimit)
	if err != nil {
		// Selection stands; history shows empty until a retry succeeds.
		// The fetch is idempotent, so the UI may offer retry.
		s.log.Reset(id, nil)
		s.notifier.Publish(Change{Kind: ChangeMessages})
		s.publishError(err)
		return err
	}

	history := make([]Message, 0, len(records))
	for _, rec := range records {
		history = append(history, messageFromRecord(rec))
	}
	s.log.Reset(id, history)
	s.notifier.Publish(Change{Kind: ChangeConversations})
	s.notifier.Publish(Change{Kind: ChangeMessages})
	return nil
}

// DeleteConversation removes a conversation on the backend and locally.
// Deleting the active conversation clears the active pointer and the
// message log; deleting any other conversation leaves the displayed
// history untouched. The backend call happens first so a failure cannot
// leave local state ahead of the server.
func (s *Session) DeleteConversation(ctx context.Context, id string) error {
	if err := s.transport.DeleteConversation(ctx, id); err != nil {
		s.publishError(err)
		return err
	}

	removed, wasActive := s.conversations.Delete(id)
	if !removed {
		return nil
	}
	if wasActive {
		s.log.Clear()
		s.notifier.Publish(Change{Kind: ChangeMessages})
	}
	s.notifier.Publish(Change{Kind: ChangeConversations})
	return nil
}

// RenameConversation retitles a conversation on the backend and updates
// the local copy from the server's response. Unknown ids are a silent
// no-op; a failed update leaves the local title untouched.
func (s *Session) RenameConversation(ctx context.Context, id, title string) error {
	conv, ok := s.conversations.Get(id)
	if !ok {
		return nil
	}

	updated, err := s.transport.UpdateConversation(ctx, &api.Conversation{
		ID:       id,
		Title:    title,
		Context:  string(conv.Context),
		Pinned:   conv.Pinned,
		Favorite: conv.Favorite,
	})
	if err != nil {
		s.publishError(err)
		return err
	}

	s.conversations.Upsert(conversationFromRecord(*updated))
	s.notifier.Publish(Change{Kind: ChangeConversations})
	return nil
}

// Send appends an optimistic user message and posts it. The assistant's
// reply arrives later via the push channel. A failed send marks the
// message failed (visibly) instead of dropping it.
func (s *Session) Send(ctx context.Context, content string) error {
	msg := s.log.AppendUserMessage(content)
	s.notifier.Publish(Change{Kind: ChangeMessages})

	result, err := s.transport.SendMessage(ctx, &api.SendMessageRequest{
		ConversationID: s.conversations.Active(),
		Content:        content,
		Context:        string(s.context),
		IdempotencyKey: msg.ID,
	})
	if err != nil {
		s.log.MarkDelivery(msg.ID, DeliveryFailed)
		s.notifier.Publish(Change{Kind: ChangeMessages})
		s.publishError(err)
		return err
	}

	s.log.MarkDelivery(msg.ID, DeliverySent)
	s.adoptConversation(result.ConversationID)
	s.notifier.Publish(Change{Kind: ChangeMessages})
	return nil
}

// SendStreaming posts a user message and consumes the assistant reply as
// a stream, accumulating deltas into a placeholder message. Returns once
// the stream is open; deltas arrive on the session's goroutine.
func (s *Session) SendStreaming(ctx context.Context, content string) error {
	msg := s.log.AppendUserMessage(content)
	s.notifier.Publish(Change{Kind: ChangeMessages})

	streamCtx, cancel := context.WithCancel(ctx)
	chunks, err := s.transport.StreamMessage(streamCtx, &api.SendMessageRequest{
		ConversationID: s.conversations.Active(),
		Content:        content,
		Context:        string(s.context),
		IdempotencyKey: msg.ID,
	})
	if err != nil {
		cancel()
		s.log.MarkDelivery(msg.ID, DeliveryFailed)
		s.notifier.Publish(Change{Kind: ChangeMessages})
		s.publishError(err)
		return err
	}

	s.log.MarkDelivery(msg.ID, DeliverySent)
	streamID := s.log.BeginAssistantStream()
	s.log.SetAbort(cancel)
	s.notifier.Publish(Change{Kind: ChangeMessages})

	go s.consumeStream(streamID, chunks, cancel)
	return nil
}

// consumeStream applies stream chunks to the placeholder it was started
// for until the stream ends. Every write is keyed on streamID, so a
// consumer whose stream was stopped cannot touch a successor stream;
// its remaining chunks become no-ops. A stream that dies without a done
// frame is finalized with whatever content accumulated.
func (s *Session) consumeStream(streamID string, chunks <-chan api.StreamChunk, cancel context.CancelFunc) {
	defer cancel()

	for chunk := range chunks {
		switch chunk.Event {
		case "text":
			if s.log.AppendStreamDelta(streamID, chunk.Text) {
				s.notifier.Publish(Change{Kind: ChangeMessages})
			}
		case "done":
			s.log.CompleteStream(streamID, metaFromRecord(chunk.Meta))
			s.notifier.Publish(Change{Kind: ChangeMessages})
		case "error":
			s.log.CompleteStream(streamID, nil)
			s.notifier.Publish(Change{Kind: ChangeMessages})
			s.publishError(&api.Error{Kind: api.KindServer, Message: chunk.Err})
		}
	}

	// Transport closed without a terminal frame: keep the partial content.
	if s.log.CompleteStream(streamID, nil) {
		s.notifier.Publish(Change{Kind: ChangeMessages})
	}
}

// StopStreaming is the user-initiated cancellation: the placeholder
// keeps its partial content and the in-flight request is aborted.
func (s *Session) StopStreaming() {
	if s.log.StopStream() {
		s.notifier.Publish(Change{Kind: ChangeMessages})
	}
}

// RequestHandoff asks for a human operator. The local copy is
// provisional until the backend acknowledges; a failed send removes it
// and surfaces the error rather than leaving a stale pending entry.
func (s *Session) RequestHandoff(ctx context.Context, reason string, priority Priority) (Handoff, error) {
	ho := Handoff{
		ID:             uuid.New().String(),
		ConversationID: s.conversations.Active(),
		Requester:      s.userName,
		Priority:       priority,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}
	s.handoffs.AddProvisional(ho)
	s.notifier.Publish(Change{Kind: ChangeHandoffs})

	rec, err := s.transport.RequestHandoff(ctx, &api.HandoffRecord{
		ID:             ho.ID,
		ConversationID: ho.ConversationID,
		Requester:      ho.Requester,
		Priority:       string(ho.Priority),
		Reason:         ho.Reason,
	})
	if err != nil {
		s.handoffs.Remove(ho.ID)
		s.notifier.Publish(Change{Kind: ChangeHandoffs})
		s.publishError(err)
		return Handoff{}, err
	}

	acked := handoffFromRecord(rec)
	s.handoffs.Reconcile(acked)
	s.notifier.Publish(Change{Kind: ChangeHandoffs})
	return acked, nil
}

// Connected reports the push channel state and last error.
func (s *Session) Connected() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected, s.connErr
}

// TypingIn reports typing activity for a conversation.
func (s *Session) TypingIn(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing[conversationID]
}

// Close tears down the session's notifier. The push listener is owned
// by the caller and stopped via its context.
func (s *Session) Close() {
	s.notifier.Close()
}

// HandleNewMessage implements push.Handler. Batch events append a
// complete assistant message; delta events feed the streaming machine.
// Events for a conversation other than the displayed one are dropped;
// its history is fetched on select.
func (s *Session) HandleNewMessage(ev push.NewMessage) {
	current := s.log.ConversationID()
	if ev.ConversationID != "" && current != "" && ev.ConversationID != current {
		s.logger.Debug("dropping message for inactive conversation",
			"conversation_id", ev.ConversationID)
		return
	}
	if ev.ConversationID != "" && current == "" {
		// First reply of a new chat: the backend just assigned the id.
		s.adoptConversation(ev.ConversationID)
	}

	if ev.Delta {
		streamID := s.log.OpenStream()
		if streamID == "" {
			streamID = s.log.BeginAssistantStream()
		}
		s.log.AppendStreamDelta(streamID, ev.Content)
		if ev.Final {
			s.log.CompleteStream(streamID, nil)
		}
		s.notifier.Publish(Change{Kind: ChangeMessages})
		return
	}

	s.log.AppendAssistantMessage(ev.MessageID, ev.Content, nil)
	s.notifier.Publish(Change{Kind: ChangeMessages})
}

// HandleHandoffAccepted implements push.Handler.
func (s *Session) HandleHandoffAccepted(ev push.HandoffAccepted) {
	if _, ok := s.handoffs.Accept(ev.RequestID, ev.AcceptedBy); ok {
		s.notifier.Publish(Change{Kind: ChangeHandoffs})
	}
}

// HandleHandoffCancelled implements push.Handler.
func (s *Session) HandleHandoffCancelled(ev push.HandoffCancelled) {
	if s.handoffs.Remove(ev.RequestID) {
		s.notifier.Publish(Change{Kind: ChangeHandoffs})
	}
}

// HandleTyping implements push.Handler.
func (s *Session) HandleTyping(ev push.TypingIndicator) {
	s.mu.Lock()
	s.typing[ev.ConversationID] = ev.Typing
	s.mu.Unlock()

	s.notifier.Publish(Change{
		Kind:           ChangeTyping,
		ConversationID: ev.ConversationID,
		Typing:         ev.Typing,
	})
}

// HandleConnection implements push.Handler. A disconnect mid-stream
// force-stops the stream: the transport behind it is gone, so the
// placeholder is finalized with its partial content.
func (s *Session) HandleConnection(state push.ConnectionState) {
	s.mu.Lock()
	s.connected = state.Connected
	s.connErr = state.LastError
	s.mu.Unlock()

	if !state.Connected && s.log.Streaming() {
		s.logger.Debug("push channel dropped mid-stream, stopping stream")
		s.log.StopStream()
		s.notifier.Publish(Change{Kind: ChangeMessages})
	}

	s.notifier.Publish(Change{
		Kind:      ChangeConnection,
		Connected: state.Connected,
		Err:       state.LastError,
	})
}

// adoptConversation binds the log and active pointer to a conversation
// id the backend assigned for a chat that started unselected.
func (s *Session) adoptConversation(id string) {
	if id == "" || s.conversations.Active() == id {
		return
	}
	if _, ok := s.conversations.Get(id); !ok {
		now := time.Now()
		s.conversations.Upsert(Conversation{
			ID:        id,
			Context:   s.context,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	s.conversations.Select(id)
	s.log.BindConversation(id)
	s.notifier.Publish(Change{Kind: ChangeConversations})
}

// publishError surfaces a transport failure as a dismissible change.
// Errors never corrupt in-memory state; the stores were already updated
// to their reconciled values before this runs.
func (s *Session) publishError(err error) {
	s.notifier.Publish(Change{Kind: ChangeError, Err: err})
}

// Record conversions between the wire types and session types.

func conversationFromRecord(rec api.Conversation) Conversation {
	return Conversation{
		ID:           rec.ID,
		Title:        rec.Title,
		Context:      ContextTag(rec.Context),
		MessageCount: rec.MessageCount,
		Pinned:       rec.Pinned,
		Favorite:     rec.Favorite,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

func messageFromRecord(rec api.MessageRecord) Message {
	return Message{
		ID:             rec.ID,
		ConversationID: rec.ConversationID,
		Role:           Role(rec.Role),
		Content:        rec.Content,
		Timestamp:      rec.CreatedAt,
		Delivery:       DeliveryNone,
		Meta:           metaFromRecord(rec.Meta),
	}
}

func metaFromRecord(rec *api.MessageMeta) *Meta {
	if rec == nil {
		return nil
	}
	return &Meta{
		Model:        rec.Model,
		Confidence:   rec.Confidence,
		InputTokens:  rec.InputTokens,
		OutputTokens: rec.OutputTokens,
		CostUSD:      rec.CostUSD,
	}
}

func handoffFromRecord(rec *api.HandoffRecord) Handoff {
	return Handoff{
		ID:             rec.ID,
		ConversationID: rec.ConversationID,
		Requester:      rec.Requester,
		Priority:       Priority(rec.Priority),
		Reason:         rec.Reason,
		Status:         HandoffStatus(rec.Status),
		CreatedAt:      rec.CreatedAt,
	}
}
