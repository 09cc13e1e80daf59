// ABOUTME: In-memory fan-out notifier for session state changes
// ABOUTME: UI subscribers receive Change values as the session mutates

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// ChangeKind identifies what part of the session changed.
type ChangeKind int

const (
	ChangeConversations ChangeKind = iota + 1
	ChangeMessages
	ChangeHandoffs
	ChangeTyping
	ChangeConnection
	ChangeError
)

// Change describes one session state transition for UI consumption.
type Change struct {
	Kind           ChangeKind
	ConversationID string
	Typing         bool
	Connected      bool
	Err            error
}

// Notifier provides in-memory pub/sub for session changes. Subscribers
// receive changes as they are published; rendering layers redraw from
// session snapshots rather than from the change payloads themselves.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]chan Change
	logger      *slog.Logger
}

// NewNotifier creates a notifier. Pass nil logger for default.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		subscribers: make(map[string]chan Change),
		logger:      logger.With("component", "notifier"),
	}
}

// Subscribe registers a subscriber. Returns a channel that receives
// changes and a subscription ID for later unsubscription. The
// subscription is automatically cleaned up when ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan Change, string) {
	subID := uuid.New().String()
	ch := make(chan Change, subscriberBufferSize)

	n.mu.Lock()
	n.subscribers[subID] = ch
	n.mu.Unlock()

	n.logger.Debug("subscriber added", "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		n.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends a change to all subscribers.
// Non-blocking: changes are dropped for subscribers whose channels are
// full; they redraw from the next change's snapshot anyway.
func (n *Notifier) Publish(change Change) {
	n.mu.RLock()
	targets := make([]chan Change, 0, len(n.subscribers))
	for _, ch := range n.subscribers {
		targets = append(targets, ch)
	}
	n.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- change:
			// Sent
		default:
			n.logger.Debug("dropped change for slow subscriber", "kind", change.Kind)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (n *Notifier) Unsubscribe(subID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.subscribers[subID]
	if !ok {
		return
	}
	delete(n.subscribers, subID)
	close(ch)

	n.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close shuts down the notifier and closes all subscriber channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for subID, ch := range n.subscribers {
		close(ch)
		delete(n.subscribers, subID)
	}
}
