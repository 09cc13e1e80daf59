// ABOUTME: Tests for the push listener: dispatch, reconnect, retry budget, backoff
// ABOUTME: Uses scripted connections in place of real websockets

package push

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConn replays a fixed sequence of frames, then fails with err.
type scriptedConn struct {
	frames [][]byte
	err    error
	pos    int
}

func (c *scriptedConn) Read(ctx context.Context) ([]byte, error) {
	if c.pos >= len(c.frames) {
		return nil, c.err
	}
	frame := c.frames[c.pos]
	c.pos++
	return frame, nil
}

func (c *scriptedConn) Close() error { return nil }

// recordingHandler collects everything dispatched to it.
type recordingHandler struct {
	mu          sync.Mutex
	messages    []NewMessage
	accepted    []HandoffAccepted
	cancelled   []HandoffCancelled
	typing      []TypingIndicator
	connections []ConnectionState
}

func (h *recordingHandler) HandleNewMessage(ev NewMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, ev)
}

func (h *recordingHandler) HandleHandoffAccepted(ev HandoffAccepted) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.accepted = append(h.accepted, ev)
}

func (h *recordingHandler) HandleHandoffCancelled(ev HandoffCancelled) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelled = append(h.cancelled, ev)
}

func (h *recordingHandler) HandleTyping(ev TypingIndicator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.typing = append(h.typing, ev)
}

func (h *recordingHandler) HandleConnection(state ConnectionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections = append(h.connections, state)
}

func (h *recordingHandler) snapshot() recordingHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	return recordingHandler{
		messages:    append([]NewMessage(nil), h.messages...),
		accepted:    append([]HandoffAccepted(nil), h.accepted...),
		cancelled:   append([]HandoffCancelled(nil), h.cancelled...),
		typing:      append([]TypingIndicator(nil), h.typing...),
		connections: append([]ConnectionState(nil), h.connections...),
	}
}

func fastPolicy(maxRetries int) ReconnectPolicy {
	return ReconnectPolicy{Min: time.Millisecond, Max: 5 * time.Millisecond, MaxRetries: maxRetries}
}

func newTestListener(t *testing.T, handler Handler, policy ReconnectPolicy, dial DialFunc) *Listener {
	t.Helper()
	l, err := NewListener("wss://example.com/socket", "user-1", handler, policy, nil)
	require.NoError(t, err)
	l.SetDial(dial)
	return l
}

func TestListener_IncludesUserIDInURL(t *testing.T) {
	var dialedURL string
	handler := &recordingHandler{}
	dial := func(ctx context.Context, socketURL string) (Conn, error) {
		dialedURL = socketURL
		return nil, errors.New("stop here")
	}

	l := newTestListener(t, handler, fastPolicy(0), dial)
	_ = l.Run(context.Background())

	assert.Contains(t, dialedURL, "user_id=user-1")
}

func TestListener_DispatchesEvents(t *testing.T) {
	handler := &recordingHandler{}
	conn := &scriptedConn{
		frames: [][]byte{
			[]byte(`{"type": "new_message", "conversation_id": "c1", "role": "assistant", "content": "Oi"}`),
			[]byte(`{"type": "typing_indicator", "conversation_id": "c1", "typing": true}`),
			[]byte(`{"type": "handoff_accepted", "request_id": "h1"}`),
			[]byte(`{"type": "handoff_cancelled", "request_id": "h2"}`),
			[]byte(`{"type": "some_future_event"}`),
			[]byte(`not json at all`),
		},
		err: ErrClosed,
	}

	dials := 0
	dial := func(ctx context.Context, socketURL string) (Conn, error) {
		dials++
		if dials == 1 {
			return conn, nil
		}
		return nil, errors.New("no more connections")
	}

	l := newTestListener(t, handler, fastPolicy(0), dial)
	_ = l.Run(context.Background())

	got := handler.snapshot()
	require.Len(t, got.messages, 1)
	assert.Equal(t, "Oi", got.messages[0].Content)
	require.Len(t, got.typing, 1)
	assert.True(t, got.typing[0].Typing)
	require.Len(t, got.accepted, 1)
	assert.Equal(t, "h1", got.accepted[0].RequestID)
	require.Len(t, got.cancelled, 1)
	assert.Equal(t, "h2", got.cancelled[0].RequestID)
}

func TestListener_ReconnectsAfterDisconnect(t *testing.T) {
	handler := &recordingHandler{}

	dials := 0
	dial := func(ctx context.Context, socketURL string) (Conn, error) {
		dials++
		switch dials {
		case 1:
			return &scriptedConn{
				frames: [][]byte{[]byte(`{"type": "new_message", "content": "first"}`)},
				err:    errors.New("connection reset"),
			}, nil
		case 2:
			return &scriptedConn{
				frames: [][]byte{[]byte(`{"type": "new_message", "content": "second"}`)},
				err:    ErrClosed,
			}, nil
		default:
			return nil, errors.New("backend down")
		}
	}

	l := newTestListener(t, handler, fastPolicy(1), dial)
	err := l.Run(context.Background())
	require.Error(t, err)

	got := handler.snapshot()
	require.Len(t, got.messages, 2)
	assert.Equal(t, "first", got.messages[0].Content)
	assert.Equal(t, "second", got.messages[1].Content)

	// Connected twice, then exhausted the retry budget
	connects := 0
	for _, s := range got.connections {
		if s.Connected {
			connects++
		}
	}
	assert.Equal(t, 2, connects)
	assert.True(t, got.connections[len(got.connections)-1].Terminal)
}

func TestListener_RetryBudgetResetsOnConnect(t *testing.T) {
	handler := &recordingHandler{}

	dials := 0
	dial := func(ctx context.Context, socketURL string) (Conn, error) {
		dials++
		// Fail, succeed, fail, succeed: each success resets the budget,
		// so MaxRetries=1 never exhausts until the final run of failures.
		switch dials {
		case 1, 3:
			return nil, errors.New("flaky network")
		case 2, 4:
			return &scriptedConn{err: ErrClosed}, nil
		default:
			return nil, errors.New("down for good")
		}
	}

	l := newTestListener(t, handler, fastPolicy(1), dial)
	err := l.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 6, dials) // 4 scripted + 1 retry + 1 over budget
}

func TestListener_StopsOnContextCancel(t *testing.T) {
	handler := &recordingHandler{}
	ctx, cancel := context.WithCancel(context.Background())

	dial := func(dctx context.Context, socketURL string) (Conn, error) {
		cancel()
		return nil, dctx.Err()
	}

	l := newTestListener(t, handler, fastPolicy(100), dial)
	err := l.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	got := handler.snapshot()
	require.NotEmpty(t, got.connections)
	assert.True(t, got.connections[len(got.connections)-1].Terminal)
}

func TestBackoff_DoublesAndCaps(t *testing.T) {
	policy := ReconnectPolicy{Min: 100 * time.Millisecond, Max: time.Second, MaxRetries: 10}

	caps := []time.Duration{
		100 * time.Millisecond, // attempt 0
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second, // capped from here on
		time.Second,
	}
	for attempt, limit := range caps {
		for range 20 {
			got := policy.Backoff(attempt)
			assert.Greater(t, got, time.Duration(0), "attempt %d", attempt)
			assert.LessOrEqual(t, got, limit, "attempt %d", attempt)
		}
	}
}

func TestBackoff_Jitters(t *testing.T) {
	policy := ReconnectPolicy{Min: time.Second, Max: time.Minute, MaxRetries: 5}

	seen := map[time.Duration]bool{}
	for range 50 {
		seen[policy.Backoff(3)] = true
	}
	// Full jitter over an 8s window: 50 draws landing on one value
	// would mean the jitter is broken.
	assert.Greater(t, len(seen), 1)
}
