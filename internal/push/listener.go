// ABOUTME: Push channel listener: websocket read loop with reconnect policy
// ABOUTME: Dispatches decoded events through the typed Handler interface

package push

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/coder/websocket"
)

// Handler receives decoded push events and connection state changes.
// All methods are called from the listener goroutine, one at a time.
type Handler interface {
	HandleNewMessage(ev NewMessage)
	HandleHandoffAccepted(ev HandoffAccepted)
	HandleHandoffCancelled(ev HandoffCancelled)
	HandleTyping(ev TypingIndicator)
	HandleConnection(state ConnectionState)
}

// ConnectionState reports the socket lifecycle to the handler.
// Terminal means the listener gave up (retry budget exhausted or the
// context was cancelled) and no further events will arrive.
type ConnectionState struct {
	Connected bool
	Terminal  bool
	LastError error
}

// ReconnectPolicy bounds the reconnect loop: exponential backoff with
// full jitter between Min and Max, giving up after MaxRetries
// consecutive failed attempts.
type ReconnectPolicy struct {
	Min        time.Duration
	Max        time.Duration
	MaxRetries int
}

// Backoff returns the wait before reconnect attempt n (0-based).
// The delay doubles from Min up to Max, with full jitter: the actual
// wait is uniform in (0, delay] so simultaneous clients spread out.
func (p ReconnectPolicy) Backoff(attempt int) time.Duration {
	delay := p.Min
	for i := 0; i < attempt && delay < p.Max; i++ {
		delay *= 2
	}
	if delay > p.Max {
		delay = p.Max
	}
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(delay))) + 1
}

// Conn is the minimal connection surface the listener reads from.
// The production implementation wraps a websocket connection; tests
// substitute scripted connections.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// DialFunc establishes a Conn to the given URL.
type DialFunc func(ctx context.Context, socketURL string) (Conn, error)

// wsConn adapts *websocket.Conn to the Conn interface. Orderly peer
// shutdowns are normalized to ErrClosed so the reconnect loop does not
// log close-status noise as transport errors.
type wsConn struct {
	conn *websocket.Conn
}

func (w wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, ErrClosed
		}
	}
	return data, err
}

func (w wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}

// dialWebsocket is the default DialFunc.
func dialWebsocket(ctx context.Context, socketURL string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, socketURL, nil)
	if err != nil {
		return nil, err
	}
	return wsConn{conn: conn}, nil
}

// Listener maintains one push connection per session, reconnecting with
// bounded exponential backoff when the socket drops.
type Listener struct {
	socketURL string
	handler   Handler
	policy    ReconnectPolicy
	dial      DialFunc
	logger    *slog.Logger
}

// NewListener creates a listener for the given socket URL and user.
// The user id travels in the connection URL query, per the backend's
// push channel contract. Pass nil logger for default.
func NewListener(socketURL, userID string, handler Handler, policy ReconnectPolicy, logger *slog.Logger) (*Listener, error) {
	u, err := url.Parse(socketURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()

	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		socketURL: u.String(),
		handler:   handler,
		policy:    policy,
		dial:      dialWebsocket,
		logger:    logger.With("component", "push"),
	}, nil
}

// SetDial overrides the connection factory. Intended for tests.
func (l *Listener) SetDial(dial DialFunc) {
	l.dial = dial
}

// Run connects and consumes push events until ctx is cancelled or the
// retry budget is exhausted. It blocks; run it in its own goroutine.
func (l *Listener) Run(ctx context.Context) error {
	attempt := 0

	for {
		conn, err := l.dial(ctx, l.socketURL)
		if err != nil {
			if ctx.Err() != nil {
				l.handler.HandleConnection(ConnectionState{Terminal: true, LastError: ctx.Err()})
				return ctx.Err()
			}
			l.handler.HandleConnection(ConnectionState{Connected: false, LastError: err})

			attempt++
			if attempt > l.policy.MaxRetries {
				l.logger.Error("push channel retry budget exhausted",
					"attempts", attempt,
					"error", err)
				l.handler.HandleConnection(ConnectionState{Terminal: true, LastError: err})
				return err
			}

			wait := l.policy.Backoff(attempt - 1)
			l.logger.Debug("push channel reconnect scheduled",
				"attempt", attempt,
				"wait", wait)

			select {
			case <-ctx.Done():
				l.handler.HandleConnection(ConnectionState{Terminal: true, LastError: ctx.Err()})
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		// Connected: reset the retry budget
		attempt = 0
		l.handler.HandleConnection(ConnectionState{Connected: true})
		l.logger.Debug("push channel connected")

		readErr := l.readLoop(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			l.handler.HandleConnection(ConnectionState{Terminal: true, LastError: ctx.Err()})
			return ctx.Err()
		}

		l.logger.Debug("push channel disconnected", "error", readErr)
		l.handler.HandleConnection(ConnectionState{Connected: false, LastError: readErr})
	}
}

// readLoop consumes frames until the connection fails or ctx is cancelled.
func (l *Listener) readLoop(ctx context.Context, conn Conn) error {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		ev, err := ParseEvent(data)
		if err != nil {
			// A malformed frame is logged and skipped; it does not
			// tear down the connection.
			l.logger.Warn("dropping malformed push frame", "error", err)
			continue
		}
		l.dispatch(ev)
	}
}

// dispatch routes one event to its handler method.
func (l *Listener) dispatch(ev Event) {
	switch ev := ev.(type) {
	case NewMessage:
		l.handler.HandleNewMessage(ev)
	case HandoffAccepted:
		l.handler.HandleHandoffAccepted(ev)
	case HandoffCancelled:
		l.handler.HandleHandoffCancelled(ev)
	case TypingIndicator:
		l.handler.HandleTyping(ev)
	case Unknown:
		l.logger.Debug("ignoring unknown push event", "type", ev.Type)
	}
}

// ErrClosed signals a connection closed by the peer without a transport
// error. Conn implementations return it for orderly shutdowns; the
// listener treats it like any other disconnect and reconnects.
var ErrClosed = errors.New("connection closed")
