package ws

import "sync"

// Conn is the subset of a websocket connection the outbound path
// writes to. Satisfied by *websocket.Conn; tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

const sendBuffer = 64

// Session is one live client connection, bound to an authenticated
// username. A session may join any number of rooms; the hub tracks
// which.
type Session struct {
	ID       string
	Username string

	conn Conn

	mu     sync.Mutex
	send   chan Envelope
	closed bool
}

// NewSession wraps a connection for the hub.
func NewSession(id, username string, conn Conn) *Session {
	return &Session{
		ID:       id,
		Username: username,
		conn:     conn,
		send:     make(chan Envelope, sendBuffer),
	}
}

// Send queues an event for delivery to this session.
func (s *Session) Send(event string, data any) {
	s.queue(NewEnvelope(event, data))
}

// queue enqueues an envelope, best effort: events for a closed session
// or one whose outbound buffer is full are dropped, a slow client must
// not stall a broadcast.
func (s *Session) queue(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- env:
	default:
	}
}

// WritePump drains queued envelopes to the connection until the queue
// is closed or a write fails. Run in its own goroutine; it is the only
// writer on the connection.
func (s *Session) WritePump() {
	defer s.conn.Close()
	for env := range s.send {
		if err := s.conn.WriteJSON(env); err != nil {
			return
		}
	}
}

// closeSend shuts the outbound queue, letting WritePump finish.
func (s *Session) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}
