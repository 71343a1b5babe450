// Package chat holds the live connection state of the service: one Session
// per connected client and the Hub that maps room names to their current
// member sessions.
package chat

import (
	"io"
	"sync"
)

// State tracks a session's progress through the protocol handshake.
type State int

const (
	// StateNew is a freshly accepted connection with no identity.
	StateNew State = iota
	// StateAuthenticated has a username but no room.
	StateAuthenticated
	// StateJoined has a username and a current room.
	StateJoined
)

// sendQueueSize bounds the per-session outbound queue. A client that cannot
// drain this many frames is treated as dead and dropped.
const sendQueueSize = 256

// Session is the server-side state for one live client connection. The
// transport is owned exclusively by the session: the dispatcher goroutine
// reads from it, the write loop writes to it.
type Session struct {
	conn   io.ReadWriteCloser
	remote string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	username string
	room     string
}

// NewSession wraps an accepted transport connection.
func NewSession(conn io.ReadWriteCloser, remote string) *Session {
	return &Session{
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Remote returns the peer address for logging.
func (s *Session) Remote() string { return s.remote }

// State derives the protocol state from the session's identity and room.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.username == "":
		return StateNew
	case s.room == "":
		return StateAuthenticated
	default:
		return StateJoined
	}
}

// Username returns the authenticated identity, or "" for a new session.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Authenticate marks the session as logged in under username.
func (s *Session) Authenticate(username string) {
	s.mu.Lock()
	s.username = username
	s.mu.Unlock()
}

// Room returns the session's current room, or "" before any join.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) setRoom(room string) {
	s.mu.Lock()
	s.room = room
	s.mu.Unlock()
}

// Enqueue queues one encoded frame for delivery. It never blocks: a full
// queue or a closed session reports false so the caller can drop the member.
func (s *Session) Enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// WriteLoop drains the send queue onto the transport until the session
// closes or a write fails. Run it in its own goroutine.
func (s *Session) WriteLoop() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.send:
			if _, err := s.conn.Write(frame); err != nil {
				s.Close()
				return
			}
		}
	}
}

// Close terminates the session and its transport. Safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// Done is closed when the session has been terminated.
func (s *Session) Done() <-chan struct{} { return s.done }
