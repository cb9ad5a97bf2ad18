// ABOUTME: SSE session registry for the MCP server.
// ABOUTME: Each connected client gets a session with its own outbound event queue.

package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when sending to a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// sessionBuffer is how many outbound events a session can queue before
// sends start blocking.
const sessionBuffer = 16

// Event is one SSE frame queued for a session.
type Event struct {
	Name string
	Data []byte
}

// Session is one connected SSE client.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	closed bool
	events chan Event
	done   chan struct{}
}

func newSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		events:    make(chan Event, sessionBuffer),
		done:      make(chan struct{}),
	}
}

// Send queues an event for delivery to the client. It fails once the
// session is closed or the context is cancelled.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is the outbound queue drained by the SSE handler.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// close marks the session closed. Idempotent.
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.done)
	return true
}

// SessionRegistry tracks active SSE sessions. Safe for concurrent use.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(logger *slog.Logger) *SessionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Open creates and registers a new session.
func (r *SessionRegistry) Open() *Session {
	sess := newSession()
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	r.logger.Info("session opened", "session_id", sess.ID)
	return sess
}

// Get looks up a session by its exact id. There is no fallback: an
// unknown id is the caller's error even if only one session exists.
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close removes and closes a session. Returns false if the id was
// unknown or already closed.
func (r *SessionRegistry) Close(id string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	closed := sess.close()
	if closed {
		r.logger.Info("session closed", "session_id", id)
	}
	return closed
}

// Broadcast queues an event on every open session. Sessions that cannot
// accept the event immediately are skipped rather than blocking the caller.
func (r *SessionRegistry) Broadcast(ev Event) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		select {
		case s.events <- ev:
		case <-s.done:
		default:
			r.logger.Warn("dropping broadcast for slow session", "session_id", s.ID, "event", ev.Name)
		}
	}
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every session and empties the registry.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for id, s := range sessions {
		if s.close() {
			r.logger.Info("session closed", "session_id", id)
		}
	}
}
