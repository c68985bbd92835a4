// Package transport serves the interview websocket protocol.
package transport

import (
	"log/slog"
	"sync"

	"github.com/Sujithrt/interview-prep/internal/interview"
)

// SessionManager tracks the sessions of live connections.
type SessionManager struct {
	mu     sync.RWMutex
	active map[string]*interview.Session
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		active: make(map[string]*interview.Session),
	}
}

// Register adds a session. An existing session with the same id is replaced.
func (m *SessionManager) Register(s *interview.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[s.ID()] = s
	slog.Info("Interview session registered", "session_id", s.ID())
}

// Unregister removes s if it is still the registered session for its id.
func (m *SessionManager) Unregister(s *interview.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.active[s.ID()]; ok && current == s {
		delete(m.active, s.ID())
		slog.Info("Interview session unregistered", "session_id", s.ID(), "phase", s.Phase())
	}
}

// Count returns the number of registered sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}
