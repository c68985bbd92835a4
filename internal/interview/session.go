package interview

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Sujithrt/interview-prep/internal/domain"
)

var (
	// ErrBusy is returned when an event arrives while a pipeline run is in
	// flight. The event is dropped.
	ErrBusy = errors.New("session busy")
	// ErrPhase is returned when the session's phase does not accept the event.
	ErrPhase = errors.New("event not valid in current phase")
)

// Emitter delivers outbound events to the session's client. Implementations
// must return an error rather than block once the client is gone.
type Emitter interface {
	Status(message string) error
	SetupError(message string) error
	Audio(data []byte) error
	Report(text string) error
	TurnError(stage, message string) error
}

// Session is the per-connection interview state. history and voice are only
// changed by the run that holds the busy flag.
type Session struct {
	id        string
	emitter   Emitter
	startedAt time.Time

	mu      sync.Mutex
	phase   domain.Phase
	busy    bool
	voice   string
	history []domain.Message
}

// NewSession creates an Uninitialized session.
func NewSession(id string, emitter Emitter) *Session {
	return &Session{id: id, emitter: emitter, startedAt: time.Now()}
}

// ID returns the connection identifier.
func (s *Session) ID() string { return s.id }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Busy reports whether a pipeline run is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Voice returns the interviewer voice chosen at setup.
func (s *Session) Voice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// History returns a copy of the conversation so far.
func (s *Session) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneMessages(s.history)
}

// run is the state a pipeline run works on while it holds the guard.
type run struct {
	history []domain.Message
	voice   string
}

// acquire takes the single-flight guard if the session is idle and in one
// of the allowed phases, then moves it to next.
func (s *Session) acquire(next domain.Phase, allowed ...domain.Phase) (run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return run{}, ErrBusy
	}
	if !slices.Contains(allowed, s.phase) {
		return run{}, fmt.Errorf("%w: %s", ErrPhase, s.phase)
	}
	s.busy = true
	s.phase = next
	return run{history: domain.CloneMessages(s.history), voice: s.voice}, nil
}

// commit stores the result of a successful run and releases the guard.
func (s *Session) commit(phase domain.Phase, history []domain.Message, voice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history
	if voice != "" && s.voice == "" {
		s.voice = voice
	}
	s.phase = phase
	s.busy = false
}

// release drops the guard without touching history.
func (s *Session) release(phase domain.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.busy = false
}
