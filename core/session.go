package core

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionTerminated is returned when an append is attempted on a session
// whose termination flag has been set.
var ErrSessionTerminated = errors.New("session terminated")

// Session represents a conversational container tracking an ordered
// append-only event transcript, a round counter and a termination flag,
// plus mutable key/value state. It is safe for concurrent access.
//
// Contract:
//   - Events are append-only; no event is mutated after AddEvent succeeds
//   - Once Terminate has been called, AddEvent fails with ErrSessionTerminated
//   - GetEvents returns a defensive copy to avoid external mutation
//   - ConversationHistory filters events to user/assistant/tool roles
//   - Clone performs deep copies of maps/slices for safe divergence.
type Session struct {
	ID         string                 `json:"id"`
	State      map[string]interface{} `json:"state"`
	Events     []Event                `json:"events"`
	Rounds     int                    `json:"rounds"`
	Terminated bool                   `json:"terminated"`
	Created    time.Time              `json:"created"`
	Updated    time.Time              `json:"updated"`
	Metadata   map[string]string      `json:"metadata"`
	mu         sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, State: map[string]interface{}{}, Events: []Event{}, Created: now, Updated: now, Metadata: map[string]string{}}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state updating the Updated timestamp.
func (s *Session) SetState(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now()
}

// MergeState merges the provided key/value pairs into State.
func (s *Session) MergeState(delta map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.State[k] = v
	}
	s.Updated = time.Now()
}

// AddEvent appends an event to the transcript. It fails once the session has
// been terminated; callers must treat a successful append as final.
func (s *Session) AddEvent(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Terminated {
		return ErrSessionTerminated
	}
	s.Events = append(s.Events, ev)
	s.Updated = time.Now()
	return nil
}

// BeginRound increments and returns the round counter (1-based).
func (s *Session) BeginRound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rounds++
	s.Updated = time.Now()
	return s.Rounds
}

// RoundCount returns the number of rounds begun so far.
func (s *Session) RoundCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Rounds
}

// Terminate sets the termination flag. Idempotent.
func (s *Session) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Terminated = true
	s.Updated = time.Now()
}

// IsTerminated reports whether the termination flag has been set.
func (s *Session) IsTerminated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Terminated
}

// GetEvents returns a defensive copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return events
}

// ConversationHistory returns filtered events suitable for providing
// conversational context to models (user, assistant and tool roles only).
func (s *Session) ConversationHistory() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed := map[string]bool{"user": true, "assistant": true, "tool": true}
	res := make([]Event, 0, len(s.Events))
	for _, ev := range s.Events {
		if ev.Content == nil || !allowed[ev.Content.Role] {
			continue
		}
		res = append(res, ev)
	}
	return res
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:         s.ID,
		State:      make(map[string]interface{}, len(s.State)),
		Events:     make([]Event, len(s.Events)),
		Rounds:     s.Rounds,
		Terminated: s.Terminated,
		Created:    s.Created,
		Updated:    s.Updated,
		Metadata:   make(map[string]string, len(s.Metadata)),
	}
	for k, v := range s.State {
		clone.State[k] = v
	}
	copy(clone.Events, s.Events)
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// SessionStore persists sessions and their evolving transcript / state.
type SessionStore interface {
	Create(id string) (*Session, error)
	Get(id string) (*Session, error)
	AppendEvent(sessionID string, event Event) error
	ApplyDelta(sessionID string, delta map[string]interface{}) error
	Terminate(sessionID string) error
}
