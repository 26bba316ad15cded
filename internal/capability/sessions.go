package capability

import (
	"context"
	"sync"
)

// Session describes one entry in the host's session registry.
type Session struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// SessionRegistry is the host-owned, read-only listing of live sessions.
// The set may change between calls.
type SessionRegistry interface {
	Sessions(ctx context.Context) []Session
}

// SessionSink is implemented by registries that accept session lifecycle
// pushes from the host.
type SessionSink interface {
	SetSessions(sessions []Session)
	Upsert(session Session)
	Remove(id string)
}

// StaticRegistry is a mutable in-process SessionRegistry for tests and for
// hosts that push session lifecycle events into the extension.
type StaticRegistry struct {
	mu       sync.RWMutex
	sessions []Session
}

// NewStaticRegistry constructs a registry seeded with the supplied sessions.
func NewStaticRegistry(sessions ...Session) *StaticRegistry {
	reg := &StaticRegistry{}
	reg.SetSessions(sessions)
	return reg
}

// Sessions returns a snapshot of the current session list.
func (r *StaticRegistry) Sessions(_ context.Context) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// SetSessions replaces the registry contents.
func (r *StaticRegistry) SetSessions(sessions []Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = make([]Session, len(sessions))
	copy(r.sessions, sessions)
}

// Upsert adds a session or replaces the entry with the same ID.
func (r *StaticRegistry) Upsert(session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.sessions {
		if existing.ID == session.ID {
			r.sessions[i] = session
			return
		}
	}
	r.sessions = append(r.sessions, session)
}

// Remove drops the session with the supplied ID, if present.
func (r *StaticRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.sessions {
		if existing.ID == id {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return
		}
	}
}
