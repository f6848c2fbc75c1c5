// Package repository provides the storage layer of the bot: conversation sessions,
// locally kept assistant threads and the booking outbox.
package repository

import (
	"context"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"sync"
)

// SessionsState keeps conversation sessions in process memory.
// Nothing is persisted: a restart starts every conversation from scratch.
type SessionsState struct {
	sessions map[string]models.Session // Sessions by conversation ID
	mu       *sync.RWMutex             // Protects sessions from concurrent access
}

// NewSessionsState creates an empty in-memory session store.
func NewSessionsState() *SessionsState {
	return &SessionsState{
		sessions: make(map[string]models.Session),
		mu:       &sync.RWMutex{},
	}
}

// Get returns a copy of the session for conversationID.
// An unknown ID yields a fresh empty session that is not stored until Put.
// Arguments:
//   - conversationID: channel-qualified conversation identifier (e.g. "tg:42").
//
// Returns the session and a nil error; the in-memory store never fails.
func (m *SessionsState) Get(_ context.Context, conversationID string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[conversationID]
	if !ok {
		return models.Session{}, nil
	}
	return session.Clone(), nil
}

// Put stores a copy of session under conversationID, replacing the previous one.
func (m *SessionsState) Put(_ context.Context, conversationID string, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[conversationID] = session.Clone()
	return nil
}

// Len returns the number of stored sessions.
func (m *SessionsState) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
