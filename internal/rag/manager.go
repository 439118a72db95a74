package rag

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/hyperjump/bunsho/internal/storage"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live sessions of a server process.
type Manager struct {
	pipeline   *Pipeline
	transcript storage.Transcript

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session registry sharing pipeline and transcript.
func NewManager(pipeline *Pipeline, transcript storage.Transcript) *Manager {
	return &Manager{
		pipeline:   pipeline,
		transcript: transcript,
		sessions:   make(map[string]*Session),
	}
}

// Pipeline returns the shared pipeline.
func (m *Manager) Pipeline() *Pipeline {
	return m.pipeline
}

// Create starts a new session with a random ID.
func (m *Manager) Create() *Session {
	s := NewSession(uuid.NewString(), m.pipeline, m.transcript)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return s.Close()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close closes every session.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
