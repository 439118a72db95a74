package storage

import (
	"context"
	"sync"

	"github.com/hyperjump/bunsho/internal/models"
)

// MemoryTranscript keeps transcripts in process memory.
type MemoryTranscript struct {
	mu    sync.RWMutex
	turns map[string][]models.Turn
}

// NewMemoryTranscript returns an empty in-memory store.
func NewMemoryTranscript() *MemoryTranscript {
	return &MemoryTranscript{turns: make(map[string][]models.Turn)}
}

// Append adds turns under one lock.
func (m *MemoryTranscript) Append(ctx context.Context, sessionID string, turns ...models.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[sessionID] = append(m.turns[sessionID], turns...)
	return nil
}

// List returns a copy of the session's turns.
func (m *MemoryTranscript) List(ctx context.Context, sessionID string) ([]models.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Turn{}, m.turns[sessionID]...), nil
}

// Reset drops the session's turns.
func (m *MemoryTranscript) Reset(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, sessionID)
	return nil
}

// Close is a no-op.
func (m *MemoryTranscript) Close() error {
	return nil
}
