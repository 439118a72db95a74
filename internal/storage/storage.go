// Package storage persists session transcripts.
package storage

import (
	"context"

	"github.com/hyperjump/bunsho/internal/models"
)

// Transcript stores the ordered conversation turns of each session. Transcripts are a
// display log only.
type Transcript interface {
	// Append adds turns to the end of the session's transcript atomically: either all
	// of them are stored or none is.
	Append(ctx context.Context, sessionID string, turns ...models.Turn) error
	// List returns the session's turns in the order they were appended.
	List(ctx context.Context, sessionID string) ([]models.Turn, error)
	// Reset removes every turn of the session.
	Reset(ctx context.Context, sessionID string) error
	Close() error
}

// New returns a SQLite transcript store at path, or an in-memory store when path is empty.
func New(path string) (Transcript, error) {
	if path == "" {
		return NewMemoryTranscript(), nil
	}
	return NewSQLiteTranscript(path)
}
