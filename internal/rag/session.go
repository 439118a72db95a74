package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/bunsho/internal/indexer"
	"github.com/hyperjump/bunsho/internal/models"
	"github.com/hyperjump/bunsho/internal/storage"
)

// Session holds the current document index and transcript of one user. Analyze and Ask
// calls on the same session are serialized.
type Session struct {
	id         string
	pipeline   *Pipeline
	transcript storage.Transcript
	createdAt  time.Time

	mu     sync.Mutex
	handle *indexer.Handle
	closed bool
}

// NewSession creates an empty session. Nothing is analyzed yet.
func NewSession(id string, pipeline *Pipeline, transcript storage.Transcript) *Session {
	return &Session{
		id:         id,
		pipeline:   pipeline,
		transcript: transcript,
		createdAt:  time.Now(),
	}
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// DocumentInfo summarizes the analyzed document.
type DocumentInfo struct {
	Name       string    `json:"name"`
	ID         string    `json:"id"`
	Chunks     int       `json:"chunks"`
	Dimensions int       `json:"dimensions"`
	Embedder   string    `json:"embedder"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// SessionInfo describes a session.
type SessionInfo struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Document  *DocumentInfo `json:"document,omitempty"`
}

var errClosed = errors.New("session is closed")

// Analyze indexes doc and makes it the session's document. On failure the previous
// document stays usable and the transcript is untouched. On success the old index is
// closed and the transcript is cleared.
func (s *Session) Analyze(ctx context.Context, doc *models.Document) (*DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}

	h, err := s.pipeline.Index(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.transcript.Reset(ctx, s.id); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("failed to reset transcript: %w", err)
	}
	old := s.handle
	s.handle = h
	if old != nil {
		_ = old.Close()
	}
	return documentInfo(h), nil
}

// Ask answers question from the current document. Both turns of the exchange are
// recorded together, and only when an answer was produced.
func (s *Session) Ask(ctx context.Context, question string) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}
	if s.handle == nil {
		return nil, models.ErrNotAnalyzed
	}

	asked := time.Now()
	answer, err := s.pipeline.Answer(ctx, s.handle, question)
	if err != nil {
		return nil, err
	}
	err = s.transcript.Append(ctx, s.id,
		models.Turn{Role: models.RoleUser, Content: answer.Question, CreatedAt: asked},
		models.Turn{Role: models.RoleAssistant, Content: answer.Text, CreatedAt: time.Now()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record transcript: %w", err)
	}
	return answer, nil
}

// Transcript returns the turns recorded since the last successful analysis.
func (s *Session) Transcript(ctx context.Context) ([]models.Turn, error) {
	return s.transcript.List(ctx, s.id)
}

// Info describes the session and its current document, if any.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := SessionInfo{ID: s.id, CreatedAt: s.createdAt}
	if s.handle != nil {
		info.Document = documentInfo(s.handle)
	}
	return info
}

// Close releases the current index and clears the transcript. A closed session rejects
// further calls.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.handle != nil {
		errs = append(errs, s.handle.Close())
		s.handle = nil
	}
	errs = append(errs, s.transcript.Reset(context.Background(), s.id))
	return errors.Join(errs...)
}

func documentInfo(h *indexer.Handle) *DocumentInfo {
	return &DocumentInfo{
		Name:       h.DocumentName,
		ID:         h.DocumentID,
		Chunks:     len(h.Chunks),
		Dimensions: h.Vectors.Dimensions(),
		Embedder:   h.Embedder,
		AnalyzedAt: h.BuiltAt,
	}
}
