// Package indexer splits extracted text into chunks and builds per-document index handles.
package indexer

import (
	"fmt"

	"github.com/hyperjump/bunsho/internal/fileid"
	"github.com/hyperjump/bunsho/internal/models"
)

// Chunker splits text into overlapping character windows.
type Chunker struct {
	maxChunkSize int
	overlapSize  int
}

// NewChunker creates a chunker producing windows of at most maxChunkSize characters that
// share overlapSize characters with their predecessor. It fails with
// models.ErrInvalidChunkConfig when the window would never advance.
func NewChunker(maxChunkSize, overlapSize int) (*Chunker, error) {
	switch {
	case maxChunkSize <= 0:
		return nil, fmt.Errorf("%w: max_chunk_size must be positive, got %d", models.ErrInvalidChunkConfig, maxChunkSize)
	case overlapSize < 0:
		return nil, fmt.Errorf("%w: overlap_size must not be negative, got %d", models.ErrInvalidChunkConfig, overlapSize)
	case overlapSize >= maxChunkSize:
		return nil, fmt.Errorf("%w: overlap_size (%d) must be smaller than max_chunk_size (%d)",
			models.ErrInvalidChunkConfig, overlapSize, maxChunkSize)
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlapSize: overlapSize}, nil
}

// MaxChunkSize returns the window size in characters.
func (c *Chunker) MaxChunkSize() int { return c.maxChunkSize }

// OverlapSize returns the number of characters shared by consecutive windows.
func (c *Chunker) OverlapSize() int { return c.overlapSize }

// Chunk splits text into ordered chunks covering it without gaps. Window i starts at
// i*(max-overlap); the last window is cut at the end of the text. Empty text yields no
// chunks. Chunk IDs derive from docID, and source is copied to every chunk as its label.
func (c *Chunker) Chunk(docID, source, text string) []*models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.maxChunkSize - c.overlapSize
	chunks := make([]*models.Chunk, 0, len(runes)/step+1)
	for start := 0; ; start += step {
		end := start + c.maxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		seq := len(chunks)
		chunks = append(chunks, &models.Chunk{
			ID:     fileid.ChunkID(docID, seq),
			Seq:    seq,
			Text:   string(runes[start:end]),
			Source: source,
			Start:  start,
			End:    end,
		})
		if end >= len(runes) {
			break
		}
	}
	return chunks
}
