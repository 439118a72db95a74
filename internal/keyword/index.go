// Package keyword provides keyword (BM25) scoring over one document's chunks.
package keyword

import (
	"context"

	"github.com/hyperjump/bunsho/internal/models"
)

// KeywordIndex defines keyword search over indexed chunks.
type KeywordIndex interface {
	IndexChunks(ctx context.Context, chunks []*models.Chunk) error
	Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error)
	// DocCount returns the total number of chunks in the index.
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit. ID is the chunk ID.
type KeywordResult struct {
	ID    string
	Score float64
}
