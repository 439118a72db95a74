// Package vector provides build-once vector indexes with cosine top-k search.
package vector

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/bunsho/internal/models"
)

// Index is an immutable similarity index over one document's chunks.
type Index interface {
	// Query returns up to k chunks by descending cosine similarity. Equal scores keep
	// chunk order. k <= 0 or an empty index yields an empty result.
	Query(ctx context.Context, query []float32, k int) ([]*Result, error)
	Len() int
	// Dimensions returns the vector length, or 0 for an empty index.
	Dimensions() int
	Close() error
}

// Builder creates an Index from chunks and their vectors (chunk i pairs with vector i).
type Builder interface {
	Build(ctx context.Context, chunks []*models.Chunk, vectors [][]float32) (Index, error)
	Name() string
}

// Result is a single vector search hit.
type Result struct {
	Chunk *models.Chunk
	Score float64 // cosine similarity in [-1, 1]
}

// validate checks that chunks and vectors pair up and share one dimension, which it returns.
func validate(chunks []*models.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%w: %d chunks but %d vectors", models.ErrDimensionMismatch, len(chunks), len(vectors))
	}
	if len(vectors) == 0 {
		return 0, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("%w: empty vector for chunk %d", models.ErrDimensionMismatch, 0)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				models.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}

func checkQuery(query []float32, dim int) error {
	if len(query) != dim {
		return fmt.Errorf("%w: query has %d dimensions, index has %d", models.ErrDimensionMismatch, len(query), dim)
	}
	return nil
}

// rank sorts results by descending score, breaking ties by chunk sequence, and keeps k.
func rank(results []*Result, k int) []*Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Seq < results[j].Chunk.Seq
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}
