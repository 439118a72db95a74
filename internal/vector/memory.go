package vector

import (
	"context"

	"github.com/hyperjump/bunsho/internal/models"
)

// MemoryBuilder builds brute-force in-memory indexes.
type MemoryBuilder struct{}

// NewMemoryBuilder returns the default index builder.
func NewMemoryBuilder() *MemoryBuilder {
	return &MemoryBuilder{}
}

// Name returns the index type identifier.
func (MemoryBuilder) Name() string {
	return string(IndexTypeMemory)
}

// Build copies and normalizes the vectors. No partial index is returned on error.
func (MemoryBuilder) Build(ctx context.Context, chunks []*models.Chunk, vectors [][]float32) (Index, error) {
	dim, err := validate(chunks, vectors)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &MemoryIndex{
		dimensions: dim,
		chunks:     append([]*models.Chunk(nil), chunks...),
		vectors:    make([][]float32, len(vectors)),
	}
	for i, v := range vectors {
		m.vectors[i], _ = normalized(v)
	}
	return m, nil
}

// MemoryIndex is an in-memory vector index using brute-force cosine search.
// It is never mutated after Build, so concurrent queries need no locking.
type MemoryIndex struct {
	dimensions int
	chunks     []*models.Chunk
	vectors    [][]float32 // unit length, or zero
}

// Query returns the top-k chunks by cosine similarity.
func (m *MemoryIndex) Query(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if k <= 0 || len(m.chunks) == 0 {
		return []*Result{}, nil
	}
	if err := checkQuery(query, m.dimensions); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, _ := normalized(query)
	results := make([]*Result, len(m.chunks))
	for i, vec := range m.vectors {
		results[i] = &Result{Chunk: m.chunks[i], Score: InnerProduct(q, vec)}
	}
	return rank(results, k), nil
}

// Len returns the number of indexed chunks.
func (m *MemoryIndex) Len() int {
	return len(m.chunks)
}

// Dimensions returns the vector length.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
