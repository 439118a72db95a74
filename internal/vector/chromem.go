package vector

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/philippgille/chromem-go"

	"github.com/hyperjump/bunsho/internal/models"
)

var collectionSeq atomic.Uint64

// ChromemBuilder builds indexes backed by an in-memory chromem-go collection.
type ChromemBuilder struct{}

// NewChromemBuilder returns a builder for chromem-go indexes.
func NewChromemBuilder() *ChromemBuilder {
	return &ChromemBuilder{}
}

// Name returns the index type identifier.
func (ChromemBuilder) Name() string {
	return string(IndexTypeChromem)
}

// Build adds every chunk with a non-zero vector to a fresh collection. chromem cannot
// normalize zero vectors, so those chunks are kept aside and always score 0.
func (ChromemBuilder) Build(ctx context.Context, chunks []*models.Chunk, vectors [][]float32) (Index, error) {
	dim, err := validate(chunks, vectors)
	if err != nil {
		return nil, err
	}
	db := chromem.NewDB()
	name := "chunks-" + strconv.FormatUint(collectionSeq.Add(1), 10)
	collection, err := db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	idx := &ChromemIndex{
		db:         db,
		collection: collection,
		dimensions: dim,
		chunks:     make(map[string]*models.Chunk, len(chunks)),
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for i, c := range chunks {
		vec, ok := normalized(vectors[i])
		if !ok {
			idx.zero = append(idx.zero, c)
			continue
		}
		id := strconv.Itoa(i)
		idx.chunks[id] = c
		docs = append(docs, chromem.Document{ID: id, Content: c.Text, Embedding: vec})
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("add documents: %w", err)
		}
	}
	return idx, nil
}

// ChromemIndex answers queries from a chromem-go collection.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimensions int
	chunks     map[string]*models.Chunk
	zero       []*models.Chunk
}

// Query fetches every stored chunk ranked by chromem, merges the zero-vector chunks, and
// re-ranks so ties break by chunk order exactly as MemoryIndex does.
func (c *ChromemIndex) Query(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if k <= 0 || c.Len() == 0 {
		return []*Result{}, nil
	}
	if err := checkQuery(query, c.dimensions); err != nil {
		return nil, err
	}
	if c.collection == nil {
		return nil, fmt.Errorf("chromem query: index is closed")
	}
	q, ok := normalized(query)
	results := make([]*Result, 0, c.Len())
	if !ok {
		for _, ch := range c.chunks {
			results = append(results, &Result{Chunk: ch})
		}
	} else if n := c.collection.Count(); n > 0 {
		hits, err := c.collection.QueryWithOptions(ctx, chromem.QueryOptions{
			QueryEmbedding: q,
			NResults:       n,
		})
		if err != nil {
			return nil, fmt.Errorf("chromem query: %w", err)
		}
		for _, h := range hits {
			ch, found := c.chunks[h.ID]
			if !found {
				return nil, fmt.Errorf("chromem query: unknown document %q", h.ID)
			}
			results = append(results, &Result{Chunk: ch, Score: float64(h.Similarity)})
		}
	}
	for _, ch := range c.zero {
		results = append(results, &Result{Chunk: ch})
	}
	return rank(results, k), nil
}

// Len returns the number of indexed chunks.
func (c *ChromemIndex) Len() int {
	return len(c.chunks) + len(c.zero)
}

// Dimensions returns the vector length.
func (c *ChromemIndex) Dimensions() int {
	return c.dimensions
}

// Close drops the collection.
func (c *ChromemIndex) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.DeleteCollection(c.collection.Name)
	c.db, c.collection = nil, nil
	return err
}
