package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hyperjump/bunsho/pkg/utils"
)

// HashingEmbedder is an offline bag-of-words embedder. Each stop-word-filtered term is
// hashed into one of a fixed number of buckets; bucket weights are sublinear term
// counts and the vector is L2-normalized, so cosine similarity measures term overlap.
// Text without any term maps to the zero vector.
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns a hashing embedder with the given number of buckets.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// Name returns "hashing".
func (e *HashingEmbedder) Name() string { return "hashing" }

// Embed returns the hashed term vector of text.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[uint32]int)
	for _, term := range utils.Terms(text) {
		counts[bucket(term, e.dimensions)]++
	}
	vec := make([]float32, e.dimensions)
	for b, n := range counts {
		vec[b] = float32(1 + math.Log(float64(n)))
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e.Embed, texts)
}

// Dimensions returns the embedding dimension.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *HashingEmbedder) Close() error {
	return nil
}

func bucket(term string, n int) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return h.Sum32() % uint32(n)
}
