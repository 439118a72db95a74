// Package embedding maps text to fixed-dimension vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/bunsho/internal/models"
)

// Embedder produces vector embeddings for text. Implementations must be deterministic:
// the same text always maps to the same vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the vector length, or 0 when the backend decides it.
	Dimensions() int
	Close() error
}

// Named is implemented by embedders that report a provider/model name.
type Named interface {
	Name() string
}

// NameOf returns e's name, falling back to its Go type.
func NameOf(e Embedder) string {
	if n, ok := e.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", e)
}

// EmbedDocuments embeds chunk texts in one batch. Any backend failure is reported as
// models.ErrEmbeddingBackendUnavailable wrapping the cause.
func EmbedDocuments(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	vectors, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, unavailable(err)
	}
	return vectors, nil
}

// EmbedQuery embeds a question with the same function used for documents.
func EmbedQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vector, err := e.Embed(ctx, text)
	if err != nil {
		return nil, unavailable(err)
	}
	return vector, nil
}

func unavailable(err error) error {
	if errors.Is(err, models.ErrEmbeddingBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrEmbeddingBackendUnavailable, err)
}

// embedEach implements EmbedBatch on top of Embed for backends without a batch call.
func embedEach(ctx context.Context, embed func(context.Context, string) ([]float32, error), texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
