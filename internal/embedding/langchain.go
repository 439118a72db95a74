package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// DefaultOllamaEmbeddingModel is used when no embedding model is configured.
const DefaultOllamaEmbeddingModel = "nomic-embed-text"

// LangChainEmbedder adapts a langchaingo embeddings.Embedder. Documents and queries both
// go through EmbedDocuments so they share one embedding function.
type LangChainEmbedder struct {
	name       string
	inner      embeddings.Embedder
	dimensions int
}

// NewLangChainEmbedder wraps an existing langchaingo embedder.
func NewLangChainEmbedder(name string, inner embeddings.Embedder, dimensions int) *LangChainEmbedder {
	return &LangChainEmbedder{name: name, inner: inner, dimensions: dimensions}
}

// NewOllamaEmbedder creates an embedder backed by an Ollama server.
func NewOllamaEmbedder(serverURL, model string, dimensions int) (*LangChainEmbedder, error) {
	if model == "" {
		model = DefaultOllamaEmbeddingModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	emb, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}
	return NewLangChainEmbedder("ollama:"+model, emb, dimensions), nil
}

// Name returns the provider and model.
func (e *LangChainEmbedder) Name() string { return e.name }

// Embed embeds one text.
func (e *LangChainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%s: got %d vectors for 1 text", e.name, len(vectors))
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts with one EmbedDocuments call.
func (e *LangChainEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := e.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	return vectors, nil
}

// Dimensions returns the configured dimension (0 when left to the model).
func (e *LangChainEmbedder) Dimensions() int { return e.dimensions }

// Close is a no-op.
func (e *LangChainEmbedder) Close() error { return nil }
