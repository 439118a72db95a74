package search

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/bunsho/internal/config"
	"github.com/hyperjump/bunsho/internal/embedding"
	"github.com/hyperjump/bunsho/internal/indexer"
	"github.com/hyperjump/bunsho/internal/keyword"
	"github.com/hyperjump/bunsho/internal/models"
	"github.com/hyperjump/bunsho/internal/vector"
)

// Retrieval modes.
const (
	ModeVector = "vector"
	ModeHybrid = "hybrid"
)

// Retriever returns the top-k chunks of a Handle for a question.
type Retriever struct {
	embedder       embedding.Embedder
	topK           int
	mode           string
	keywordWeight  float64
	semanticWeight float64
	logger         *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets a logger for retrieval scores.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRetriever creates a retriever. embedder must be the one that built the handles it
// will be used with.
func NewRetriever(embedder embedding.Embedder, cfg config.RetrievalConfig, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:       embedder,
		topK:           cfg.TopK,
		mode:           cfg.Mode,
		keywordWeight:  cfg.KeywordWeight,
		semanticWeight: cfg.SemanticWeight,
		logger:         zap.NewNop(),
	}
	if r.mode == "" {
		r.mode = ModeVector
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TopK returns the number of chunks retrieved per question.
func (r *Retriever) TopK() int {
	return r.topK
}

// Mode returns the retrieval mode.
func (r *Retriever) Mode() string {
	return r.mode
}

// Retrieve embeds question and returns at most TopK chunks, best first, ranked from 1.
// Hybrid mode needs a handle with a keyword index; otherwise cosine similarity alone ranks.
func (r *Retriever) Retrieve(ctx context.Context, h *indexer.Handle, question string) ([]*models.RetrievedChunk, error) {
	if name := embedding.NameOf(r.embedder); h.Embedder != name {
		return nil, fmt.Errorf("%w: index built with %s embeddings, query uses %s",
			models.ErrDimensionMismatch, h.Embedder, name)
	}
	if r.topK <= 0 {
		return []*models.RetrievedChunk{}, nil
	}
	var (
		results []*models.RetrievedChunk
		err     error
	)
	if r.mode == ModeHybrid && h.Keywords != nil {
		results, err = r.hybrid(ctx, h, question)
	} else {
		results, err = r.semantic(ctx, h, question)
	}
	if err != nil {
		return nil, err
	}
	for i, rc := range results {
		rc.Rank = i + 1
		r.logger.Debug("retrieved chunk",
			zap.Int("rank", rc.Rank),
			zap.Int("seq", rc.Chunk.Seq),
			zap.Float64("score", rc.Score))
	}
	return results, nil
}

func (r *Retriever) semantic(ctx context.Context, h *indexer.Handle, question string) ([]*models.RetrievedChunk, error) {
	q, err := embedding.EmbedQuery(ctx, r.embedder, question)
	if err != nil {
		return nil, err
	}
	hits, err := h.Vectors.Query(ctx, q, r.topK)
	if err != nil {
		return nil, err
	}
	out := make([]*models.RetrievedChunk, len(hits))
	for i, hit := range hits {
		out[i] = &models.RetrievedChunk{Chunk: hit.Chunk, Score: hit.Score}
	}
	return out, nil
}

// hybrid embeds the question, then scores every chunk by cosine similarity and keyword
// match concurrently, fuses the normalized scores and keeps the top k. Equal fused scores
// keep chunk order.
func (r *Retriever) hybrid(ctx context.Context, h *indexer.Handle, question string) ([]*models.RetrievedChunk, error) {
	q, err := embedding.EmbedQuery(ctx, r.embedder, question)
	if err != nil {
		return nil, err
	}

	var (
		keywordResults  []*keyword.KeywordResult
		semanticResults []*vector.Result
		errChan         = make(chan error, 2)
		wg              sync.WaitGroup
		all             = len(h.Chunks)
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results, err := h.Keywords.Search(ctx, question, all)
		if err != nil {
			errChan <- fmt.Errorf("keyword search failed: %w", err)
			return
		}
		keywordResults = results
	}()
	go func() {
		defer wg.Done()
		results, err := h.Vectors.Query(ctx, q, all)
		if err != nil {
			errChan <- err
			return
		}
		semanticResults = results
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	fused := Fuse(
		NormalizeKeywordScores(keywordResults),
		NormalizeSemanticScores(semanticResults),
		r.keywordWeight, r.semanticWeight,
	)
	out := make([]*models.RetrievedChunk, 0, len(fused))
	for _, f := range fused {
		c, ok := h.Chunk(f.ChunkID)
		if !ok {
			return nil, fmt.Errorf("keyword index returned unknown chunk %q", f.ChunkID)
		}
		out = append(out, &models.RetrievedChunk{Chunk: c, Score: f.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.Seq < out[j].Chunk.Seq
	})
	if len(out) > r.topK {
		out = out[:r.topK]
	}
	return out, nil
}
