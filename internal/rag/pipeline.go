// Package rag wires extraction, indexing, retrieval and generation into a question
// answering pipeline and keeps per-session state.
package rag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunsho/internal/config"
	"github.com/hyperjump/bunsho/internal/embedding"
	"github.com/hyperjump/bunsho/internal/extract"
	"github.com/hyperjump/bunsho/internal/generation"
	"github.com/hyperjump/bunsho/internal/indexer"
	"github.com/hyperjump/bunsho/internal/models"
	"github.com/hyperjump/bunsho/internal/prompt"
	"github.com/hyperjump/bunsho/internal/search"
	"github.com/hyperjump/bunsho/internal/vector"
)

// Pipeline is the read-only wiring shared by every session.
type Pipeline struct {
	indexer   *indexer.Indexer
	retriever *search.Retriever
	assembler *prompt.Assembler
	generator *generation.Generator
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for analyze/answer events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline assembles a pipeline from its components.
func NewPipeline(
	idx *indexer.Indexer,
	retriever *search.Retriever,
	assembler *prompt.Assembler,
	generator *generation.Generator,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		indexer:   idx,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// New builds the pipeline described by cfg. Providers are resolved once here; lookupEnv
// supplies credentials (os.LookupEnv in production).
func New(ctx context.Context, cfg *config.Config, lookupEnv func(string) (string, bool), opts ...Option) (*Pipeline, error) {
	p := &Pipeline{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	chunker, err := indexer.NewChunker(cfg.Chunking.MaxChunkSize, cfg.Chunking.OverlapSize)
	if err != nil {
		return nil, err
	}
	builder, err := vector.NewBuilder(cfg.Retrieval.IndexType)
	if err != nil {
		return nil, err
	}
	assembler, err := prompt.NewAssemblerFromConfig(cfg.Context)
	if err != nil {
		return nil, err
	}
	backend, err := generation.Select(ctx, cfg.Generation, lookupEnv)
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.New(cfg.Embedding, lookupEnv)
	if err != nil {
		return nil, err
	}

	hybrid := cfg.Retrieval.Mode == search.ModeHybrid
	p.indexer = indexer.NewIndexer(
		extract.NewExtractor(extract.WithLogger(p.logger)),
		chunker, embedder, builder,
		indexer.WithKeywordIndex(hybrid),
		indexer.WithLogger(p.logger),
	)
	p.retriever = search.NewRetriever(embedder, cfg.Retrieval, search.WithLogger(p.logger))
	p.assembler = assembler
	p.generator = generation.NewGenerator(backend, generation.WithLogger(p.logger))

	p.logger.Info("pipeline ready",
		zap.String("embedder", embedding.NameOf(embedder)),
		zap.String("backend", backend.Name()),
		zap.String("index", builder.Name()),
		zap.String("mode", p.retriever.Mode()))
	return p, nil
}

// Index extracts, chunks, embeds and indexes doc.
func (p *Pipeline) Index(ctx context.Context, doc *models.Document) (*indexer.Handle, error) {
	start := time.Now()
	h, err := p.indexer.Index(ctx, doc)
	if err != nil {
		return nil, err
	}
	p.logger.Info("document analyzed",
		zap.String("document", doc.Name),
		zap.Int("chunks", len(h.Chunks)),
		zap.Duration("took", time.Since(start)))
	return h, nil
}

// Answer retrieves context for question from h and generates an answer. When nothing is
// retrieved the generator still runs, with an empty context.
func (p *Pipeline) Answer(ctx context.Context, h *indexer.Handle, question string) (*models.Answer, error) {
	if h == nil {
		return nil, models.ErrNotAnalyzed
	}
	q, err := models.NormalizeQuestion(question)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sources, err := p.retriever.Retrieve(ctx, h, q)
	if err != nil {
		return nil, err
	}
	text, err := p.generator.Generate(ctx, p.assembler.Assemble(sources), q)
	if err != nil {
		return nil, err
	}
	a := &models.Answer{
		Question: q,
		Text:     text,
		Sources:  sources,
		Backend:  p.generator.Backend(),
		Duration: time.Since(start),
	}
	p.logger.Info("question answered",
		zap.String("document", h.DocumentName),
		zap.Int("sources", len(sources)),
		zap.Duration("took", a.Duration))
	return a, nil
}

// Info describes the pipeline configuration.
type Info struct {
	Embedder  string `json:"embedder"`
	Backend   string `json:"backend"`
	IndexType string `json:"index_type"`
	Mode      string `json:"retrieval_mode"`
	TopK      int    `json:"top_k"`
}

// Info returns the resolved providers and retrieval settings.
func (p *Pipeline) Info() Info {
	return Info{
		Embedder:  embedding.NameOf(p.indexer.Embedder()),
		Backend:   p.generator.Backend(),
		IndexType: p.indexer.IndexType(),
		Mode:      p.retriever.Mode(),
		TopK:      p.retriever.TopK(),
	}
}

// Close releases the embedder.
func (p *Pipeline) Close() error {
	if err := p.indexer.Embedder().Close(); err != nil {
		return fmt.Errorf("close embedder: %w", err)
	}
	return nil
}
