package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunsho/internal/embedding"
	"github.com/hyperjump/bunsho/internal/extract"
	"github.com/hyperjump/bunsho/internal/fileid"
	"github.com/hyperjump/bunsho/internal/keyword"
	"github.com/hyperjump/bunsho/internal/models"
	"github.com/hyperjump/bunsho/internal/vector"
)

// Handle is the built index of one analyzed document. It is never mutated after Index
// returns it; a new analysis produces a new Handle.
type Handle struct {
	DocumentID   string
	DocumentName string
	Chunks       []*models.Chunk
	Vectors      vector.Index
	// Keywords is nil unless the indexer runs in hybrid mode.
	Keywords keyword.KeywordIndex
	Embedder string
	BuiltAt  time.Time

	byID map[string]*models.Chunk
}

// Chunk returns the chunk with the given ID.
func (h *Handle) Chunk(id string) (*models.Chunk, bool) {
	if h.byID != nil {
		c, ok := h.byID[id]
		return c, ok
	}
	for _, c := range h.Chunks {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Close releases the vector and keyword indexes.
func (h *Handle) Close() error {
	var errs []error
	if h.Vectors != nil {
		errs = append(errs, h.Vectors.Close())
	}
	if h.Keywords != nil {
		errs = append(errs, h.Keywords.Close())
	}
	return errors.Join(errs...)
}

// Indexer turns an uploaded document into a Handle: extract, chunk, embed, build.
type Indexer struct {
	extractor *extract.Extractor
	chunker   *Chunker
	embedder  embedding.Embedder
	builder   vector.Builder
	keywords  bool
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (chunks produced, vectors built).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithKeywordIndex makes every Handle carry a Bleve keyword index for hybrid retrieval.
func WithKeywordIndex(enabled bool) IndexerOption {
	return func(idx *Indexer) { idx.keywords = enabled }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	extractor *extract.Extractor,
	chunker *Chunker,
	embedder embedding.Embedder,
	builder vector.Builder,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		builder:   builder,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Embedder returns the embedder used for documents; queries must use the same one.
func (idx *Indexer) Embedder() embedding.Embedder {
	return idx.embedder
}

// IndexType returns the name of the vector index builder.
func (idx *Indexer) IndexType() string {
	return idx.builder.Name()
}

// Index builds a Handle for doc. It is all-or-nothing: on error nothing is returned and
// every partially built index is closed. A document whose text is empty or whitespace fails with
// models.ErrEmptyDocument.
func (idx *Indexer) Index(ctx context.Context, doc *models.Document) (*Handle, error) {
	text, err := idx.extractor.ExtractDocument(doc)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", models.ErrEmptyDocument, doc.Name)
	}
	docID := fileid.DocumentID(doc.Name, doc.Content)
	chunks := idx.chunker.Chunk(docID, doc.Name, text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrEmptyDocument, doc.Name)
	}
	idx.logger.Debug("indexer chunked document",
		zap.String("document", doc.Name),
		zap.Int("characters", len([]rune(text))),
		zap.Int("chunks", len(chunks)))

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := embedding.EmbedDocuments(ctx, idx.embedder, texts)
	if err != nil {
		return nil, err
	}
	vecIndex, err := idx.builder.Build(ctx, chunks, vectors)
	if err != nil {
		return nil, err
	}
	h := &Handle{
		DocumentID:   docID,
		DocumentName: doc.Name,
		Chunks:       chunks,
		Vectors:      vecIndex,
		Embedder:     embedding.NameOf(idx.embedder),
		BuiltAt:      time.Now(),
		byID:         make(map[string]*models.Chunk, len(chunks)),
	}
	for _, c := range chunks {
		h.byID[c.ID] = c
	}
	if idx.keywords {
		kw, err := keyword.NewBleveIndex()
		if err != nil {
			_ = h.Close()
			return nil, err
		}
		h.Keywords = kw
		if err := kw.IndexChunks(ctx, chunks); err != nil {
			_ = h.Close()
			return nil, fmt.Errorf("failed to index keywords: %w", err)
		}
	}
	idx.logger.Debug("indexer built index",
		zap.String("document", doc.Name),
		zap.String("index", idx.builder.Name()),
		zap.Int("dimensions", vecIndex.Dimensions()),
		zap.Bool("keywords", idx.keywords))
	return h, nil
}
