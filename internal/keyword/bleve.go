package keyword

import (
	"context"
	"fmt"
	"sort"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/bunsho/internal/models"
	"github.com/hyperjump/bunsho/pkg/utils"
)

// BleveIndex implements KeywordIndex using an in-memory Bleve index.
type BleveIndex struct {
	index bleve.Index
}

type chunkDoc struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Seq     int    `json:"seq"`
}

// NewBleveIndex creates an empty memory-only Bleve index.
func NewBleveIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query term matches the
	// exact word in the chunk.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	sourceFieldMapping := bleve.NewKeywordFieldMapping()
	sourceFieldMapping.Index = false
	docMapping.AddFieldMappingsAt("source", sourceFieldMapping)
	seqFieldMapping := bleve.NewNumericFieldMapping()
	seqFieldMapping.Index = false
	docMapping.AddFieldMappingsAt("seq", seqFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexChunks adds chunks in one batch, keyed by chunk ID.
func (b *BleveIndex) IndexChunks(ctx context.Context, chunks []*models.Chunk) error {
	batch := b.index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, chunkDoc{Content: c.Text, Source: c.Source, Seq: c.Seq}); err != nil {
			return fmt.Errorf("Bleve batch index %s: %w", c.ID, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs a match query over chunk content and returns up to limit results.
// For multi-term queries the score is multiplied by (matched/total)^2 so chunks containing
// every query term outrank chunks that repeat only one of them. Equal scores are ordered
// by chunk ID.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error) {
	if limit <= 0 {
		return []*KeywordResult{}, nil
	}
	terms := distinctTerms(query)
	if len(terms) == 0 {
		return []*KeywordResult{}, nil
	}
	total, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("Bleve doc count: %w", err)
	}
	if total == 0 {
		return []*KeywordResult{}, nil
	}
	reqSize := int(total)

	mq := bleve.NewMatchQuery(query)
	mq.SetField("content")
	req := bleve.NewSearchRequest(mq)
	req.Size = reqSize
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	coverage := make(map[string]int)
	if len(terms) > 1 {
		coverage, err = b.termCoverage(ctx, terms, reqSize)
		if err != nil {
			return nil, err
		}
	}

	out := make([]*KeywordResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		score := hit.Score
		if len(terms) > 1 {
			matched := coverage[hit.ID]
			if matched == 0 {
				matched = 1 // it matched something to be a hit at all
			}
			c := float64(matched) / float64(len(terms))
			score *= c * c
		}
		out = append(out, &KeywordResult{ID: hit.ID, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// termCoverage counts how many distinct query terms each chunk matches.
func (b *BleveIndex) termCoverage(ctx context.Context, terms []string, reqSize int) (map[string]int, error) {
	coverage := make(map[string]int)
	for _, term := range terms {
		q := bleve.NewMatchQuery(term)
		q.SetField("content")
		req := bleve.NewSearchRequest(q)
		req.Size = reqSize
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("Bleve term search %q: %w", term, err)
		}
		for _, hit := range results.Hits {
			coverage[hit.ID]++
		}
	}
	return coverage, nil
}

func distinctTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range utils.Terms(query) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// DocCount returns the total number of chunks in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
