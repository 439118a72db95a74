package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/bunsho/internal/models"
)

func newTestIndex(t *testing.T, texts ...string) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex()
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	chunks := make([]*models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &models.Chunk{ID: "doc#" + string(rune('a'+i)), Seq: i, Text: text, Source: "notes.txt"}
	}
	if err := idx.IndexChunks(context.Background(), chunks); err != nil {
		t.Fatalf("IndexChunks: %v", err)
	}
	return idx
}

func TestBleveIndex_SearchFindsContent(t *testing.T) {
	idx := newTestIndex(t,
		"The sky is blue. Gra",
		". Grass is green.",
	)
	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("DocCount=%d, want 2", n)
	}

	results, err := idx.Search(context.Background(), "grass", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result for \"grass\", got %d", len(results))
	}
	if results[0].ID != "doc#b" {
		t.Errorf("first result ID = %q, want doc#b", results[0].ID)
	}

	// Standard analyzer (no stemming) is case-insensitive.
	results, err = idx.Search(context.Background(), "SKY", 10)
	if err != nil {
		t.Fatalf("Search SKY: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc#a" {
		t.Errorf("expected doc#a for SKY, got %v", results)
	}
}

func TestBleveIndex_TermCoverage(t *testing.T) {
	idx := newTestIndex(t,
		"apple apple apple apple apple pie",
		"apple banana",
		"cherry",
	)
	results, err := idx.Search(context.Background(), "apple banana", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "doc#b" {
		t.Errorf("chunk with every term should rank first, got %s", results[0].ID)
	}
}

func TestBleveIndex_SearchEdgeCases(t *testing.T) {
	idx := newTestIndex(t, "some body text")
	ctx := context.Background()
	tests := []struct {
		name  string
		query string
		limit int
	}{
		{"no match", "nothing", 10},
		{"stop words only", "the of and", 10},
		{"empty", "", 10},
		{"zero limit", "body", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := idx.Search(ctx, tt.query, tt.limit)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(results) != 0 {
				t.Errorf("expected 0 results, got %d", len(results))
			}
		})
	}
}

func TestBleveIndex_Limit(t *testing.T) {
	idx := newTestIndex(t, "term one", "term two", "term three")
	results, err := idx.Search(context.Background(), "term", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}
