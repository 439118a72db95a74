package prompt

import (
	"testing"

	"github.com/hyperjump/bunsho/internal/config"
	"github.com/hyperjump/bunsho/internal/models"
)

func retrieved(texts ...string) []*models.RetrievedChunk {
	out := make([]*models.RetrievedChunk, len(texts))
	for i, text := range texts {
		out[i] = &models.RetrievedChunk{
			Chunk: &models.Chunk{ID: "d#" + string(rune('0'+i)), Seq: i, Text: text, Source: "notes.txt"},
			Rank:  i + 1,
		}
	}
	return out
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name   string
		opts   []AssemblerOption
		chunks []*models.RetrievedChunk
		want   string
	}{
		{
			name:   "empty",
			chunks: nil,
			want:   "",
		},
		{
			name:   "labelled",
			chunks: retrieved("The sky is blue.", "Grass is green."),
			want:   "[1] notes.txt\nThe sky is blue.\n\n[2] notes.txt\nGrass is green.",
		},
		{
			name:   "unlabelled",
			opts:   []AssemblerOption{WithSourceLabels(false)},
			chunks: retrieved("The sky is blue.", "Grass is green."),
			want:   "[1]\nThe sky is blue.\n\n[2]\nGrass is green.",
		},
		{
			name:   "no source",
			chunks: []*models.RetrievedChunk{{Chunk: &models.Chunk{Text: "x"}}},
			want:   "[1]\nx",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAssembler(tt.opts...).Assemble(tt.chunks)
			if got != tt.want {
				t.Errorf("Assemble() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssemble_TokenBudget(t *testing.T) {
	chunks := retrieved("aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc")
	// Each entry is "[n]\n" + 10 runes = 14 runes; later entries add the 2-rune separator.
	a := NewAssembler(WithSourceLabels(false), WithTokenBudget(30, RuneCounter{}))
	got := a.Assemble(chunks)
	want := "[1]\naaaaaaaaaa\n\n[2]\nbbbbbbbbbb"
	if got != want {
		t.Errorf("Assemble() = %q, want %q", got, want)
	}

	// The first entry is kept even when it alone exceeds the budget.
	a = NewAssembler(WithSourceLabels(false), WithTokenBudget(5, RuneCounter{}))
	if got := a.Assemble(chunks); got != "[1]\naaaaaaaaaa" {
		t.Errorf("Assemble() = %q", got)
	}
}

func TestNewAssemblerFromConfig(t *testing.T) {
	off := false
	a, err := NewAssemblerFromConfig(config.ContextConfig{MaxTokens: 14, Tokenizer: "runes", SourceLabels: &off})
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Assemble(retrieved("aaaaaaaaaa", "b")); got != "[1]\naaaaaaaaaa" {
		t.Errorf("Assemble() = %q", got)
	}

	if _, err := NewAssemblerFromConfig(config.ContextConfig{MaxTokens: 10, Tokenizer: "words"}); err == nil {
		t.Error("expected error for unknown tokenizer")
	}
}

func TestRuneCounter(t *testing.T) {
	if n := (RuneCounter{}).Count("héllo"); n != 5 {
		t.Errorf("Count=%d, want 5", n)
	}
}

func TestTiktokenCounter(t *testing.T) {
	c, err := NewTiktokenCounter("cl100k_base")
	if err != nil {
		t.Skipf("tiktoken encoding not available offline: %v", err)
	}
	if n := c.Count("hello world"); n != 2 {
		t.Errorf("Count=%d, want 2", n)
	}
	if c.Name() != "tiktoken:cl100k_base" {
		t.Errorf("Name=%s", c.Name())
	}
}
