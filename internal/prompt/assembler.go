// Package prompt assembles retrieved chunks into the context passed to the generator.
package prompt

import (
	"strconv"
	"strings"

	"github.com/hyperjump/bunsho/internal/config"
	"github.com/hyperjump/bunsho/internal/models"
)

const entrySeparator = "\n\n"

// Assembler formats retrieved chunks as numbered context entries.
type Assembler struct {
	sourceLabels bool
	maxTokens    int
	counter      TokenCounter
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithSourceLabels controls whether each entry label carries the chunk's source.
func WithSourceLabels(enabled bool) AssemblerOption {
	return func(a *Assembler) { a.sourceLabels = enabled }
}

// WithTokenBudget bounds the assembled context to maxTokens as measured by counter.
// maxTokens <= 0 means unbounded.
func WithTokenBudget(maxTokens int, counter TokenCounter) AssemblerOption {
	return func(a *Assembler) {
		a.maxTokens = maxTokens
		if counter != nil {
			a.counter = counter
		}
	}
}

// NewAssembler returns an assembler with source labels on and no token budget.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{sourceLabels: true, counter: RuneCounter{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewAssemblerFromConfig builds an assembler from the context section of the config.
func NewAssemblerFromConfig(cfg config.ContextConfig) (*Assembler, error) {
	opts := []AssemblerOption{WithSourceLabels(cfg.SourceLabelsOrDefault())}
	if cfg.MaxTokens > 0 {
		counter, err := NewTokenCounter(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTokenBudget(cfg.MaxTokens, counter))
	}
	return NewAssembler(opts...), nil
}

// Assemble renders chunks in the given order as
//
//	[1] source
//	chunk text
//
// entries separated by one blank line. No chunks yields "". With a token budget, entries
// are added until the next one would exceed it; the first entry is always kept.
func (a *Assembler) Assemble(chunks []*models.RetrievedChunk) string {
	var sb strings.Builder
	used := 0
	for i, rc := range chunks {
		entry := a.entry(i+1, rc.Chunk)
		if i > 0 {
			entry = entrySeparator + entry
		}
		if a.maxTokens > 0 {
			n := a.counter.Count(entry)
			if i > 0 && used+n > a.maxTokens {
				break
			}
			used += n
		}
		sb.WriteString(entry)
	}
	return sb.String()
}

func (a *Assembler) entry(n int, c *models.Chunk) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strconv.Itoa(n))
	sb.WriteString("]")
	if a.sourceLabels && c.Source != "" {
		sb.WriteString(" ")
		sb.WriteString(c.Source)
	}
	sb.WriteString("\n")
	sb.WriteString(c.Text)
	return sb.String()
}
