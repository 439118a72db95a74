package prompt

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hyperjump/bunsho/internal/config"
)

// TokenCounter measures text against the context budget.
type TokenCounter interface {
	Count(text string) int
	Name() string
}

// RuneCounter counts characters. It needs no model files.
type RuneCounter struct{}

// Count returns the number of runes in text.
func (RuneCounter) Count(text string) int { return utf8.RuneCountInString(text) }

// Name returns "runes".
func (RuneCounter) Name() string { return "runes" }

// TiktokenCounter counts BPE tokens with a tiktoken encoding.
type TiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding (e.g. cl100k_base). The first load may
// download the BPE ranks unless an offline loader is configured.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tiktoken encoding %s: %w", encoding, err)
	}
	return &TiktokenCounter{encoding: encoding, enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *TiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Name returns "tiktoken:<encoding>".
func (t *TiktokenCounter) Name() string { return "tiktoken:" + t.encoding }

// NewTokenCounter returns the counter configured by cfg.Tokenizer.
func NewTokenCounter(cfg config.ContextConfig) (TokenCounter, error) {
	switch cfg.Tokenizer {
	case "runes", "":
		return RuneCounter{}, nil
	case "tiktoken":
		return NewTiktokenCounter(cfg.Encoding)
	default:
		return nil, fmt.Errorf("unknown tokenizer: %s (supported: runes, tiktoken)", cfg.Tokenizer)
	}
}
