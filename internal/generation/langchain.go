package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

// Default models for the langchaingo-backed providers.
const (
	DefaultGoogleAIModel = "gemini-1.5-flash"
	DefaultOllamaModel   = "llama3"
)

// LangChainBackend adapts a langchaingo chat model.
type LangChainBackend struct {
	name        string
	llm         llms.Model
	temperature float64
}

// NewLangChainBackend wraps an existing langchaingo model.
func NewLangChainBackend(name string, llm llms.Model, temperature float64) *LangChainBackend {
	return &LangChainBackend{name: name, llm: llm, temperature: temperature}
}

// NewOllamaBackend creates a backend served by Ollama at serverURL.
func NewOllamaBackend(serverURL, model string, temperature float64) (*LangChainBackend, error) {
	if model == "" {
		model = DefaultOllamaModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return NewLangChainBackend("ollama:"+model, llm, temperature), nil
}

// NewGoogleAIBackend creates a Gemini backend.
func NewGoogleAIBackend(ctx context.Context, apiKey, model string, temperature float64) (*LangChainBackend, error) {
	if apiKey == "" {
		return nil, errors.New("googleai: api key is required")
	}
	if model == "" {
		model = DefaultGoogleAIModel
	}
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(model))
	if err != nil {
		return nil, fmt.Errorf("googleai: %w", err)
	}
	return NewLangChainBackend("googleai:"+model, llm, temperature), nil
}

// Name returns the provider and model.
func (b *LangChainBackend) Name() string { return b.name }

// Generate sends one system and one human message and returns the first choice.
func (b *LangChainBackend) Generate(ctx context.Context, system, passages, question string) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, SystemMessage(system, passages)),
		llms.TextParts(schema.ChatMessageTypeHuman, UserMessage(question)),
	}
	resp, err := b.llm.GenerateContent(ctx, msgs, llms.WithTemperature(b.temperature))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("empty response")
	}
	return resp.Choices[0].Content, nil
}
