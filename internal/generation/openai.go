package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no generation model is configured.
const DefaultOpenAIModel = "gpt-3.5-turbo"

// OpenAIBackend generates answers with the OpenAI chat completions API or any
// compatible server.
type OpenAIBackend struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAIBackend creates a chat backend. baseURL may be empty for the public API.
func NewOpenAIBackend(apiKey, baseURL, model string, temperature float64) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIBackend{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
	}, nil
}

// Name returns "openai:<model>".
func (b *OpenAIBackend) Name() string { return "openai:" + b.model }

// Generate sends one system and one user message and returns the first choice.
func (b *OpenAIBackend) Generate(ctx context.Context, system, passages, question string) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemMessage(system, passages)),
			openai.UserMessage(UserMessage(question)),
		},
		Model:       openai.ChatModel(b.model),
		Temperature: openai.Float(b.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
