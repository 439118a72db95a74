package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeLLM struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textOf(t *testing.T, m llms.MessageContent) string {
	t.Helper()
	require.Len(t, m.Parts, 1)
	tc, ok := m.Parts[0].(llms.TextContent)
	require.True(t, ok, "part is %T", m.Parts[0])
	return tc.Text
}

func TestLangChainBackend(t *testing.T) {
	llm := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "blue"}}}}
	b := NewLangChainBackend("ollama:test", llm, 0.2)

	answer, err := b.Generate(context.Background(), "sys", "[1]\nThe sky is blue.", "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "blue", answer)
	require.Len(t, llm.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, llm.messages[0].Role)
	assert.Equal(t, "sys\n\nContext:\n[1]\nThe sky is blue.", textOf(t, llm.messages[0]))
	assert.Equal(t, schema.ChatMessageTypeHuman, llm.messages[1].Role)
	assert.Equal(t, "Question: What color is the sky?", textOf(t, llm.messages[1]))
	assert.InDelta(t, 0.2, llm.opts.Temperature, 1e-9)
	assert.Equal(t, "ollama:test", b.Name())
}

func TestLangChainBackend_Errors(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	b := NewLangChainBackend("ollama:test", llm, 0)
	_, err := b.Generate(context.Background(), "sys", "", "q")
	assert.EqualError(t, err, "connection refused")

	llm.err = nil
	llm.resp = &llms.ContentResponse{}
	_, err = b.Generate(context.Background(), "sys", "", "q")
	assert.Error(t, err)
}

func TestOpenAIBackend(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-3.5-turbo",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "The sky is blue."}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	b, err := NewOpenAIBackend("sk-test", srv.URL+"/v1", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "openai:"+DefaultOpenAIModel, b.Name())

	answer, err := b.Generate(context.Background(), "sys", "[1]\nThe sky is blue.", "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", answer)
	assert.Equal(t, DefaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys\n\nContext:\n[1]\nThe sky is blue.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Question: What color is the sky?", got.Messages[1].Content)

	bad, err := NewOpenAIBackend("sk-wrong", srv.URL+"/v1", "", 0)
	require.NoError(t, err)
	_, err = bad.Generate(context.Background(), "sys", "", "q")
	assert.Error(t, err)
}

func TestNewOpenAIBackend_NoKey(t *testing.T) {
	_, err := NewOpenAIBackend("", "", "", 0)
	assert.Error(t, err)
}
