package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/bunsho/internal/config"
	"github.com/hyperjump/bunsho/internal/models"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestHashingEmbedder_Deterministic(t *testing.T) {
	e := NewHashingEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "The sky is blue.")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "The sky is blue.")
	if len(a) != 64 {
		t.Fatalf("len=%d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text must give the same vector")
		}
	}
	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("vector should be unit length, norm^2=%f", norm)
	}
}

func TestHashingEmbedder_SharedTermsAreSimilar(t *testing.T) {
	e := NewHashingEmbedder(384)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "What color is the sky?")
	sky, _ := e.Embed(ctx, "The sky is blue.")
	same, _ := e.Embed(ctx, "SKY color")
	if cosine(q, sky) <= 0 {
		t.Errorf("question and sky sentence should share a term, cosine=%f", cosine(q, sky))
	}
	if c := cosine(q, same); math.Abs(c-1) > 1e-5 {
		t.Errorf("case and stop words should not matter, cosine=%f", c)
	}
}

func TestHashingEmbedder_NoTerms(t *testing.T) {
	e := NewHashingEmbedder(8)
	v, err := e.Embed(context.Background(), "the of and ...")
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatalf("text without terms should embed to zero, got %v", v)
		}
	}
}

func TestHashingEmbedder_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EmbedQuery(ctx, NewHashingEmbedder(8), "sky")
	if !errors.Is(err, models.ErrEmbeddingBackendUnavailable) {
		t.Errorf("expected ErrEmbeddingBackendUnavailable, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cause should be preserved, got %v", err)
	}
}

type failingEmbedder struct{ HashingEmbedder }

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("connection refused")
}

func TestEmbedDocuments_wrapsFailure(t *testing.T) {
	_, err := EmbedDocuments(context.Background(), &failingEmbedder{}, []string{"a"})
	if !errors.Is(err, models.ErrEmbeddingBackendUnavailable) {
		t.Fatalf("expected ErrEmbeddingBackendUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("cause missing from %q", err)
	}
	// Already classified errors are not wrapped twice.
	again := unavailable(err)
	if strings.Count(again.Error(), models.ErrEmbeddingBackendUnavailable.Error()) != 1 {
		t.Errorf("double wrapped: %q", again)
	}
}

type fakeLangChain struct {
	calls [][]string
	err   error
}

func (f *fakeLangChain) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeLangChain) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("EmbedQuery must not be used")
}

func TestLangChainEmbedder(t *testing.T) {
	fake := &fakeLangChain{}
	e := NewLangChainEmbedder("ollama:test", fake, 2)
	ctx := context.Background()
	vecs, err := e.EmbedBatch(ctx, []string{"ab", "abcd"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 || vecs[1][0] != 4 {
		t.Errorf("got %v", vecs)
	}
	q, err := e.Embed(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if q[0] != 3 {
		t.Errorf("query should go through EmbedDocuments, got %v", q)
	}
	if e.Name() != "ollama:test" || e.Dimensions() != 2 {
		t.Errorf("name/dimensions: %s %d", e.Name(), e.Dimensions())
	}

	fake.err = errors.New("dial tcp: connection refused")
	if _, err := e.Embed(ctx, "x"); err == nil || !strings.Contains(err.Error(), "ollama:test") {
		t.Errorf("expected provider-prefixed error, got %v", err)
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		data := make([]map[string]any, len(req.Input))
		// Reverse order to exercise index placement.
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{"object": "embedding", "index": j, "embedding": []float64{float64(len(req.Input[j])), 0.5}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("sk-test", srv.URL+"/v1", "", 2)
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "abc"})
	if err != nil {
		t.Fatal(err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 3 {
		t.Errorf("vectors not placed by index: %v", vecs)
	}
	if e.Name() != "openai:"+DefaultOpenAIModel {
		t.Errorf("Name=%s", e.Name())
	}

	bad, _ := NewOpenAIEmbedder("sk-wrong", srv.URL+"/v1", "", 2)
	_, err = EmbedQuery(context.Background(), bad, "x")
	if !errors.Is(err, models.ErrEmbeddingBackendUnavailable) {
		t.Errorf("auth failure should be ErrEmbeddingBackendUnavailable, got %v", err)
	}
}

func TestNew(t *testing.T) {
	noEnv := func(string) (string, bool) { return "", false }

	e, err := New(config.EmbeddingConfig{Provider: "hashing", Dimensions: 32, CacheSize: 100}, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*HashingEmbedder); !ok || e.Dimensions() != 32 {
		t.Errorf("expected uncached hashing embedder with 32 dims, got %T", e)
	}

	if _, err := New(config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "OPENAI_API_KEY"}, noEnv); err == nil ||
		!strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("missing key should name the variable, got %v", err)
	}

	withKey := func(k string) (string, bool) { return "sk-x", k == "MY_KEY" }
	e, err = New(config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "MY_KEY", CacheSize: 10}, withKey)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("remote provider should be cached, got %T", e)
	}

	if _, err := New(config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "OPENAI_API_KEY"}, nil); err == nil {
		t.Error("nil lookupEnv must report the missing key, not panic")
	}
	if e, err := New(config.EmbeddingConfig{Provider: "hashing", Dimensions: 8}, nil); err != nil || e.Dimensions() != 8 {
		t.Errorf("nil lookupEnv with hashing: %v", err)
	}

	if _, err := New(config.EmbeddingConfig{Provider: "onnx"}, noEnv); err == nil {
		t.Error("onnx without a model path must fail")
	}
	if _, err := New(config.EmbeddingConfig{Provider: "word2vec"}, noEnv); err == nil {
		t.Error("unknown provider must fail")
	}
}
