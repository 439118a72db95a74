package embedding

import (
	"fmt"
	"strings"

	"github.com/hyperjump/bunsho/internal/config"
)

// LookupEnv reads an environment variable; os.LookupEnv satisfies it.
type LookupEnv func(key string) (string, bool)

// New builds the configured embedding provider. Model-backed providers are wrapped in an
// LRU cache when cfg.CacheSize > 0. A provider that cannot be created is an error; no
// other provider is substituted.
func New(cfg config.EmbeddingConfig, lookupEnv LookupEnv) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case "hashing", "":
		e = NewHashingEmbedder(cfg.Dimensions)
	case "onnx":
		e, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case "openai":
		key := env(lookupEnv, cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("embedding provider openai: %s is not set", cfg.APIKeyEnv)
		}
		e, err = NewOpenAIEmbedder(key, cfg.BaseURL, cfg.Model, cfg.Dimensions)
	case "ollama":
		e, err = NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hashing, onnx, openai, ollama)", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("embedding provider %s: %w", cfg.Provider, err)
	}
	if _, ok := e.(*HashingEmbedder); ok {
		return e, nil
	}
	return NewCachedEmbedder(e, cfg.CacheSize), nil
}

func env(lookupEnv LookupEnv, key string) string {
	if lookupEnv == nil || key == "" {
		return ""
	}
	v, _ := lookupEnv(key)
	return strings.TrimSpace(v)
}
