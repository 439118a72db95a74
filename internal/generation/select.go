package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/bunsho/internal/config"
	"github.com/hyperjump/bunsho/internal/models"
)

// Credential variables consulted by automatic selection.
const (
	GoogleAPIKeyEnv = "GOOGLE_API_KEY"
	OpenAIAPIKeyEnv = "OPENAI_API_KEY"
)

const placeholderGoogleKey = "your-google-api-key"

// LookupEnv reads an environment variable; os.LookupEnv satisfies it.
type LookupEnv func(key string) (string, bool)

// Select resolves the configured generation provider once. With provider "auto" it picks
// googleai when GOOGLE_API_KEY is set, else openai when OPENAI_API_KEY is set, else
// ollama when a base URL is configured, else the offline extractive backend. A
// placeholder Google key is an error, not a reason to try the next provider. Every
// failure is models.ErrNoBackendAvailable.
func Select(ctx context.Context, cfg config.GenerationConfig, lookupEnv LookupEnv) (Backend, error) {
	provider := cfg.Provider
	if provider == "" || provider == "auto" {
		provider = resolveAuto(cfg, lookupEnv)
		cfg.APIKeyEnv = "" // auto always reads the standard variables
	}
	b, err := newBackend(ctx, provider, cfg, lookupEnv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrNoBackendAvailable, err)
	}
	return b, nil
}

func resolveAuto(cfg config.GenerationConfig, lookupEnv LookupEnv) string {
	switch {
	case env(lookupEnv, GoogleAPIKeyEnv) != "":
		return "googleai"
	case env(lookupEnv, OpenAIAPIKeyEnv) != "":
		return "openai"
	case cfg.BaseURL != "":
		return "ollama"
	default:
		return "extractive"
	}
}

func newBackend(ctx context.Context, provider string, cfg config.GenerationConfig, lookupEnv LookupEnv) (Backend, error) {
	switch provider {
	case "googleai":
		keyEnv := keyEnvOr(cfg.APIKeyEnv, GoogleAPIKeyEnv)
		key := env(lookupEnv, keyEnv)
		if key == "" {
			return nil, fmt.Errorf("googleai: %s is not set", keyEnv)
		}
		if strings.Contains(strings.ToLower(key), placeholderGoogleKey) {
			return nil, fmt.Errorf("googleai: %s holds the placeholder value; set a real key", keyEnv)
		}
		return NewGoogleAIBackend(ctx, key, cfg.Model, cfg.Temperature)
	case "openai":
		keyEnv := keyEnvOr(cfg.APIKeyEnv, OpenAIAPIKeyEnv)
		key := env(lookupEnv, keyEnv)
		if key == "" {
			return nil, fmt.Errorf("openai: %s is not set", keyEnv)
		}
		return NewOpenAIBackend(key, cfg.BaseURL, cfg.Model, cfg.Temperature)
	case "ollama":
		return NewOllamaBackend(cfg.BaseURL, cfg.Model, cfg.Temperature)
	case "extractive":
		return NewExtractiveBackend(), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s (supported: auto, googleai, openai, ollama, extractive)", provider)
	}
}

// keyEnvOr lets an explicit api_key_env override the provider's standard variable.
func keyEnvOr(configured, standard string) string {
	if configured != "" {
		return configured
	}
	return standard
}

func env(lookupEnv LookupEnv, key string) string {
	if lookupEnv == nil {
		return ""
	}
	v, _ := lookupEnv(key)
	return strings.TrimSpace(v)
}
