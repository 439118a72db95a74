// Package config provides configuration loading and structs for bunsho.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Context    ContextConfig    `yaml:"context"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Storage    StorageConfig    `yaml:"storage"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// ChunkingConfig controls how extracted text is split. Sizes are in characters.
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	OverlapSize  int `yaml:"overlap_size"`
}

// RetrievalConfig controls the retriever and the vector index implementation.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
	// Mode is "vector" (cosine only) or "hybrid" (cosine fused with keyword scores).
	Mode string `yaml:"mode"`
	// IndexType is "memory" or "chromem".
	IndexType      string  `yaml:"index_type"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
}

// ContextConfig controls context assembly.
type ContextConfig struct {
	// MaxTokens bounds the assembled context; 0 means unbounded.
	MaxTokens int `yaml:"max_tokens"`
	// Tokenizer is "runes" or "tiktoken".
	Tokenizer string `yaml:"tokenizer"`
	// Encoding is the tiktoken encoding name.
	Encoding     string `yaml:"encoding"`
	SourceLabels *bool  `yaml:"source_labels"`
}

// SourceLabelsOrDefault returns whether chunks are labelled with their source; true when unset.
func (c *ContextConfig) SourceLabelsOrDefault() bool {
	if c.SourceLabels != nil {
		return *c.SourceLabels
	}
	return true
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Provider is one of hashing, onnx, openai, ollama.
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// GenerationConfig selects and configures the generation backend.
type GenerationConfig struct {
	// Provider is one of auto, googleai, openai, ollama, extractive.
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
}

// StorageConfig holds persistence paths.
type StorageConfig struct {
	// TranscriptPath is a SQLite database for transcripts; empty keeps them in memory.
	TranscriptPath string `yaml:"transcript_path"`
}

// WatchConfig holds document watch settings for the chat command.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, expands paths and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.TranscriptPath = expandPath(cfg.Storage.TranscriptPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks enumerated fields. Chunk sizes are validated by the chunker itself.
func (c *Config) Validate() error {
	if !oneOf(c.Retrieval.Mode, "vector", "hybrid") {
		return fmt.Errorf("invalid retrieval.mode %q (supported: vector, hybrid)", c.Retrieval.Mode)
	}
	if !oneOf(c.Retrieval.IndexType, "memory", "chromem") {
		return fmt.Errorf("invalid retrieval.index_type %q (supported: memory, chromem)", c.Retrieval.IndexType)
	}
	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("invalid retrieval.top_k %d", c.Retrieval.TopK)
	}
	if !oneOf(c.Context.Tokenizer, "runes", "tiktoken") {
		return fmt.Errorf("invalid context.tokenizer %q (supported: runes, tiktoken)", c.Context.Tokenizer)
	}
	if !oneOf(c.Embedding.Provider, "hashing", "onnx", "openai", "ollama") {
		return fmt.Errorf("invalid embedding.provider %q (supported: hashing, onnx, openai, ollama)", c.Embedding.Provider)
	}
	if !oneOf(c.Generation.Provider, "auto", "googleai", "openai", "ollama", "extractive") {
		return fmt.Errorf("invalid generation.provider %q (supported: auto, googleai, openai, ollama, extractive)", c.Generation.Provider)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir,
// "~/" is the home directory, and other relative paths are left as given. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
