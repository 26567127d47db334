// Package config loads the process configuration consumed by the core.
// The core never reads the environment itself: everything is resolved here
// and in main, then passed into constructors as plain values.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DocumentsConfig configures the watched documents directory.
type DocumentsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Type    string `yaml:"type"` // sqlite | bolt | memory
	DataDir string `yaml:"data_dir"`
}

// EmbedderConfig selects and configures the embedding service.
type EmbedderConfig struct {
	Type        string `yaml:"type"` // ollama | openai
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig selects and configures the generation service.
type LLMConfig struct {
	Type        string  `yaml:"type"` // ollama | openai
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// RetrievalConfig bounds the chunking and retrieval pipeline.
type RetrievalConfig struct {
	ChunkSize       int `yaml:"chunk_size"`
	ChunkOverlap    int `yaml:"chunk_overlap"`
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
}

// ChatConfig bounds the conversation prompt.
type ChatConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	HistoryLimit int    `yaml:"history_limit"`
}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Documents DocumentsConfig `yaml:"documents"`
	Store     StoreConfig     `yaml:"store"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chat      ChatConfig      `yaml:"chat"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is supplied.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Addr: ":8080"},
		Documents: DocumentsConfig{Dir: "./documents", Watch: true},
		Store:     StoreConfig{Type: "sqlite", DataDir: "./data"},
		Embedder: EmbedderConfig{
			Type:        "ollama",
			Model:       "nomic-embed-text",
			TimeoutSecs: 60,
		},
		LLM: LLMConfig{
			Type:        "ollama",
			Model:       "llama3.2",
			Temperature: 0.7,
			MaxTokens:   1024,
			TimeoutSecs: 300,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:       512,
			ChunkOverlap:    100,
			TopK:            5,
			MaxContextChars: 4000,
		},
		Chat: ChatConfig{HistoryLimit: 20},
	}
}

// Validate rejects configurations the pipeline cannot honor.
func (c *Config) Validate() error {
	if c.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("retrieval.chunk_size must be positive, got %d", c.Retrieval.ChunkSize)
	}
	if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("retrieval.chunk_overlap must be in [0, chunk_size), got %d", c.Retrieval.ChunkOverlap)
	}
	switch c.Store.Type {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("store.type must be sqlite, bolt or memory, got %q", c.Store.Type)
	}
	switch c.Embedder.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("embedder.type must be ollama or openai, got %q", c.Embedder.Type)
	}
	switch c.LLM.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("llm.type must be ollama or openai, got %q", c.LLM.Type)
	}
	return nil
}
