package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected default addr %q", cfg.Server.Addr)
	}
	if cfg.Retrieval.ChunkSize != 512 || cfg.Retrieval.ChunkOverlap != 100 {
		t.Errorf("unexpected default chunking: %+v", cfg.Retrieval)
	}
	if cfg.Store.Type != "sqlite" {
		t.Errorf("unexpected default store %q", cfg.Store.Type)
	}
}

func TestLoad_OverridesMergeWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
store:
  type: bolt
retrieval:
  top_k: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("override not applied: %q", cfg.Server.Addr)
	}
	if cfg.Store.Type != "bolt" {
		t.Errorf("override not applied: %q", cfg.Store.Type)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("override not applied: %d", cfg.Retrieval.TopK)
	}
	// Untouched fields keep their defaults.
	if cfg.Retrieval.ChunkSize != 512 {
		t.Errorf("default lost on merge: %d", cfg.Retrieval.ChunkSize)
	}
	if cfg.LLM.Model != "llama3.2" {
		t.Errorf("default lost on merge: %q", cfg.LLM.Model)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"zero chunk size", func(c *Config) { c.Retrieval.ChunkSize = 0 }, true},
		{"overlap equals chunk size", func(c *Config) { c.Retrieval.ChunkOverlap = c.Retrieval.ChunkSize }, true},
		{"negative overlap", func(c *Config) { c.Retrieval.ChunkOverlap = -1 }, true},
		{"zero overlap ok", func(c *Config) { c.Retrieval.ChunkOverlap = 0 }, false},
		{"unknown store", func(c *Config) { c.Store.Type = "redis" }, true},
		{"unknown embedder", func(c *Config) { c.Embedder.Type = "bert" }, true},
		{"unknown llm", func(c *Config) { c.LLM.Type = "gpt" }, true},
		{"memory store ok", func(c *Config) { c.Store.Type = "memory" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
