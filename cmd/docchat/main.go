// Command docchat runs the document chat service: a retrieval pipeline over
// a watched documents folder plus a conversational HTTP surface.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eixoai/docchat-go/internal/adapters/embedding"
	"github.com/eixoai/docchat-go/internal/adapters/filewatcher"
	"github.com/eixoai/docchat-go/internal/adapters/llm"
	"github.com/eixoai/docchat-go/internal/adapters/loader"
	"github.com/eixoai/docchat-go/internal/adapters/vectordb"
	"github.com/eixoai/docchat-go/internal/config"
	"github.com/eixoai/docchat-go/internal/domain/ports"
	"github.com/eixoai/docchat-go/internal/domain/usecases"
	serverhttp "github.com/eixoai/docchat-go/internal/infrastructure/http"
)

func main() {
	var (
		configPath string
		addr       string
		docsDir    string
	)

	root := &cobra.Command{
		Use:   "docchat",
		Short: "Chat with a folder of documents using semantic retrieval",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; explicit environment always wins.
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if docsDir != "" {
				cfg.Documents.Dir = docsDir
			}
			return run(cmd.Context(), cfg)
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	root.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	root.Flags().StringVar(&docsDir, "docs-dir", "", "documents directory (overrides config)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder := buildEmbedder(cfg)
	generator := buildLLM(cfg)

	ingester := usecases.NewIngestUseCase(embedder, store,
		cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	retriever := usecases.NewRetrieveUseCase(embedder, store,
		cfg.Retrieval.TopK, cfg.Retrieval.MaxContextChars)
	manager := usecases.NewConversationManager(retriever, ingester, generator, store,
		usecases.ConversationConfig{
			SystemPrompt: cfg.Chat.SystemPrompt,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
			HistoryLimit: cfg.Chat.HistoryLimit,
		})

	if cfg.Documents.Dir != "" {
		if err := ingestExisting(ctx, manager, cfg.Documents.Dir); err != nil {
			log.Printf("[WARN] Initial ingestion: %v", err)
		}
		if cfg.Documents.Watch {
			go watchDocuments(ctx, manager, cfg.Documents.Dir)
		}
	}

	server := serverhttp.NewServer(manager, retriever, store, cfg.Server.Addr)
	return server.Start(ctx)
}

func buildStore(cfg *config.Config) (ports.VectorStore, error) {
	switch cfg.Store.Type {
	case "sqlite":
		return vectordb.NewSQLiteStore(cfg.Store.DataDir)
	case "bolt":
		return vectordb.NewBoltStore(cfg.Store.DataDir)
	case "memory":
		return vectordb.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

func buildEmbedder(cfg *config.Config) ports.EmbeddingService {
	timeout := time.Duration(cfg.Embedder.TimeoutSecs) * time.Second
	if cfg.Embedder.Type == "openai" {
		return embedding.NewOpenAIAdapter(cfg.Embedder.BaseURL,
			apiKey(cfg.Embedder.APIKeyEnv, "OPENAI_API_KEY"),
			cfg.Embedder.Model, timeout)
	}
	return embedding.NewOllamaAdapter(cfg.Embedder.BaseURL, cfg.Embedder.Model, timeout)
}

func buildLLM(cfg *config.Config) ports.LLMService {
	timeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second
	if cfg.LLM.Type == "openai" {
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" {
			baseURL = llm.GroqBaseURL
		}
		return llm.NewOpenAIAdapter(baseURL,
			apiKey(cfg.LLM.APIKeyEnv, "GROQ_API_KEY"),
			cfg.LLM.Model, timeout)
	}
	return llm.NewOllamaAdapter(cfg.LLM.BaseURL, cfg.LLM.Model, timeout)
}

func apiKey(envName, fallback string) string {
	if envName == "" {
		envName = fallback
	}
	return os.Getenv(envName)
}

// ingestExisting indexes the documents already present in the folder.
func ingestExisting(ctx context.Context, manager *usecases.ConversationManager, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	docs := loader.NewMultiLoader()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !supportedExtension(docs, path) {
			continue
		}
		doc, err := docs.Load(ctx, path)
		if err != nil {
			log.Printf("[WARN] Skipping %s: %v", path, err)
			continue
		}
		if _, err := manager.Ingest(ctx, doc); err != nil {
			log.Printf("[ERROR] Ingesting %s: %v", path, err)
		}
	}
	return nil
}

// watchDocuments feeds folder changes into the ingestion pipeline.
func watchDocuments(ctx context.Context, manager *usecases.ConversationManager, dir string) {
	docs := loader.NewMultiLoader()
	watcher, err := filewatcher.NewFSNotifyWatcher(docs.SupportedExtensions())
	if err != nil {
		log.Printf("[ERROR] Starting file watcher: %v", err)
		return
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		log.Printf("[ERROR] Watching %s: %v", dir, err)
		return
	}
	log.Printf("[INFO] Watching %s for documents", dir)

	for event := range events {
		switch event.Operation {
		case ports.FileCreated, ports.FileModified:
			doc, err := docs.Load(ctx, event.Path)
			if err != nil {
				log.Printf("[WARN] Loading %s: %v", event.Path, err)
				continue
			}
			if _, err := manager.Ingest(ctx, doc); err != nil {
				log.Printf("[ERROR] Ingesting %s: %v", event.Path, err)
			}
		case ports.FileDeleted:
			// Doc IDs derive from the path, so the watcher can delete
			// without having the file contents anymore.
			if err := manager.DeleteDocument(ctx, loader.DocumentID(event.Path)); err != nil {
				log.Printf("[ERROR] Deleting records for %s: %v", event.Path, err)
			}
		}
	}
}

func supportedExtension(docs *loader.MultiLoader, path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range docs.SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}
