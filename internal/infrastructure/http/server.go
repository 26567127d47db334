// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle. This is the
// UI collaborator surface: it turns upload/message/reset events into core
// operations and renders the conversation history.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/eixoai/docchat-go/internal/adapters/loader"
	"github.com/eixoai/docchat-go/internal/domain/entities"
	"github.com/eixoai/docchat-go/internal/domain/ports"
	"github.com/eixoai/docchat-go/internal/domain/usecases"
	"github.com/google/uuid"
)

// Server is the HTTP server for the document chat API and UI.
type Server struct {
	manager   *usecases.ConversationManager
	retriever *usecases.RetrieveUseCase
	store     ports.VectorStore
	addr      string
}

// NewServer creates a new HTTP server.
func NewServer(
	manager *usecases.ConversationManager,
	retriever *usecases.RetrieveUseCase,
	store ports.VectorStore,
	addr string,
) *Server {
	return &Server{
		manager:   manager,
		retriever: retriever,
		store:     store,
		addr:      addr,
	}
}

// Handler returns the full route tree with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/documents", s.handleUpload)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chat/stream", s.handleChatStream)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/health", s.handleHealth)

	return corsMiddleware(loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // longer for streaming
	}

	log.Printf("[INFO] docchat server starting on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleUpload ingests a document: either a raw text body or a multipart
// form with a pdf/txt file under the "file" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doc, err := s.documentFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	count, err := s.manager.Ingest(r.Context(), doc)
	if err != nil {
		log.Printf("[ERROR] Ingestion failed for %s: %v", doc.Name, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":  doc.ID,
		"name":         doc.Name,
		"chunks_added": count,
		"state":        s.manager.State().String(),
	})
}

func (s *Server) documentFromRequest(r *http.Request) (*entities.Document, error) {
	contentType := r.Header.Get("Content-Type")
	if len(contentType) >= 19 && contentType[:19] == "multipart/form-data" {
		return s.documentFromMultipart(r)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "pasted-text"
	}
	return &entities.Document{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   string(body),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

func (s *Server) documentFromMultipart(r *http.Request) (*entities.Document, error) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	// The pdf library needs a path, so spill the upload to a temp file.
	tmp, err := os.CreateTemp("", "upload-*"+header.Filename)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	doc, err := loader.NewMultiLoader().Load(r.Context(), tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", header.Filename, err)
	}
	doc.ID = uuid.NewString()
	doc.Name = header.Filename
	return doc, nil
}

// handleChat processes one user turn and returns the assistant answer.
// Generation failures still produce a 200 with a visible error turn; only
// retrieval failures surface as HTTP errors.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	message, err := messageFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	answer, err := s.manager.Chat(r.Context(), message)
	if err != nil {
		log.Printf("[ERROR] Chat failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer": answer,
		"state":  s.manager.State().String(),
	})
}

// handleChatStream streams one assistant turn over SSE.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Query required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	tokens, err := s.manager.ChatStream(r.Context(), query)
	if err != nil {
		sendSSE(w, flusher, map[string]any{"error": err.Error(), "done": true})
		return
	}

	for token := range tokens {
		if token.Error != nil {
			sendSSE(w, flusher, map[string]any{"error": token.Error.Error(), "done": true})
			return
		}
		sendSSE(w, flusher, map[string]any{"content": token.Content, "done": token.Done})
	}
}

// handleSearch exposes raw ranked chunks for query tracing.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Query required", http.StatusBadRequest)
		return
	}

	results, err := s.retriever.Search(r.Context(), query)
	if err != nil {
		log.Printf("[ERROR] Search failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	type hit struct {
		ChunkID    string            `json:"chunk_id"`
		DocumentID string            `json:"document_id"`
		Text       string            `json:"text"`
		Score      float64           `json:"score"`
		Metadata   map[string]string `json:"metadata,omitempty"`
	}
	hits := make([]hit, len(results))
	for i, res := range results {
		hits[i] = hit{
			ChunkID:    res.Record.ChunkID,
			DocumentID: res.Record.DocumentID,
			Text:       res.Record.Text,
			Score:      res.Score,
			Metadata:   res.Record.Metadata,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

// handleHistory returns the conversation turns for rendering.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.manager.History()
	turns := make([]map[string]string, len(history))
	for i, t := range history {
		turns[i] = map[string]string{"role": t.Role, "content": t.Content}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"turns": turns,
		"state": s.manager.State().String(),
	})
}

// handleReset clears the conversation and the stored vectors. A partial
// failure reports exactly which half succeeded.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.manager.Reset(r.Context()); err != nil {
		payload := map[string]any{"error": err.Error()}
		var resetErr *entities.ResetError
		if errors.As(err, &resetErr) {
			payload["history_cleared"] = resetErr.HistoryCleared
			payload["store_cleared"] = resetErr.StoreCleared
		}
		writeJSON(w, http.StatusInternalServerError, payload)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

// handleStats reports store and session counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chunks": count,
		"turns":  len(s.manager.History()),
		"state":  s.manager.State().String(),
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex renders a minimal chat page backed by the SSE endpoint.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func messageFromRequest(r *http.Request) (string, error) {
	var message string
	// Match the media type only; clients commonly append a charset parameter.
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", fmt.Errorf("decoding body: %w", err)
		}
		message = req.Message
	} else {
		r.ParseForm()
		message = r.FormValue("message")
	}
	if message == "" {
		return "", fmt.Errorf("message required")
	}
	return message, nil
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, data map[string]any) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
