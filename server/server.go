// Package server exposes the memory engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/tap-top/recall/core"
	"github.com/tap-top/recall/memory"
)

// Config configures a Server.
type Config struct {
	// Manager handles all memory operations.
	Manager *memory.Manager
}

// Server is the HTTP front end for a memory manager.
type Server struct {
	manager *memory.Manager
	mux     *http.ServeMux
}

// New builds a server around a configured manager.
func New(cfg Config) (*Server, error) {
	if cfg.Manager == nil {
		return nil, fmt.Errorf("server: manager is required")
	}
	s := &Server{manager: cfg.Manager, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the root handler, for mounting or tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("[SERVER] listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/memories", s.handleAdd)
	s.mux.HandleFunc("POST /v1/memories/search", s.handleSearch)
	s.mux.HandleFunc("GET /v1/memories", s.handleList)
	s.mux.HandleFunc("GET /v1/memories/{id}", s.handleGet)
	s.mux.HandleFunc("DELETE /v1/memories/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

type addRequest struct {
	Messages []core.Message    `json:"messages"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`
	Infer    *bool             `json:"infer,omitempty"`
}

type addResponse struct {
	Results []core.OperationResult `json:"results"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	infer := true
	if req.Infer != nil {
		infer = *req.Infer
	}

	results, err := s.manager.Add(r.Context(), memory.AddRequest{
		Messages: req.Messages,
		Metadata: req.Metadata,
		Filters:  req.Filters,
		Infer:    infer,
	})
	if errors.Is(err, memory.ErrNoMessages) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []core.OperationResult{}
	}
	writeJSON(w, http.StatusOK, addResponse{Results: results})
}

type searchRequest struct {
	Query   string            `json:"query"`
	Limit   int               `json:"limit,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

type searchResponse struct {
	Results []memory.SearchResult `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := s.manager.Search(r.Context(), req.Query, req.Limit, req.Filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []memory.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := make(map[string]string)
	for _, key := range []string{"app_id", "agent_id", "user_id", "memory_type"} {
		if v := q.Get(key); v != "" {
			filters[key] = v
		}
	}

	page := intParam(q.Get("page"), 1)
	size := intParam(q.Get("size"), 20)

	result, err := s.manager.List(r.Context(), filters, page, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.manager.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, memory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.manager.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, memory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[SERVER] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
