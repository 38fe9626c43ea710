// Package server exposes the repository model service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
	"github.com/JoaoClaudiano/gittree/pkg/config"
	"github.com/JoaoClaudiano/gittree/pkg/models"
	"github.com/JoaoClaudiano/gittree/pkg/repomodel"
)

// maxBodyBytes bounds the size of a raw repository upload.
const maxBodyBytes = 32 << 20

// CacheHeader reports how a model request was served: hit, miss or bypass.
const CacheHeader = "X-Gittree-Cache"

// Server is the gittree HTTP API.
type Server struct {
	cfg *config.Config
	svc *repomodel.Service
	mux *http.ServeMux
}

// New creates a Server wired to svc.
func New(cfg *config.Config, svc *repomodel.Service) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /v1/models", s.handleBuildModel)
	s.mux.HandleFunc("DELETE /v1/models/{owner}/{name}", s.handleInvalidate)
	s.mux.HandleFunc("GET /v1/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("GET /v1/cache/entries", s.handleCacheEntries)
	s.mux.HandleFunc("DELETE /v1/cache", s.handleCacheClear)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("gittree server listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		log.Printf("gittree server shutting down")
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleBuildModel(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	r.Body.Close()

	raw, err := models.DecodeRawRepository(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.Resolve(r.Context(), raw.Repository, raw.Files, raw.Modules)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrCapacityExceeded) && res.Model != nil:
		log.Printf("serving uncached model: %v", err)
		res.Bypassed = true
	default:
		writeServiceError(w, err)
		return
	}

	status := "miss"
	switch {
	case res.Hit:
		status = "hit"
	case res.Bypassed:
		status = "bypass"
	}
	w.Header().Set(CacheHeader, status)
	w.Header().Set("X-Gittree-Cache-Key", res.CacheKey)
	writeJSON(w, http.StatusOK, res.Model)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	repo := r.PathValue("owner") + "/" + r.PathValue("name")
	if branch := r.URL.Query().Get("branch"); branch != "" {
		repo += "@" + branch
	}
	n, err := s.svc.Invalidate(r.Context(), repo)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Store()
	if store == nil {
		writeJSONError(w, http.StatusNotFound, "cache disabled")
		return
	}
	stats, err := store.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheEntries(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Store()
	if store == nil {
		writeJSONError(w, http.StatusNotFound, "cache disabled")
		return
	}
	entries, err := store.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.CacheEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Store()
	if store == nil {
		writeJSONError(w, http.StatusNotFound, "cache disabled")
		return
	}
	if err := store.Clear(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrMalformedInput) {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("request failed: %v", err)
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"gittree_error","code":%d}}`, message, code)
}
