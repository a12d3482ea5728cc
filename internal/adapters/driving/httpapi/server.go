// Package httpapi exposes the harvest pipeline over HTTP, for use behind
// a local UI or from scripts that want progress streaming.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driving"
	"github.com/ferrous-labs/imgcrate-cli/internal/logger"
)

// Server serves the harvest API on a local address.
type Server struct {
	harvester driving.Harvester
	addr      string
	server    *http.Server
	listener  net.Listener
}

// NewServer creates an API server. addr is a host:port listen address.
func NewServer(harvester driving.Harvester, addr string) *Server {
	s := &Server{harvester: harvester, addr: addr}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/harvest", s.handleHarvest)
	mux.HandleFunc("/api/harvest/stream", s.handleStream)

	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// No write timeout: harvests stream for as long as the page needs.
	}
	return s
}

// Handler returns the underlying HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening. It returns once the listener is bound; serving
// continues in a background goroutine.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("api server: %v", err)
		}
	}()

	logger.Info("api listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound listen address, useful when the port was 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleHarvest runs a batch harvest and responds with the archive.
func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pageURL := r.URL.Query().Get("url")
	opts := driving.Options{Dynamic: r.URL.Query().Get("dynamic") == "true"}

	res, err := s.harvester.Run(r.Context(), pageURL, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("X-Asset-Count", fmt.Sprintf("%d", res.Fetched))
	w.Write(res.Archive)
}

// handleStream runs a streaming harvest and responds with newline-
// delimited JSON progress events. The terminal done event carries the
// archive base64-encoded.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for ev := range s.harvester.Stream(r.Context(), r.URL.Query().Get("url"), driving.Options{
		Dynamic: r.URL.Query().Get("dynamic") == "true",
	}) {
		if err := enc.Encode(ev); err != nil {
			// Client went away; the context cancellation stops the producer.
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoAssetsFound), errors.Is(err, domain.ErrAllFetchesFailed):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPageFetch):
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
