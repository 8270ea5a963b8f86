/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package server exposes the live snapshot stream over HTTP. It is a
// dispatch consumer like any other.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/phuonguno98/unopulse/internal/dispatch"
	"github.com/phuonguno98/unopulse/pkg/metrics"
	"github.com/phuonguno98/unopulse/pkg/version"
)

const (
	writeWait       = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	// Listen is the host:port address for ListenAndServe.
	Listen string
	// InboxSize is the per-client mailbox capacity.
	InboxSize int
	// Session identifies this process run in responses.
	Session string
	// Stats, if set, backs /api/stats.
	Stats  func() []dispatch.ConsumerStats
	Logger *slog.Logger
}

// Server serves the latest snapshot and a WebSocket stream of snapshots.
type Server struct {
	listen    string
	inboxSize int
	session   string
	stats     func() []dispatch.ConsumerStats
	logger    *slog.Logger
	router    *mux.Router
	upgrader  websocket.Upgrader

	latest atomic.Pointer[metrics.Snapshot]

	mu      sync.Mutex
	clients map[string]*dispatch.Mailbox
	closed  bool
}

// New creates a Server and sets up its routes.
func New(opts Options) *Server {
	if opts.InboxSize < 1 {
		opts.InboxSize = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Session == "" {
		opts.Session = uuid.NewString()
	}

	s := &Server{
		listen:    opts.Listen,
		inboxSize: opts.InboxSize,
		session:   opts.Session,
		stats:     opts.Stats,
		logger:    opts.Logger,
		router:    mux.NewRouter(),
		clients:   make(map[string]*dispatch.Mailbox),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(corsMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/api/snapshot", s.handleGetSnapshot).Methods("GET")
	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleGetStats).Methods("GET")
	s.router.HandleFunc("/api/stream", s.handleStream).Methods("GET")
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.listen,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.closeClients()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Name implements dispatch.Consumer.
func (s *Server) Name() string {
	return "http"
}

// Consume records s as the latest snapshot and forwards it to every stream
// client without blocking on any of them.
func (s *Server) Consume(_ context.Context, snap *metrics.Snapshot) error {
	s.latest.Store(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, box := range s.clients {
		box.Put(snap)
	}
	return nil
}

// Close ends every stream.
func (s *Server) Close() error {
	s.closeClients()
	return nil
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, box := range s.clients {
		box.Close()
		delete(s.clients, id)
	}
}

// ClientCount returns the number of connected stream clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) addClient() (string, *dispatch.Mailbox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", nil, false
	}
	id := uuid.NewString()
	box := dispatch.NewMailbox(s.inboxSize)
	if snap := s.latest.Load(); snap != nil {
		box.Put(snap)
	}
	s.clients[id] = box
	return id, box, true
}

func (s *Server) removeClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if box, ok := s.clients[id]; ok {
		box.Close()
		delete(s.clients, id)
	}
}

// handleGetSnapshot returns the latest snapshot, or 204 before the first tick.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest.Load()
	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, snap)
}

func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	versionInfo := map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
		"session": s.session,
	}
	s.writeJSON(w, versionInfo)
}

func (s *Server) handleGetStats(w http.ResponseWriter, _ *http.Request) {
	if s.stats == nil {
		s.writeError(w, "stats not available", http.StatusNotFound)
		return
	}
	s.writeJSON(w, s.stats())
}

// handleStream upgrades to a WebSocket and pushes snapshots as JSON text
// messages. A slow client only loses intermediate snapshots.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id, box, ok := s.addClient()
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		return
	}
	defer s.removeClient(id)
	s.logger.Debug("Stream client connected", "client", id)

	// The reader only detects disconnects; inbound messages are ignored.
	go func() {
		defer s.removeClient(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for snap := range box.C() {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snap); err != nil {
			s.logger.Debug("Stream client write failed", "client", id, "error", err)
			break
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	s.logger.Debug("Stream client disconnected", "client", id, "dropped", box.Dropped())
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
