// Package health serves the bridge's liveness endpoint: a small chi
// router reporting whether the game session and the Discord gateway
// are currently connected, in the same spirit as the per-bridge
// /health checks each platform bridge exposes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

// Server reports connection status over HTTP for container health
// checks / orchestration probes. SetWowConnected and
// SetDiscordConnected are safe to call from any goroutine.
type Server struct {
	wowConnected     atomic.Bool
	discordConnected atomic.Bool

	httpServer *http.Server
}

// New builds a Server listening on addr. Call Run to start serving.
func New(addr string) *Server {
	s := &Server{}

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleHealth)

	s.httpServer = &http.Server{Addr: addr, Handler: r}
	return s
}

// SetWowConnected records the game session's current connectivity.
func (s *Server) SetWowConnected(connected bool) {
	s.wowConnected.Store(connected)
}

// SetDiscordConnected records the Discord gateway's current
// connectivity.
func (s *Server) SetDiscordConnected(connected bool) {
	s.discordConnected.Store(connected)
}

// Run starts the HTTP listener and blocks until it exits. Returns
// http.ErrServerClosed on a clean Shutdown.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	wow := s.wowConnected.Load()
	discord := s.discordConnected.Load()

	status := "ok"
	code := http.StatusOK
	if !wow || !discord {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":            status,
		"wow_connected":     wow,
		"discord_connected": discord,
	})
}
