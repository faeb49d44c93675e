package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"synthub/core/chain"
	"synthub/core/hub"
	"synthub/core/mint"
)

// Server exposes hub vault and position data over a small HTTP API.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	engine     *hub.Engine
	mint       *mint.Registry
	log        *logrus.Logger
}

// NewServer constructs the router and HTTP server.
func NewServer(addr string, engine *hub.Engine, mintRegistry *mint.Registry, log *logrus.Logger) *Server {
	s := &Server{router: chi.NewRouter(), engine: engine, mint: mintRegistry, log: log}
	s.routes()
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	return s
}

func (s *Server) Start() error { return s.httpServer.ListenAndServe() }

func (s *Server) Shutdown(ctx context.Context) error { return s.httpServer.Shutdown(ctx) }

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/vaults/{id}", s.handleVault)
	s.router.Get("/vaults/{id}/positions/{addr}", s.handlePosition)
	s.router.Get("/synthetics/{denom}", s.handleSynthetic)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	id := chain.VaultID(chi.URLParam(r, "id"))
	meta, err := s.engine.VaultMetadata(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, meta)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	id := chain.VaultID(chi.URLParam(r, "id"))
	addr, err := chain.AddressFromHex(chi.URLParam(r, "addr"))
	if err != nil {
		http.Error(w, "bad address", http.StatusBadRequest)
		return
	}
	pos, err := s.engine.Position(id, addr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, pos)
}

func (s *Server) handleSynthetic(w http.ResponseWriter, r *http.Request) {
	denom := chain.Denom(chi.URLParam(r, "denom"))
	exists := s.mint.SyntheticExists(denom)
	writeJSON(w, map[string]bool{"exists": exists})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
