// Package server wires the game runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/casefiles/interrogation/internal/platform/config"
	"github.com/casefiles/interrogation/internal/services/game/api/httpapi"
	"github.com/casefiles/interrogation/internal/services/game/dialogue"
	"github.com/casefiles/interrogation/internal/services/game/domain/persona"
	"github.com/casefiles/interrogation/internal/services/game/domain/session"
	"github.com/casefiles/interrogation/internal/services/game/storage"
	"github.com/casefiles/interrogation/internal/services/game/storage/memory"
	gamesqlite "github.com/casefiles/interrogation/internal/services/game/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

type serverEnv struct {
	APIKey string `env:"INTERROGATION_OPENAI_API_KEY"`
	Model  string `env:"INTERROGATION_OPENAI_MODEL"`
	DBPath string `env:"INTERROGATION_GAME_DB_PATH"`
}

// Server hosts the game REST API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      storage.Store
}

// New creates a configured game server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured game server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	var env serverEnv
	if err := config.ParseEnv(&env); err != nil {
		return nil, err
	}
	if strings.TrimSpace(env.APIKey) == "" {
		return nil, errors.New("INTERROGATION_OPENAI_API_KEY is required")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	store, err := openGameStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	provider, err := dialogue.NewOpenAIProvider(dialogue.OpenAIConfig{
		APIKey: env.APIKey,
		Model:  env.Model,
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("configure dialogue provider: %w", err)
	}

	catalog, err := persona.Default()
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("load persona catalog: %w", err)
	}

	sessions := session.NewService(store, catalog)
	orchestrator := dialogue.NewOrchestrator(catalog, provider)
	handler := httpapi.NewHandler(sessions, orchestrator, catalog, true)

	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           handler.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		store: store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a game server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("game server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

// Close releases game server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close game store: %v", err)
		}
	}
}

// openGameStore selects sqlite when a path is configured and falls back to
// the in-memory store otherwise.
func openGameStore(path string) (storage.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return memory.NewStore(), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := gamesqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open game sqlite store: %w", err)
	}
	return store, nil
}
