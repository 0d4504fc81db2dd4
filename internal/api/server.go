package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"cell-arena/internal/input"
	"cell-arena/internal/leaderboard"
)

// ServerOptions carries the host settings from config
type ServerOptions struct {
	CORSOrigins      []string
	BroadcastRate    int
	MaxWSConnections int
	MaxWSPerIP       int
	MaxLeaderboard   int
	RateLimit        *RateLimitConfig       // nil = DefaultRateLimitConfig
	InputLimit       *input.RateLimitConfig // nil = input.DefaultRateLimitConfig
	DisableLogging   bool
}

// Server is the HTTP API server with WebSocket support
type Server struct {
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer wires the router and hub around an engine.
//
// Background workers do not start until Start is called, so tests can
// construct a server and drive Router() through httptest.
func NewServer(engine EngineInterface, board *leaderboard.Board, opts ServerOptions) *Server {
	rateCfg := DefaultRateLimitConfig
	if opts.RateLimit != nil {
		rateCfg = *opts.RateLimit
	}

	hubCfg := HubConfig{
		BroadcastRate: opts.BroadcastRate,
		MaxPerIP:      opts.MaxWSPerIP,
		MaxTotal:      opts.MaxWSConnections,
		Origins:       opts.CORSOrigins,
	}
	if opts.InputLimit != nil {
		hubCfg.InputLimit = *opts.InputLimit
	}

	s := &Server{
		rateLimiter: NewIPRateLimiter(rateCfg),
		wsHub:       NewWebSocketHub(engine, hubCfg),
	}

	s.router = NewRouter(RouterConfig{
		Engine:         engine,
		Leaderboard:    board,
		RateLimiter:    s.rateLimiter,
		CORSOrigins:    opts.CORSOrigins,
		MaxLeaderboard: opts.MaxLeaderboard,
		DisableLogging: opts.DisableLogging,
	})

	// The hub needs its own instance, so /ws is added here rather than in NewRouter
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start runs background workers and serves until Shutdown.
// It returns nil after a graceful shutdown.
func (s *Server) Start(addr string) error {
	s.rateLimiter.StartCleanup()
	s.wsHub.Start()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎮 Snapshot stream: ws://localhost%s/ws", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes WebSocket clients and
// stops background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	s.rateLimiter.Stop()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Router returns the HTTP handler for use with httptest
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}
