package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cell-arena/internal/game"
	"cell-arena/internal/leaderboard"
)

// EngineInterface defines the engine methods used by the API.
// Keep this minimal so tests can mock it without running the loop.
type EngineInterface interface {
	// StartRound validates the selection and replaces any current round
	StartRound(roleKey, modeKey string) (game.RoundInfo, error)
	// Submit queues a player command for the next tick
	Submit(cmd game.Command) error
	// GetSnapshot returns the latest published snapshot (nil before any round)
	GetSnapshot() *game.RoundSnapshot
	// LastSummary returns the most recently ended round
	LastSummary() (game.Summary, bool)
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine:      mockEngine,
//	    Leaderboard: leaderboard.New(10),
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000,
//	        Burst:             1000,
//	    },
//	}
//	ts := httptest.NewServer(api.NewRouter(cfg))
type RouterConfig struct {
	// Engine is the round engine (required)
	Engine EngineInterface

	// Leaderboard ranks finished rounds. If nil, an empty board is used.
	Leaderboard *leaderboard.Board

	// RateLimiter is an optional pre-configured limiter.
	// If nil, one is created from RateLimitConfig or DefaultRateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used when RateLimiter is nil
	RateLimitConfig *RateLimitConfig

	// CORSOrigins lists allowed origins. If nil, DefaultCORSOrigins.
	CORSOrigins []string

	// MaxLeaderboard caps ?limit on /api/leaderboard
	MaxLeaderboard int

	// DisableLogging disables the request logger middleware
	DisableLogging bool
}

// routerHandlers holds what the handlers need
type routerHandlers struct {
	engine         EngineInterface
	board          *leaderboard.Board
	maxLeaderboard int
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// It has no side effects: no goroutines are started and nothing listens,
// so it is safe to wrap in httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early
	r.Use(rateLimiterFor(cfg).Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	board := cfg.Leaderboard
	if board == nil {
		board = leaderboard.New(cfg.MaxLeaderboard)
	}
	h := &routerHandlers{
		engine:         cfg.Engine,
		board:          board,
		maxLeaderboard: cfg.MaxLeaderboard,
	}
	if h.maxLeaderboard <= 0 {
		h.maxLeaderboard = leaderboard.DefaultCapacity
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/round", func(r chi.Router) {
			r.Post("/", h.handleStartRound)
			r.Post("/input", h.handleInput)
			r.Get("/state", h.handleGetState)
			r.Get("/summary", h.handleGetSummary)
			r.Get("/frame.png", h.handleGetFrame)
		})

		r.Get("/roles", h.handleGetRoles)
		r.Get("/modes", h.handleGetModes)
		r.Get("/leaderboard", h.handleGetLeaderboard)
	})

	return r
}

func rateLimiterFor(cfg RouterConfig) *IPRateLimiter {
	if cfg.RateLimiter != nil {
		return cfg.RateLimiter
	}
	rateLimitCfg := DefaultRateLimitConfig
	if cfg.RateLimitConfig != nil {
		rateLimitCfg = *cfg.RateLimitConfig
	}
	return NewIPRateLimiter(rateLimitCfg)
}
