// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for arena, simulation and server settings.
//
// Values are resolved in three layers: compiled defaults, an optional YAML
// file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// ARENA CONFIGURATION
// =============================================================================

// ArenaConfig holds the playfield dimensions in world units.
type ArenaConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// DefaultArena returns the default arena size.
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		Width:  1280,
		Height: 720,
	}
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig controls the tick executor.
type SimulationConfig struct {
	TickRate       int     `yaml:"tick_rate"`         // Ticks per second
	Seed           int64   `yaml:"seed"`              // 0 = seed from clock
	MaxTickDeltaMs float64 `yaml:"max_tick_delta_ms"` // Cap on integrated dt after a stall
}

// DefaultSimulation returns the default simulation settings.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		TickRate:       60, // Movement constants are calibrated for 60 TPS
		Seed:           0,
		MaxTickDeltaMs: 250,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int      `yaml:"port"`
	BroadcastRate int      `yaml:"broadcast_rate"` // WebSocket snapshots per second
	CORSOrigins   []string `yaml:"cors_origins"`
	EventLogPath  string   `yaml:"event_log_path"`
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:          3000,
		BroadcastRate: 30,
		EventLogPath:  "events.jsonl",
	}
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits bounds per-snapshot and per-process resources.
type ResourceLimits struct {
	MaxSnapshotEvents int `yaml:"max_snapshot_events"` // Discrete events carried per snapshot
	MaxWSConnections  int `yaml:"max_ws_connections"`  // Total WebSocket clients
	MaxWSPerIP        int `yaml:"max_ws_per_ip"`
	MaxLeaderboard    int `yaml:"max_leaderboard"` // Round summaries kept in the ranking
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxSnapshotEvents: 64,
		MaxWSConnections:  50,
		MaxWSPerIP:        5,
		MaxLeaderboard:    100,
	}
}

// =============================================================================
// SPATIAL CONFIGURATION
// =============================================================================

// SpatialConfig holds spatial indexing settings.
type SpatialConfig struct {
	GridCellSize float64 `yaml:"grid_cell_size"` // Broad-phase cell size for the food pass
}

// DefaultSpatial returns the default spatial configuration.
func DefaultSpatial() SpatialConfig {
	return SpatialConfig{
		GridCellSize: 100, // pixels
	}
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"` // MUST stay on localhost in production
}

// DefaultObservability returns safe defaults.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Arena         ArenaConfig         `yaml:"arena"`
	Simulation    SimulationConfig    `yaml:"simulation"`
	Server        ServerConfig        `yaml:"server"`
	Limits        ResourceLimits      `yaml:"limits"`
	Spatial       SpatialConfig       `yaml:"spatial"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Default returns the compiled-in configuration.
func Default() AppConfig {
	return AppConfig{
		Arena:         DefaultArena(),
		Simulation:    DefaultSimulation(),
		Server:        DefaultServer(),
		Limits:        DefaultLimits(),
		Spatial:       DefaultSpatial(),
		Observability: DefaultObservability(),
	}
}

// Load returns the complete configuration. If path is non-empty the YAML file
// is applied on top of the defaults; environment overrides are applied last.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c AppConfig) Validate() error {
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		return fmt.Errorf("arena must have positive size, got %.0fx%.0f", c.Arena.Width, c.Arena.Height)
	}
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", c.Simulation.TickRate)
	}
	if c.Server.BroadcastRate <= 0 {
		return fmt.Errorf("broadcast rate must be positive, got %d", c.Server.BroadcastRate)
	}
	if c.Spatial.GridCellSize <= 0 {
		return fmt.Errorf("grid cell size must be positive, got %.1f", c.Spatial.GridCellSize)
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	if w := getEnvFloat("ARENA_WIDTH", 0); w > 0 {
		cfg.Arena.Width = w
	}
	if h := getEnvFloat("ARENA_HEIGHT", 0); h > 0 {
		cfg.Arena.Height = h
	}
	if tps := getEnvInt("TICK_RATE", 0); tps > 0 {
		cfg.Simulation.TickRate = tps
	}
	if seed := getEnvInt("SIM_SEED", 0); seed != 0 {
		cfg.Simulation.Seed = int64(seed)
	}
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Server.Port = p
	}
	if br := getEnvInt("BROADCAST_RATE", 0); br > 0 {
		cfg.Server.BroadcastRate = br
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = strings.Split(origins, ",")
	}
	if path, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.Server.EventLogPath = path
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Observability.Enabled = false
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
