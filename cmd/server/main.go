package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cell-arena/internal/api"
	"cell-arena/internal/config"
	"cell-arena/internal/game"
	"cell-arena/internal/leaderboard"
)

func main() {
	// Load .env from the parent directory, then the current one
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  CELL ARENA - ROLES EDITION")
	log.Println("🎮 ================================")

	appConfig, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	arenaCfg := appConfig.Arena
	simCfg := appConfig.Simulation
	serverCfg := appConfig.Server
	limits := appConfig.Limits

	log.Printf("🎮 Config: %d TPS, %.0fx%.0f arena, %d snapshots/s to clients",
		simCfg.TickRate, arenaCfg.Width, arenaCfg.Height, serverCfg.BroadcastRate)
	log.Printf("🛡️ Resource limits: %d events/snapshot, %d WS clients (%d per IP), %d leaderboard entries",
		limits.MaxSnapshotEvents, limits.MaxWSConnections, limits.MaxWSPerIP, limits.MaxLeaderboard)

	engine := game.NewEngine(game.EngineConfig{
		TickRate:       simCfg.TickRate,
		Width:          arenaCfg.Width,
		Height:         arenaCfg.Height,
		GridCellSize:   appConfig.Spatial.GridCellSize,
		MaxTickDeltaMs: simCfg.MaxTickDeltaMs,
		Seed:           simCfg.Seed,
		Limits:         game.ResourceLimits{MaxEvents: limits.MaxSnapshotEvents},
	})

	if path := serverCfg.EventLogPath; path != "" {
		if err := engine.StartEventLog(path); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", path)
		}
	}

	debugServer := api.StartDebugServer(api.ObservabilityConfig{
		Enabled:    appConfig.Observability.Enabled,
		ListenAddr: appConfig.Observability.ListenAddr,
	})

	board := leaderboard.New(limits.MaxLeaderboard)

	engine.SetCallbacks(
		api.RecordRoundStart,
		func(s game.Summary) {
			api.RecordRoundEnd(s)
			if rank := board.Record(s); rank > 0 {
				log.Printf("🏆 Round %s ranked #%d with %d points", s.RoundID, rank, s.Score)
			}
		},
		api.RecordTick,
		nil,
	)

	server := api.NewServer(engine, board, api.ServerOptions{
		CORSOrigins:      serverCfg.CORSOrigins,
		BroadcastRate:    serverCfg.BroadcastRate,
		MaxWSConnections: limits.MaxWSConnections,
		MaxWSPerIP:       limits.MaxWSPerIP,
		MaxLeaderboard:   limits.MaxLeaderboard,
	})

	engine.Start()
	log.Println("✅ Game Engine started")

	stopStats := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stopStats:
				return
			case <-ticker.C:
				st := engine.GetEventLogStats()
				api.UpdateEventLogStats(st.Total, st.Dropped)
			}
		}
	}()

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Println("")
	log.Println("📋 To play:")
	log.Printf("   1. POST http://localhost:%d/api/round {\"role\":\"predator\",\"mode\":\"classic\"}", serverCfg.Port)
	log.Printf("   2. Connect ws://localhost:%d/ws and send {\"type\":\"target\",\"x\":..,\"y\":..}", serverCfg.Port)
	log.Println("")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ API server shutdown: %v", err)
	}
	if debugServer != nil {
		debugServer.Shutdown(ctx)
	}
	close(stopStats)
	engine.Stop()
	engine.StopEventLog()
	st := engine.GetEventLogStats()
	log.Printf("📝 Event log: %d written, %d dropped", st.Written, st.Dropped)
	log.Println("👋 Goodbye!")
}
