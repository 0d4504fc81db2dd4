package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cell-arena/internal/game"
)

// Metrics with bounded cardinality (no per-round labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_frame_render_duration_seconds",
		Help:    "Time spent rasterizing a frame",
		Buckets: []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	})

	enemyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_enemy_count",
		Help: "Enemies in the current round",
	})

	foodCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_food_count",
		Help: "Food pellets in the current round",
	})

	playerMass = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_player_mass",
		Help: "Player mass in the current round",
	})

	roundsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_rounds_started_total",
		Help: "Rounds started",
	}, []string{"role", "mode"}) // Bounded by the role and mode registries

	roundsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_rounds_ended_total",
		Help: "Rounds ended",
	}, []string{"reason"}) // "time", "defeat", "too_small"

	roundScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_round_score",
		Help:    "Final score of ended rounds",
		Buckets: prometheus.ExponentialBuckets(50, 2, 10),
	})

	inputsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_inputs_rejected_total",
		Help: "Player inputs that never reached the engine",
	}, []string{"reason"}) // "invalid", "rate_limit", "queue_full", "no_round"

	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_total",
		Help: "Events offered to the event log",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events dropped by rate limiting or a full buffer",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Snapshot frames sent to WebSocket clients",
	}, []string{"encoding"})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // Loopback only unless ALLOW_DEBUG_EXTERNAL=true
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugHandler serves pprof, Prometheus metrics and a health check
func DebugHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// StartDebugServer starts the observability server in the background.
// pprof must never face the internet, so non-loopback addresses are
// rewritten unless explicitly allowed.
func StartDebugServer(cfg ObservabilityConfig) *http.Server {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if !isLoopback(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Printf("⚠️ Debug server address %s forced to localhost", cfg.ListenAddr)
		cfg.ListenAddr = DefaultObservabilityConfig().ListenAddr
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           DebugHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
	return srv
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// RecordTick records tick timing and entity gauges
func RecordTick(duration time.Duration, snap *game.RoundSnapshot) {
	tickDuration.Observe(duration.Seconds())
	if snap == nil {
		return
	}
	enemyCount.Set(float64(len(snap.Enemies)))
	foodCount.Set(float64(len(snap.Foods)))
	playerMass.Set(snap.Player.Mass)
}

// RecordRender records render timing
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// RecordRoundStart counts a started round
func RecordRoundStart(info game.RoundInfo) {
	roundsStarted.WithLabelValues(info.Role.Key, info.Mode.Key).Inc()
}

// RecordRoundEnd counts an ended round and its score
func RecordRoundEnd(s game.Summary) {
	roundsEnded.WithLabelValues(s.EndReason.String()).Inc()
	roundScore.Observe(float64(s.Score))
}

// RecordInputRejected counts an input dropped before the engine saw it
func RecordInputRejected(reason string) {
	inputsRejected.WithLabelValues(reason).Inc()
}

// UpdateEventLogStats mirrors the event log counters
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one frame sent in the given encoding
func IncrementWSMessages(encoding string) {
	wsMessagesTotal.WithLabelValues(encoding).Inc()
}
