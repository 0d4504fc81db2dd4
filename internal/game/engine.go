package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Engine errors
var (
	ErrEngineStopped = errors.New("engine is not running")
	ErrNoRound       = errors.New("no round in progress")
	ErrInboxFull     = errors.New("input queue is full")
)

// InboxSize bounds queued messages between ticks
const InboxSize = 256

// EngineConfig holds everything the engine needs to run rounds
type EngineConfig struct {
	TickRate       int
	Width          float64
	Height         float64
	GridCellSize   float64
	MaxTickDeltaMs float64
	Seed           int64 // 0 = seed from clock
	Limits         ResourceLimits
	Clock          func() time.Time // nil = time.Now
}

// DefaultEngineConfig matches the default arena
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TickRate:       60,
		Width:          1280,
		Height:         720,
		GridCellSize:   100,
		MaxTickDeltaMs: 250,
		Limits:         DefaultLimits,
	}
}

// RoundInfo describes a freshly started round
type RoundInfo struct {
	RoundID   string    `json:"roundId"`
	Role      Role      `json:"role"`
	Mode      GameMode  `json:"mode"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	StartedAt time.Time `json:"startedAt"`
}

type startRequest struct {
	role  RoleKind
	mode  ModeKind
	reply chan RoundInfo
}

// Engine runs one round at a time on a single goroutine. All mutation of
// round state happens there; callers talk to it through the inbox and read
// published snapshots.
type Engine struct {
	cfg   EngineConfig
	clock func() time.Time
	rng   *rand.Rand

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}

	inbox chan any

	// Owned by the loop goroutine
	round    *Round
	queued   []Command
	eventBuf []Event
	roundSeq uint64

	roundActive atomic.Bool
	tickCount   atomic.Uint64
	snapshots   *SnapshotBuffer
	lastSummary atomic.Pointer[Summary]

	// Event sourcing for replay and debugging
	eventLog *EventLog

	// Callbacks run on the engine goroutine; they must not block
	OnRoundStart func(RoundInfo)
	OnRoundEnd   func(Summary)
	OnTick       func(time.Duration, *RoundSnapshot)
	OnEvent      func(roundID string, ev Event)
}

// NewEngine creates an engine. It does nothing until Start.
func NewEngine(cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.TickRate <= 0 {
		cfg.TickRate = def.TickRate
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.GridCellSize <= 0 {
		cfg.GridCellSize = def.GridCellSize
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		cfg:       cfg,
		clock:     clock,
		rng:       rand.New(rand.NewSource(seed)),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		inbox:     make(chan any, InboxSize),
		queued:    make([]Command, 0, InboxSize),
		snapshots: NewSnapshotBuffer(cfg.Limits),
		eventLog:  NewEventLog(),
	}
}

// SetCallbacks wires observers. Call before Start.
func (e *Engine) SetCallbacks(onStart func(RoundInfo), onEnd func(Summary), onTick func(time.Duration, *RoundSnapshot), onEvent func(string, Event)) {
	e.OnRoundStart = onStart
	e.OnRoundEnd = onEnd
	e.OnTick = onTick
	e.OnEvent = onEvent
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(e.cfg.TickRate))
	go e.run(ticker)

	log.Printf("🎮 Game engine started at %d TPS (%.0fx%.0f arena)", e.cfg.TickRate, e.cfg.Width, e.cfg.Height)
}

// Stop halts the loop and waits for it to exit
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopChan)
	e.mu.Unlock()

	<-e.done
	log.Println("🛑 Game engine stopped")
}

func (e *Engine) isRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) run(ticker *time.Ticker) {
	defer close(e.done)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case msg := <-e.inbox:
			e.handle(msg)
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) handle(msg any) {
	switch m := msg.(type) {
	case startRequest:
		m.reply <- e.beginRound(m.role, m.mode)
	case Command:
		// Inputs wait for the next tick boundary
		if e.round != nil && !e.round.Ended() && len(e.queued) < InboxSize {
			e.queued = append(e.queued, m)
		}
	default:
		panic(fmt.Sprintf("game: unexpected inbox message %T", msg))
	}
}

// StartRound validates the selection and replaces any current round
func (e *Engine) StartRound(roleKey, modeKey string) (RoundInfo, error) {
	role, mode, err := ParseSelection(roleKey, modeKey)
	if err != nil {
		return RoundInfo{}, err
	}
	if !e.isRunning() {
		return RoundInfo{}, ErrEngineStopped
	}

	req := startRequest{role: role, mode: mode, reply: make(chan RoundInfo, 1)}
	select {
	case e.inbox <- req:
	case <-e.stopChan:
		return RoundInfo{}, ErrEngineStopped
	}

	select {
	case info := <-req.reply:
		return info, nil
	case <-e.stopChan:
		return RoundInfo{}, ErrEngineStopped
	}
}

// Submit queues a player command without blocking
func (e *Engine) Submit(cmd Command) error {
	if !e.isRunning() {
		return ErrEngineStopped
	}
	if !e.roundActive.Load() {
		return ErrNoRound
	}
	select {
	case e.inbox <- cmd:
		return nil
	default:
		return ErrInboxFull
	}
}

func (e *Engine) beginRound(role RoleKind, mode ModeKind) RoundInfo {
	now := e.clock()
	e.roundSeq++
	id := fmt.Sprintf("round_%d_%d", now.UnixNano(), e.roundSeq)

	r := NewRound(id, role, mode, RoundOptions{
		Width:          e.cfg.Width,
		Height:         e.cfg.Height,
		GridCellSize:   e.cfg.GridCellSize,
		MaxTickDeltaMs: e.cfg.MaxTickDeltaMs,
		Rand:           rand.New(rand.NewSource(e.rng.Int63())),
	})
	r.Start(now)

	e.round = r
	e.queued = e.queued[:0]
	e.roundActive.Store(true)
	e.publish(r, now)

	info := RoundInfo{
		RoundID:   id,
		Role:      role.Definition(),
		Mode:      r.Mode,
		Width:     e.cfg.Width,
		Height:    e.cfg.Height,
		StartedAt: now,
	}
	log.Printf("🟢 Round %s started: %s in %s mode", id, info.Role.Key, info.Mode.Key)
	if e.OnRoundStart != nil {
		e.OnRoundStart(info)
	}
	return info
}

// tick applies queued inputs, steps the round and publishes the result
func (e *Engine) tick() {
	r := e.round
	if r == nil || r.Ended() {
		return
	}

	start := time.Now()
	now := e.clock()

	for _, cmd := range e.queued {
		r.Apply(cmd, now)
	}
	e.queued = e.queued[:0]

	r.Tick(now)
	e.tickCount.Add(1)

	snap := e.publish(r, now)
	if r.Ended() {
		e.finishRound(r)
	}

	if e.OnTick != nil {
		e.OnTick(time.Since(start), snap)
	}
}

func (e *Engine) publish(r *Round, now time.Time) *RoundSnapshot {
	e.eventBuf = r.DrainEvents(e.eventBuf[:0])
	for _, ev := range e.eventBuf {
		var payload interface{}
		if ev.Type == EventRoundEnd {
			payload = r.Summary()
		}
		e.eventLog.EmitEvent(r.ID, ev, payload)
		if e.OnEvent != nil {
			e.OnEvent(r.ID, ev)
		}
	}
	return e.snapshots.Capture(r, e.eventBuf, now)
}

func (e *Engine) finishRound(r *Round) {
	s := r.Summary()
	e.lastSummary.Store(&s)
	e.roundActive.Store(false)
	log.Printf("🏁 Round %s ended (%s): score=%d food=%d enemies=%d", s.RoundID, s.EndReason, s.Score, s.FoodEaten, s.EnemiesDefeated)
	if e.OnRoundEnd != nil {
		e.OnRoundEnd(s)
	}
}

// GetSnapshot returns the latest published snapshot (nil before the first round)
func (e *Engine) GetSnapshot() *RoundSnapshot {
	return e.snapshots.Latest()
}

// LastSummary returns the summary of the most recently ended round
func (e *Engine) LastSummary() (Summary, bool) {
	s := e.lastSummary.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

// RoundActive reports whether a round is accepting input
func (e *Engine) RoundActive() bool {
	return e.roundActive.Load()
}

// TickCount returns the number of simulated ticks across all rounds
func (e *Engine) TickCount() uint64 {
	return e.tickCount.Load()
}

// StartEventLog begins persisting round events to filePath
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and closes the event log
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log counters
func (e *Engine) GetEventLogStats() EventLogStats {
	return e.eventLog.Stats()
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.cfg
}
