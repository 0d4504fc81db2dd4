package game

import (
	"sync/atomic"
	"time"
)

// ResourceLimits caps what a single snapshot may carry
type ResourceLimits struct {
	MaxEvents int // Discrete events per snapshot; the newest are kept
}

// DefaultLimits provides production-safe default limits
var DefaultLimits = ResourceLimits{
	MaxEvents: 64,
}

// PlayerSnapshot is an immutable copy of player state for rendering
type PlayerSnapshot struct {
	X                  float64 `json:"x"`
	Y                  float64 `json:"y"`
	TargetX            float64 `json:"targetX"`
	TargetY            float64 `json:"targetY"`
	Size               float64 `json:"size"`
	Mass               float64 `json:"mass"`
	Speed              float64 `json:"speed"`
	Role               string  `json:"role"`
	Color              string  `json:"color"`
	Health             int     `json:"health"`
	Invisible          bool    `json:"invisible"`
	AbilityPhase       string  `json:"abilityPhase"`
	AbilityRemainingMs float64 `json:"abilityRemainingMs"`
	CooldownMs         float64 `json:"cooldownMs"`
}

// EnemySnapshot is an immutable copy of an enemy
type EnemySnapshot struct {
	ID       uint64  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Mass     float64 `json:"mass"`
	Role     string  `json:"role"`
	Color    string  `json:"color"`
	Behavior string  `json:"behavior"`
}

// FoodSnapshot is an immutable copy of a pellet
type FoodSnapshot struct {
	ID        uint64  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
	Value     int     `json:"value"`
	Color     string  `json:"color"`
	Temporary bool    `json:"temporary,omitempty"`
}

// EventSnapshot is a discrete event flattened for the wire
type EventSnapshot struct {
	Type  string  `json:"type"`
	Tick  uint64  `json:"tick"`
	AtMs  float64 `json:"atMs"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
	Value float64 `json:"value,omitempty"`
}

// RoundSnapshot is a complete immutable round state for rendering.
// Once published it is never mutated, so readers may hold it indefinitely.
type RoundSnapshot struct {
	Sequence   uint64    `json:"sequence"`  // Monotonic sequence for ordering
	Timestamp  time.Time `json:"timestamp"` // When snapshot was created
	TickNumber uint64    `json:"tick"`      // Round tick this represents

	RoundID string  `json:"roundId"`
	Phase   string  `json:"phase"`
	Mode    string  `json:"mode"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`

	Player  PlayerSnapshot  `json:"player"`
	Enemies []EnemySnapshot `json:"enemies"`
	Foods   []FoodSnapshot  `json:"foods"`
	Events  []EventSnapshot `json:"events"`

	Score           int     `json:"score"`
	FoodEaten       int     `json:"foodEaten"`
	EnemiesDefeated int     `json:"enemiesDefeated"`
	ElapsedMs       float64 `json:"elapsedMs"`
	Timed           bool    `json:"timed"`
	TimeRemainingMs float64 `json:"timeRemainingMs"`
	EndReason       string  `json:"endReason,omitempty"`
}

// SnapshotBuffer publishes the latest snapshot for lock-free readers.
// The producer is the engine goroutine; any number of readers may load.
type SnapshotBuffer struct {
	latest   atomic.Pointer[RoundSnapshot]
	sequence atomic.Uint64
	limits   ResourceLimits
}

// NewSnapshotBuffer creates an empty buffer
func NewSnapshotBuffer(limits ResourceLimits) *SnapshotBuffer {
	if limits.MaxEvents <= 0 {
		limits.MaxEvents = DefaultLimits.MaxEvents
	}
	return &SnapshotBuffer{limits: limits}
}

// Capture copies the round into a fresh snapshot and publishes it
func (b *SnapshotBuffer) Capture(r *Round, events []Event, now time.Time) *RoundSnapshot {
	p := r.Player
	snap := &RoundSnapshot{
		Sequence:   b.sequence.Add(1),
		Timestamp:  now,
		TickNumber: r.TickNum(),
		RoundID:    r.ID,
		Phase:      r.Phase().String(),
		Mode:       r.Mode.Key,
		Width:      r.Width(),
		Height:     r.Height(),
		Player: PlayerSnapshot{
			X:                  p.Pos.X,
			Y:                  p.Pos.Y,
			TargetX:            p.Target.X,
			TargetY:            p.Target.Y,
			Size:               p.Size,
			Mass:               p.Mass,
			Speed:              p.Speed,
			Role:               p.Role.String(),
			Color:              p.Role.Definition().Color,
			Health:             p.Health,
			Invisible:          p.Invisible(),
			AbilityPhase:       p.Ability.Phase.String(),
			AbilityRemainingMs: p.Ability.ActiveRemainingMs,
			CooldownMs:         p.Ability.CooldownMs,
		},
		Enemies:         make([]EnemySnapshot, 0, len(r.Enemies)),
		Foods:           make([]FoodSnapshot, 0, len(r.Foods)),
		Score:           r.Score,
		FoodEaten:       r.FoodEaten,
		EnemiesDefeated: r.EnemiesDefeated,
		ElapsedMs:       r.ElapsedMs,
		Timed:           r.Mode.Timed(),
		TimeRemainingMs: r.TimeRemainingMs,
		EndReason:       r.EndReason().String(),
	}

	for _, e := range r.Enemies {
		snap.Enemies = append(snap.Enemies, EnemySnapshot{
			ID:       e.ID,
			X:        e.Pos.X,
			Y:        e.Pos.Y,
			Size:     e.Size,
			Mass:     e.Mass,
			Role:     e.Role.String(),
			Color:    e.Role.Definition().Color,
			Behavior: e.Behavior.String(),
		})
	}

	for _, f := range r.Foods {
		snap.Foods = append(snap.Foods, FoodSnapshot{
			ID:        f.ID,
			X:         f.Pos.X,
			Y:         f.Pos.Y,
			Size:      f.Size,
			Value:     f.Value,
			Color:     f.Color,
			Temporary: f.Temporary,
		})
	}

	if over := len(events) - b.limits.MaxEvents; over > 0 {
		events = events[over:]
	}
	snap.Events = make([]EventSnapshot, 0, len(events))
	for _, ev := range events {
		snap.Events = append(snap.Events, EventSnapshot{
			Type:  ev.Type.String(),
			Tick:  ev.Tick,
			AtMs:  ev.AtMs,
			X:     ev.X,
			Y:     ev.Y,
			Color: ev.Color,
			Value: ev.Value,
		})
	}

	b.latest.Store(snap)
	return snap
}

// Latest returns the newest published snapshot, or nil before the first round
func (b *SnapshotBuffer) Latest() *RoundSnapshot {
	return b.latest.Load()
}

// GetLimits returns the resource limits
func (b *SnapshotBuffer) GetLimits() ResourceLimits {
	return b.limits
}
