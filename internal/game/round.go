package game

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"cell-arena/internal/game/spatial"
)

// RoundPhase is the lifecycle state of a round
type RoundPhase uint8

const (
	PhaseReady RoundPhase = iota
	PhaseRunning
	PhasePaused
	PhaseEnded
)

func (p RoundPhase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EndReason says why a round stopped
type EndReason uint8

const (
	EndNone EndReason = iota
	EndTime
	EndDefeat
	EndTooSmall
)

func (r EndReason) String() string {
	switch r {
	case EndNone:
		return ""
	case EndTime:
		return "time"
	case EndDefeat:
		return "defeat"
	case EndTooSmall:
		return "too_small"
	default:
		return "unknown"
	}
}

// MarshalText encodes the reason name
func (r EndReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Player action limits
const (
	MinPlayerSize   = 8
	SplitMaxSize    = 80
	SplitCostFactor = 4
	SplitScatter    = 50
)

// RoundOptions carries arena geometry and tuning into a round
type RoundOptions struct {
	Width          float64
	Height         float64
	GridCellSize   float64
	MaxTickDeltaMs float64 // 0 = uncapped
	Rand           *rand.Rand
}

// Round is the complete mutable state of one play session. It is not safe
// for concurrent use; the engine goroutine owns it.
type Round struct {
	ID      string
	Mode    GameMode
	Player  *Player
	Enemies []*Enemy
	Foods   []*Food

	Score           int
	FoodEaten       int
	EnemiesDefeated int
	ElapsedMs       float64
	TimeRemainingMs float64 // meaningful only when Mode.Timed()

	phase     RoundPhase
	endReason EndReason
	tickNum   uint64

	startedAt   time.Time
	lastTickAt  time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	endedAt     time.Time

	width, height float64
	maxDtMs       float64
	rng           *rand.Rand
	grid          *spatial.SpatialGrid
	pending       []pendingSpawn
	events        []Event
	nextID        uint64
}

// ParseSelection validates the role and mode chosen for a new round
func ParseSelection(roleKey, modeKey string) (RoleKind, ModeKind, error) {
	role, err := ParseRole(roleKey)
	if err != nil {
		return 0, 0, err
	}
	mode, err := ParseMode(modeKey)
	if err != nil {
		return 0, 0, err
	}
	return role, mode, nil
}

// NewRound builds a populated round in the ready phase
func NewRound(id string, role RoleKind, mode ModeKind, opts RoundOptions) *Round {
	def := role.Definition()
	gm := mode.Definition()

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cell := opts.GridCellSize
	if cell <= 0 {
		cell = 100
	}

	r := &Round{
		ID:              id,
		Mode:            gm,
		width:           opts.Width,
		height:          opts.Height,
		maxDtMs:         opts.MaxTickDeltaMs,
		rng:             rng,
		grid:            spatial.NewSpatialGrid(opts.Width, opts.Height, cell, gm.FoodCount*2),
		Foods:           make([]*Food, 0, gm.FoodCount+16),
		Enemies:         make([]*Enemy, 0, gm.EnemyCount),
		TimeRemainingMs: gm.DurationMs,
	}

	center := Vec2{X: opts.Width / 2, Y: opts.Height / 2}
	r.Player = &Player{
		Movable: Movable{
			Pos:   center,
			Mass:  def.BaseMass(),
			Speed: def.BaseSpeed,
			Role:  role,
		},
		Target: center,
		Health: MaxHealth,
	}
	r.Player.syncSize()

	for i := 0; i < gm.FoodCount; i++ {
		r.spawnFood()
	}
	for i := 0; i < gm.EnemyCount; i++ {
		r.spawnEnemy()
	}
	return r
}

// Start moves a ready round to running at now
func (r *Round) Start(now time.Time) {
	if r.phase != PhaseReady {
		return
	}
	r.phase = PhaseRunning
	r.startedAt = now
	r.lastTickAt = now
	r.emit(EventRoundStart, r.Player.Pos, r.Player.Role.Definition().Color, 0)
}

// Tick runs one simulation step: AI, movement, abilities, collisions, then
// the round clock, replenishment and end conditions.
func (r *Round) Tick(now time.Time) {
	if r.phase != PhaseRunning {
		return
	}

	dtMs := float64(now.Sub(r.lastTickAt)) / float64(time.Millisecond)
	r.lastTickAt = now
	if dtMs < 0 {
		dtMs = 0
	}
	if r.maxDtMs > 0 && dtMs > r.maxDtMs {
		dtMs = r.maxDtMs
	}
	r.tickNum++

	r.steerEnemies(dtMs)
	r.movePlayer(dtMs)
	r.moveEnemies(dtMs)
	r.updateAbility(dtMs)
	r.resolveFood()
	r.resolveEnemies()
	// Growth from eating can push a cell against the wall past the boundary
	r.Player.clampInside(r.width, r.height)

	r.advanceClock(now)
	r.replenish()
	r.checkEnd(now)
}

func (r *Round) advanceClock(now time.Time) {
	elapsed := now.Sub(r.startedAt) - r.pausedTotal
	r.ElapsedMs = math.Max(0, float64(elapsed)/float64(time.Millisecond))
	if r.Mode.Timed() {
		r.TimeRemainingMs = math.Max(0, r.Mode.DurationMs-r.ElapsedMs)
	}
}

// checkEnd evaluates end conditions in priority order: time, defeat, size
func (r *Round) checkEnd(now time.Time) {
	switch {
	case r.Mode.Timed() && r.TimeRemainingMs <= 0:
		r.end(EndTime, now)
	case r.Player.Health <= 0:
		r.end(EndDefeat, now)
	case r.Player.Size < MinPlayerSize:
		r.end(EndTooSmall, now)
	}
}

func (r *Round) end(reason EndReason, now time.Time) {
	r.phase = PhaseEnded
	r.endReason = reason
	r.endedAt = now
	r.emit(EventRoundEnd, r.Player.Pos, "", float64(r.Score))
}

// TogglePause flips running and paused. Time spent paused never counts
// toward elapsed time. Returns false if the round is not in play.
func (r *Round) TogglePause(now time.Time) bool {
	switch r.phase {
	case PhaseRunning:
		r.phase = PhasePaused
		r.pausedAt = now
		r.emit(EventPaused, r.Player.Pos, "", 0)
		return true
	case PhasePaused:
		d := now.Sub(r.pausedAt)
		if d < 0 {
			d = 0
		}
		r.pausedTotal += d
		r.lastTickAt = r.lastTickAt.Add(d)
		r.phase = PhaseRunning
		r.emit(EventResumed, r.Player.Pos, "", 0)
		return true
	default:
		return false
	}
}

// SetTarget updates where the player steers. Ignored once the round has ended.
func (r *Round) SetTarget(x, y float64) bool {
	if r.phase == PhaseEnded || math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}
	r.Player.Target = Vec2{X: x, Y: y}
	return true
}

// Split halves the player's mass and nudges its target
func (r *Round) Split() bool {
	if r.phase != PhaseRunning {
		return false
	}
	p := r.Player
	role := p.Role.Definition()
	if p.Mass <= role.SplitCost*SplitCostFactor || p.Size >= SplitMaxSize {
		return false
	}

	p.Mass /= 2
	p.syncSize()
	p.Target = p.Target.Add(Vec2{
		X: r.rng.Float64()*SplitScatter - SplitScatter/2,
		Y: r.rng.Float64()*SplitScatter - SplitScatter/2,
	})
	r.emit(EventSplit, p.Pos, role.Color, p.Mass)
	return true
}

// Eject trades mass for a temporary pellet at the player's position
func (r *Round) Eject() bool {
	if r.phase != PhaseRunning {
		return false
	}
	p := r.Player
	if p.Mass <= EjectMinMass {
		return false
	}

	p.Mass -= EjectMassCost
	p.syncSize()
	color := p.Role.Definition().Color
	r.spawnEjected(p.Pos, color)
	r.emit(EventEject, p.Pos, color, EjectMassCost)
	return true
}

// Apply executes a queued player command
func (r *Round) Apply(cmd Command, now time.Time) bool {
	switch cmd.Type {
	case CommandSetTarget:
		return r.SetTarget(cmd.X, cmd.Y)
	case CommandSplit:
		return r.Split()
	case CommandEject:
		return r.Eject()
	case CommandTogglePause:
		return r.TogglePause(now)
	default:
		panic(fmt.Sprintf("game: unhandled command %d", cmd.Type))
	}
}

func (r *Round) emit(t EventType, pos Vec2, color string, value float64) {
	r.events = append(r.events, Event{
		Type:  t,
		Tick:  r.tickNum,
		AtMs:  r.ElapsedMs,
		X:     pos.X,
		Y:     pos.Y,
		Color: color,
		Value: value,
	})
}

// DrainEvents appends pending events to dst and clears them
func (r *Round) DrainEvents(dst []Event) []Event {
	dst = append(dst, r.events...)
	r.events = r.events[:0]
	return dst
}

func (r *Round) Phase() RoundPhase    { return r.phase }
func (r *Round) EndReason() EndReason { return r.endReason }
func (r *Round) Running() bool        { return r.phase == PhaseRunning }
func (r *Round) Paused() bool         { return r.phase == PhasePaused }
func (r *Round) Ended() bool          { return r.phase == PhaseEnded }
func (r *Round) TickNum() uint64      { return r.tickNum }
func (r *Round) Width() float64       { return r.width }
func (r *Round) Height() float64      { return r.height }

// Summary is the final record of an ended round
type Summary struct {
	RoundID         string    `json:"roundId"`
	Role            string    `json:"role"`
	Mode            string    `json:"mode"`
	Score           int       `json:"score"`
	FoodEaten       int       `json:"foodEaten"`
	EnemiesDefeated int       `json:"enemiesDefeated"`
	ElapsedMs       float64   `json:"elapsedMs"`
	FinalMass       float64   `json:"finalMass"`
	EndReason       EndReason `json:"endReason"`
	EndedAt         time.Time `json:"endedAt"`
}

// Summary reports the round's final statistics
func (r *Round) Summary() Summary {
	return Summary{
		RoundID:         r.ID,
		Role:            r.Player.Role.String(),
		Mode:            r.Mode.Key,
		Score:           r.Score,
		FoodEaten:       r.FoodEaten,
		EnemiesDefeated: r.EnemiesDefeated,
		ElapsedMs:       r.ElapsedMs,
		FinalMass:       r.Player.Mass,
		EndReason:       r.endReason,
		EndedAt:         r.endedAt,
	}
}
