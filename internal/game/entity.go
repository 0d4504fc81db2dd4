package game

import "math"

// Vec2 is a point or direction in arena space
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2           { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2           { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2      { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Len() float64              { return math.Hypot(v.X, v.Y) }
func (v Vec2) DistanceTo(o Vec2) float64 { return v.Sub(o).Len() }

// Normalized returns the unit vector, or zero when v has no length
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// SizeForMass is the diameter of a cell carrying mass
func SizeForMass(mass float64) float64 {
	if mass <= 0 {
		return 0
	}
	return 2 * math.Sqrt(mass)
}

// MassForSize inverts SizeForMass
func MassForSize(size float64) float64 {
	return size * size / 4
}

// Movable is the shared state of every cell
type Movable struct {
	Pos   Vec2
	Size  float64
	Mass  float64
	Speed float64
	Role  RoleKind
}

// syncSize re-derives Size after any mass mutation
func (m *Movable) syncSize() {
	if m.Mass < 0 {
		m.Mass = 0
	}
	m.Size = SizeForMass(m.Mass)
}

// clampInside keeps the whole cell inside the arena and reports which axes hit a wall
func (m *Movable) clampInside(width, height float64) (hitX, hitY bool) {
	half := m.Size / 2
	m.Pos.X, hitX = clampAxis(m.Pos.X, half, width)
	m.Pos.Y, hitY = clampAxis(m.Pos.Y, half, height)
	return hitX, hitY
}

func clampAxis(v, half, limit float64) (float64, bool) {
	lo, hi := half, limit-half
	if lo > hi {
		// Cell is wider than the arena; pin it to the center line
		return limit / 2, true
	}
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}

// Player is the single user-controlled cell
type Player struct {
	Movable
	Target  Vec2
	Health  int
	Ability Ability
}

// MaxHealth is the starting health of every player
const MaxHealth = 100

// Invisible reports whether stealth protection is currently on
func (p *Player) Invisible() bool {
	return p.Role == RoleStealth && p.Ability.Active()
}

// Enemy is an AI-controlled cell
type Enemy struct {
	Movable
	ID            uint64
	Direction     Vec2
	Behavior      Behavior
	AggroTimerMs  float64
	WanderTimerMs float64
}

// Food is a stationary pellet. Temporary food comes from ejected mass and expires.
type Food struct {
	ID          uint64
	Pos         Vec2
	Size        float64
	Value       int
	Color       string
	Temporary   bool
	ExpiresAtMs float64

	eaten bool
}

// MaxFoodSize bounds the diameter of any food pellet
const MaxFoodSize = 13.0

// FoodPalette is the fixed color set for natural food
var FoodPalette = [...]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
}
