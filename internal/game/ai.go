package game

import "fmt"

// Behavior is an enemy's steering strategy
type Behavior uint8

const (
	BehaviorRandom Behavior = iota
	BehaviorAggressive
	BehaviorFoodSeeker
	BehaviorTerritorial
	behaviorCount
)

func (b Behavior) String() string {
	switch b {
	case BehaviorRandom:
		return "random"
	case BehaviorAggressive:
		return "aggressive"
	case BehaviorFoodSeeker:
		return "food_seeker"
	case BehaviorTerritorial:
		return "territorial"
	default:
		return "unknown"
	}
}

// MarshalText encodes the behavior name
func (b Behavior) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// AI tuning
const (
	AggroRange     = 300
	AggroHoldMs    = 2000
	FoodSightRange = 200
	WanderMinMs    = 2000
	WanderSpanMs   = 3000
)

// steerEnemies chooses a direction for every enemy
func (r *Round) steerEnemies(dtMs float64) {
	for _, e := range r.Enemies {
		r.steer(e, dtMs)
	}
}

func (r *Round) steer(e *Enemy, dtMs float64) {
	e.AggroTimerMs -= dtMs
	e.WanderTimerMs -= dtMs

	switch e.Behavior {
	case BehaviorAggressive:
		r.steerAggressive(e)
	case BehaviorFoodSeeker:
		r.steerFoodSeeker(e)
	case BehaviorRandom:
		r.wander(e)
	case BehaviorTerritorial:
		// No territory is modelled; these wander like random enemies
		r.wander(e)
	default:
		panic(fmt.Sprintf("game: unhandled behavior %d", e.Behavior))
	}
}

func (r *Round) steerAggressive(e *Enemy) {
	if e.AggroTimerMs > 0 {
		return
	}
	to := r.Player.Pos.Sub(e.Pos)
	if to.Len() < AggroRange {
		e.Direction = to.Normalized()
		e.AggroTimerMs = AggroHoldMs
		return
	}
	e.Behavior = BehaviorRandom
}

func (r *Round) steerFoodSeeker(e *Enemy) {
	f := r.nearestFood(e.Pos)
	if f == nil {
		e.Behavior = BehaviorRandom
		return
	}
	to := f.Pos.Sub(e.Pos)
	if to.Len() < FoodSightRange {
		e.Direction = to.Normalized()
	}
}

func (r *Round) wander(e *Enemy) {
	if e.WanderTimerMs > 0 {
		return
	}
	e.Direction = Vec2{
		X: (r.rng.Float64() - 0.5) * 2,
		Y: (r.rng.Float64() - 0.5) * 2,
	}
	e.WanderTimerMs = WanderMinMs + r.rng.Float64()*WanderSpanMs
}

// nearestFood returns the closest pellet; the first one scanned wins ties
func (r *Round) nearestFood(from Vec2) *Food {
	var best *Food
	bestDist := 0.0
	for _, f := range r.Foods {
		d := from.DistanceTo(f.Pos)
		if best == nil || d < bestDist {
			best, bestDist = f, d
		}
	}
	return best
}
