package game

import "math"

const (
	// ReferenceFrameMs is the frame length speeds are calibrated against
	ReferenceFrameMs = 16.67

	// PlayerArriveDistance is how close the player must be before it stops
	PlayerArriveDistance = 5
)

func frameScale(dtMs float64) float64 {
	return dtMs / ReferenceFrameMs
}

// movePlayer steps the player toward its target
func (r *Round) movePlayer(dtMs float64) {
	p := r.Player
	to := p.Target.Sub(p.Pos)
	dist := to.Len()
	if dist > PlayerArriveDistance {
		// Capped at the remaining distance so long ticks do not overshoot
		step := math.Min(p.Speed*frameScale(dtMs), dist)
		p.Pos = p.Pos.Add(to.Scale(step / dist))
	}
	p.clampInside(r.width, r.height)
	p.syncSize()
}

// moveEnemies integrates enemy motion and reflects off walls
func (r *Round) moveEnemies(dtMs float64) {
	scale := frameScale(dtMs)
	for _, e := range r.Enemies {
		e.Pos = e.Pos.Add(e.Direction.Scale(e.Speed * scale))
		hitX, hitY := e.clampInside(r.width, r.height)
		if hitX {
			e.Direction.X = reflect(e.Direction.X, e.Pos.X, r.width)
		}
		if hitY {
			e.Direction.Y = reflect(e.Direction.Y, e.Pos.Y, r.height)
		}
	}
}

// reflect points a direction component back into the arena
func reflect(d, pos, limit float64) float64 {
	if pos < limit/2 {
		return math.Abs(d)
	}
	return -math.Abs(d)
}
