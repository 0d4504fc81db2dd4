package game

import "math"

// Collision rules
const (
	DominanceRatio      = 1.3 // size ratio needed to eat another cell
	EnemyMassEfficiency = 0.8 // share of enemy mass absorbed
	EnemyScorePerSize   = 15
	FoodScoreMultiplier = 2
	BounceDistance      = 10
)

func touching(a, b Vec2, sizeA, sizeB float64) bool {
	return a.DistanceTo(b) < (sizeA+sizeB)/2
}

// resolveFood eats every pellet overlapping the player.
// Contact uses the player's size at the start of the pass; size is re-derived once at the end.
func (r *Round) resolveFood() {
	p := r.Player

	r.grid.Rebuild(len(r.Foods), func(i int) (float64, float64) {
		return r.Foods[i].Pos.X, r.Foods[i].Pos.Y
	})

	size := p.Size
	ate := false
	for _, idx := range r.grid.QueryRadius(p.Pos.X, p.Pos.Y, size/2+MaxFoodSize/2) {
		f := r.Foods[idx]
		if f.eaten || !touching(p.Pos, f.Pos, size, f.Size) {
			continue
		}
		f.eaten = true
		ate = true

		p.Mass += float64(f.Value)
		r.Score += f.Value * FoodScoreMultiplier
		r.FoodEaten++
		r.emit(EventFoodEaten, f.Pos, f.Color, float64(f.Value))
		if !f.Temporary {
			r.scheduleFood()
		}
	}
	if !ate {
		return
	}
	p.syncSize()

	// Compact in place, keeping order
	n := 0
	for _, f := range r.Foods {
		if f.eaten {
			continue
		}
		r.Foods[n] = f
		n++
	}
	clear(r.Foods[n:])
	r.Foods = r.Foods[:n]
}

// resolveEnemies handles player-enemy contact. Once the player has been
// eaten no further enemies are examined this tick.
func (r *Round) resolveEnemies() {
	p := r.Player

	n := 0
	for _, e := range r.Enemies {
		if p.Health > 0 && touching(p.Pos, e.Pos, p.Size, e.Size) {
			switch {
			case p.Size > e.Size*DominanceRatio:
				r.consumeEnemy(e)
				continue

			case e.Size > p.Size*DominanceRatio:
				if !p.Invisible() {
					p.Health = 0
					r.emit(EventPlayerEaten, p.Pos, e.Role.Definition().Color, e.Size)
				}

			default:
				r.bounce(e)
			}
		}
		r.Enemies[n] = e
		n++
	}
	clear(r.Enemies[n:])
	r.Enemies = r.Enemies[:n]
}

func (r *Round) consumeEnemy(e *Enemy) {
	p := r.Player
	p.Mass += e.Mass * EnemyMassEfficiency
	p.syncSize()
	gained := int(math.Floor(e.Size * EnemyScorePerSize))
	r.Score += gained
	r.EnemiesDefeated++
	r.emit(EventEnemyEaten, e.Pos, e.Role.Definition().Color, float64(gained))
	r.scheduleEnemy()
}

// bounce pushes two similar-sized cells apart along the line between them
func (r *Round) bounce(e *Enemy) {
	p := r.Player
	dir := e.Pos.Sub(p.Pos).Normalized()
	p.Pos = p.Pos.Sub(dir.Scale(BounceDistance))
	e.Pos = e.Pos.Add(dir.Scale(BounceDistance))
	p.clampInside(r.width, r.height)
	e.clampInside(r.width, r.height)
	r.emit(EventBounce, p.Pos.Add(e.Pos).Scale(0.5), "", 0)
}
