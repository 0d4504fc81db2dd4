package game

// Spawning and replenishment tuning
const (
	FoodMargin  = 20
	EnemyMargin = 50

	FoodRespawnDelayMs     = 100
	EnemyRespawnMinDelayMs = 2000
	EnemyRespawnSpanMs     = 3000

	EjectMassCost     = 10
	EjectMinMass      = 20
	EjectedFoodValue  = 8
	EjectedFoodSize   = 8
	EjectedFoodLifeMs = 5000
)

type spawnKind uint8

const (
	spawnFood spawnKind = iota
	spawnEnemy
)

// pendingSpawn is a replacement waiting for its delay to elapse
type pendingSpawn struct {
	kind    spawnKind
	dueAtMs float64
}

// uniform draws from [lo, hi), collapsing to the midpoint if the range is empty
func (r *Round) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + r.rng.Float64()*(hi-lo)
}

func (r *Round) newID() uint64 {
	r.nextID++
	return r.nextID
}

// spawnFood places a natural food pellet
func (r *Round) spawnFood() {
	r.Foods = append(r.Foods, &Food{
		ID: r.newID(),
		Pos: Vec2{
			X: r.uniform(FoodMargin, r.width-FoodMargin),
			Y: r.uniform(FoodMargin, r.height-FoodMargin),
		},
		Size:  3 + r.rng.Float64()*10,
		Value: 5 + r.rng.Intn(10),
		Color: FoodPalette[r.rng.Intn(len(FoodPalette))],
	})
}

// spawnEjected drops a temporary pellet at pos
func (r *Round) spawnEjected(pos Vec2, color string) {
	r.Foods = append(r.Foods, &Food{
		ID:          r.newID(),
		Pos:         pos,
		Size:        EjectedFoodSize,
		Value:       EjectedFoodValue,
		Color:       color,
		Temporary:   true,
		ExpiresAtMs: r.ElapsedMs + EjectedFoodLifeMs,
	})
}

// spawnEnemy creates an enemy with a random role and behavior
func (r *Round) spawnEnemy() {
	role := RoleKind(r.rng.Intn(int(roleCount))).Definition()
	size := role.BaseSize + r.rng.Float64()*20 - 10

	e := &Enemy{
		Movable: Movable{
			Pos: Vec2{
				X: r.uniform(EnemyMargin, r.width-EnemyMargin),
				Y: r.uniform(EnemyMargin, r.height-EnemyMargin),
			},
			Mass:  MassForSize(size),
			Speed: role.BaseSpeed * (0.8 + r.rng.Float64()*0.4),
			Role:  role.Kind,
		},
		ID: r.newID(),
		Direction: Vec2{
			X: (r.rng.Float64() - 0.5) * 2,
			Y: (r.rng.Float64() - 0.5) * 2,
		},
		Behavior:     Behavior(r.rng.Intn(int(behaviorCount))),
		AggroTimerMs: r.rng.Float64() * 3000,
	}
	e.syncSize()
	r.Enemies = append(r.Enemies, e)
}

func (r *Round) scheduleFood() {
	r.pending = append(r.pending, pendingSpawn{kind: spawnFood, dueAtMs: r.ElapsedMs + FoodRespawnDelayMs})
}

func (r *Round) scheduleEnemy() {
	delay := EnemyRespawnMinDelayMs + r.rng.Float64()*EnemyRespawnSpanMs
	r.pending = append(r.pending, pendingSpawn{kind: spawnEnemy, dueAtMs: r.ElapsedMs + delay})
}

// replenish releases due spawns, expires ejected pellets and tops up any deficit
func (r *Round) replenish() {
	n := 0
	for _, ps := range r.pending {
		if ps.dueAtMs > r.ElapsedMs {
			r.pending[n] = ps
			n++
			continue
		}
		switch ps.kind {
		case spawnFood:
			r.spawnFood()
		case spawnEnemy:
			r.spawnEnemy()
		}
	}
	r.pending = r.pending[:n]

	n = 0
	for _, f := range r.Foods {
		if f.Temporary && f.ExpiresAtMs <= r.ElapsedMs {
			continue
		}
		r.Foods[n] = f
		n++
	}
	clear(r.Foods[n:])
	r.Foods = r.Foods[:n]

	foodHave, enemyHave := r.naturalFoodCount(), len(r.Enemies)
	for _, ps := range r.pending {
		if ps.kind == spawnFood {
			foodHave++
		} else {
			enemyHave++
		}
	}
	for ; foodHave < r.Mode.FoodCount; foodHave++ {
		r.scheduleFood()
	}
	for ; enemyHave < r.Mode.EnemyCount; enemyHave++ {
		r.scheduleEnemy()
	}
}

func (r *Round) naturalFoodCount() int {
	n := 0
	for _, f := range r.Foods {
		if !f.Temporary {
			n++
		}
	}
	return n
}
