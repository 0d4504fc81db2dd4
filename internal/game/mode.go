package game

import (
	"fmt"
	"strings"
)

// ModeKind is the closed set of game modes
type ModeKind uint8

const (
	ModeClassic ModeKind = iota
	ModeSurvival
	ModeTimed
	ModeSwarm
	modeCount
)

// GameMode is read-only round configuration
type GameMode struct {
	Kind        ModeKind `json:"-"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	EnemyCount  int      `json:"enemyCount"`
	FoodCount   int      `json:"foodCount"`
	DurationMs  float64  `json:"durationMs"` // 0 = no countdown
	Description string   `json:"description"`
}

var modes = [modeCount]GameMode{
	ModeClassic: {
		Kind:        ModeClassic,
		Key:         "classic",
		Name:        "Classic",
		EnemyCount:  8,
		FoodCount:   100,
		Description: "Traditional mode at normal difficulty",
	},
	ModeSurvival: {
		Kind:        ModeSurvival,
		Key:         "survival",
		Name:        "Survival",
		EnemyCount:  15,
		FoodCount:   80,
		Description: "Survive as long as possible",
	},
	ModeTimed: {
		Kind:        ModeTimed,
		Key:         "timed",
		Name:        "Timed",
		EnemyCount:  10,
		FoodCount:   120,
		DurationMs:  180000,
		Description: "Three minutes to reach the highest score",
	},
	ModeSwarm: {
		Kind:        ModeSwarm,
		Key:         "swarm",
		Name:        "Swarm",
		EnemyCount:  25,
		FoodCount:   150,
		Description: "Crowds of small, fast enemies",
	},
}

// Definition returns the mode config. Out-of-range kinds panic.
func (k ModeKind) Definition() GameMode {
	if k >= modeCount {
		panic(fmt.Sprintf("game: mode kind %d out of range", k))
	}
	return modes[k]
}

// String returns the mode key
func (k ModeKind) String() string {
	if k >= modeCount {
		return "unknown"
	}
	return modes[k].Key
}

// Timed reports whether the mode has a countdown
func (m GameMode) Timed() bool {
	return m.DurationMs > 0
}

// ParseMode validates an externally supplied mode key
func ParseMode(key string) (ModeKind, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return 0, ErrMissingMode
	}
	for _, m := range modes {
		if m.Key == key {
			return m.Kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, key)
}

// AllModes returns every mode in declaration order
func AllModes() []GameMode {
	out := make([]GameMode, len(modes))
	copy(out, modes[:])
	return out
}
