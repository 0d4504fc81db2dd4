package game

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration rejections. Callers match these with errors.Is.
var (
	ErrMissingRole = errors.New("no role selected")
	ErrMissingMode = errors.New("no game mode selected")
	ErrUnknownRole = errors.New("unknown role")
	ErrUnknownMode = errors.New("unknown game mode")
)

// RoleKind is the closed set of cell archetypes
type RoleKind uint8

const (
	RolePredator RoleKind = iota
	RoleTank
	RoleStealth
	RoleHealer
	roleCount
)

// SpecialKind identifies a role's ability
type SpecialKind uint8

const (
	SpecialNone SpecialKind = iota
	SpecialInvisibility
	SpecialRegeneration
)

// Role holds the immutable base stats of an archetype
type Role struct {
	Kind        RoleKind    `json:"-"`
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Color       string      `json:"color"`
	BaseSpeed   float64     `json:"baseSpeed"`
	BaseSize    float64     `json:"baseSize"`
	SplitCost   float64     `json:"splitCost"`
	Special     SpecialKind `json:"-"`
	Description string      `json:"description"`
}

var roles = [roleCount]Role{
	RolePredator: {
		Kind:        RolePredator,
		Key:         "predator",
		Name:        "Predator",
		Color:       "#FF4757",
		BaseSpeed:   2.2,
		BaseSize:    20,
		SplitCost:   30,
		Special:     SpecialNone,
		Description: "Fast and aggressive, strong against tanks",
	},
	RoleTank: {
		Kind:        RoleTank,
		Key:         "tank",
		Name:        "Tank",
		Color:       "#3742FA",
		BaseSpeed:   0.8,
		BaseSize:    35,
		SplitCost:   50,
		Special:     SpecialNone,
		Description: "Slow but sturdy, strong against healers",
	},
	RoleStealth: {
		Kind:        RoleStealth,
		Key:         "stealth",
		Name:        "Stealth",
		Color:       "#5F27CD",
		BaseSpeed:   1.6,
		BaseSize:    15,
		SplitCost:   25,
		Special:     SpecialInvisibility,
		Description: "Turns invisible for short bursts, strong against predators",
	},
	RoleHealer: {
		Kind:        RoleHealer,
		Key:         "healer",
		Name:        "Healer",
		Color:       "#00D2D3",
		BaseSpeed:   1.2,
		BaseSize:    25,
		SplitCost:   35,
		Special:     SpecialRegeneration,
		Description: "Regenerates mass above baseline, strong against stealth",
	},
}

// Definition returns the base stats for a role.
// An out-of-range kind is a programming error and panics.
func (k RoleKind) Definition() Role {
	if k >= roleCount {
		panic(fmt.Sprintf("game: role kind %d out of range", k))
	}
	return roles[k]
}

// String returns the role key
func (k RoleKind) String() string {
	if k >= roleCount {
		return "unknown"
	}
	return roles[k].Key
}

// MarshalText encodes the role as its key
func (k RoleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// BaseMass is the mass a freshly spawned cell of this role carries
func (r Role) BaseMass() float64 {
	return r.BaseSize * r.BaseSize / 4
}

// MaxRegenMass caps healer regeneration
func (r Role) MaxRegenMass() float64 {
	return r.BaseSize * r.BaseSize * 4
}

// ParseRole validates an externally supplied role key
func ParseRole(key string) (RoleKind, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return 0, ErrMissingRole
	}
	for _, r := range roles {
		if r.Key == key {
			return r.Kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, key)
}

// AllRoles returns every role in declaration order
func AllRoles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles[:])
	return out
}
