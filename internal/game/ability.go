package game

import (
	"fmt"
	"math"
)

// AbilityPhase is the state of a role's special ability
type AbilityPhase uint8

const (
	AbilityIdle AbilityPhase = iota
	AbilityActive
	AbilityCooling
)

func (p AbilityPhase) String() string {
	switch p {
	case AbilityIdle:
		return "idle"
	case AbilityActive:
		return "active"
	case AbilityCooling:
		return "cooling"
	default:
		return "unknown"
	}
}

// Stealth invisibility timing
const (
	InvisibilityDurationMs = 3000
	InvisibilityCooldownMs = 10000

	// Activation odds are defined per 60 Hz frame and rescaled to the actual dt
	stealthChancePerFrame = 0.008
	referenceFramesPerSec = 60
)

// HealerRegenPerFrame is the mass a healer regains per reference frame
const HealerRegenPerFrame = 0.5

var stealthChancePerSecond = 1 - math.Pow(1-stealthChancePerFrame, referenceFramesPerSec)

// Ability is the pure state machine Idle -> Active -> Cooling -> Idle
type Ability struct {
	Phase             AbilityPhase
	ActiveRemainingMs float64
	CooldownMs        float64
}

// Active reports whether the ability effect is on
func (a Ability) Active() bool { return a.Phase == AbilityActive }

// Ready reports whether the ability may be triggered
func (a Ability) Ready() bool { return a.Phase == AbilityIdle }

// Activate starts the effect and arms the cooldown. Only valid from Idle.
func (a Ability) Activate(durationMs, cooldownMs float64) Ability {
	if a.Phase != AbilityIdle {
		panic(fmt.Sprintf("game: ability activated from phase %s", a.Phase))
	}
	return Ability{
		Phase:             AbilityActive,
		ActiveRemainingMs: durationMs,
		CooldownMs:        cooldownMs,
	}
}

// Advance moves the machine forward by dtMs
func (a Ability) Advance(dtMs float64) Ability {
	a.CooldownMs = math.Max(0, a.CooldownMs-dtMs)

	if a.Phase == AbilityActive {
		a.ActiveRemainingMs -= dtMs
		if a.ActiveRemainingMs > 0 {
			return a
		}
		a.ActiveRemainingMs = 0
		a.Phase = AbilityCooling
	}
	if a.Phase == AbilityCooling && a.CooldownMs <= 0 {
		a.Phase = AbilityIdle
	}
	return a
}

// stealthActivationChance converts the per-frame odds into odds for a tick of dtMs
func stealthActivationChance(dtMs float64) float64 {
	if dtMs <= 0 {
		return 0
	}
	return 1 - math.Pow(1-stealthChancePerSecond, dtMs/1000)
}

// updateAbility runs the player's role ability for one tick
func (r *Round) updateAbility(dtMs float64) {
	p := r.Player
	wasActive := p.Ability.Active()
	p.Ability = p.Ability.Advance(dtMs)

	role := p.Role.Definition()
	switch role.Special {
	case SpecialInvisibility:
		if wasActive && !p.Ability.Active() {
			r.emit(EventStealthOff, p.Pos, role.Color, 0)
		}
		if p.Ability.Ready() && r.rng.Float64() < stealthActivationChance(dtMs) {
			p.Ability = p.Ability.Activate(InvisibilityDurationMs, InvisibilityCooldownMs)
			r.emit(EventStealthOn, p.Pos, role.Color, 0)
		}

	case SpecialRegeneration:
		limit := role.MaxRegenMass()
		if p.Mass > role.BaseMass() && p.Mass < limit {
			p.Mass = math.Min(p.Mass+HealerRegenPerFrame*frameScale(dtMs), limit)
			p.syncSize()
		}

	case SpecialNone:

	default:
		panic(fmt.Sprintf("game: unhandled special %d", role.Special))
	}
}
