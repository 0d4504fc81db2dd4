package game

import (
	"math"
	"testing"
)

// TestAbilityStateMachine walks Idle -> Active -> Cooling -> Idle
func TestAbilityStateMachine(t *testing.T) {
	a := Ability{}
	if !a.Ready() || a.Active() {
		t.Fatal("zero ability should be idle")
	}

	a = a.Activate(3000, 10000)
	steps := []struct {
		dt        float64
		phase     AbilityPhase
		remaining float64
		cooldown  float64
	}{
		{1000, AbilityActive, 2000, 9000},
		{2000, AbilityCooling, 0, 7000},
		{6999, AbilityCooling, 0, 1},
		{1, AbilityIdle, 0, 0},
	}

	for i, s := range steps {
		a = a.Advance(s.dt)
		if a.Phase != s.phase || a.ActiveRemainingMs != s.remaining || a.CooldownMs != s.cooldown {
			t.Fatalf("step %d: got %+v, want phase=%s remaining=%.0f cooldown=%.0f",
				i, a, s.phase, s.remaining, s.cooldown)
		}
	}
}

// TestAbilityActivatePanicsWhenBusy verifies activation is only legal from idle
func TestAbilityActivatePanicsWhenBusy(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Ability{}.Activate(1, 1).Activate(1, 1)
}

// TestStealthActivationChance verifies rate correction across tick lengths
func TestStealthActivationChance(t *testing.T) {
	if got := stealthActivationChance(1000.0 / 60); math.Abs(got-stealthChancePerFrame) > 1e-9 {
		t.Errorf("chance at 60 Hz = %.6f, want %.3f", got, stealthChancePerFrame)
	}
	if got := stealthActivationChance(0); got != 0 {
		t.Errorf("chance at dt=0 = %f, want 0", got)
	}

	// Two half ticks must equal one full tick
	half := stealthActivationChance(500)
	full := stealthActivationChance(1000)
	if combined := 1 - (1-half)*(1-half); math.Abs(combined-full) > 1e-12 {
		t.Errorf("two 500ms ticks = %.6f, one 1000ms tick = %.6f", combined, full)
	}
}

// TestStealthCyclesInvisibility verifies activation and expiry events
func TestStealthCyclesInvisibility(t *testing.T) {
	r := newTestRound(RoleStealth, ModeClassic)
	r.DrainEvents(nil)

	sawInvisible := false
	for i := 0; i < 3000; i++ {
		r.updateAbility(ReferenceFrameMs)
		if r.Player.Invisible() {
			sawInvisible = true
		}
	}

	events := r.DrainEvents(nil)
	if !sawInvisible || !hasEvent(events, EventStealthOn) || !hasEvent(events, EventStealthOff) {
		t.Errorf("expected an invisibility cycle in 50s, saw invisible=%v", sawInvisible)
	}
}

// TestNonStealthNeverInvisible verifies only stealth gains protection
func TestNonStealthNeverInvisible(t *testing.T) {
	r := newTestRound(RolePredator, ModeClassic)
	for i := 0; i < 600; i++ {
		r.updateAbility(ReferenceFrameMs)
		if r.Player.Invisible() || r.Player.Ability.Active() {
			t.Fatal("predator became invisible")
		}
	}
}

// TestHealerRegeneration covers the baseline, the rate and the cap
func TestHealerRegeneration(t *testing.T) {
	role := RoleHealer.Definition()
	tests := []struct {
		name string
		mass float64
		want float64
	}{
		{"at baseline", role.BaseMass(), role.BaseMass()},
		{"above baseline", 200, 200 + HealerRegenPerFrame},
		{"near cap", role.MaxRegenMass() - 0.2, role.MaxRegenMass()},
		{"above cap keeps mass", role.MaxRegenMass() + 10, role.MaxRegenMass() + 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRound(RoleHealer, ModeClassic)
			setMass(&r.Player.Movable, tt.mass)

			r.updateAbility(ReferenceFrameMs)

			if math.Abs(r.Player.Mass-tt.want) > 1e-9 {
				t.Errorf("mass = %.4f, want %.4f", r.Player.Mass, tt.want)
			}
			if math.Abs(r.Player.Size-SizeForMass(r.Player.Mass)) > 1e-9 {
				t.Error("size not re-derived after regeneration")
			}
		})
	}
}
