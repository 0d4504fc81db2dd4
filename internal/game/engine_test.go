package game

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestNewEngineDefaults verifies zero config falls back to defaults
func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(EngineConfig{})
	cfg := e.Config()
	if cfg.TickRate != 60 || cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("config = %+v, want defaults", cfg)
	}
	if e.GetSnapshot() != nil {
		t.Error("snapshot should be nil before the first round")
	}
	if _, ok := e.LastSummary(); ok {
		t.Error("no summary expected before any round ends")
	}
}

// TestEngineStartStop verifies engine can start and stop without panics
func TestEngineStartStop(t *testing.T) {
	e := NewEngine(EngineConfig{TickRate: 30})

	e.Start()
	time.Sleep(50 * time.Millisecond)
	e.Stop()

	// Should not panic on double stop
	e.Stop()
}

// TestStartRoundValidation verifies selection errors surface before the engine is touched
func TestStartRoundValidation(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	tests := []struct {
		name    string
		role    string
		mode    string
		wantErr error
	}{
		{"missing role", "", "classic", ErrMissingRole},
		{"missing mode", "tank", "", ErrMissingMode},
		{"unknown role", "wizard", "classic", ErrUnknownRole},
		{"engine not started", "tank", "classic", ErrEngineStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.StartRound(tt.role, tt.mode); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := e.Submit(Command{Type: CommandSplit}); !errors.Is(err, ErrEngineStopped) {
		t.Errorf("Submit on stopped engine = %v, want ErrEngineStopped", err)
	}
}

// TestEngineLiveRound drives a round through the real loop
func TestEngineLiveRound(t *testing.T) {
	e := NewEngine(EngineConfig{TickRate: 200, Seed: 11})
	e.Start()
	defer e.Stop()

	if err := e.Submit(Command{Type: CommandSplit}); !errors.Is(err, ErrNoRound) {
		t.Errorf("Submit without round = %v, want ErrNoRound", err)
	}

	// A base-size tank cannot be eaten by any freshly spawned enemy
	info, err := e.StartRound("tank", "classic")
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if info.Role.Key != "tank" || info.Mode.Key != "classic" || info.RoundID == "" {
		t.Errorf("unexpected round info %+v", info)
	}
	if snap := e.GetSnapshot(); snap == nil || snap.RoundID != info.RoundID {
		t.Fatal("snapshot not published on round start")
	}

	if err := e.Submit(Command{Type: CommandSetTarget, X: 321, Y: 123}); err != nil {
		t.Fatalf("Submit target: %v", err)
	}
	waitFor(t, "target applied", func() bool {
		s := e.GetSnapshot()
		return s.Player.TargetX == 321 && s.Player.TargetY == 123
	})

	if err := e.Submit(Command{Type: CommandTogglePause}); err != nil {
		t.Fatalf("Submit pause: %v", err)
	}
	waitFor(t, "pause", func() bool {
		return e.GetSnapshot().Phase == PhasePaused.String()
	})

	e.Stop()
	if _, err := e.StartRound("tank", "classic"); !errors.Is(err, ErrEngineStopped) {
		t.Errorf("StartRound after stop = %v, want ErrEngineStopped", err)
	}
}

// TestEngineTimedRoundWithFakeClock steps the loop body by hand
func TestEngineTimedRoundWithFakeClock(t *testing.T) {
	clk := &fakeClock{now: testEpoch}
	e := NewEngine(EngineConfig{Seed: 3, Clock: clk.Now})

	var ended []Summary
	var ticks int
	var seen []EventType
	e.SetCallbacks(nil,
		func(s Summary) { ended = append(ended, s) },
		func(time.Duration, *RoundSnapshot) { ticks++ },
		func(_ string, ev Event) { seen = append(seen, ev.Type) },
	)

	info := e.beginRound(RolePredator, ModeTimed)
	e.round.Enemies = e.round.Enemies[:0]
	if !e.RoundActive() {
		t.Fatal("round should be active")
	}
	if snap := e.GetSnapshot(); snap.Phase != "running" || !snap.Timed || snap.TimeRemainingMs != 180000 {
		t.Errorf("unexpected first snapshot %+v", snap)
	}

	e.handle(Command{Type: CommandSetTarget, X: 100, Y: 100})
	clk.Advance(16 * time.Millisecond)
	e.tick()

	snap := e.GetSnapshot()
	if snap.Player.TargetX != 100 || snap.TickNumber != 1 {
		t.Errorf("command not applied at tick boundary: target=%.0f tick=%d", snap.Player.TargetX, snap.TickNumber)
	}

	clk.Advance(180 * time.Second)
	e.tick()

	s, ok := e.LastSummary()
	if !ok || s.EndReason != EndTime || s.RoundID != info.RoundID {
		t.Fatalf("summary = %+v ok=%v, want time end for %s", s, ok, info.RoundID)
	}
	if len(ended) != 1 || ticks != 2 {
		t.Errorf("callbacks: ended=%d ticks=%d, want 1 and 2", len(ended), ticks)
	}
	if e.RoundActive() {
		t.Error("round should be inactive after the end")
	}
	if len(seen) == 0 || seen[0] != EventRoundStart || seen[len(seen)-1] != EventRoundEnd {
		t.Errorf("event order = %v", seen)
	}

	// The ended round is frozen
	before := e.TickCount()
	clk.Advance(time.Second)
	e.tick()
	if e.TickCount() != before {
		t.Error("ended round kept ticking")
	}
}
