package game

import "testing"

// TestSnapshotCapture verifies copies, sequencing and the event cap
func TestSnapshotCapture(t *testing.T) {
	r := newTestRound(RoleStealth, ModeSurvival)
	b := NewSnapshotBuffer(ResourceLimits{MaxEvents: 4})

	if b.Latest() != nil {
		t.Fatal("empty buffer should return nil")
	}

	events := make([]Event, 10)
	for i := range events {
		events[i] = Event{Type: EventFoodEaten, Tick: uint64(i)}
	}

	snap := b.Capture(r, events, at(0))
	if snap.Sequence != 1 || b.Latest() != snap {
		t.Fatalf("sequence = %d, latest mismatch", snap.Sequence)
	}
	if len(snap.Events) != 4 || snap.Events[0].Tick != 6 || snap.Events[0].Type != "food_eaten" {
		t.Errorf("events = %+v, want the newest four", snap.Events)
	}
	if len(snap.Enemies) != len(r.Enemies) || len(snap.Foods) != len(r.Foods) {
		t.Errorf("entity counts: enemies=%d foods=%d", len(snap.Enemies), len(snap.Foods))
	}
	if snap.Player.Role != "stealth" || snap.Player.Color != "#5F27CD" || snap.Mode != "survival" {
		t.Errorf("player/mode fields wrong: %+v", snap.Player)
	}
	if snap.Timed {
		t.Error("survival is untimed")
	}

	// Snapshots are copies: mutating the round leaves them untouched
	r.Player.Pos.X = -1
	r.Enemies[0].Pos.X = -1
	if snap.Player.X == -1 || snap.Enemies[0].X == -1 {
		t.Error("snapshot aliases live round state")
	}

	if next := b.Capture(r, nil, at(16)); next.Sequence != 2 || len(next.Events) != 0 {
		t.Errorf("second capture sequence=%d events=%d", next.Sequence, len(next.Events))
	}
}

// TestSnapshotBufferDefaultLimits verifies a zero limit falls back
func TestSnapshotBufferDefaultLimits(t *testing.T) {
	if got := NewSnapshotBuffer(ResourceLimits{}).GetLimits().MaxEvents; got != DefaultLimits.MaxEvents {
		t.Errorf("max events = %d, want %d", got, DefaultLimits.MaxEvents)
	}
}
