package leaderboard

import (
	"fmt"
	"testing"
	"time"

	"cell-arena/internal/game"
)

func summary(id string, score int, endedAt time.Time) game.Summary {
	return game.Summary{
		RoundID:   id,
		Role:      "predator",
		Mode:      "classic",
		Score:     score,
		EndReason: game.EndDefeat,
		EndedAt:   endedAt,
	}
}

// TestRecordOrdersByScore verifies descending order and reported ranks
func TestRecordOrdersByScore(t *testing.T) {
	b := New(10)
	base := time.Unix(1700000000, 0)

	if rank := b.Record(summary("a", 100, base)); rank != 1 {
		t.Errorf("first rank = %d, want 1", rank)
	}
	if rank := b.Record(summary("b", 300, base)); rank != 1 {
		t.Errorf("higher score rank = %d, want 1", rank)
	}
	if rank := b.Record(summary("c", 200, base)); rank != 2 {
		t.Errorf("middle score rank = %d, want 2", rank)
	}

	top := b.GetTop(0)
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if top[i].RoundID != id {
			t.Errorf("top[%d] = %s, want %s", i, top[i].RoundID, id)
		}
		if top[i].Rank != i+1 {
			t.Errorf("top[%d].Rank = %d, want %d", i, top[i].Rank, i+1)
		}
	}
	if top[0].EndReason != "defeat" {
		t.Errorf("end reason = %q, want defeat", top[0].EndReason)
	}
}

// TestTiesKeepEarlierFinishFirst verifies stable tie handling
func TestTiesKeepEarlierFinishFirst(t *testing.T) {
	b := New(10)
	base := time.Unix(1700000000, 0)

	b.Record(summary("first", 500, base))
	rank := b.Record(summary("second", 500, base.Add(time.Minute)))
	if rank != 2 {
		t.Errorf("tied later round rank = %d, want 2", rank)
	}
	if b.GetRank("first") != 1 {
		t.Errorf("earlier round should stay on top")
	}
}

// TestCapacityBound verifies the board never exceeds its capacity
func TestCapacityBound(t *testing.T) {
	b := New(3)
	base := time.Unix(1700000000, 0)

	for i := 0; i < 5; i++ {
		b.Record(summary(fmt.Sprintf("r%d", i), (i+1)*10, base))
	}
	if b.Len() != 3 {
		t.Fatalf("len = %d, want 3", b.Len())
	}
	if got := b.GetTop(1)[0].Score; got != 50 {
		t.Errorf("top score = %d, want 50", got)
	}

	// Lower than everything on a full board
	if rank := b.Record(summary("low", 1, base)); rank != 0 {
		t.Errorf("rank = %d, want 0 for a score that misses the board", rank)
	}
	if b.GetRank("r0") != 0 {
		t.Error("evicted round should have no rank")
	}
}

// TestGetTopLimit verifies n clamps to the board size
func TestGetTopLimit(t *testing.T) {
	b := New(10)
	b.Record(summary("only", 1, time.Now()))

	if got := len(b.GetTop(5)); got != 1 {
		t.Errorf("GetTop(5) len = %d, want 1", got)
	}
	if got := len(New(0).GetTop(3)); got != 0 {
		t.Errorf("empty board GetTop len = %d, want 0", got)
	}
}
