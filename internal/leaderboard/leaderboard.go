// Package leaderboard ranks finished rounds by score.
package leaderboard

import (
	"sort"
	"sync"
	"time"

	"cell-arena/internal/game"
)

// DefaultCapacity is used when a board is created with a non-positive size
const DefaultCapacity = 100

// Entry is one ranked round
type Entry struct {
	Rank            int       `json:"rank"`
	RoundID         string    `json:"roundId"`
	Role            string    `json:"role"`
	Mode            string    `json:"mode"`
	Score           int       `json:"score"`
	FoodEaten       int       `json:"foodEaten"`
	EnemiesDefeated int       `json:"enemiesDefeated"`
	ElapsedMs       float64   `json:"elapsedMs"`
	EndReason       string    `json:"endReason"`
	EndedAt         time.Time `json:"endedAt"`
}

// Board keeps the best rounds in descending score order.
// Equal scores rank the earlier finish first.
//
// Operations:
//   - Record: O(log n) search + O(n) insert
//   - GetTop: O(k)
//   - GetRank: O(n)
type Board struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// New creates a board holding at most capacity entries
func New(capacity int) *Board {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Board{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Record ranks a finished round. Returns its 1-indexed rank, or 0 if it
// did not make the board.
func (b *Board) Record(s game.Summary) int {
	e := Entry{
		RoundID:         s.RoundID,
		Role:            s.Role,
		Mode:            s.Mode,
		Score:           s.Score,
		FoodEaten:       s.FoodEaten,
		EnemiesDefeated: s.EnemiesDefeated,
		ElapsedMs:       s.ElapsedMs,
		EndReason:       s.EndReason.String(),
		EndedAt:         s.EndedAt,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// First position whose entry ranks strictly below the new one
	pos := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].Score < e.Score
	})
	if pos >= b.capacity {
		return 0
	}

	b.entries = append(b.entries, Entry{})
	copy(b.entries[pos+1:], b.entries[pos:])
	b.entries[pos] = e
	if len(b.entries) > b.capacity {
		b.entries = b.entries[:b.capacity]
	}
	return pos + 1
}

// GetTop returns the top n entries with ranks filled in
func (b *Board) GetTop(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]Entry, n)
	copy(out, b.entries[:n])
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// GetRank returns a round's rank (1 = top), or 0 if absent
func (b *Board) GetRank(roundID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.RoundID == roundID {
			return i + 1
		}
	}
	return 0
}

// Len returns the number of ranked rounds
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
