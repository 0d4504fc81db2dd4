package input

import (
	"errors"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"cell-arena/internal/game"
)

// TestDecodeJSON covers every command family and the error cases
func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    game.Command
		wantErr error
	}{
		{"target", `{"type":"target","x":120.5,"y":80}`, game.Command{Type: game.CommandSetTarget, X: 120.5, Y: 80}, nil},
		{"move alias", `{"type":"MOVE","x":0,"y":0}`, game.Command{Type: game.CommandSetTarget}, nil},
		{"split", `{"type":"split"}`, game.Command{Type: game.CommandSplit}, nil},
		{"space key", `{"type":"space"}`, game.Command{Type: game.CommandSplit}, nil},
		{"eject key", `{"type":"w"}`, game.Command{Type: game.CommandEject}, nil},
		{"escape key", `{"type":"escape"}`, game.Command{Type: game.CommandTogglePause}, nil},
		{"target without y", `{"type":"target","x":1}`, game.Command{}, ErrMissingCoordinates},
		{"unknown", `{"type":"dash"}`, game.Command{}, ErrUnknownCommand},
		{"no type", `{}`, game.Command{}, ErrEmptyMessage},
		{"empty body", ``, game.Command{}, ErrEmptyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw), EncodingJSON)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestDecodeMalformed verifies syntax errors are reported, not panicked on
func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte(`{"type":`), EncodingJSON); err == nil {
		t.Error("expected JSON error")
	}
	if _, err := Decode([]byte{0xc1}, EncodingMsgpack); err == nil {
		t.Error("expected msgpack error")
	}
}

// TestDecodeMsgpack verifies binary clients use the same schema
func TestDecodeMsgpack(t *testing.T) {
	x, y := 10.0, 20.0
	data, err := msgpack.Marshal(Message{Type: "target", X: &x, Y: &y})
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode(data, EncodingMsgpack)
	if err != nil {
		t.Fatal(err)
	}
	if got != (game.Command{Type: game.CommandSetTarget, X: 10, Y: 20}) {
		t.Errorf("got %+v", got)
	}
}

// TestParseEncoding verifies the query parameter mapping
func TestParseEncoding(t *testing.T) {
	if ParseEncoding("msgpack") != EncodingMsgpack || ParseEncoding("") != EncodingJSON || ParseEncoding("xml") != EncodingJSON {
		t.Error("unexpected encoding mapping")
	}
}

// TestRateLimiter verifies per-client buckets
func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerSecond: 0.001, Burst: 3, IdleExpiry: time.Hour})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("input %d should be allowed", i)
		}
	}
	if rl.Allow("a") {
		t.Error("fourth input should exceed the burst")
	}
	if !rl.Allow("b") {
		t.Error("other clients have their own bucket")
	}

	rl.Forget("a")
	if !rl.Allow("a") {
		t.Error("forgotten client should start with a full bucket")
	}
}

// TestRateLimiterSweep verifies idle clients are dropped
func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimitConfig)
	defer rl.Stop()

	rl.Allow("a")
	rl.Allow("b")
	rl.sweep(time.Now().Add(-time.Minute))
	if rl.Len() != 2 {
		t.Fatalf("fresh clients swept, len = %d", rl.Len())
	}
	rl.sweep(time.Now().Add(time.Minute))
	if rl.Len() != 0 {
		t.Errorf("idle clients kept, len = %d", rl.Len())
	}
}
