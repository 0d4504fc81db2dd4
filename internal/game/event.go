package game

import (
	"encoding/json"
	"time"
)

// EventType enum for discrete round occurrences
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventRoundStart
	EventRoundEnd
	EventFoodEaten
	EventEnemyEaten
	EventPlayerEaten
	EventBounce
	EventSplit
	EventEject
	EventStealthOn
	EventStealthOff
	EventPaused
	EventResumed
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventRoundStart:
		return "round_start"
	case EventRoundEnd:
		return "round_end"
	case EventFoodEaten:
		return "food_eaten"
	case EventEnemyEaten:
		return "enemy_eaten"
	case EventPlayerEaten:
		return "player_eaten"
	case EventBounce:
		return "bounce"
	case EventSplit:
		return "split"
	case EventEject:
		return "eject"
	case EventStealthOn:
		return "stealth_on"
	case EventStealthOff:
		return "stealth_off"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type by name so logs stay readable
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is a discrete occurrence inside a round. Renderers use these for
// particles and sounds; the event log persists them.
type Event struct {
	Type  EventType `json:"type"`
	Tick  uint64    `json:"tick"`
	AtMs  float64   `json:"atMs"` // round elapsed time
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Color string    `json:"color,omitempty"`
	Value float64   `json:"value,omitempty"` // mass or score involved, if any
}

// Record is one line of the persisted event log
type Record struct {
	Version   uint8           `json:"version"`
	Sequence  uint64          `json:"sequence"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	RoundID   string          `json:"roundId"`
	Event     Event           `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewRecord wraps an event for the log with the current timestamp
func NewRecord(roundID string, ev Event, payload interface{}) Record {
	return Record{
		Version:   EventVersion,
		Timestamp: time.Now().UnixNano(),
		RoundID:   roundID,
		Event:     ev,
		Payload:   EncodePayload(payload),
	}
}
