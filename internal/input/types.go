// Package input turns client messages into engine commands.
package input

import (
	"strings"

	"cell-arena/internal/game"
)

// Message is the wire form of a player input
type Message struct {
	Type string   `json:"type" msgpack:"type"`
	X    *float64 `json:"x,omitempty" msgpack:"x,omitempty"`
	Y    *float64 `json:"y,omitempty" msgpack:"y,omitempty"`
}

// SupportedCommands maps accepted names to command types. Key names mirror
// the browser controls: space splits, w ejects, p or escape pauses.
var SupportedCommands = map[string]game.CommandType{
	// Target variants
	"target": game.CommandSetTarget,
	"move":   game.CommandSetTarget,
	"mouse":  game.CommandSetTarget,

	// Split variants
	"split": game.CommandSplit,
	"space": game.CommandSplit,

	// Eject variants
	"eject": game.CommandEject,
	"feed":  game.CommandEject,
	"w":     game.CommandEject,

	// Pause variants
	"pause":  game.CommandTogglePause,
	"resume": game.CommandTogglePause,
	"p":      game.CommandTogglePause,
	"escape": game.CommandTogglePause,
}

// GetCommandType returns the command type for a name (case-insensitive)
func GetCommandType(name string) (game.CommandType, bool) {
	t, ok := SupportedCommands[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}
