package input

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"cell-arena/internal/game"
)

// Parse errors
var (
	ErrEmptyMessage       = errors.New("empty input message")
	ErrUnknownCommand     = errors.New("unknown input type")
	ErrMissingCoordinates = errors.New("target requires x and y")
)

// Encoding selects the wire format of a message
type Encoding uint8

const (
	EncodingJSON Encoding = iota
	EncodingMsgpack
)

// ParseEncoding maps a query value to an Encoding; anything else is JSON
func ParseEncoding(s string) Encoding {
	if s == "msgpack" {
		return EncodingMsgpack
	}
	return EncodingJSON
}

func (e Encoding) String() string {
	if e == EncodingMsgpack {
		return "msgpack"
	}
	return "json"
}

// Decode parses one message in the given encoding
func Decode(data []byte, enc Encoding) (game.Command, error) {
	if len(data) == 0 {
		return game.Command{}, ErrEmptyMessage
	}

	var msg Message
	var err error
	switch enc {
	case EncodingMsgpack:
		err = msgpack.Unmarshal(data, &msg)
	default:
		err = json.Unmarshal(data, &msg)
	}
	if err != nil {
		return game.Command{}, fmt.Errorf("decode %s input: %w", enc, err)
	}
	return msg.Command()
}

// Command validates the message and converts it
func (m Message) Command() (game.Command, error) {
	if m.Type == "" {
		return game.Command{}, ErrEmptyMessage
	}
	t, ok := GetCommandType(m.Type)
	if !ok {
		return game.Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, m.Type)
	}

	cmd := game.Command{Type: t}
	if t == game.CommandSetTarget {
		if m.X == nil || m.Y == nil {
			return game.Command{}, ErrMissingCoordinates
		}
		cmd.X, cmd.Y = *m.X, *m.Y
	}
	return cmd, nil
}
