package game

// CommandType enumerates player inputs
type CommandType uint8

const (
	CommandSetTarget CommandType = iota
	CommandSplit
	CommandEject
	CommandTogglePause
)

func (t CommandType) String() string {
	switch t {
	case CommandSetTarget:
		return "target"
	case CommandSplit:
		return "split"
	case CommandEject:
		return "eject"
	case CommandTogglePause:
		return "pause"
	default:
		return "unknown"
	}
}

// Command is a player input queued for the next tick. X and Y are only
// meaningful for CommandSetTarget.
type Command struct {
	Type CommandType
	X, Y float64
}
