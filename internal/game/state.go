package game

// State is a room's position in the session lifecycle.
type State int

const (
	StateLobby State = iota
	StateQuestion
	StateResults
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateQuestion:
		return "question"
	case StateResults:
		return "results"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
