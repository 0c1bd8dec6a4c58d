package domain

// Event is a room-scoped broadcast delivered to every subscribed connection.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Broadcast event types pushed through the room's event channel.
const (
	EventPlayerJoined    = "playerJoined"
	EventPlayerLeft      = "playerLeft"
	EventHostLeft        = "hostLeft"
	EventGameStarted     = "gameStarted"
	EventVoteUpdate      = "voteUpdate"
	EventQuestionResults = "questionResults"
	EventNextQuestion    = "nextQuestion"
	EventGameFinished    = "gameFinished"
	EventRoundEnded      = "roundEnded"
	EventTimerPaused     = "timerPaused"
	EventTimerResumed    = "timerResumed"
)

// PlayerEvent accompanies playerJoined/playerLeft broadcasts.
type PlayerEvent struct {
	Player PlayerInfo   `json:"player"`
	Room   RoomSnapshot `json:"roomSnapshot"`
}

// QuestionEvent accompanies gameStarted/nextQuestion broadcasts.
type QuestionEvent struct {
	Question         QuestionView `json:"question"`
	TimeLimitSeconds int          `json:"timeLimitSeconds"`
}

// FinishedEvent accompanies the gameFinished broadcast.
type FinishedEvent struct {
	TotalQuestions int           `json:"totalQuestions"`
	QuestionRange  QuestionRange `json:"questionRange"`
}

// TimerEvent accompanies timerPaused/timerResumed broadcasts.
type TimerEvent struct {
	RemainingMs int64 `json:"remainingMs"`
}
