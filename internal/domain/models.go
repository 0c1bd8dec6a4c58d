package domain

// Question is a single multiple-choice entry in the static bank. Options are
// keyed by letter ("A".."F"); correct answers reference those letters.
// Questions are loaded once at startup and never mutated.
type Question struct {
	ID             int               `json:"id"`
	Text           string            `json:"question"`
	Options        map[string]string `json:"options"`
	CorrectAnswers []string          `json:"correctAnswers"`
	Explanation    string            `json:"explanation"`
	Category       string            `json:"category"`
	AllowMultiple  bool              `json:"allowMultiple"`
}

// RangeMode selects how a room's question subset is carved out of the bank.
type RangeMode string

const (
	RangeAll   RangeMode = "all"
	RangeSlice RangeMode = "range"
	RangeCount RangeMode = "count"
)

// RangeSpec is the host's question-selection request at room creation.
// Start and End are 1-based inclusive positions in the bank.
type RangeSpec struct {
	Mode    RangeMode `json:"mode"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Count   int       `json:"count"`
	Shuffle bool      `json:"shuffle"`
}

// QuestionRange describes the slice actually selected for a room. Total is
// the real slice length, which may be shorter than a requested count.
type QuestionRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Total int `json:"total"`
}

// PlayerInfo is the public view of a room member.
type PlayerInfo struct {
	Name         string `json:"name"`
	ConnectionID string `json:"connectionId"`
}

// RoomSnapshot is the client-facing view of a room's current state.
type RoomSnapshot struct {
	Code           string        `json:"code"`
	Host           string        `json:"host"`
	Players        []PlayerInfo  `json:"players"`
	State          string        `json:"state"`
	QuestionIndex  int           `json:"questionIndex"`
	TotalQuestions int           `json:"totalQuestions"`
	QuestionRange  QuestionRange `json:"questionRange"`
}

// QuestionView is the question as broadcast during the question phase.
// Correct answers and explanation are deliberately absent.
type QuestionView struct {
	ID             int               `json:"id"`
	Text           string            `json:"question"`
	Options        map[string]string `json:"options"`
	AllowMultiple  bool              `json:"allowMultiple"`
	QuestionNumber int               `json:"questionNumber"`
	TotalQuestions int               `json:"totalQuestions"`
}

// QuestionResults carries the per-option tallies revealed after a question
// closes. A multi-select answer contributes one vote to each chosen letter,
// so vote counts may sum to more than TotalVotes.
type QuestionResults struct {
	ID             int               `json:"id"`
	Text           string            `json:"question"`
	Options        map[string]string `json:"options"`
	CorrectAnswers []string          `json:"correctAnswers"`
	Explanation    string            `json:"explanation"`
	VoteCounts     map[string]int    `json:"voteCounts"`
	TotalVotes     int               `json:"totalVotes"`
	TotalPlayers   int               `json:"totalPlayers"`
	CorrectCount   int               `json:"correctCount"`
}

// VoteUpdate is broadcast after every accepted answer submission.
type VoteUpdate struct {
	VotedCount   int `json:"votedCount"`
	TotalPlayers int `json:"totalPlayers"`
}
