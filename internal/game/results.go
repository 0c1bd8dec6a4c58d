package game

import "cloudexam-service/internal/domain"

// finishQuestionLocked moves the room from question to results and broadcasts
// the tallies. Reached either by timer expiry or by every player answering.
func (r *Room) finishQuestionLocked() {
	r.cancelTimerLocked()
	r.state = StateResults
	r.broadcastLocked(domain.Event{Type: domain.EventQuestionResults, Payload: r.resultsLocked()})
}

// resultsLocked tallies the collected answers for the current question. Each
// letter a player selected counts as one vote for that option, so multi-select
// answers contribute to several letters while TotalVotes stays per-player.
func (r *Room) resultsLocked() domain.QuestionResults {
	q := r.questions[r.questionIndex]

	voteCounts := make(map[string]int, len(q.Options))
	for letter := range q.Options {
		voteCounts[letter] = 0
	}

	correctCount := 0
	for _, answer := range r.answers {
		for _, letter := range answer {
			if _, ok := voteCounts[letter]; ok {
				voteCounts[letter]++
			}
		}
		if answerIsCorrect(q, answer) {
			correctCount++
		}
	}

	return domain.QuestionResults{
		ID:             q.ID,
		Text:           q.Text,
		Options:        q.Options,
		CorrectAnswers: q.CorrectAnswers,
		Explanation:    q.Explanation,
		VoteCounts:     voteCounts,
		TotalVotes:     len(r.answers),
		TotalPlayers:   len(r.players),
		CorrectCount:   correctCount,
	}
}

// answerIsCorrect compares an answer against the question's correct set,
// ignoring order on multi-select answers.
func answerIsCorrect(q domain.Question, answer []string) bool {
	if len(answer) != len(q.CorrectAnswers) {
		return false
	}
	want := make(map[string]bool, len(q.CorrectAnswers))
	for _, letter := range q.CorrectAnswers {
		want[letter] = true
	}
	for _, letter := range answer {
		if !want[letter] {
			return false
		}
	}
	return true
}
