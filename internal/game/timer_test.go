package game_test

import (
	"testing"
	"time"

	"cloudexam-service/internal/domain"
)

func TestTimerExpiryForcesResults(t *testing.T) {
	reg, clock := newTestRegistry(t, 10)
	snapshot, _ := reg.CreateRoom("host-1", "Alice", domain.RangeSpec{Mode: domain.RangeAll})
	if _, err := reg.Join(snapshot.Code, "conn-1", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	events, cancel, err := reg.Subscribe(snapshot.Code)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := reg.Start(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitEvent(t, events, domain.EventGameStarted)

	// Only one of two players answers; the timer must close the question
	// with whatever was collected.
	if _, err := reg.SubmitAnswer(snapshot.Code, "host-1", []string{"A"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	clock.Advance(180 * time.Second)
	event := waitEvent(t, events, domain.EventQuestionResults)
	results := event.Payload.(domain.QuestionResults)
	if results.TotalVotes != 1 || results.TotalPlayers != 2 {
		t.Fatalf("expected partial results 1/2, got %d/%d", results.TotalVotes, results.TotalPlayers)
	}
}

func TestPauseResumeGuards(t *testing.T) {
	reg, _ := newTestRegistry(t, 10)
	snapshot, _ := reg.CreateRoom("host-1", "Alice", domain.RangeSpec{Mode: domain.RangeAll})

	// Not in question state yet.
	if _, err := reg.Pause(snapshot.Code, "host-1"); err != domain.ErrInvalidState {
		t.Fatalf("expected ErrInvalidState pausing in lobby, got %v", err)
	}

	if err := reg.Start(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := reg.Resume(snapshot.Code, "host-1"); err != domain.ErrInvalidState {
		t.Fatalf("expected ErrInvalidState resuming a running timer, got %v", err)
	}
	if _, err := reg.Pause(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := reg.Pause(snapshot.Code, "host-1"); err != domain.ErrInvalidState {
		t.Fatalf("expected ErrInvalidState pausing twice, got %v", err)
	}
}

func TestPauseResumeAccounting(t *testing.T) {
	reg, clock := newTestRegistry(t, 10)
	snapshot, _ := reg.CreateRoom("host-1", "Alice", domain.RangeSpec{Mode: domain.RangeAll})
	if err := reg.Start(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 10s into the question leaves 170s on the clock.
	clock.Advance(10 * time.Second)
	remaining, err := reg.Pause(snapshot.Code, "host-1")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if remaining != 170*time.Second {
		t.Fatalf("expected 170s remaining, got %v", remaining)
	}

	// Time spent paused must not eat into the countdown.
	clock.Advance(5 * time.Second)
	remaining, err = reg.Resume(snapshot.Code, "host-1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if remaining != 170*time.Second {
		t.Fatalf("paused time leaked into countdown: %v", remaining)
	}
}

func TestPauseImmediateResumeKeepsRemaining(t *testing.T) {
	reg, clock := newTestRegistry(t, 10)
	snapshot, _ := reg.CreateRoom("host-1", "Alice", domain.RangeSpec{Mode: domain.RangeAll})
	if err := reg.Start(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(42 * time.Second)
	paused, err := reg.Pause(snapshot.Code, "host-1")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	resumed, err := reg.Resume(snapshot.Code, "host-1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if paused != resumed {
		t.Fatalf("immediate resume changed remaining: %v vs %v", paused, resumed)
	}
}

func TestResumedTimeoutFiresAfterExactRemainder(t *testing.T) {
	reg, clock := newTestRegistry(t, 10)
	snapshot, _ := reg.CreateRoom("host-1", "Alice", domain.RangeSpec{Mode: domain.RangeAll})

	events, cancel, err := reg.Subscribe(snapshot.Code)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := reg.Start(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitEvent(t, events, domain.EventGameStarted)

	// Pause at 170s remaining, sit paused for 5s, resume.
	clock.Advance(10 * time.Second)
	if _, err := reg.Pause(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.Advance(5 * time.Second)
	if _, err := reg.Resume(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	waitEvent(t, events, domain.EventTimerResumed)

	// One tick short of the remainder: still in the question phase.
	clock.Advance(170*time.Second - time.Millisecond)
	assertNoEvent(t, events, domain.EventQuestionResults)
	current, _ := reg.Snapshot(snapshot.Code)
	if current.State != "question" {
		t.Fatalf("timer fired early, state %s", current.State)
	}

	clock.Advance(time.Millisecond)
	waitEvent(t, events, domain.EventQuestionResults)
}

func TestStaleTimerFireIgnoredAfterEarlyClose(t *testing.T) {
	reg, clock := newTestRegistry(t, 10)
	snapshot, _ := reg.CreateRoom("host-1", "Alice", domain.RangeSpec{Mode: domain.RangeAll})

	events, cancel, err := reg.Subscribe(snapshot.Code)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := reg.Start(snapshot.Code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitEvent(t, events, domain.EventGameStarted)

	// All players answer, closing the question ahead of the timer.
	if _, err := reg.SubmitAnswer(snapshot.Code, "host-1", []string{"A"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitEvent(t, events, domain.EventQuestionResults)

	// Move past the original deadline; the cancelled timer must stay quiet.
	clock.Advance(181 * time.Second)
	assertNoEvent(t, events, domain.EventQuestionResults)
	current, _ := reg.Snapshot(snapshot.Code)
	if current.State != "results" {
		t.Fatalf("stale timer mutated state to %s", current.State)
	}
}

func assertNoEvent(t *testing.T, events <-chan domain.Event, eventType string) {
	t.Helper()
	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type == eventType {
				t.Fatalf("unexpected %s event", eventType)
			}
		case <-deadline:
			return
		}
	}
}
