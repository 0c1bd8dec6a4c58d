package game

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// questionTimer tracks one pausable countdown per room. Remaining time is
// always derived from the last recorded remaining value minus actual elapsed
// wall-clock time, so repeated pause/resume cycles cannot drift the deadline.
type questionTimer struct {
	timer     clockwork.Timer
	cancel    chan struct{}
	startedAt time.Time
	remaining time.Duration
	paused    bool
	gen       uint64
}

// startTimerLocked arms the countdown for d. A fire on an older generation is
// ignored, which keeps a stale callback from closing a question it no longer
// owns.
func (r *Room) startTimerLocked(d time.Duration) {
	r.stopTimerLocked()
	r.timer.gen++
	r.timer.startedAt = r.clock.Now()
	r.timer.remaining = d
	r.timer.paused = false
	r.armLocked(d)
}

func (r *Room) armLocked(d time.Duration) {
	timer := r.clock.NewTimer(d)
	cancel := make(chan struct{})
	r.timer.timer = timer
	r.timer.cancel = cancel

	gen := r.timer.gen
	go func() {
		select {
		case <-timer.Chan():
			r.timerFired(gen)
		case <-cancel:
			stopAndDrain(timer)
		}
	}()
}

// pauseTimerLocked halts the countdown, recording how much time is left.
func (r *Room) pauseTimerLocked() time.Duration {
	elapsed := r.clock.Since(r.timer.startedAt)
	remaining := r.timer.remaining - elapsed
	if remaining < 0 {
		remaining = 0
	}
	r.stopTimerLocked()
	r.timer.remaining = remaining
	r.timer.paused = true
	return remaining
}

// resumeTimerLocked re-arms the countdown for exactly the recorded remainder.
func (r *Room) resumeTimerLocked() time.Duration {
	r.timer.gen++
	r.timer.startedAt = r.clock.Now()
	r.timer.paused = false
	r.armLocked(r.timer.remaining)
	return r.timer.remaining
}

// cancelTimerLocked stops the countdown without preserving any remainder.
func (r *Room) cancelTimerLocked() {
	r.stopTimerLocked()
	r.timer.remaining = 0
	r.timer.paused = false
}

func (r *Room) stopTimerLocked() {
	if r.timer.cancel != nil {
		close(r.timer.cancel)
		r.timer.cancel = nil
	}
	r.timer.timer = nil
}

// timerFired runs on the timer goroutine when the countdown expires
// naturally. The room may have been paused, advanced, or destroyed since the
// timer was armed; all of those invalidate the fire.
func (r *Room) timerFired(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != StateQuestion || r.timer.paused || r.timer.gen != gen {
		return
	}
	r.timer.cancel = nil
	r.timer.timer = nil
	r.finishQuestionLocked()
}

// stopAndDrain releases a cancelled timer, draining the channel if it fired
// between Stop and the drain (time.Timer.Stop contract).
func stopAndDrain(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
