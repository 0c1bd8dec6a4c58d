package game

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"cloudexam-service/internal/domain"
)

type player struct {
	name          string
	hasAnswered   bool
	currentAnswer []string
}

// Room is the mutable aggregate behind one game code. All fields are guarded
// by mu; handlers and timer callbacks for the same room never interleave
// mid-mutation.
type Room struct {
	code  string
	host  string
	clock clockwork.Clock

	mu            sync.Mutex
	closed        bool
	state         State
	players       map[string]*player
	answers       map[string][]string
	questions     []domain.Question
	questionIndex int
	questionRange domain.QuestionRange
	timer         questionTimer
	subscribers   map[chan domain.Event]struct{}
}

func newRoom(code, hostID, hostName string, questions []domain.Question, qrange domain.QuestionRange, clock clockwork.Clock) *Room {
	r := &Room{
		code:          code,
		host:          hostID,
		clock:         clock,
		state:         StateLobby,
		players:       make(map[string]*player),
		answers:       make(map[string][]string),
		questions:     questions,
		questionRange: qrange,
		subscribers:   make(map[chan domain.Event]struct{}),
	}
	r.players[hostID] = &player{name: hostName}
	return r
}

// Snapshot returns the client-facing view of the room.
func (r *Room) Snapshot() domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() domain.RoomSnapshot {
	players := make([]domain.PlayerInfo, 0, len(r.players))
	for id, p := range r.players {
		players = append(players, domain.PlayerInfo{Name: p.name, ConnectionID: id})
	}
	return domain.RoomSnapshot{
		Code:           r.code,
		Host:           r.host,
		Players:        players,
		State:          r.state.String(),
		QuestionIndex:  r.questionIndex,
		TotalQuestions: len(r.questions),
		QuestionRange:  r.questionRange,
	}
}

func (r *Room) currentQuestionLocked() domain.QuestionView {
	q := r.questions[r.questionIndex]
	return domain.QuestionView{
		ID:             q.ID,
		Text:           q.Text,
		Options:        q.Options,
		AllowMultiple:  q.AllowMultiple,
		QuestionNumber: r.questionIndex + 1,
		TotalQuestions: len(r.questions),
	}
}

// Subscribe registers an event channel for this room. The caller must invoke
// the returned cancel function to avoid leaking the channel.
func (r *Room) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// broadcastLocked fans an event out to every subscriber without blocking on
// slow consumers; the oldest queued event is dropped to make room.
func (r *Room) broadcastLocked(event domain.Event) {
	for ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// closeLocked marks the room dead, cancels its timer, and releases all
// subscribers. This is the single cancellation point on the destroy path.
func (r *Room) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	r.cancelTimerLocked()
	for ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = make(map[chan domain.Event]struct{})
}
