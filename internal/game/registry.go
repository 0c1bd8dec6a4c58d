package game

import (
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"cloudexam-service/internal/bank"
	"cloudexam-service/internal/domain"
)

const codeAttempts = 100

// Config carries the tunable timings of a game session.
type Config struct {
	QuestionTime  time.Duration
	EndRoundGrace time.Duration
	FinishedGrace time.Duration
}

// DefaultConfig matches the platform defaults: 3-minute questions, a short
// grace after an aborted round, a longer one after a finished game so players
// can review the final screen.
func DefaultConfig() Config {
	return Config{
		QuestionTime:  180 * time.Second,
		EndRoundGrace: 2 * time.Second,
		FinishedGrace: 60 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QuestionTime <= 0 {
		c.QuestionTime = d.QuestionTime
	}
	if c.EndRoundGrace <= 0 {
		c.EndRoundGrace = d.EndRoundGrace
	}
	if c.FinishedGrace <= 0 {
		c.FinishedGrace = d.FinishedGrace
	}
	return c
}

// Registry owns all active rooms: code allocation, lookup, teardown, and the
// session operations scoped to a room code. It is safe for concurrent use;
// room state is serialized per room.
type Registry struct {
	bank  *bank.Bank
	cfg   Config
	clock clockwork.Clock

	mu     sync.RWMutex
	rooms  map[string]*Room
	byConn map[string]string
	rnd    *rand.Rand
}

// NewRegistry builds a registry on the real clock.
func NewRegistry(b *bank.Bank, cfg Config) *Registry {
	return NewRegistryWithClock(b, cfg, clockwork.NewRealClock(), rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewRegistryWithClock is for tests that need a fake clock or a seeded
// random source.
func NewRegistryWithClock(b *bank.Bank, cfg Config, clock clockwork.Clock, rnd *rand.Rand) *Registry {
	return &Registry{
		bank:   b,
		cfg:    cfg.withDefaults(),
		clock:  clock,
		rooms:  make(map[string]*Room),
		byConn: make(map[string]string),
		rnd:    rnd,
	}
}

// CreateRoom allocates a room with a fresh code, selects the host's requested
// question subset, and registers the host as the sole player.
func (g *Registry) CreateRoom(hostID, hostName string, spec domain.RangeSpec) (domain.RoomSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.byConn[hostID]; ok {
		return domain.RoomSnapshot{}, domain.ErrAlreadyInRoom
	}

	code, err := g.allocateCodeLocked()
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	questions, qrange := g.bank.Slice(spec)
	if spec.Shuffle {
		questions = bank.Shuffle(questions, g.rnd)
	}

	room := newRoom(code, hostID, hostName, questions, qrange, g.clock)
	g.rooms[code] = room
	g.byConn[hostID] = code

	log.Printf("room %s created by %s (questions %d-%d)", code, hostName, qrange.Start, qrange.End)
	return room.Snapshot(), nil
}

// allocateCodeLocked rejection-samples the 6-digit code space against active
// rooms. The attempt ceiling is an operational guard, not an expected path.
func (g *Registry) allocateCodeLocked() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := generateCode(g.rnd)
		if _, taken := g.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", domain.ErrCodeSpaceExhausted
}

// generateCode draws a uniform 6-digit code in [100000, 999999].
func generateCode(rnd *rand.Rand) string {
	return strconv.Itoa(100000 + rnd.Intn(900000))
}

// Join adds a connection to a lobby-state room and broadcasts the arrival.
func (g *Registry) Join(code, connID, name string) (domain.RoomSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[code]
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if _, joined := g.byConn[connID]; joined {
		return domain.RoomSnapshot{}, domain.ErrAlreadyInRoom
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.state != StateLobby {
		return domain.RoomSnapshot{}, domain.ErrInvalidState
	}

	room.players[connID] = &player{name: name}
	g.byConn[connID] = code

	snapshot := room.snapshotLocked()
	room.broadcastLocked(domain.Event{Type: domain.EventPlayerJoined, Payload: domain.PlayerEvent{
		Player: domain.PlayerInfo{Name: name, ConnectionID: connID},
		Room:   snapshot,
	}})
	log.Printf("%s joined room %s", name, code)
	return snapshot, nil
}

// Start moves a lobby into the first question. Host only.
func (g *Registry) Start(code, callerID string) error {
	room, err := g.room(code)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return domain.ErrRoomNotFound
	}
	if room.host != callerID {
		return domain.ErrNotHost
	}
	if room.state != StateLobby {
		return domain.ErrInvalidState
	}
	if len(room.players) < 1 {
		return domain.ErrInvalidState
	}

	room.state = StateQuestion
	room.questionIndex = 0
	g.beginQuestionLocked(room, domain.EventGameStarted)
	log.Printf("game started in room %s", code)
	return nil
}

// beginQuestionLocked resets per-question state, arms the countdown, and
// announces the current question (without correct answers).
func (g *Registry) beginQuestionLocked(room *Room, eventType string) {
	room.answers = make(map[string][]string)
	for _, p := range room.players {
		p.hasAnswered = false
		p.currentAnswer = nil
	}
	room.startTimerLocked(g.cfg.QuestionTime)
	room.broadcastLocked(domain.Event{Type: eventType, Payload: domain.QuestionEvent{
		Question:         room.currentQuestionLocked(),
		TimeLimitSeconds: int(g.cfg.QuestionTime / time.Second),
	}})
}

// SubmitAnswer records a player's answer for the current question.
// Resubmission replaces the stored answer; it never double counts. When the
// last player answers, the question closes immediately.
func (g *Registry) SubmitAnswer(code, connID string, answer []string) (domain.VoteUpdate, error) {
	room, err := g.room(code)
	if err != nil {
		return domain.VoteUpdate{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return domain.VoteUpdate{}, domain.ErrRoomNotFound
	}
	if room.state != StateQuestion {
		return domain.VoteUpdate{}, domain.ErrInvalidState
	}
	p, ok := room.players[connID]
	if !ok {
		return domain.VoteUpdate{}, domain.ErrPlayerNotFound
	}

	room.answers[connID] = answer
	p.hasAnswered = true
	p.currentAnswer = answer

	// Vote count comes from the answers map, whose keys are always a subset
	// of current players; a departed player cannot inflate it.
	update := domain.VoteUpdate{VotedCount: len(room.answers), TotalPlayers: len(room.players)}
	room.broadcastLocked(domain.Event{Type: domain.EventVoteUpdate, Payload: update})

	if update.VotedCount == update.TotalPlayers {
		room.finishQuestionLocked()
	}
	return update, nil
}

// Pause halts the current question's countdown. Host only.
func (g *Registry) Pause(code, callerID string) (time.Duration, error) {
	room, err := g.room(code)
	if err != nil {
		return 0, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return 0, domain.ErrRoomNotFound
	}
	if room.host != callerID {
		return 0, domain.ErrNotHost
	}
	if room.state != StateQuestion || room.timer.paused {
		return 0, domain.ErrInvalidState
	}

	remaining := room.pauseTimerLocked()
	room.broadcastLocked(domain.Event{Type: domain.EventTimerPaused, Payload: domain.TimerEvent{RemainingMs: remaining.Milliseconds()}})
	log.Printf("timer paused in room %s, %ds remaining", code, int(remaining/time.Second))
	return remaining, nil
}

// Resume restarts a paused countdown with exactly the recorded remainder.
// Host only.
func (g *Registry) Resume(code, callerID string) (time.Duration, error) {
	room, err := g.room(code)
	if err != nil {
		return 0, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return 0, domain.ErrRoomNotFound
	}
	if room.host != callerID {
		return 0, domain.ErrNotHost
	}
	if room.state != StateQuestion || !room.timer.paused {
		return 0, domain.ErrInvalidState
	}

	remaining := room.resumeTimerLocked()
	room.broadcastLocked(domain.Event{Type: domain.EventTimerResumed, Payload: domain.TimerEvent{RemainingMs: remaining.Milliseconds()}})
	log.Printf("timer resumed in room %s, %ds remaining", code, int(remaining/time.Second))
	return remaining, nil
}

// Advance moves a room out of the results phase: on to the next question, or
// to finished when the subset is exhausted. Host only. Returns true when the
// game finished.
func (g *Registry) Advance(code, callerID string) (bool, error) {
	room, err := g.room(code)
	if err != nil {
		return false, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return false, domain.ErrRoomNotFound
	}
	if room.host != callerID {
		return false, domain.ErrNotHost
	}
	if room.state != StateResults {
		return false, domain.ErrInvalidState
	}

	room.questionIndex++
	if room.questionIndex >= len(room.questions) {
		room.state = StateFinished
		room.broadcastLocked(domain.Event{Type: domain.EventGameFinished, Payload: domain.FinishedEvent{
			TotalQuestions: len(room.questions),
			QuestionRange:  room.questionRange,
		}})
		g.scheduleTeardown(code, g.cfg.FinishedGrace)
		log.Printf("game finished in room %s", code)
		return true, nil
	}

	room.state = StateQuestion
	g.beginQuestionLocked(room, domain.EventNextQuestion)
	return false, nil
}

// EndRound aborts the session and sends everyone back home. Host only.
func (g *Registry) EndRound(code, callerID string) error {
	room, err := g.room(code)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return domain.ErrRoomNotFound
	}
	if room.host != callerID {
		return domain.ErrNotHost
	}

	room.cancelTimerLocked()
	room.broadcastLocked(domain.Event{Type: domain.EventRoundEnded})
	g.scheduleTeardown(code, g.cfg.EndRoundGrace)
	log.Printf("round ended in room %s by host", code)
	return nil
}

// Disconnect removes a connection from whatever room it belongs to. Losing
// the host tears the room down; losing the last guest does too. Idempotent.
func (g *Registry) Disconnect(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code, ok := g.byConn[connID]
	if !ok {
		return
	}
	delete(g.byConn, connID)

	room, ok := g.rooms[code]
	if !ok {
		return
	}

	room.mu.Lock()
	p, ok := room.players[connID]
	if !ok {
		room.mu.Unlock()
		return
	}
	delete(room.players, connID)
	delete(room.answers, connID)
	log.Printf("%s left room %s", p.name, code)

	if room.host == connID {
		room.broadcastLocked(domain.Event{Type: domain.EventHostLeft})
		room.mu.Unlock()
		g.destroyLocked(code)
		return
	}

	snapshot := room.snapshotLocked()
	room.broadcastLocked(domain.Event{Type: domain.EventPlayerLeft, Payload: domain.PlayerEvent{
		Player: domain.PlayerInfo{Name: p.name, ConnectionID: connID},
		Room:   snapshot,
	}})
	empty := len(room.players) == 0
	room.mu.Unlock()

	if empty {
		g.destroyLocked(code)
	}
}

// Destroy cancels the room's pending timer and removes it from the registry.
// Idempotent.
func (g *Registry) Destroy(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.destroyLocked(code)
}

func (g *Registry) destroyLocked(code string) {
	room, ok := g.rooms[code]
	if !ok {
		return
	}
	delete(g.rooms, code)

	room.mu.Lock()
	for id := range room.players {
		delete(g.byConn, id)
	}
	room.closeLocked()
	room.mu.Unlock()
	log.Printf("room %s torn down", code)
}

func (g *Registry) scheduleTeardown(code string, delay time.Duration) {
	g.clock.AfterFunc(delay, func() {
		g.Destroy(code)
	})
}

// Subscribe attaches an event channel to a room's broadcasts.
func (g *Registry) Subscribe(code string) (<-chan domain.Event, func(), error) {
	room, err := g.room(code)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := room.Subscribe()
	return ch, cancel, nil
}

// Snapshot returns one room's client-facing view.
func (g *Registry) Snapshot(code string) (domain.RoomSnapshot, error) {
	room, err := g.room(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return room.Snapshot(), nil
}

// Snapshots returns views of every active room.
func (g *Registry) Snapshots() []domain.RoomSnapshot {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	snapshots := make([]domain.RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		snapshots = append(snapshots, room.Snapshot())
	}
	return snapshots
}

// RoomCount reports the number of active rooms.
func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

func (g *Registry) room(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}
