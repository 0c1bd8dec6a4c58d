package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cloudexam-service/internal/domain"
	"cloudexam-service/internal/game"
)

// WSHandler is the event gateway: it upgrades connections, assigns each an
// ephemeral ID, routes inbound commands into the room registry, and pumps
// room broadcasts back out.
type WSHandler struct {
	registry *game.Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *game.Registry) *WSHandler {
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createRoomPayload struct {
	PlayerName    string           `json:"playerName"`
	QuestionRange domain.RangeSpec `json:"questionRange"`
}

type joinRoomPayload struct {
	Code       string `json:"code"`
	PlayerName string `json:"playerName"`
}

type roomCodePayload struct {
	Code string `json:"code"`
}

type submitAnswerPayload struct {
	Code   string      `json:"code"`
	Answer answerValue `json:"answer"`
}

// answerValue accepts either a single letter or an array of letters, since
// single- and multi-select questions submit different shapes.
type answerValue []string

func (a *answerValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

type opResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type roomResult struct {
	opResult
	RoomCode     string              `json:"roomCode,omitempty"`
	RoomSnapshot domain.RoomSnapshot `json:"roomSnapshot,omitempty"`
	IsHost       bool                `json:"isHost,omitempty"`
}

type timerResult struct {
	opResult
	RemainingMs int64 `json:"remainingMs,omitempty"`
}

type advanceResult struct {
	opResult
	Finished bool `json:"finished,omitempty"`
}

func failure(err error) opResult {
	return opResult{Success: false, Error: err.Error()}
}

// ServeWS runs one connection's session: reads commands until the socket
// drops, then releases the connection from whatever room it joined.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	send := make(chan domain.Event, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var cancelSub func()
	var pumpDone chan struct{}
	defer func() {
		h.registry.Disconnect(connID)
		if cancelSub != nil {
			cancelSub()
		}
		close(closeSignals)
		if pumpDone != nil {
			<-pumpDone
		}
		close(send)
		<-writerDone
	}()

	// subscribe pumps a room's broadcasts into this connection's writer.
	subscribe := func(code string) {
		updates, cancel, err := h.registry.Subscribe(code)
		if err != nil {
			return
		}
		cancelSub = cancel
		pumpDone = make(chan struct{})
		go func() {
			defer close(pumpDone)
			for {
				select {
				case event, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- event:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.dispatch(connID, inbound, send, subscribe)
	}
}

func (h *WSHandler) dispatch(connID string, inbound inboundMessage, send chan<- domain.Event, subscribe func(code string)) {
	reply := func(payload any) {
		send <- domain.Event{Type: inbound.Type + "Result", Payload: payload}
	}

	switch inbound.Type {
	case "createRoom":
		var payload createRoomPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			reply(failure(err))
			return
		}
		snapshot, err := h.registry.CreateRoom(connID, payload.PlayerName, payload.QuestionRange)
		if err != nil {
			reply(failure(err))
			return
		}
		subscribe(snapshot.Code)
		reply(roomResult{opResult: opResult{Success: true}, RoomCode: snapshot.Code, RoomSnapshot: snapshot, IsHost: true})

	case "joinRoom":
		var payload joinRoomPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			reply(failure(err))
			return
		}
		snapshot, err := h.registry.Join(payload.Code, connID, payload.PlayerName)
		if err != nil {
			reply(failure(err))
			return
		}
		subscribe(snapshot.Code)
		reply(roomResult{opResult: opResult{Success: true}, RoomCode: snapshot.Code, RoomSnapshot: snapshot})

	case "startGame":
		code, err := h.roomCode(inbound.Payload)
		if err == nil {
			err = h.registry.Start(code, connID)
		}
		if err != nil {
			reply(failure(err))
			return
		}
		reply(opResult{Success: true})

	case "submitAnswer":
		var payload submitAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			reply(failure(err))
			return
		}
		if _, err := h.registry.SubmitAnswer(payload.Code, connID, payload.Answer); err != nil {
			reply(failure(err))
			return
		}
		reply(opResult{Success: true})

	case "pauseTimer":
		code, err := h.roomCode(inbound.Payload)
		if err != nil {
			reply(failure(err))
			return
		}
		remaining, err := h.registry.Pause(code, connID)
		if err != nil {
			reply(failure(err))
			return
		}
		reply(timerResult{opResult: opResult{Success: true}, RemainingMs: remaining.Milliseconds()})

	case "resumeTimer":
		code, err := h.roomCode(inbound.Payload)
		if err != nil {
			reply(failure(err))
			return
		}
		remaining, err := h.registry.Resume(code, connID)
		if err != nil {
			reply(failure(err))
			return
		}
		reply(timerResult{opResult: opResult{Success: true}, RemainingMs: remaining.Milliseconds()})

	case "endRound":
		code, err := h.roomCode(inbound.Payload)
		if err == nil {
			err = h.registry.EndRound(code, connID)
		}
		if err != nil {
			reply(failure(err))
			return
		}
		reply(opResult{Success: true})

	case "advanceQuestion":
		code, err := h.roomCode(inbound.Payload)
		if err != nil {
			reply(failure(err))
			return
		}
		finished, err := h.registry.Advance(code, connID)
		if err != nil {
			reply(failure(err))
			return
		}
		reply(advanceResult{opResult: opResult{Success: true}, Finished: finished})

	default:
		send <- domain.Event{Type: "error", Payload: opResult{Error: "unsupported message type"}}
	}
}

func (h *WSHandler) roomCode(payload json.RawMessage) (string, error) {
	var p roomCodePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", err
	}
	return p.Code, nil
}
