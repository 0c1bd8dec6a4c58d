package http

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"cloudexam-service/internal/bank"
	"cloudexam-service/internal/game"
)

// APIHandler serves the read-only queries that live outside the real-time
// channel: health, room listing, question count, and exam generation.
type APIHandler struct {
	registry *game.Registry
	bank     *bank.Bank
	examCfg  bank.ExamConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAPIHandler(registry *game.Registry, b *bank.Bank) *APIHandler {
	return &APIHandler{
		registry: registry,
		bank:     b,
		examCfg:  bank.DefaultExamConfig(),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Register mounts all API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/api/rooms", h.Rooms)
	mux.HandleFunc("/api/questions/count", h.QuestionCount)
	mux.HandleFunc("/api/questions/exam", h.Exam)
}

func (h *APIHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "healthy",
		"rooms":     h.registry.RoomCount(),
		"questions": h.bank.Count(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *APIHandler) Rooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"rooms": h.registry.Snapshots()})
}

func (h *APIHandler) QuestionCount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"total":     h.bank.Count(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Exam returns a freshly generated exam set distributed across categories.
func (h *APIHandler) Exam(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	questions := h.bank.Exam(h.examCfg, h.rnd)
	h.mu.Unlock()

	writeJSON(w, map[string]any{
		"questions": questions,
		"config":    h.examCfg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
