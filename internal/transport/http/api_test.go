package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"cloudexam-service/internal/bank"
	"cloudexam-service/internal/domain"
	"cloudexam-service/internal/game"
)

func TestHealthAndCountEndpoints(t *testing.T) {
	registry, b := newAPIFixtures(t)
	handler := NewAPIHandler(registry, b)

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest("GET", "/healthz", nil))
	var health map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "healthy" || health["questions"].(float64) != 5 {
		t.Fatalf("unexpected health payload: %v", health)
	}

	rec = httptest.NewRecorder()
	handler.QuestionCount(rec, httptest.NewRequest("GET", "/api/questions/count", nil))
	var count map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	if count["total"].(float64) != 5 {
		t.Fatalf("expected 5 questions, got %v", count["total"])
	}
}

func TestRoomsEndpointListsActiveRooms(t *testing.T) {
	registry, b := newAPIFixtures(t)
	handler := NewAPIHandler(registry, b)

	if _, err := registry.CreateRoom("host-1", "Alice", domain.RangeSpec{Mode: domain.RangeAll}); err != nil {
		t.Fatalf("create room: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.Rooms(rec, httptest.NewRequest("GET", "/api/rooms", nil))
	var payload struct {
		Rooms []domain.RoomSnapshot `json:"rooms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(payload.Rooms) != 1 || payload.Rooms[0].State != "lobby" {
		t.Fatalf("unexpected rooms payload: %+v", payload.Rooms)
	}
}

func TestExamEndpointGeneratesSet(t *testing.T) {
	registry, b := newAPIFixtures(t)
	handler := NewAPIHandler(registry, b)

	rec := httptest.NewRecorder()
	handler.Exam(rec, httptest.NewRequest("GET", "/api/questions/exam", nil))
	var payload struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode exam: %v", err)
	}
	// Bank is smaller than the default exam size; everything gets drawn once.
	if len(payload.Questions) != 5 {
		t.Fatalf("expected 5 exam questions, got %d", len(payload.Questions))
	}
	seen := make(map[int]bool)
	for _, q := range payload.Questions {
		if seen[q.ID] {
			t.Fatalf("duplicate question %d in exam", q.ID)
		}
		seen[q.ID] = true
	}
}

func newAPIFixtures(t *testing.T) (*game.Registry, *bank.Bank) {
	t.Helper()
	questions := make([]domain.Question, 0, 5)
	for i := 1; i <= 5; i++ {
		questions = append(questions, domain.Question{
			ID:             i,
			Text:           "question",
			Options:        map[string]string{"A": "first", "B": "second"},
			CorrectAnswers: []string{"A"},
			Category:       "Architecture",
		})
	}
	b, err := bank.New(questions)
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	return game.NewRegistry(b, game.DefaultConfig()), b
}
