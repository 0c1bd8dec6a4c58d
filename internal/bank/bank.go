package bank

import (
	"context"
	"math/rand"

	"cloudexam-service/internal/domain"
)

// Loader fetches the full question set from a backing store (file, Postgres).
type Loader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// Bank is the immutable ordered question collection shared by all rooms.
// It is built once at startup; callers must treat returned slices as
// read-only.
type Bank struct {
	questions []domain.Question
}

// New builds a bank from an ordered question list.
func New(questions []domain.Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, domain.ErrBankEmpty
	}
	return &Bank{questions: questions}, nil
}

// Load builds a bank by pulling the question set from a loader.
func Load(ctx context.Context, loader Loader) (*Bank, error) {
	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return New(questions)
}

// Count reports the number of questions in the bank.
func (b *Bank) Count() int {
	return len(b.questions)
}

// All returns the full ordered question list.
func (b *Bank) All() []domain.Question {
	return b.questions
}

// Slice carves out the subset described by spec, clamping the requested
// bounds to the bank. The returned range always reflects the actual slice:
// start <= end and total == len(slice).
func (b *Bank) Slice(spec domain.RangeSpec) ([]domain.Question, domain.QuestionRange) {
	n := len(b.questions)

	switch spec.Mode {
	case domain.RangeSlice:
		start := clamp(spec.Start, 1, n)
		end := clamp(spec.End, start, n)
		return b.questions[start-1 : end], domain.QuestionRange{Start: start, End: end, Total: end - start + 1}
	case domain.RangeCount:
		start := clamp(spec.Start, 1, n)
		count := spec.Count
		if count < 1 {
			count = 1
		}
		end := start + count - 1
		if end > n {
			end = n
		}
		slice := b.questions[start-1 : end]
		return slice, domain.QuestionRange{Start: start, End: end, Total: len(slice)}
	default: // RangeAll and anything unrecognized
		return b.questions, domain.QuestionRange{Start: 1, End: n, Total: n}
	}
}

// Shuffle returns a Fisher-Yates permuted copy of qs. The input is not
// modified; rooms hold their own ordering while the bank stays pristine.
func Shuffle(qs []domain.Question, rnd *rand.Rand) []domain.Question {
	shuffled := make([]domain.Question, len(qs))
	copy(shuffled, qs)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// ByCategory groups the bank's questions by category, preserving bank order
// within each group. Questions without a category fall under DefaultCategory.
func (b *Bank) ByCategory() map[string][]domain.Question {
	grouped := make(map[string][]domain.Question)
	for _, q := range b.questions {
		category := q.Category
		if category == "" {
			category = DefaultCategory
		}
		grouped[category] = append(grouped[category], q)
	}
	return grouped
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
