package bank

import (
	"math/rand"
	"sort"

	"cloudexam-service/internal/domain"
)

// DefaultCategory is assumed when a question carries no category tag.
const DefaultCategory = "Architecture"

// ExamConfig describes a generated mock exam: a fixed total, distributed
// across categories per quota.
type ExamConfig struct {
	TotalQuestions int            `json:"totalQuestions"`
	Categories     map[string]int `json:"categories"`
}

// DefaultExamConfig mirrors the certification blueprint the bank was built
// for: 80 questions weighted by exam domain.
func DefaultExamConfig() ExamConfig {
	return ExamConfig{
		TotalQuestions: 80,
		Categories: map[string]int{
			"Architecture":        11,
			"High Availability":   10,
			"Installation":        10,
			"Governance":          8,
			"Capacity Management": 8,
			"Cluster Maintenance": 5,
			"HDFS Administration": 8,
			"YARN Administration": 8,
		},
	}
}

// Exam builds a fresh exam set: each category contributes up to its quota of
// randomly chosen questions, shortfalls are backfilled with random unused
// questions from the rest of the bank, and the result is reshuffled so
// categories do not cluster.
func (b *Bank) Exam(cfg ExamConfig, rnd *rand.Rand) []domain.Question {
	grouped := b.ByCategory()

	// Iterate categories in a stable order so quota draws depend only on rnd.
	categories := make([]string, 0, len(cfg.Categories))
	for category := range cfg.Categories {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	selected := make([]domain.Question, 0, cfg.TotalQuestions)
	used := make(map[int]bool)
	for _, category := range categories {
		quota := cfg.Categories[category]
		available := Shuffle(grouped[category], rnd)
		if quota > len(available) {
			quota = len(available)
		}
		for _, q := range available[:quota] {
			selected = append(selected, q)
			used[q.ID] = true
		}
	}

	if len(selected) < cfg.TotalQuestions {
		unused := make([]domain.Question, 0, len(b.questions))
		for _, q := range b.questions {
			if !used[q.ID] {
				unused = append(unused, q)
			}
		}
		unused = Shuffle(unused, rnd)
		remaining := cfg.TotalQuestions - len(selected)
		if remaining > len(unused) {
			remaining = len(unused)
		}
		selected = append(selected, unused[:remaining]...)
	}

	return Shuffle(selected, rnd)
}
