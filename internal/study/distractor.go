package study

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
)

const (
	// quizOptionCount is the size of a multiple-choice option set.
	quizOptionCount = 4

	// distractorCount is the number of wrong options per set.
	distractorCount = quizOptionCount - 1

	// distractorSampleCap caps how many same-group candidates are drawn
	// before deduplication.
	distractorSampleCap = 10
)

// QuizOptions is one multiple-choice question: the prompt side of a word and
// four shuffled answer options, exactly one of which is correct.
type QuizOptions struct {
	WordID       uuid.UUID `json:"word_id"`
	Prompt       string    `json:"prompt"`
	Choices      []string  `json:"choices"`
	CorrectIndex int       `json:"correct_index"`
}

// DistractorGenerator builds quiz option sets from word pools. Shuffling is
// uniformly random per call; nothing is cached across words.
type DistractorGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDistractorGenerator creates a generator seeded from the current time.
func NewDistractorGenerator() *DistractorGenerator {
	now := time.Now()
	return NewDistractorGeneratorWithSeed(uint64(now.UnixNano()), uint64(now.Unix()))
}

// NewDistractorGeneratorWithSeed creates a generator with a fixed seed.
// Intended for tests that need reproducible shuffles.
func NewDistractorGeneratorWithSeed(seed1, seed2 uint64) *DistractorGenerator {
	return &DistractorGenerator{
		rng: rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// CanGenerate reports whether the pool holds enough material for a quiz:
// at least quizOptionCount distinct target-side texts.
func CanGenerate(pool []*domain.Word, reversed bool) bool {
	distinct := make(map[string]struct{}, len(pool))
	for _, w := range pool {
		distinct[w.TargetText(reversed)] = struct{}{}
		if len(distinct) >= quizOptionCount {
			return true
		}
	}
	return false
}

// Generate builds a four-option set for the given word.
//
// Distractors are drawn from samePool first (excluding the word itself and
// any text equal to the correct answer), randomly ordered and capped, then
// topped up from fallbackPool under the same exclusion rule when the group
// alone cannot supply three distinct texts.
//
// Returns nil when fewer than three distinct distractors exist. That is a
// defined degraded mode, not an error: the caller falls back to the flip-card
// presentation.
func (g *DistractorGenerator) Generate(
	correct *domain.Word,
	samePool, fallbackPool []*domain.Word,
	reversed bool,
) *QuizOptions {
	correctText := correct.TargetText(reversed)

	g.mu.Lock()
	defer g.mu.Unlock()

	candidates := g.drawCandidates(samePool, correct.ID, correctText, reversed, distractorSampleCap)
	distractors := dedupe(candidates)

	if len(distractors) < distractorCount {
		topUp := g.drawCandidates(fallbackPool, correct.ID, correctText, reversed, 0)
		distractors = dedupe(append(distractors, topUp...))
	}

	if len(distractors) < distractorCount {
		return nil
	}
	distractors = distractors[:distractorCount]

	choices := append(distractors, correctText)
	g.rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	correctIndex := 0
	for i, c := range choices {
		if c == correctText {
			correctIndex = i
			break
		}
	}

	return &QuizOptions{
		WordID:       correct.ID,
		Prompt:       correct.PromptText(reversed),
		Choices:      choices,
		CorrectIndex: correctIndex,
	}
}

// drawCandidates collects target-side texts from the pool, excluding the
// correct word and any text equal to the correct answer, in random order.
// A limit of 0 means unlimited.
func (g *DistractorGenerator) drawCandidates(
	pool []*domain.Word,
	excludeID uuid.UUID,
	excludeText string,
	reversed bool,
	limit int,
) []string {
	texts := make([]string, 0, len(pool))
	for _, w := range pool {
		if w.ID == excludeID {
			continue
		}
		t := w.TargetText(reversed)
		if t == "" || t == excludeText {
			continue
		}
		texts = append(texts, t)
	}

	g.rng.Shuffle(len(texts), func(i, j int) {
		texts[i], texts[j] = texts[j], texts[i]
	})

	if limit > 0 && len(texts) > limit {
		texts = texts[:limit]
	}
	return texts
}

// dedupe removes duplicate texts preserving first-seen order.
func dedupe(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
