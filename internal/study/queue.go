// Package study implements the study session engine: the word queue state
// machine, the quiz distractor generator and the session lifecycle service
// that ties them to the scheduler, the access gate and the store.
package study

import (
	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
)

// MaxCycles bounds how many times the later queue may be promoted back into
// the main queue. Without the bound a later-heavy session could recycle
// forever; with it a deferred word gets at most three extra passes and the
// session always terminates.
const MaxCycles = 3

// StepKind classifies the engine's state after one evaluation.
type StepKind int

const (
	// StepContinuing means the session goes on; Current points at the next word.
	StepContinuing StepKind = iota

	// StepCompleted means both queues drained naturally.
	StepCompleted

	// StepForced means the cycle bound tripped. Remaining later-queue words
	// are abandoned for this session and keep their existing review times.
	StepForced
)

// Finished reports whether the step ended the session.
func (k StepKind) Finished() bool {
	return k == StepCompleted || k == StepForced
}

// Queue is the pure in-memory state machine for one session's presentation
// order. It performs no I/O; the lifecycle service persists it as the
// session's progress snapshot after every transition.
type Queue struct {
	Main   []uuid.UUID
	Later  []uuid.UUID
	Index  int
	Cycles int

	// Outcome counters for the session summary.
	KnownCount int
	AgainCount int
	LaterCount int
}

// NewQueue creates a queue over the given word order.
func NewQueue(wordIDs []uuid.UUID) *Queue {
	main := make([]uuid.UUID, len(wordIDs))
	copy(main, wordIDs)
	return &Queue{Main: main}
}

// QueueFromSession rehydrates the engine state from a persisted snapshot.
func QueueFromSession(s *domain.StudySession) *Queue {
	q := &Queue{
		Main:       make([]uuid.UUID, len(s.MainQueue)),
		Later:      make([]uuid.UUID, 0, len(s.LaterQueue)),
		Index:      s.CurrentIndex,
		Cycles:     s.CycleCount,
		KnownCount: s.KnownCount,
		AgainCount: s.AgainCount,
		LaterCount: s.LaterCount,
	}
	copy(q.Main, s.MainQueue)
	q.Later = append(q.Later, s.LaterQueue...)
	return q
}

// ApplyTo writes the engine state back into the session's snapshot fields.
func (q *Queue) ApplyTo(s *domain.StudySession) {
	s.CurrentIndex = q.Index
	s.CycleCount = q.Cycles
	s.KnownCount = q.KnownCount
	s.AgainCount = q.AgainCount
	s.LaterCount = q.LaterCount
	s.MainQueue = make([]uuid.UUID, len(q.Main))
	copy(s.MainQueue, q.Main)
	s.LaterQueue = make([]uuid.UUID, len(q.Later))
	copy(s.LaterQueue, q.Later)
}

// Current returns the word under evaluation, or false if the queue is drained.
func (q *Queue) Current() (uuid.UUID, bool) {
	if q.Index < 0 || q.Index >= len(q.Main) {
		return uuid.Nil, false
	}
	return q.Main[q.Index], true
}

// Evaluate applies one outcome to the word at the current index and returns
// how the session proceeds.
//
// Transitions:
//   - again: the index stays put and the same word is shown immediately.
//   - later: the word is appended to the later queue and the index advances.
//   - known: the index advances.
//
// When the main queue is exhausted, a non-empty later queue is promoted as
// the new main queue (counting one cycle) unless that would exceed MaxCycles,
// in which case the session is force-terminated.
//
// Quiz mode uses the same transitions; a wrong quiz answer arrives here as
// "later" (see domain.OutcomeForQuizAnswer), so it defers and advances
// instead of repeating in place. That asymmetry with flip-card "again" is
// deliberate.
func (q *Queue) Evaluate(outcome domain.ReviewOutcome) StepKind {
	switch outcome {
	case domain.ReviewOutcomeAgain:
		q.AgainCount++
		return StepContinuing
	case domain.ReviewOutcomeLater:
		q.LaterCount++
		if current, ok := q.Current(); ok {
			q.Later = append(q.Later, current)
		}
		q.Index++
	case domain.ReviewOutcomeKnown:
		q.KnownCount++
		q.Index++
	default:
		// Callers validate outcomes; an unknown value changes nothing.
		return StepContinuing
	}

	if q.Index < len(q.Main) {
		return StepContinuing
	}

	if len(q.Later) == 0 {
		return StepCompleted
	}

	q.Cycles++
	if q.Cycles > MaxCycles {
		return StepForced
	}

	q.Main = q.Later
	q.Later = nil
	q.Index = 0
	return StepContinuing
}
