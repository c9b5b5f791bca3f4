package study

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWordIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestQueue_AllKnownFinishesInOnePass(t *testing.T) {
	t.Parallel()

	ids := newWordIDs(5)
	q := NewQueue(ids)

	for i := 0; i < len(ids)-1; i++ {
		current, ok := q.Current()
		require.True(t, ok)
		assert.Equal(t, ids[i], current)
		assert.Equal(t, StepContinuing, q.Evaluate(domain.ReviewOutcomeKnown))
	}

	step := q.Evaluate(domain.ReviewOutcomeKnown)
	assert.Equal(t, StepCompleted, step)
	assert.True(t, step.Finished())
	assert.Equal(t, 5, q.KnownCount)
	assert.Equal(t, 0, q.Cycles)
}

func TestQueue_AgainStaysInPlace(t *testing.T) {
	t.Parallel()

	ids := newWordIDs(3)
	q := NewQueue(ids)

	// Repeated "again" keeps showing the same word.
	for i := 0; i < 4; i++ {
		assert.Equal(t, StepContinuing, q.Evaluate(domain.ReviewOutcomeAgain))
		current, ok := q.Current()
		require.True(t, ok)
		assert.Equal(t, ids[0], current)
	}
	assert.Equal(t, 4, q.AgainCount)

	// "known" finally advances past it.
	q.Evaluate(domain.ReviewOutcomeKnown)
	current, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, ids[1], current)
}

func TestQueue_LaterDefersAndAdvances(t *testing.T) {
	t.Parallel()

	ids := newWordIDs(3)
	q := NewQueue(ids)

	assert.Equal(t, StepContinuing, q.Evaluate(domain.ReviewOutcomeLater))

	current, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, ids[1], current, "later must advance to the next word")
	assert.Equal(t, []uuid.UUID{ids[0]}, q.Later)
}

func TestQueue_LaterQueuePromotedAsNewCycle(t *testing.T) {
	t.Parallel()

	ids := newWordIDs(2)
	q := NewQueue(ids)

	// First word deferred, second known: the deferred word comes back.
	q.Evaluate(domain.ReviewOutcomeLater)
	step := q.Evaluate(domain.ReviewOutcomeKnown)
	require.Equal(t, StepContinuing, step)

	current, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, ids[0], current)
	assert.Equal(t, 1, q.Cycles)
	assert.Empty(t, q.Later)

	// Knowing it now drains everything.
	assert.Equal(t, StepCompleted, q.Evaluate(domain.ReviewOutcomeKnown))
}

func TestQueue_CycleBoundForcesTermination(t *testing.T) {
	t.Parallel()

	// One word deferred forever: evaluations 1..3 recycle it, evaluation 4
	// trips the bound.
	ids := newWordIDs(1)
	q := NewQueue(ids)

	for i := 0; i < MaxCycles; i++ {
		step := q.Evaluate(domain.ReviewOutcomeLater)
		require.Equal(t, StepContinuing, step, "evaluation %d", i+1)

		current, ok := q.Current()
		require.True(t, ok)
		assert.Equal(t, ids[0], current)
	}

	step := q.Evaluate(domain.ReviewOutcomeLater)
	assert.Equal(t, StepForced, step)
	assert.True(t, step.Finished())
	assert.Equal(t, MaxCycles+1, q.LaterCount)
}

func TestQueue_MixedOutcomeCounts(t *testing.T) {
	t.Parallel()

	ids := newWordIDs(4)
	q := NewQueue(ids)

	q.Evaluate(domain.ReviewOutcomeKnown)
	q.Evaluate(domain.ReviewOutcomeAgain)
	q.Evaluate(domain.ReviewOutcomeKnown)
	q.Evaluate(domain.ReviewOutcomeLater)
	q.Evaluate(domain.ReviewOutcomeKnown)

	assert.Equal(t, 3, q.KnownCount)
	assert.Equal(t, 1, q.AgainCount)
	assert.Equal(t, 1, q.LaterCount)
}

func TestQueue_UnknownOutcomeChangesNothing(t *testing.T) {
	t.Parallel()

	ids := newWordIDs(2)
	q := NewQueue(ids)

	step := q.Evaluate(domain.ReviewOutcome("shrug"))
	assert.Equal(t, StepContinuing, step)
	assert.Equal(t, 0, q.Index)
	assert.Equal(t, 0, q.KnownCount+q.AgainCount+q.LaterCount)
}

func TestQueue_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	ids := newWordIDs(4)
	q := NewQueue(ids)
	q.Evaluate(domain.ReviewOutcomeLater)
	q.Evaluate(domain.ReviewOutcomeKnown)

	session := &domain.StudySession{}
	q.ApplyTo(session)

	restored := QueueFromSession(session)
	assert.Equal(t, q.Main, restored.Main)
	assert.Equal(t, q.Later, restored.Later)
	assert.Equal(t, q.Index, restored.Index)
	assert.Equal(t, q.Cycles, restored.Cycles)
	assert.Equal(t, q.KnownCount, restored.KnownCount)
	assert.Equal(t, q.LaterCount, restored.LaterCount)

	// Continue from the snapshot exactly where the original left off.
	origCurrent, ok := q.Current()
	require.True(t, ok)
	restoredCurrent, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, origCurrent, restoredCurrent)
}

func TestQueue_EverySessionTerminates(t *testing.T) {
	t.Parallel()

	// Worst case: everything deferred every time. The cycle bound guarantees
	// at most len * (MaxCycles + 1) evaluations.
	ids := newWordIDs(7)
	q := NewQueue(ids)

	evaluations := 0
	limit := len(ids) * (MaxCycles + 1)
	for {
		step := q.Evaluate(domain.ReviewOutcomeLater)
		evaluations++
		if step.Finished() {
			break
		}
		require.LessOrEqual(t, evaluations, limit, "session failed to terminate")
	}

	assert.Equal(t, limit, evaluations)
}
