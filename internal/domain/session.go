package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session-specific validation errors.
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("session ID cannot be empty")

	// ErrSessionUserIDEmpty is returned when a session's user ID is empty or nil.
	ErrSessionUserIDEmpty = errors.New("session user ID cannot be empty")

	// ErrSessionGroupIDEmpty is returned when a session's group ID is empty or nil.
	ErrSessionGroupIDEmpty = errors.New("session group ID cannot be empty")

	// ErrSessionQueueEmpty is returned when a session is created with no words.
	ErrSessionQueueEmpty = errors.New("session queue cannot be empty")

	// ErrSessionIndexOutOfRange is returned when the snapshot index does not
	// point into the main queue of an in-progress session.
	ErrSessionIndexOutOfRange = errors.New("session index out of range")
)

// StudySession holds the durable state of one study run over a word group.
//
// The progress snapshot (index, counters, both queues, cycle count and the
// direction/quiz flags) is written through after every single evaluation so
// that an interrupted session can be resumed exactly where it stopped.
// A session with a non-nil CompletedAt is finished and never resumed.
type StudySession struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	GroupID     uuid.UUID  `json:"group_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result counters, finalized on completion.
	WordCount     int `json:"word_count"`
	MasteredCount int `json:"mastered_count"`

	// Progress snapshot.
	CurrentIndex int         `json:"current_index"`
	KnownCount   int         `json:"known_count"`
	AgainCount   int         `json:"again_count"`
	LaterCount   int         `json:"later_count"`
	CycleCount   int         `json:"cycle_count"`
	MainQueue    []uuid.UUID `json:"main_queue"`
	LaterQueue   []uuid.UUID `json:"later_queue"`
	Reversed     bool        `json:"reversed"`
	QuizMode     bool        `json:"quiz_mode"`
}

// NewStudySession creates a new in-progress session for the given user and
// group with the given word order. Returns an error if validation fails.
func NewStudySession(
	userID, groupID uuid.UUID,
	wordIDs []uuid.UUID,
	reversed, quizMode bool,
) (*StudySession, error) {
	session := &StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		GroupID:   groupID,
		StartedAt: time.Now().UTC(),
		WordCount: len(wordIDs),
		MainQueue: wordIDs,
		Reversed:  reversed,
		QuizMode:  quizMode,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}

	if s.GroupID == uuid.Nil {
		return ErrSessionGroupIDEmpty
	}

	if len(s.MainQueue) == 0 {
		return ErrSessionQueueEmpty
	}

	// The index may equal len(MainQueue) only transiently inside the queue
	// engine; a persisted in-progress snapshot always points at a word.
	if s.CompletedAt == nil &&
		(s.CurrentIndex < 0 || s.CurrentIndex >= len(s.MainQueue)) {
		return ErrSessionIndexOutOfRange
	}

	return nil
}

// InProgress reports whether the session has not been finalized yet.
func (s *StudySession) InProgress() bool {
	return s.CompletedAt == nil
}

// QueueWordIDs returns the IDs of all words still referenced by the snapshot,
// main queue first, deduplicated.
func (s *StudySession) QueueWordIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(s.MainQueue)+len(s.LaterQueue))
	ids := make([]uuid.UUID, 0, len(s.MainQueue)+len(s.LaterQueue))
	for _, id := range s.MainQueue {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, id := range s.LaterQueue {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
