package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/access"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/pkaminski/vocadrill/internal/domain/srs"
	"github.com/pkaminski/vocadrill/internal/platform/logger"
	"github.com/pkaminski/vocadrill/internal/store"
	"github.com/pkaminski/vocadrill/internal/timeguard"
)

// distractorPoolSize caps how many group words are loaded as distractor pools.
const distractorPoolSize = 50

// Verify interface compliance at compile time
var _ SessionService = (*sessionServiceImpl)(nil)

// sessionServiceImpl implements the SessionService interface. It owns all
// I/O of the study flow; the queue engine and scheduler it drives are pure.
type sessionServiceImpl struct {
	db          *sql.DB
	words       store.WordStore
	groups      store.GroupStore
	sessions    store.SessionStore
	records     store.RecordStore
	gate        access.Gate
	scheduler   srs.Service
	clock       timeguard.TrustedClock
	settings    SettingsProvider
	ads         RewardedAds
	distractors *DistractorGenerator
	batchSize   int
	logger      *slog.Logger
}

// NewSessionService creates a new SessionService implementation.
// If logger is nil, a default logger will be used.
func NewSessionService(
	db *sql.DB,
	words store.WordStore,
	groups store.GroupStore,
	sessions store.SessionStore,
	records store.RecordStore,
	gate access.Gate,
	scheduler srs.Service,
	clock timeguard.TrustedClock,
	settings SettingsProvider,
	ads RewardedAds,
	batchSize int,
	logger *slog.Logger,
) SessionService {
	if db == nil {
		panic("db cannot be nil")
	}
	if words == nil || groups == nil || sessions == nil || records == nil {
		panic("stores cannot be nil")
	}
	if gate == nil {
		panic("gate cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if clock == nil {
		panic("clock cannot be nil")
	}
	if settings == nil {
		panic("settings cannot be nil")
	}
	if ads == nil {
		panic("ads cannot be nil")
	}
	if batchSize <= 0 {
		batchSize = 20
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &sessionServiceImpl{
		db:          db,
		words:       words,
		groups:      groups,
		sessions:    sessions,
		records:     records,
		gate:        gate,
		scheduler:   scheduler,
		clock:       clock,
		settings:    settings,
		ads:         ads,
		distractors: NewDistractorGenerator(),
		batchSize:   batchSize,
		logger:      logger.With(slog.String("component", "session_service")),
	}
}

// Start implements SessionService.Start.
func (s *sessionServiceImpl) Start(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*StartResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	settings, err := s.settings.Settings(ctx, userID)
	if err != nil {
		return nil, newServiceError("start_session", "failed to load user settings", err)
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, newServiceError("start_session", "failed to load group", err)
	}

	// Both gates run before anything is created. A persistence error in a
	// gate check denies access rather than guessing.
	canReview, err := s.gate.CanReviewMore(ctx, userID, settings.Premium)
	if err != nil {
		log.Warn("quota check failed, denying start",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		canReview = false
	}
	if !canReview {
		return &StartResult{Status: StartStatusBlocked, Reason: BlockReasonQuota}, nil
	}

	unlocked, err := s.gate.IsUnlocked(ctx, userID, groupID, settings.Premium, group.IsTopLevel())
	if err != nil {
		log.Warn("unlock check failed, denying start",
			slog.String("error", err.Error()),
			slog.String("group_id", groupID.String()))
		unlocked = false
	}
	if !unlocked {
		return &StartResult{Status: StartStatusBlocked, Reason: BlockReasonLocked}, nil
	}

	// Try to pick up an interrupted session before building a new one.
	result, err := s.resume(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	now := s.clock.TrustedNow(ctx)
	pool, err := s.words.SelectForStudy(ctx, groupID, now, s.batchSize)
	if err != nil {
		return nil, newServiceError("start_session", "failed to select word pool", err)
	}
	if len(pool) == 0 {
		return &StartResult{Status: StartStatusEmpty}, nil
	}

	ids := make([]uuid.UUID, len(pool))
	for i, w := range pool {
		ids[i] = w.ID
	}

	session, err := domain.NewStudySession(userID, groupID, ids, settings.Reversed, settings.QuizMode)
	if err != nil {
		return nil, newServiceError("start_session", "failed to build session", err)
	}
	session.StartedAt = now

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, newServiceError("start_session", "failed to persist session", err)
	}

	log.Info("study session started",
		slog.String("session_id", session.ID.String()),
		slog.String("group_id", groupID.String()),
		slog.Int("word_count", len(ids)),
		slog.Bool("quiz_mode", session.QuizMode))

	result = &StartResult{
		Status:  StartStatusStarted,
		Session: session,
		Words:   pool,
	}
	if err := s.attachQuiz(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// attachQuiz builds the option set for the session's current word on a
// quiz-mode start result. A nil Quiz on return is the degraded mode.
func (s *sessionServiceImpl) attachQuiz(ctx context.Context, result *StartResult) error {
	session := result.Session
	if session == nil || !session.QuizMode {
		return nil
	}

	currentID, ok := QueueFromSession(session).Current()
	if !ok {
		return nil
	}

	var current *domain.Word
	for _, w := range result.Words {
		if w.ID == currentID {
			current = w
			break
		}
	}
	if current == nil {
		word, err := s.words.GetByID(ctx, currentID)
		if err != nil {
			return newServiceError("start_session", "failed to load current word", err)
		}
		current = word
	}

	quiz, err := s.buildQuiz(ctx, current, session.Reversed)
	if err != nil {
		return err
	}
	result.Quiz = quiz
	return nil
}

// resume looks for a resumable session and rehydrates it. Returns nil when
// there is nothing to resume; a stale session whose words can no longer be
// resolved is discarded silently, never surfaced as an error.
func (s *sessionServiceImpl) resume(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*StartResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.sessions.FindResumable(ctx, userID, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, newServiceError("start_session", "failed to look up resumable session", err)
	}

	words, err := s.words.GetByIDs(ctx, session.QueueWordIDs())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Words were deleted underneath the snapshot: discard the stale
			// session and let the caller start fresh.
			log.Info("discarding stale session with unresolvable words",
				slog.String("session_id", session.ID.String()))
			if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil {
				log.Warn("failed to discard stale session",
					slog.String("error", delErr.Error()),
					slog.String("session_id", session.ID.String()))
			}
			return nil, nil
		}
		return nil, newServiceError("start_session", "failed to resolve session words", err)
	}

	log.Info("study session resumed",
		slog.String("session_id", session.ID.String()),
		slog.Int("current_index", session.CurrentIndex))

	result := &StartResult{
		Status:  StartStatusResumed,
		Session: session,
		Words:   words,
	}
	if err := s.attachQuiz(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Evaluate implements SessionService.Evaluate.
func (s *sessionServiceImpl) Evaluate(
	ctx context.Context,
	userID, sessionID, wordID uuid.UUID,
	outcome domain.ReviewOutcome,
	latency time.Duration,
) (*EvaluateResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !domain.IsValidOutcome(outcome) {
		return nil, ErrInvalidOutcome
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, newServiceError("evaluate", "failed to load session", err)
	}

	if session.UserID != userID {
		return nil, ErrSessionNotOwned
	}
	if !session.InProgress() {
		return nil, ErrSessionFinished
	}

	queue := QueueFromSession(session)
	current, ok := queue.Current()
	if !ok || current != wordID {
		return nil, ErrWordNotCurrent
	}

	word, err := s.words.GetByID(ctx, wordID)
	if err != nil {
		return nil, newServiceError("evaluate", "failed to load word", err)
	}

	settings, err := s.settings.Settings(ctx, userID)
	if err != nil {
		return nil, newServiceError("evaluate", "failed to load user settings", err)
	}

	now := s.clock.TrustedNow(ctx)

	// The daily counter is spent before the durable write, and only for
	// known/correct answers. A gate failure or exhausted quota never voids
	// the answer itself; the result just carries no further credit.
	quotaExhausted := false
	if outcome == domain.ReviewOutcomeKnown {
		allowed, gateErr := s.gate.ConsumeReview(ctx, userID, settings.Premium)
		if gateErr != nil {
			log.Warn("daily counter update failed, continuing without credit",
				slog.String("error", gateErr.Error()),
				slog.String("session_id", sessionID.String()))
			quotaExhausted = true
		} else if !allowed {
			quotaExhausted = true
		}
	}

	// The scheduler runs for again/known only; "later" leaves mastery and
	// the review timestamp untouched.
	scheduled := outcome != domain.ReviewOutcomeLater
	prevLevel := word.MasteryLevel
	if scheduled {
		next, schedErr := s.scheduler.Next(word.MasteryLevel, outcome, now)
		if schedErr != nil {
			return nil, newServiceError("evaluate", "scheduler rejected evaluation", schedErr)
		}
		word.MasteryLevel = next.Level
		nextAt := next.NextReviewAt
		word.NextReviewAt = &nextAt
		word.ReviewCount++
		if outcome == domain.ReviewOutcomeKnown && session.QuizMode {
			word.Acquired = true
		}
	}

	step := queue.Evaluate(outcome)
	queue.ApplyTo(session)

	if scheduled && word.MasteryLevel == domain.MaxMasteryLevel && prevLevel < domain.MaxMasteryLevel {
		session.MasteredCount++
	}

	if step.Finished() {
		completedAt := now
		session.CompletedAt = &completedAt
	}

	record, err := domain.NewStudyRecord(sessionID, wordID, outcome, latency, now)
	if err != nil {
		return nil, newServiceError("evaluate", "failed to build study record", err)
	}

	// One transaction, record first: a crash between the two writes leaves
	// the record durable and progress one step behind, which resumes safely.
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.records.WithTx(tx).Create(ctx, record); err != nil {
			return fmt.Errorf("failed to append study record: %w", err)
		}

		if scheduled {
			if err := s.words.WithTx(tx).UpdateReview(ctx, word); err != nil {
				return fmt.Errorf("failed to update word mastery: %w", err)
			}
		}

		if err := s.sessions.WithTx(tx).UpdateSnapshot(ctx, session); err != nil {
			return fmt.Errorf("failed to persist session snapshot: %w", err)
		}

		return nil
	})
	if err != nil {
		// Nothing was committed; the caller may retry the same evaluation
		// without losing the answer.
		log.Error("failed to persist evaluation",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("word_id", wordID.String()))
		return nil, newServiceError("evaluate", "failed to persist evaluation", err)
	}

	log.Debug("evaluation processed",
		slog.String("session_id", sessionID.String()),
		slog.String("word_id", wordID.String()),
		slog.String("outcome", string(outcome)),
		slog.Int("index", session.CurrentIndex),
		slog.Bool("completed", step.Finished()))

	if step.Finished() {
		return &EvaluateResult{
			Completed:      true,
			QuotaExhausted: quotaExhausted,
			Session:        session,
			Summary: &Summary{
				SessionID:     session.ID,
				WordCount:     session.WordCount,
				KnownCount:    session.KnownCount,
				AgainCount:    session.AgainCount,
				LaterCount:    session.LaterCount,
				MasteredCount: session.MasteredCount,
				Forced:        step == StepForced,
				CompletedAt:   now,
			},
		}, nil
	}

	return s.continuingResult(ctx, session, queue, quotaExhausted)
}

// continuingResult resolves the next word and, in quiz mode, its option set.
func (s *sessionServiceImpl) continuingResult(
	ctx context.Context,
	session *domain.StudySession,
	queue *Queue,
	quotaExhausted bool,
) (*EvaluateResult, error) {
	nextID, ok := queue.Current()
	if !ok {
		// Unreachable: a continuing step always points at a word.
		return nil, newServiceError("evaluate", "queue continuing without current word", nil)
	}

	nextWord, err := s.words.GetByID(ctx, nextID)
	if err != nil {
		return nil, newServiceError("evaluate", "failed to load next word", err)
	}

	result := &EvaluateResult{
		Session:        session,
		NextWord:       nextWord,
		QuotaExhausted: quotaExhausted,
	}

	if session.QuizMode {
		quiz, quizErr := s.buildQuiz(ctx, nextWord, session.Reversed)
		if quizErr != nil {
			return nil, quizErr
		}
		result.Quiz = quiz // nil means flip-card fallback
	}

	return result, nil
}

// buildQuiz assembles the distractor pools for a word and generates the
// option set. A nil return with nil error is the degraded mode.
func (s *sessionServiceImpl) buildQuiz(
	ctx context.Context,
	word *domain.Word,
	reversed bool,
) (*QuizOptions, error) {
	samePool, err := s.words.ListByGroup(ctx, word.GroupID, distractorPoolSize)
	if err != nil {
		return nil, newServiceError("quiz_options", "failed to load group pool", err)
	}

	fallbackPool, err := s.words.ListAcrossGroups(ctx, word.GroupID, distractorPoolSize)
	if err != nil {
		return nil, newServiceError("quiz_options", "failed to load fallback pool", err)
	}

	return s.distractors.Generate(word, samePool, fallbackPool, reversed), nil
}

// SessionSummary implements SessionService.SessionSummary. The record log is
// tallied only after the session's owner is verified, mirroring Evaluate.
func (s *sessionServiceImpl) SessionSummary(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*Summary, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, newServiceError("session_summary", "failed to load session", err)
	}

	if session.UserID != userID {
		return nil, ErrSessionNotOwned
	}

	counts, err := s.records.CountBySessionOutcome(ctx, sessionID)
	if err != nil {
		return nil, newServiceError("session_summary", "failed to tally records", err)
	}

	summary := &Summary{
		SessionID:     session.ID,
		WordCount:     session.WordCount,
		KnownCount:    counts[domain.ReviewOutcomeKnown],
		AgainCount:    counts[domain.ReviewOutcomeAgain],
		LaterCount:    counts[domain.ReviewOutcomeLater],
		MasteredCount: session.MasteredCount,
	}
	if session.CompletedAt != nil {
		summary.CompletedAt = *session.CompletedAt
		// Natural completion drains both queues; leftovers mean the cycle
		// bound tripped.
		summary.Forced = len(session.LaterQueue) > 0
	}
	return summary, nil
}

// GenerateQuizOptions implements SessionService.GenerateQuizOptions.
func (s *sessionServiceImpl) GenerateQuizOptions(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*QuizOptions, error) {
	settings, err := s.settings.Settings(ctx, userID)
	if err != nil {
		return nil, newServiceError("quiz_options", "failed to load user settings", err)
	}

	word, err := s.words.GetByID(ctx, wordID)
	if err != nil {
		return nil, newServiceError("quiz_options", "failed to load word", err)
	}

	return s.buildQuiz(ctx, word, settings.Reversed)
}

// IsUnlocked implements SessionService.IsUnlocked.
func (s *sessionServiceImpl) IsUnlocked(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (bool, error) {
	settings, err := s.settings.Settings(ctx, userID)
	if err != nil {
		return false, newServiceError("is_unlocked", "failed to load user settings", err)
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrGroupNotFound
		}
		return false, newServiceError("is_unlocked", "failed to load group", err)
	}

	return s.gate.IsUnlocked(ctx, userID, groupID, settings.Premium, group.IsTopLevel())
}

// RequestUnlock implements SessionService.RequestUnlock. The unlock is
// granted only after the ads collaborator confirms the reward.
func (s *sessionServiceImpl) RequestUnlock(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*UnlockResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, newServiceError("request_unlock", "failed to load group", err)
	}

	granted, err := s.ads.ShowRewardedAd(ctx, userID)
	if err != nil {
		return nil, newServiceError("request_unlock", "rewarded ad flow failed", err)
	}
	if !granted {
		log.Info("reward not granted, unlock refused",
			slog.String("user_id", userID.String()),
			slog.String("group_id", groupID.String()))
		return &UnlockResult{Granted: false}, nil
	}

	unlock, err := s.gate.Unlock(ctx, userID, groupID)
	if err != nil {
		return nil, newServiceError("request_unlock", "failed to persist unlock", err)
	}

	return &UnlockResult{Granted: true, ExpiresAt: unlock.ExpiresAt}, nil
}

// RemainingToday implements SessionService.RemainingToday.
func (s *sessionServiceImpl) RemainingToday(
	ctx context.Context,
	userID uuid.UUID,
) (int, error) {
	settings, err := s.settings.Settings(ctx, userID)
	if err != nil {
		return 0, newServiceError("remaining_today", "failed to load user settings", err)
	}

	return s.gate.RemainingToday(ctx, userID, settings.Premium)
}
