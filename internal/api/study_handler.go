package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pkaminski/vocadrill/internal/api/shared"
	"github.com/pkaminski/vocadrill/internal/platform/logger"
	"github.com/pkaminski/vocadrill/internal/service"
	"github.com/pkaminski/vocadrill/internal/study"
)

// StudyHandler handles study session API requests.
type StudyHandler struct {
	sessionService study.SessionService
	userService    service.UserService
	validator      *validator.Validate
	logger         *slog.Logger
}

// NewStudyHandler creates a new StudyHandler with the given dependencies.
// If logger is nil, a default logger will be used.
func NewStudyHandler(
	sessionService study.SessionService,
	userService service.UserService,
	logger *slog.Logger,
) *StudyHandler {
	if sessionService == nil {
		panic("sessionService cannot be nil")
	}
	if userService == nil {
		panic("userService cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &StudyHandler{
		sessionService: sessionService,
		userService:    userService,
		validator:      validator.New(),
		logger:         logger.With(slog.String("component", "study_handler")),
	}
}

// StartSession handles POST /study/sessions: it starts or resumes a session
// for a group. Gate denials and an empty pool return 200 with a typed status,
// not an error, so the client can branch on the body alone.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req StartSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.sessionService.Start(r.Context(), userID, req.GroupID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("session start handled",
		slog.String("group_id", req.GroupID.String()),
		slog.String("status", string(result.Status)))

	status := http.StatusOK
	if result.Status == study.StartStatusStarted {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, result)
}

// Evaluate handles POST /study/sessions/{id}/answers: it records one answer
// for the session's current word and returns the next presentation state or
// the final summary.
func (h *StudyHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req EvaluateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	outcome, ok := req.reviewOutcome()
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Either outcome or correct must be set")
		return
	}

	result, err := h.sessionService.Evaluate(
		r.Context(),
		userID,
		sessionID,
		req.WordID,
		outcome,
		time.Duration(req.LatencyMs)*time.Millisecond,
	)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetQuota handles GET /study/quota.
func (h *StudyHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	remaining, err := h.sessionService.RemainingToday(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read quota")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QuotaResponse{Remaining: remaining})
}

// GetUnlockStatus handles GET /study/groups/{id}/unlock.
func (h *StudyHandler) GetUnlockStatus(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	unlocked, err := h.sessionService.IsUnlocked(r.Context(), userID, groupID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UnlockStatusResponse{Unlocked: unlocked})
}

// RequestUnlock handles POST /study/groups/{id}/unlock: the rewarded-ad
// unlock flow.
func (h *StudyHandler) RequestUnlock(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	result, err := h.sessionService.RequestUnlock(r.Context(), userID, groupID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetSessionSummary handles GET /study/sessions/{id}/summary: outcome tallies
// from the append-only record log, served only to the session's owner.
func (h *StudyHandler) GetSessionSummary(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	summary, err := h.sessionService.SessionSummary(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load session summary")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SessionSummaryResponse{
		SessionID:  summary.SessionID,
		KnownCount: summary.KnownCount,
		AgainCount: summary.AgainCount,
		LaterCount: summary.LaterCount,
	})
}

// UpdatePreferences handles PUT /users/me/preferences.
func (h *StudyHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req PreferencesRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.userService.UpdatePreferences(r.Context(), userID, req.Reversed, req.QuizMode); err != nil {
		HandleAPIError(w, r, err, "Failed to update preferences")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, req)
}
