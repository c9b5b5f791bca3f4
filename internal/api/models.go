package api

import (
	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// StartSessionRequest defines the payload for starting a study session.
type StartSessionRequest struct {
	GroupID uuid.UUID `json:"group_id" validate:"required"`
}

// EvaluateRequest defines the payload for answering the current word of a
// session. Exactly one of Outcome (flip-card mode) or Correct (quiz mode)
// must be set.
type EvaluateRequest struct {
	WordID    uuid.UUID `json:"word_id"           validate:"required"`
	Outcome   string    `json:"outcome,omitempty" validate:"omitempty,oneof=again later known"`
	Correct   *bool     `json:"correct,omitempty"`
	LatencyMs int64     `json:"latency_ms"        validate:"gte=0"`
}

// QuotaResponse reports the free-tier review budget left today.
// Remaining is -1 for premium users.
type QuotaResponse struct {
	Remaining int `json:"remaining"`
}

// UnlockStatusResponse reports whether a group is currently studyable.
type UnlockStatusResponse struct {
	Unlocked bool `json:"unlocked"`
}

// PreferencesRequest defines the payload for updating study preferences.
type PreferencesRequest struct {
	Reversed bool `json:"reversed"`
	QuizMode bool `json:"quiz_mode"`
}

// SessionSummaryResponse reports the outcome tallies of a session's record log.
type SessionSummaryResponse struct {
	SessionID  uuid.UUID `json:"session_id"`
	KnownCount int       `json:"known_count"`
	AgainCount int       `json:"again_count"`
	LaterCount int       `json:"later_count"`
}

// reviewOutcome resolves the evaluation outcome from the request: quiz
// answers are mapped through the correct/wrong rule, flip-card answers pass
// through as-is.
func (req *EvaluateRequest) reviewOutcome() (domain.ReviewOutcome, bool) {
	if req.Correct != nil {
		return domain.OutcomeForQuizAnswer(*req.Correct), true
	}
	if req.Outcome != "" {
		return domain.ReviewOutcome(req.Outcome), true
	}
	return "", false
}
