package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/api/shared"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/pkaminski/vocadrill/internal/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSessionService is a configurable study.SessionService for handler tests.
type mockSessionService struct {
	startResult    *study.StartResult
	startErr       error
	evaluateResult *study.EvaluateResult
	evaluateErr    error
	lastOutcome    domain.ReviewOutcome
	lastLatency    time.Duration
	unlocked       bool
	unlockedErr    error
	unlockResult   *study.UnlockResult
	unlockErr      error
	remaining      int
	remainingErr   error
	summaryResult  *study.Summary
	summaryErr     error
	summaryUserID  uuid.UUID
}

func (m *mockSessionService) Start(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*study.StartResult, error) {
	return m.startResult, m.startErr
}

func (m *mockSessionService) Evaluate(
	ctx context.Context,
	userID, sessionID, wordID uuid.UUID,
	outcome domain.ReviewOutcome,
	latency time.Duration,
) (*study.EvaluateResult, error) {
	m.lastOutcome = outcome
	m.lastLatency = latency
	return m.evaluateResult, m.evaluateErr
}

func (m *mockSessionService) SessionSummary(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*study.Summary, error) {
	m.summaryUserID = userID
	return m.summaryResult, m.summaryErr
}

func (m *mockSessionService) GenerateQuizOptions(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*study.QuizOptions, error) {
	return nil, nil
}

func (m *mockSessionService) IsUnlocked(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (bool, error) {
	return m.unlocked, m.unlockedErr
}

func (m *mockSessionService) RequestUnlock(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*study.UnlockResult, error) {
	return m.unlockResult, m.unlockErr
}

func (m *mockSessionService) RemainingToday(
	ctx context.Context,
	userID uuid.UUID,
) (int, error) {
	return m.remaining, m.remainingErr
}

// newStudyRequest builds an authenticated request with an optional chi path
// parameter.
func newStudyRequest(
	t *testing.T,
	method, target string,
	userID uuid.UUID,
	body interface{},
	pathParams map[string]string,
) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)

	if len(pathParams) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range pathParams {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	return req.WithContext(ctx)
}

func TestStartSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	groupID := uuid.New()

	tests := []struct {
		name       string
		service    *mockSessionService
		wantStatus int
	}{
		{
			name: "fresh session returns 201",
			service: &mockSessionService{
				startResult: &study.StartResult{Status: study.StartStatusStarted},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "resumed session returns 200",
			service: &mockSessionService{
				startResult: &study.StartResult{Status: study.StartStatusResumed},
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "blocked start is 200 with typed status",
			service: &mockSessionService{
				startResult: &study.StartResult{
					Status: study.StartStatusBlocked,
					Reason: study.BlockReasonQuota,
				},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown group returns 404",
			service:    &mockSessionService{startErr: study.ErrGroupNotFound},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewStudyHandler(tt.service, &mockUserService{}, nil)
			req := newStudyRequest(t, http.MethodPost, "/api/study/sessions", userID,
				StartSessionRequest{GroupID: groupID}, nil)
			rr := httptest.NewRecorder()

			handler.StartSession(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestStartSession_Unauthenticated(t *testing.T) {
	t.Parallel()

	handler := NewStudyHandler(&mockSessionService{}, &mockUserService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/study/sessions", bytes.NewBufferString("{}"))
	rr := httptest.NewRecorder()

	handler.StartSession(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEvaluate_OutcomeResolution(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()
	wordID := uuid.New()

	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name        string
		body        EvaluateRequest
		wantStatus  int
		wantOutcome domain.ReviewOutcome
	}{
		{
			name:        "flip-card outcome passes through",
			body:        EvaluateRequest{WordID: wordID, Outcome: "again"},
			wantStatus:  http.StatusOK,
			wantOutcome: domain.ReviewOutcomeAgain,
		},
		{
			name:        "correct quiz answer maps to known",
			body:        EvaluateRequest{WordID: wordID, Correct: boolPtr(true)},
			wantStatus:  http.StatusOK,
			wantOutcome: domain.ReviewOutcomeKnown,
		},
		{
			name:        "wrong quiz answer maps to later",
			body:        EvaluateRequest{WordID: wordID, Correct: boolPtr(false)},
			wantStatus:  http.StatusOK,
			wantOutcome: domain.ReviewOutcomeLater,
		},
		{
			name:       "neither outcome nor correct is rejected",
			body:       EvaluateRequest{WordID: wordID},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := &mockSessionService{evaluateResult: &study.EvaluateResult{}}
			handler := NewStudyHandler(service, &mockUserService{}, nil)
			req := newStudyRequest(t, http.MethodPost,
				fmt.Sprintf("/api/study/sessions/%s/answers", sessionID),
				userID, tt.body, map[string]string{"id": sessionID.String()})
			rr := httptest.NewRecorder()

			handler.Evaluate(rr, req)
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantOutcome, service.lastOutcome)
			}
		})
	}
}

func TestEvaluate_LatencyConversion(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()
	service := &mockSessionService{evaluateResult: &study.EvaluateResult{}}
	handler := NewStudyHandler(service, &mockUserService{}, nil)

	req := newStudyRequest(t, http.MethodPost,
		fmt.Sprintf("/api/study/sessions/%s/answers", sessionID),
		userID,
		EvaluateRequest{WordID: uuid.New(), Outcome: "known", LatencyMs: 2500},
		map[string]string{"id": sessionID.String()})
	rr := httptest.NewRecorder()

	handler.Evaluate(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2500*time.Millisecond, service.lastLatency)
}

func TestEvaluate_ServiceErrors(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"session not found", study.ErrSessionNotFound, http.StatusNotFound},
		{"foreign session", study.ErrSessionNotOwned, http.StatusForbidden},
		{"finished session", study.ErrSessionFinished, http.StatusConflict},
		{"word not current", study.ErrWordNotCurrent, http.StatusConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := &mockSessionService{evaluateErr: tt.err}
			handler := NewStudyHandler(service, &mockUserService{}, nil)
			req := newStudyRequest(t, http.MethodPost,
				fmt.Sprintf("/api/study/sessions/%s/answers", sessionID),
				userID,
				EvaluateRequest{WordID: uuid.New(), Outcome: "known"},
				map[string]string{"id": sessionID.String()})
			rr := httptest.NewRecorder()

			handler.Evaluate(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestGetQuota(t *testing.T) {
	t.Parallel()

	service := &mockSessionService{remaining: 4}
	handler := NewStudyHandler(service, &mockUserService{}, nil)
	req := newStudyRequest(t, http.MethodGet, "/api/study/quota", uuid.New(), nil, nil)
	rr := httptest.NewRecorder()

	handler.GetQuota(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp QuotaResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Remaining)
}

func TestUnlockEndpoints(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	groupID := uuid.New()

	t.Run("status", func(t *testing.T) {
		t.Parallel()

		service := &mockSessionService{unlocked: true}
		handler := NewStudyHandler(service, &mockUserService{}, nil)
		req := newStudyRequest(t, http.MethodGet,
			fmt.Sprintf("/api/study/groups/%s/unlock", groupID),
			userID, nil, map[string]string{"id": groupID.String()})
		rr := httptest.NewRecorder()

		handler.GetUnlockStatus(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp UnlockStatusResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Unlocked)
	})

	t.Run("request unlock", func(t *testing.T) {
		t.Parallel()

		expires := time.Now().Add(3 * time.Hour).UTC()
		service := &mockSessionService{
			unlockResult: &study.UnlockResult{Granted: true, ExpiresAt: expires},
		}
		handler := NewStudyHandler(service, &mockUserService{}, nil)
		req := newStudyRequest(t, http.MethodPost,
			fmt.Sprintf("/api/study/groups/%s/unlock", groupID),
			userID, nil, map[string]string{"id": groupID.String()})
		rr := httptest.NewRecorder()

		handler.RequestUnlock(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp study.UnlockResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Granted)
	})

	t.Run("invalid group id in path", func(t *testing.T) {
		t.Parallel()

		handler := NewStudyHandler(&mockSessionService{}, &mockUserService{}, nil)
		req := newStudyRequest(t, http.MethodGet,
			"/api/study/groups/nope/unlock",
			userID, nil, map[string]string{"id": "not-a-uuid"})
		rr := httptest.NewRecorder()

		handler.GetUnlockStatus(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetSessionSummary(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()
	service := &mockSessionService{
		summaryResult: &study.Summary{
			SessionID:  sessionID,
			KnownCount: 7,
			AgainCount: 2,
			LaterCount: 1,
		},
	}
	handler := NewStudyHandler(service, &mockUserService{}, nil)
	req := newStudyRequest(t, http.MethodGet,
		fmt.Sprintf("/api/study/sessions/%s/summary", sessionID),
		userID, nil, map[string]string{"id": sessionID.String()})
	rr := httptest.NewRecorder()

	handler.GetSessionSummary(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// The authenticated user must reach the service for the ownership check.
	assert.Equal(t, userID, service.summaryUserID)

	var resp SessionSummaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, sessionID, resp.SessionID)
	assert.Equal(t, 7, resp.KnownCount)
	assert.Equal(t, 2, resp.AgainCount)
	assert.Equal(t, 1, resp.LaterCount)
}

func TestGetSessionSummary_AccessControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"foreign session", study.ErrSessionNotOwned, http.StatusForbidden},
		{"unknown session", study.ErrSessionNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sessionID := uuid.New()
			handler := NewStudyHandler(&mockSessionService{summaryErr: tt.err}, &mockUserService{}, nil)
			req := newStudyRequest(t, http.MethodGet,
				fmt.Sprintf("/api/study/sessions/%s/summary", sessionID),
				uuid.New(), nil, map[string]string{"id": sessionID.String()})
			rr := httptest.NewRecorder()

			handler.GetSessionSummary(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestUpdatePreferences(t *testing.T) {
	t.Parallel()

	users := &mockUserService{}
	handler := NewStudyHandler(&mockSessionService{}, users, nil)
	req := newStudyRequest(t, http.MethodPut, "/api/users/me/preferences", uuid.New(),
		PreferencesRequest{Reversed: true, QuizMode: true}, nil)
	rr := httptest.NewRecorder()

	handler.UpdatePreferences(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, users.updatedReversed)
	assert.True(t, users.updatedQuizMode)
}
