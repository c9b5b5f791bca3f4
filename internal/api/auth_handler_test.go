package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/pkaminski/vocadrill/internal/service/auth"
	"github.com/pkaminski/vocadrill/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates user and returns token pair", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		users := &mockUserService{user: &domain.User{ID: userID, Email: "new@example.com"}}
		handler := NewAuthHandler(users, &mockJWTService{userID: userID}, &mockPasswordVerifier{})

		rr := postJSON(t, handler.Register, RegisterRequest{
			Email:    "new@example.com",
			Password: "a-long-enough-password",
		})
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, userID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		t.Parallel()

		users := &mockUserService{
			createErr: fmt.Errorf("failed to create user: %w", store.ErrEmailExists),
		}
		handler := NewAuthHandler(users, &mockJWTService{}, &mockPasswordVerifier{})

		rr := postJSON(t, handler.Register, RegisterRequest{
			Email:    "taken@example.com",
			Password: "a-long-enough-password",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&mockUserService{}, &mockJWTService{}, &mockPasswordVerifier{})

		rr := postJSON(t, handler.Register, RegisterRequest{
			Email:    "new@example.com",
			Password: "short",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	user := &domain.User{ID: userID, Email: "user@example.com", HashedPassword: "$hash"}

	t.Run("valid credentials return token pair", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(
			&mockUserService{user: user},
			&mockJWTService{userID: userID},
			&mockPasswordVerifier{correctPassword: "correct-horse-battery"},
		)

		rr := postJSON(t, handler.Login, LoginRequest{
			Email:    "user@example.com",
			Password: "correct-horse-battery",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, userID, resp.UserID)
	})

	t.Run("wrong password returns 401", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(
			&mockUserService{user: user},
			&mockJWTService{userID: userID},
			&mockPasswordVerifier{correctPassword: "correct-horse-battery"},
		)

		rr := postJSON(t, handler.Login, LoginRequest{
			Email:    "user@example.com",
			Password: "wrong-password-here",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown user returns 401 not 404", func(t *testing.T) {
		t.Parallel()

		users := &mockUserService{
			getErr: fmt.Errorf("failed to retrieve user by email: %w", store.ErrUserNotFound),
		}
		handler := NewAuthHandler(users, &mockJWTService{}, &mockPasswordVerifier{})

		rr := postJSON(t, handler.Login, LoginRequest{
			Email:    "ghost@example.com",
			Password: "whatever-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("valid refresh token returns new pair", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(
			&mockUserService{},
			&mockJWTService{userID: uuid.New()},
			&mockPasswordVerifier{},
		)

		rr := postJSON(t, handler.RefreshToken, RefreshTokenRequest{RefreshToken: "some-token"})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp RefreshTokenResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
	})

	t.Run("expired refresh token returns 401", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(
			&mockUserService{},
			&mockJWTService{validateErr: auth.ErrExpiredRefreshToken},
			&mockPasswordVerifier{},
		)

		rr := postJSON(t, handler.RefreshToken, RefreshTokenRequest{RefreshToken: "stale"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&mockUserService{}, &mockJWTService{}, &mockPasswordVerifier{})

		rr := postJSON(t, handler.RefreshToken, RefreshTokenRequest{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
