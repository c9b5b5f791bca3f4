package api

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/pkaminski/vocadrill/internal/service/auth"
)

// mockUserService is a configurable service.UserService for handler tests.
type mockUserService struct {
	user      *domain.User
	getErr    error
	createErr error
	updateErr error

	updatedReversed bool
	updatedQuizMode bool
}

func (m *mockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserService) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.user != nil {
		return m.user, nil
	}
	return &domain.User{ID: uuid.New(), Email: email}, nil
}

func (m *mockUserService) UpdatePreferences(
	ctx context.Context,
	userID uuid.UUID,
	reversed, quizMode bool,
) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedReversed = reversed
	m.updatedQuizMode = quizMode
	return nil
}

// mockJWTService issues canned tokens and validates against a fixed user ID.
type mockJWTService struct {
	userID      uuid.UUID
	generateErr error
	validateErr error
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return "access-token", nil
}

func (m *mockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return &auth.Claims{UserID: m.userID, TokenType: "access"}, nil
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return "refresh-token", nil
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return &auth.Claims{UserID: m.userID, TokenType: "refresh"}, nil
}

// mockPasswordVerifier accepts a single configured password.
type mockPasswordVerifier struct {
	correctPassword string
}

func (m *mockPasswordVerifier) Compare(hashedPassword, password string) error {
	if password == m.correctPassword {
		return nil
	}
	return errors.New("password mismatch")
}
