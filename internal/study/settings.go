package study

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/store"
)

// userSettingsProvider resolves Settings from the user store.
type userSettingsProvider struct {
	users store.UserStore
}

// Verify interface compliance at compile time
var _ SettingsProvider = (*userSettingsProvider)(nil)

// NewUserSettingsProvider creates a SettingsProvider backed by the user store.
func NewUserSettingsProvider(users store.UserStore) SettingsProvider {
	if users == nil {
		panic("users cannot be nil")
	}
	return &userSettingsProvider{users: users}
}

// Settings implements SettingsProvider.
func (p *userSettingsProvider) Settings(
	ctx context.Context,
	userID uuid.UUID,
) (Settings, error) {
	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load user: %w", err)
	}
	return Settings{
		Premium:  user.Premium,
		Reversed: user.Reversed,
		QuizMode: user.QuizMode,
	}, nil
}

// serverRewardedAds is the server-side stand-in for the client ads SDK: the
// reward is confirmed by the client calling the unlock endpoint, so from the
// server's perspective the flow always grants.
type serverRewardedAds struct{}

// Verify interface compliance at compile time
var _ RewardedAds = (*serverRewardedAds)(nil)

// NewServerRewardedAds creates the server-side RewardedAds implementation.
func NewServerRewardedAds() RewardedAds {
	return &serverRewardedAds{}
}

// ShowRewardedAd implements RewardedAds.
func (a *serverRewardedAds) ShowRewardedAd(
	ctx context.Context,
	userID uuid.UUID,
) (bool, error) {
	return true, nil
}
