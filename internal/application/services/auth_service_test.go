package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/config"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

func newAuthService(users ...*entities.User) (*AuthService, *fakeUserRepo) {
	userRepo := newFakeUserRepo(users...)
	svc := NewAuthService(userRepo, config.JWTConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Issuer:    "lexassist-test",
	}, logger.NewNop())
	return svc, userRepo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, ports.RegisterRequest{
		Email:     "priya@example.com",
		Username:  "priya",
		Password:  "correct-horse",
		FirstName: "Priya",
		LastName:  "Sharma",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.User.PasswordHash)
	assert.Equal(t, entities.UserRoleUser, resp.User.Role)
	assert.Equal(t, "UTC", resp.User.Timezone)
	assert.True(t, resp.User.Preferences.Email)

	login, err := svc.Login(ctx, ports.LoginRequest{Email: "priya@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, ports.LoginRequest{Email: "priya@example.com", Password: "wrong"})
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	req := ports.RegisterRequest{
		Email:    "dup@example.com",
		Username: "dup",
		Password: "password123",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Username = "other"
	_, err = svc.Register(ctx, req)
	assert.ErrorContains(t, err, "already exists")
}

func TestRegisterRejectsBadTimezone(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "tz@example.com",
		Username: "tz",
		Password: "password123",
		Timezone: "Mars/Olympus",
	})
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestValidateToken(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, ports.RegisterRequest{
		Email:    "token@example.com",
		Username: "token",
		Password: "password123",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.String(), claims.UserID)
	assert.Equal(t, "token@example.com", claims.Email)
	assert.Equal(t, entities.UserRoleUser, claims.Role)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	assert.Error(t, err)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := newTestUser()
	user.IsActive = false
	svc, _ := newAuthService(user)

	_, err := svc.Login(context.Background(), ports.LoginRequest{Email: user.Email, Password: "anything"})
	assert.ErrorContains(t, err, "inactive")
}
