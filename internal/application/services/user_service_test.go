package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

func TestUpdateUserTimezone(t *testing.T) {
	user := newTestUser()
	svc := NewUserService(newFakeUserRepo(user), logger.NewNop())
	ctx := context.Background()

	updated, err := svc.UpdateUser(ctx, user.ID, ports.UpdateUserRequest{Timezone: strPtr("Asia/Kolkata")})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", updated.Timezone)
	assert.Empty(t, updated.PasswordHash)

	_, err = svc.UpdateUser(ctx, user.ID, ports.UpdateUserRequest{Timezone: strPtr("Not/AZone")})
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestUpdatePreferencesValidatesQuietHours(t *testing.T) {
	user := newTestUser()
	svc := NewUserService(newFakeUserRepo(user), logger.NewNop())
	ctx := context.Background()

	prefs := entities.DefaultNotificationPreferences()
	prefs.SMS = true
	prefs.QuietHoursStart = "23:00"
	prefs.QuietHoursEnd = "07:30"

	updated, err := svc.UpdatePreferences(ctx, user.ID, prefs)
	require.NoError(t, err)
	assert.True(t, updated.Preferences.SMS)
	assert.Equal(t, "23:00", updated.Preferences.QuietHoursStart)

	prefs.QuietHoursEnd = "7:99"
	_, err = svc.UpdatePreferences(ctx, user.ID, prefs)
	assert.ErrorContains(t, err, "invalid quiet hours")
}
