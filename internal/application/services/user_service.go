package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// UserService handles user-related operations
type UserService struct {
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	// Remove password hash from response
	user.PasswordHash = ""

	return user, nil
}

// UpdateUser updates a user's profile fields
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req ports.UpdateUserRequest) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q", *req.Timezone)
		}
		user.Timezone = *req.Timezone
	}
	if req.Language != nil {
		user.LanguagePreference = *req.Language
	}

	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated successfully", "user_id", user.ID, "email", user.Email)

	user.PasswordHash = ""
	return user, nil
}

// UpdatePreferences replaces a user's notification preferences. Quiet hours
// must parse as HH:MM or the whole update is rejected.
func (s *UserService) UpdatePreferences(ctx context.Context, id uuid.UUID, prefs entities.NotificationPreferences) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	for _, clock := range []string{prefs.QuietHoursStart, prefs.QuietHoursEnd} {
		if clock == "" {
			continue
		}
		if _, err := time.Parse("15:04", clock); err != nil {
			return nil, fmt.Errorf("invalid quiet hours time %q", clock)
		}
	}

	user.Preferences = prefs
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	s.logger.Info("Notification preferences updated", "user_id", user.ID)

	user.PasswordHash = ""
	return user, nil
}

// ListUsers retrieves users with filtering and pagination
func (s *UserService) ListUsers(ctx context.Context, filter ports.UserFilter) ([]*entities.User, int, error) {
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	// Remove password hashes from all users
	for _, user := range users {
		user.PasswordHash = ""
	}

	return users, total, nil
}
