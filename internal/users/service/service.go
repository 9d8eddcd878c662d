package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-campus/internal/auth"
	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
)

type DBLayer interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
}

type UserService struct {
	DB     DBLayer
	Clock  clock.Clock
	Logger *logger.Logger
}

func NewUserService(db DBLayer, clk clock.Clock, log *logger.Logger) *UserService {
	return &UserService{DB: db, Clock: clk, Logger: log}
}

// EnsureUser creates the profile on first sight of a subject and keeps the
// email in sync with the token afterwards. The display name is only taken
// from the token on creation so profile edits are not overwritten.
func (s *UserService) EnsureUser(ctx context.Context, id *auth.Identity) error {
	existing, err := s.DB.GetUserByID(ctx, id.Subject)
	switch {
	case err == nil:
		if id.Email == "" || existing.Email == id.Email {
			return nil
		}
		existing.Email = id.Email
		existing.UpdatedAt = s.Clock.Now()
		return s.DB.UpdateUser(ctx, existing)
	case errors.Is(err, models.ErrNotFound):
	default:
		return fmt.Errorf("load user %s: %w", id.Subject, err)
	}

	now := s.Clock.Now()
	user := &models.User{
		ID:          id.Subject,
		Email:       id.Email,
		DisplayName: defaultDisplayName(id),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create user %s: %w", id.Subject, err)
	}
	s.Logger.Info("USER", fmt.Sprintf("Created profile for %s", id.Subject))
	return nil
}

func defaultDisplayName(id *auth.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	if local, _, ok := strings.Cut(id.Email, "@"); ok && local != "" {
		return local
	}
	return "student"
}

func (s *UserService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	return s.DB.GetUserByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.DB.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = strings.TrimSpace(req.DisplayName)
	user.AvatarURL = req.AvatarURL
	user.University = strings.TrimSpace(req.University)
	user.Bio = req.Bio
	user.UpdatedAt = s.Clock.Now()

	if err := s.DB.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	return user, nil
}

func (s *UserService) GetPublicProfile(ctx context.Context, userID string) (*models.PublicProfile, error) {
	user, err := s.DB.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Public()
	return &profile, nil
}
