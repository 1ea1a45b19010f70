package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carehome/carehome/internal/platform/auth"
	"github.com/carehome/carehome/internal/platform/db"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service struct {
	users    UserRepository
	profiles ProfileRepository
}

func NewService(users UserRepository, profiles ProfileRepository) *Service {
	return &Service{users: users, profiles: profiles}
}

// Register creates a user account and then its profile. The two steps run
// sequentially and explicitly; nothing is created via side-effect hooks.
func (s *Service) Register(ctx context.Context, email, fullName, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, fmt.Errorf("full_name is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.profiles.Create(ctx, &Profile{UserID: user.ID}); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	user.IsActive = true
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Same error for unknown email and bad password.
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ErrNotFound
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// Me returns the account together with its profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, *Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, ErrNotFound
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	return user, profile, nil
}

// DeviceToken returns the user's registered push target, or nil when the
// user has none.
func (s *Service) DeviceToken(ctx context.Context, userID uuid.UUID) (*string, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrNotFound
	}
	return profile.DeviceToken, nil
}

// UpdateDeviceToken stores the push target for the user, or clears it when
// token is nil.
func (s *Service) UpdateDeviceToken(ctx context.Context, userID uuid.UUID, token *string) error {
	if _, err := s.profiles.GetByUserID(ctx, userID); err != nil {
		return ErrNotFound
	}
	return s.profiles.UpdateDeviceToken(ctx, userID, token)
}
