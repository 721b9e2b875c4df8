package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lolo262652/tasknot/internal/constants"
	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/repository"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrEmailRequired        = errors.New("email is required")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication and profile business logic. Signing up
// creates the profile row in the same step, so a session always has a
// profile to load.
type AuthService struct {
	profileRepo repository.ProfileRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(profileRepo repository.ProfileRepository) *AuthService {
	return &AuthService{
		profileRepo: profileRepo,
	}
}

// SignupInput represents the required information to create a new account.
type SignupInput struct {
	Email    string
	Password string
	FullName string
}

// Signup creates a new account with its profile row.
func (s *AuthService) Signup(input SignupInput) (*models.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.profileRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	profile := &models.Profile{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if name := strings.TrimSpace(input.FullName); name != "" {
		profile.FullName = &name
	}

	if err := s.profileRepo.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

// LoginInput represents the credentials for signing in.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies the credentials and returns the profile.
func (s *AuthService) Login(input LoginInput) (*models.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	profile, err := s.profileRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return profile, nil
}

// GetProfile returns the profile for a user id.
func (s *AuthService) GetProfile(id string) (*models.Profile, error) {
	profile, err := s.profileRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return profile, nil
}

// ListProfiles returns the profile directory ordered by full name.
func (s *AuthService) ListProfiles() ([]models.Profile, error) {
	profiles, err := s.profileRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// UpdateFullName changes the one client-editable profile field.
func (s *AuthService) UpdateFullName(id string, fullName string) (*models.Profile, error) {
	var name *string
	if trimmed := strings.TrimSpace(fullName); trimmed != "" {
		name = &trimmed
	}

	profile, err := s.profileRepo.UpdateFullName(id, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}
