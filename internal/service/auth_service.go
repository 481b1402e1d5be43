package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/dto"
	"github.com/edutrack/edutrack-go-api/internal/models"
	"github.com/edutrack/edutrack-go-api/internal/repository"
	"github.com/edutrack/edutrack-go-api/internal/token"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials indicates an unknown username or wrong password at login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWrongPassword indicates the supplied current password did not match.
	ErrWrongPassword = errors.New("old password is not correct")
)

const bcryptCost = 12

// AuthService handles registration, login, and token rotation.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenResponse, error)
	Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.TokenResponse, error)
	ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error
}

type authService struct {
	users     repository.UserRepository
	issuer    *token.Issuer
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users repository.UserRepository, issuer *token.Issuer, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		issuer:    issuer,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates the user and its profile atomically. A failure anywhere rolls the
// whole registration back, so no user ever exists without a profile.
func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	if taken, err := s.users.UsernameExists(ctx, payload.Username); err != nil {
		return dto.UserResponse{}, err
	} else if taken {
		return dto.UserResponse{}, ErrUsernameTaken
	}

	if taken, err := s.users.EmailExists(ctx, payload.Email); err != nil {
		return dto.UserResponse{}, err
	} else if taken {
		return dto.UserResponse{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcryptCost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: string(hash),
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Profile:      models.Profile{Role: payload.Role},
	}

	if err := s.users.CreateWithProfile(ctx, &user); err != nil {
		// The pre-checks only narrow the race window; the unique indexes decide.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrUsernameTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Profile.Role).Msg("user registered")

	return dto.NewUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	user, err := s.users.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, ErrInvalidCredentials
		}
		return dto.TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(user.ID, user.Profile.Role)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("login successful")

	return dto.TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *authService) Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	userID, _, err := s.issuer.ValidateRefresh(payload.RefreshToken)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	// Reload so a rotated pair always carries the persisted role.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, token.ErrInvalidToken
		}
		return dto.TokenResponse{}, err
	}

	pair, err := s.issuer.IssuePair(user.ID, user.Profile.Role)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	return dto.TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcryptCost)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", userID).Msg("password changed")

	return nil
}
