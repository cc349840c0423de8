package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clubebeneficios/clube-api/internal/domain/user"
	"github.com/clubebeneficios/clube-api/internal/pkg/jwt"
	"github.com/clubebeneficios/clube-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	users user.Repository
	jwt   *jwt.Service
}

// NewService creates auth service
func NewService(users user.Repository, jwtService *jwt.Service) *Service {
	return &Service{users: users, jwt: jwtService}
}

// Register creates a subscriber login. Partner and admin accounts are
// provisioned by the seed command.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, err
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         user.RoleSubscriber,
		Status:       user.StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", u.ID.String()).Msg("user registered")
	return s.issue(u)
}

// Login authenticates by email and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			password.Burn(req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(req.Password, u.PasswordHash) {
		log.Warn().Str("user_id", u.ID.String()).Msg("login failed: wrong password")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, ErrAccountSuspended
	}

	if password.NeedsRehash(u.PasswordHash) {
		if hash, err := password.Hash(req.Password); err == nil {
			if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
				log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("password rehash failed")
			}
		}
	}

	return s.issue(u)
}

// Me returns the signed-in account
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := userResponse(u)
	return &resp, nil
}

func (s *Service) issue(u *user.User) (*AuthResponse, error) {
	token, err := s.jwt.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:        userResponse(u),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.AccessTTL().Seconds()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
