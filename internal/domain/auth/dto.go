package auth

import (
	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/domain/user"
)

// RegisterRequest creates a subscriber login
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
}

func userResponse(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}
