package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system
type Role string

const (
	RoleSubscriber Role = "subscriber"
	RolePartner    Role = "partner"
	RoleAdmin      Role = "admin"
)

// Status represents login account status
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// User is a login account. Subscribers and partners each reference one.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IsActive returns true if the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}
