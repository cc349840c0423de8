package subscriber

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the subscription lifecycle state
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusCanceled  Status = "CANCELED"
	StatusExpired   Status = "EXPIRED"
)

// Subscriber is a club member. Points and Cashback are never negative;
// the database enforces it with CHECK constraints.
type Subscriber struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	Name          string          `db:"name" json:"name"`
	TaxID         string          `db:"tax_id" json:"tax_id"`
	Email         string          `db:"email" json:"email"`
	Phone         *string         `db:"phone" json:"phone,omitempty"`
	PushToken     *string         `db:"push_token" json:"-"`
	Status        Status          `db:"status" json:"status"`
	Points        decimal.Decimal `db:"points" json:"points"`
	Cashback      decimal.Decimal `db:"cashback" json:"cashback"`
	PlanID        uuid.NullUUID   `db:"plan_id" json:"plan_id"`
	PlanStartDate *time.Time      `db:"plan_start_date" json:"plan_start_date,omitempty"`
	PlanEndDate   *time.Time      `db:"plan_end_date" json:"plan_end_date,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the subscriber may redeem benefits.
func (s *Subscriber) IsActive() bool {
	return s.Status == StatusActive
}

// DaysRemaining returns whole days until the plan ends, 0 when already
// past and -1 when there is no plan.
func (s *Subscriber) DaysRemaining(now time.Time) int {
	if s.PlanEndDate == nil {
		return -1
	}
	remaining := s.PlanEndDate.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// PushTokenValue returns the device token or "".
func (s *Subscriber) PushTokenValue() string {
	if s.PushToken == nil {
		return ""
	}
	return *s.PushToken
}
