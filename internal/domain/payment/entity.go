package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents payment status
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is one plan purchase through a gateway
type Payment struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	SubscriberID uuid.UUID       `db:"subscriber_id" json:"subscriber_id"`
	PlanID       uuid.UUID       `db:"plan_id" json:"plan_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Provider     string          `db:"provider" json:"provider"`
	InvoiceID    int64           `db:"invoice_id" json:"invoice_id"`
	ExternalID   sql.NullString  `db:"external_id" json:"-"`
	Status       Status          `db:"status" json:"status"`
	PaidAt       sql.NullTime    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// IsPaid checks if payment is completed
func (p *Payment) IsPaid() bool {
	return p.Status == StatusCompleted
}
