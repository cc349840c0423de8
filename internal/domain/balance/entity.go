package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is a subscriber's global points and aggregate cashback.
type Balance struct {
	Points   decimal.Decimal `db:"points" json:"points"`
	Cashback decimal.Decimal `db:"cashback" json:"cashback"`
}

// Snapshot is the row state used to classify a rejected adjustment.
type Snapshot struct {
	Status   string          `db:"status"`
	Points   decimal.Decimal `db:"points"`
	Cashback decimal.Decimal `db:"cashback"`
}

// PartnerCashback is the cashback a subscriber holds at one partner.
// It can only be spent at that partner.
type PartnerCashback struct {
	PartnerID   uuid.UUID       `db:"partner_id" json:"partner_id"`
	PartnerName string          `db:"partner_name" json:"partner_name,omitempty"`
	Balance     decimal.Decimal `db:"balance" json:"balance"`
	TotalEarned decimal.Decimal `db:"total_earned" json:"total_earned"`
	TotalUsed   decimal.Decimal `db:"total_used" json:"total_used"`
	UpdatedAt   *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}
