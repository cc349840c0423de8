package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type of ledger entry
type Type string

const (
	TypePurchase      Type = "PURCHASE"
	TypeCashback      Type = "CASHBACK"
	TypeBonus         Type = "BONUS"
	TypeMonthlyPoints Type = "MONTHLY_POINTS"
	TypeRefund        Type = "REFUND"
)

// Status of a ledger entry
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Transaction is an append-only ledger row. Completed rows are never
// updated; corrections are new REFUND rows pointing at ReferenceID.
type Transaction struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	SubscriberID      uuid.UUID       `db:"subscriber_id" json:"subscriber_id"`
	PartnerID         uuid.NullUUID   `db:"partner_id" json:"partner_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	PointsUsed        decimal.Decimal `db:"points_used" json:"points_used"`
	DiscountApplied   decimal.Decimal `db:"discount_applied" json:"discount_applied"`
	CashbackGenerated decimal.Decimal `db:"cashback_generated" json:"cashback_generated"`
	CashbackUsed      decimal.Decimal `db:"cashback_used" json:"cashback_used"`
	FinalAmount       decimal.Decimal `db:"final_amount" json:"final_amount"`
	Type              Type            `db:"type" json:"type"`
	Status            Status          `db:"status" json:"status"`
	Description       string          `db:"description" json:"description"`
	ReferenceID       uuid.NullUUID   `db:"reference_id" json:"reference_id"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// Summary aggregates completed purchases net of refunds.
type Summary struct {
	Count             int64           `db:"count" json:"count"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	PointsUsed        decimal.Decimal `db:"points_used" json:"points_used"`
	Discount          decimal.Decimal `db:"discount" json:"discount"`
	CashbackGenerated decimal.Decimal `db:"cashback_generated" json:"cashback_generated"`
	CashbackUsed      decimal.Decimal `db:"cashback_used" json:"cashback_used"`
	FinalAmount       decimal.Decimal `db:"final_amount" json:"final_amount"`
}

// DailyPoint is one bucket of the partner dashboard chart.
type DailyPoint struct {
	Day    time.Time       `db:"day" json:"day"`
	Count  int64           `db:"count" json:"count"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}
