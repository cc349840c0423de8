package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Partner is a merchant where subscribers redeem benefits.
type Partner struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OwnerUserID uuid.UUID       `db:"owner_user_id" json:"-"`
	TradeName   string          `db:"trade_name" json:"trade_name"`
	CompanyName string          `db:"company_name" json:"company_name"`
	Category    string          `db:"category" json:"category"`
	Active      bool            `db:"active" json:"active"`
	PageViews   int64           `db:"page_views" json:"page_views"`
	Clicks      int64           `db:"clicks" json:"clicks"`
	SalesCount  int64           `db:"sales_count" json:"sales_count"`
	SalesAmount decimal.Decimal `db:"sales_amount" json:"sales_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	// Status of the owning user account, joined on read.
	OwnerStatus string `db:"owner_status" json:"-"`
}

// IsEligible reports whether the partner may receive redemptions: the
// partner is active and its owning account is not suspended.
func (p *Partner) IsEligible() bool {
	return p.Active && p.OwnerStatus == "active"
}
