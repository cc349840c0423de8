package sale

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfirmSaleRequest is the body of POST /sales/confirm.
type ConfirmSaleRequest struct {
	SubscriberID      uuid.UUID       `json:"subscriberId"`
	Amount            decimal.Decimal `json:"amount"`
	PointsUsed        decimal.Decimal `json:"pointsUsed"`
	Discount          decimal.Decimal `json:"discount"`
	CashbackGenerated decimal.Decimal `json:"cashbackGenerated"`
	CashbackUsed      decimal.Decimal `json:"cashbackUsed"`
}

// FinalAmount is what the subscriber pays after every deduction.
func (r *ConfirmSaleRequest) FinalAmount() decimal.Decimal {
	return r.Amount.Sub(r.Discount).Sub(r.PointsUsed).Sub(r.CashbackUsed)
}

// SaleResult is returned for a committed sale.
type SaleResult struct {
	TransactionID     uuid.UUID       `json:"transactionId"`
	Amount            decimal.Decimal `json:"amount"`
	Discount          decimal.Decimal `json:"discount"`
	PointsUsed        decimal.Decimal `json:"pointsUsed"`
	CashbackGenerated decimal.Decimal `json:"cashbackGenerated"`
	CashbackUsed      decimal.Decimal `json:"cashbackUsed"`
	FinalAmount       decimal.Decimal `json:"finalAmount"`
}

// RefundRequest is the body of POST /sales/{id}/refund.
type RefundRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// RefundResult is returned for a committed refund.
type RefundResult struct {
	RefundID       uuid.UUID       `json:"refundId"`
	TransactionID  uuid.UUID       `json:"transactionId"`
	PointsRestored decimal.Decimal `json:"pointsRestored"`
	CashbackDelta  decimal.Decimal `json:"cashbackDelta"`
}
