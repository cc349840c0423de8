package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutRequest starts a plan purchase
type CheckoutRequest struct {
	PlanID   uuid.UUID `json:"plan_id" validate:"required"`
	Provider string    `json:"provider" validate:"required,oneof=robokassa kaspi"`
}

// CheckoutResponse tells the client where to pay
type CheckoutResponse struct {
	PaymentID  uuid.UUID       `json:"payment_id"`
	InvoiceID  int64           `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Provider   string          `json:"provider"`
	PaymentURL string          `json:"payment_url"`
}
