package kaspi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidSignature = errors.New("kaspi: invalid signature")

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Kaspi-Signature"

// Callback is the webhook body sent after a payment changes state.
type Callback struct {
	PaymentID string          `json:"payment_id"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
}

// Sign returns the hex HMAC-SHA256 of payload.
func Sign(payload []byte, secretKey string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// ParseCallback verifies signature against the raw body and decodes it.
func ParseCallback(payload []byte, signature, secretKey string) (*Callback, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}
	given, err := hex.DecodeString(signature)
	if err != nil || signature == "" {
		return nil, ErrInvalidSignature
	}
	expected, _ := hex.DecodeString(Sign(payload, secretKey))
	if !hmac.Equal(given, expected) {
		return nil, ErrInvalidSignature
	}

	var cb Callback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("kaspi: decode callback: %w", err)
	}
	if cb.OrderID == "" {
		return nil, fmt.Errorf("kaspi: callback without order id")
	}
	return &cb, nil
}
