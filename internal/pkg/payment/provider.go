package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Provider names.
const (
	ProviderRoboKassa = "robokassa"
	ProviderKaspi     = "kaspi"
)

// Normalized webhook statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusPending   = "pending"
)

var (
	ErrUnknownProvider  = errors.New("payment provider not registered")
	ErrInvalidSignature = errors.New("payment webhook signature is invalid")
)

// Provider is implemented by every payment gateway adapter.
type Provider interface {
	Name() string

	// CreateCheckout returns the URL the subscriber is redirected to.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)

	// ParseWebhook authenticates and decodes a gateway callback.
	ParseWebhook(r *http.Request) (*WebhookEvent, error)

	// Acknowledge writes the success body the gateway expects.
	Acknowledge(w http.ResponseWriter, event *WebhookEvent)
}

// CheckoutRequest is a gateway-neutral payment request.
type CheckoutRequest struct {
	PaymentID   string
	InvoiceID   int64
	Amount      decimal.Decimal
	Description string
	Email       string
	ReturnURL   string
	CallbackURL string
}

// Checkout is the gateway's answer to CheckoutRequest.
type Checkout struct {
	ExternalID string
	PaymentURL string
}

// WebhookEvent is a verified, normalized callback. Exactly one of
// PaymentID or InvoiceID identifies the local payment.
type WebhookEvent struct {
	Provider   string
	PaymentID  string
	InvoiceID  int64
	ExternalID string
	Amount     decimal.Decimal
	Status     string
}

// Registry resolves providers by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeStatus maps gateway vocabularies onto completed/failed/pending.
func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "completed", "paid", "approved":
		return StatusCompleted
	case "failed", "cancelled", "canceled", "declined", "rejected", "error":
		return StatusFailed
	default:
		return StatusPending
	}
}
