package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clubebeneficios/clube-api/internal/pkg/robokassa"
)

// RoboKassaProvider adapts the redirect-based RoboKassa flow.
type RoboKassaProvider struct {
	client *robokassa.Client
}

func NewRoboKassaProvider(client *robokassa.Client) *RoboKassaProvider {
	return &RoboKassaProvider{client: client}
}

func (p *RoboKassaProvider) Name() string { return ProviderRoboKassa }

func (p *RoboKassaProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	url, err := p.client.PaymentURL(robokassa.PaymentLink{
		InvoiceID:   req.InvoiceID,
		Amount:      req.Amount,
		Description: req.Description,
		Email:       req.Email,
		Shp:         map[string]string{"payment": req.PaymentID},
	})
	if err != nil {
		return nil, err
	}
	return &Checkout{PaymentURL: url}, nil
}

// ParseWebhook handles the ResultURL call. RoboKassa only calls ResultURL for
// successful payments.
func (p *RoboKassaProvider) ParseWebhook(r *http.Request) (*WebhookEvent, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("robokassa: parse form: %w", err)
	}
	res, err := p.client.ParseResult(r.Form)
	if err != nil {
		if errors.Is(err, robokassa.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, err
	}
	return &WebhookEvent{
		Provider:  ProviderRoboKassa,
		InvoiceID: res.InvoiceID,
		Amount:    res.Amount,
		Status:    StatusCompleted,
	}, nil
}

func (p *RoboKassaProvider) Acknowledge(w http.ResponseWriter, event *WebhookEvent) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(robokassa.Ack(event.InvoiceID)))
}
