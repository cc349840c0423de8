package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/clubebeneficios/clube-api/internal/pkg/kaspi"
)

// KaspiProvider adapts the Kaspi JSON API and its HMAC-signed callbacks.
type KaspiProvider struct {
	client    *kaspi.Client
	secretKey string
}

func NewKaspiProvider(client *kaspi.Client, secretKey string) *KaspiProvider {
	return &KaspiProvider{client: client, secretKey: secretKey}
}

func (p *KaspiProvider) Name() string { return ProviderKaspi }

func (p *KaspiProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	resp, err := p.client.CreatePayment(ctx, kaspi.CreatePaymentRequest{
		Amount:      req.Amount,
		OrderID:     req.PaymentID,
		Description: req.Description,
		ReturnURL:   req.ReturnURL,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return nil, err
	}
	return &Checkout{ExternalID: resp.PaymentID, PaymentURL: resp.PaymentURL}, nil
}

func (p *KaspiProvider) ParseWebhook(r *http.Request) (*WebhookEvent, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("kaspi: read body: %w", err)
	}
	cb, err := kaspi.ParseCallback(body, r.Header.Get(kaspi.SignatureHeader), p.secretKey)
	if err != nil {
		if errors.Is(err, kaspi.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, err
	}
	return &WebhookEvent{
		Provider:   ProviderKaspi,
		PaymentID:  cb.OrderID,
		ExternalID: cb.PaymentID,
		Amount:     cb.Amount,
		Status:     NormalizeStatus(cb.Status),
	}, nil
}

func (p *KaspiProvider) Acknowledge(w http.ResponseWriter, event *WebhookEvent) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
