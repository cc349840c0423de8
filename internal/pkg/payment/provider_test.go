package payment

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/pkg/kaspi"
	"github.com/clubebeneficios/clube-api/internal/pkg/robokassa"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(
		NewRoboKassaProvider(robokassa.NewClient(robokassa.Config{})),
		NewKaspiProvider(kaspi.NewClient(kaspi.Config{}), ""),
	)

	if names := r.Names(); len(names) != 2 || names[0] != ProviderKaspi {
		t.Fatalf("unexpected names %v", names)
	}
	if _, err := r.Get("KASPI"); err != nil {
		t.Fatalf("lookup should be case insensitive: %v", err)
	}
	if _, err := r.Get("paypal"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"SUCCESS":   StatusCompleted,
		"paid":      StatusCompleted,
		"declined":  StatusFailed,
		"canceled":  StatusFailed,
		"waiting":   StatusPending,
		"":          StatusPending,
	}
	for in, want := range cases {
		if got := NormalizeStatus(in); got != want {
			t.Errorf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestKaspiProviderWebhook(t *testing.T) {
	p := NewKaspiProvider(kaspi.NewClient(kaspi.Config{}), "secret")
	body := []byte(`{"payment_id":"k-9","order_id":"pay-9","amount":"19.90","status":"success"}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/kaspi", bytes.NewReader(body))
	req.Header.Set(kaspi.SignatureHeader, kaspi.Sign(body, "secret"))

	ev, err := p.ParseWebhook(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.PaymentID != "pay-9" || ev.Status != StatusCompleted || !ev.Amount.Equal(decimal.RequireFromString("19.9")) {
		t.Fatalf("unexpected event %+v", ev)
	}

	bad := httptest.NewRequest(http.MethodPost, "/webhooks/kaspi", bytes.NewReader(body))
	bad.Header.Set(kaspi.SignatureHeader, kaspi.Sign(body, "wrong"))
	if _, err := p.ParseWebhook(bad); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestRoboKassaProviderWebhookAndAck(t *testing.T) {
	p := NewRoboKassaProvider(robokassa.NewClient(robokassa.Config{Password2: "p2"}))
	sig, _ := robokassa.Sign("19.90:7:p2:Shp_payment=pay-7", robokassa.HashSHA256)

	form := url.Values{"OutSum": {"19.90"}, "InvId": {"7"}, "SignatureValue": {sig}, "Shp_payment": {"pay-7"}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/robokassa", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ev, err := p.ParseWebhook(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.InvoiceID != 7 || ev.Status != StatusCompleted {
		t.Fatalf("unexpected event %+v", ev)
	}

	rr := httptest.NewRecorder()
	p.Acknowledge(rr, ev)
	if rr.Body.String() != "OK7" {
		t.Fatalf("unexpected ack %q", rr.Body.String())
	}
}
