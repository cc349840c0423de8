package kaspi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotConfigured = errors.New("kaspi is not configured")

// Config holds Kaspi API configuration
type Config struct {
	BaseURL    string
	MerchantID string
	SecretKey  string
	Timeout    time.Duration
}

// Client creates Kaspi payments over its JSON API.
type Client struct {
	httpClient *http.Client
	config     Config
}

// CreatePaymentRequest represents payment creation request
type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	OrderID     string          `json:"order_id"`
	Description string          `json:"description"`
	ReturnURL   string          `json:"return_url"`
	CallbackURL string          `json:"callback_url"`
}

// CreatePaymentResponse represents payment creation response
type CreatePaymentResponse struct {
	PaymentID  string `json:"payment_id"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status"`
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: cfg.Timeout}, config: cfg}
}

// CreatePayment initiates payment and returns payment URL
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	if c.config.BaseURL == "" || c.config.MerchantID == "" {
		return nil, ErrNotConfigured
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("kaspi: amount must be positive")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, fmt.Errorf("kaspi: order id is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode kaspi request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/api/v1/payments/create"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("kaspi request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.MerchantID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("kaspi api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read kaspi response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("kaspi api returned status %d: %s", resp.StatusCode, body)
	}

	var out CreatePaymentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse kaspi response: %w", err)
	}
	return &out, nil
}
