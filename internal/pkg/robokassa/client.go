package robokassa

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const merchantURL = "https://auth.robokassa.ru/Merchant/Index.aspx"

var (
	ErrNotConfigured    = errors.New("robokassa is not configured")
	ErrInvalidSignature = errors.New("robokassa: invalid signature")
)

// Config holds RoboKassa configuration
type Config struct {
	MerchantLogin string
	Password1     string // signs payment links
	Password2     string // verifies ResultURL callbacks
	TestMode      bool
	HashAlgo      HashAlgorithm
	Culture       string
}

// Client builds signed payment links and verifies ResultURL callbacks.
// RoboKassa is redirect based, so no HTTP calls are made here.
type Client struct {
	config Config
}

func NewClient(cfg Config) *Client {
	if cfg.HashAlgo == "" {
		cfg.HashAlgo = HashSHA256
	}
	if cfg.Culture == "" {
		cfg.Culture = "en"
	}
	return &Client{config: cfg}
}

// PaymentLink describes a checkout to sign.
type PaymentLink struct {
	InvoiceID   int64
	Amount      decimal.Decimal
	Description string
	Email       string
	Shp         map[string]string // keys without the Shp_ prefix
}

// PaymentURL returns the signed redirect URL for link.
func (c *Client) PaymentURL(link PaymentLink) (string, error) {
	if c.config.MerchantLogin == "" || c.config.Password1 == "" {
		return "", ErrNotConfigured
	}
	if !link.Amount.IsPositive() {
		return "", fmt.Errorf("robokassa: amount must be positive")
	}
	if link.InvoiceID <= 0 {
		return "", fmt.Errorf("robokassa: invoice id must be positive")
	}

	outSum := link.Amount.StringFixed(2)
	invID := strconv.FormatInt(link.InvoiceID, 10)

	shp := make(map[string]string, len(link.Shp))
	for k, v := range link.Shp {
		shp["Shp_"+k] = v
	}

	signature, err := Sign(startBase(c.config.MerchantLogin, outSum, invID, c.config.Password1, shp), c.config.HashAlgo)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("MerchantLogin", c.config.MerchantLogin)
	params.Set("OutSum", outSum)
	params.Set("InvId", invID)
	params.Set("Description", link.Description)
	params.Set("SignatureValue", signature)
	params.Set("Culture", c.config.Culture)
	if link.Email != "" {
		params.Set("Email", link.Email)
	}
	if c.config.TestMode {
		params.Set("IsTest", "1")
	}
	for k, v := range shp {
		params.Set(k, v)
	}

	return merchantURL + "?" + params.Encode(), nil
}

// Result is a verified ResultURL callback.
type Result struct {
	InvoiceID int64
	Amount    decimal.Decimal
	Shp       map[string]string
}

// ParseResult validates and decodes a ResultURL form.
func (c *Client) ParseResult(form url.Values) (*Result, error) {
	if c.config.Password2 == "" {
		return nil, ErrNotConfigured
	}

	outSum := firstValue(form, "OutSum")
	invID := firstValue(form, "InvId")
	signature := firstValue(form, "SignatureValue")
	if outSum == "" || invID == "" || signature == "" {
		return nil, fmt.Errorf("robokassa: OutSum, InvId and SignatureValue are required")
	}

	shp := make(map[string]string)
	for k, v := range form {
		if strings.HasPrefix(strings.ToLower(k), "shp_") && len(v) > 0 {
			shp[k] = v[0]
		}
	}

	expected, err := Sign(resultBase(outSum, invID, c.config.Password2, shp), c.config.HashAlgo)
	if err != nil {
		return nil, err
	}
	if !signaturesEqual(expected, signature) {
		return nil, ErrInvalidSignature
	}

	id, err := strconv.ParseInt(invID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("robokassa: invalid InvId: %w", err)
	}
	amount, err := decimal.NewFromString(outSum)
	if err != nil {
		return nil, fmt.Errorf("robokassa: invalid OutSum: %w", err)
	}

	return &Result{InvoiceID: id, Amount: amount, Shp: shp}, nil
}

// Ack is the body RoboKassa expects after a processed ResultURL call.
func Ack(invoiceID int64) string {
	return "OK" + strconv.FormatInt(invoiceID, 10)
}

func firstValue(values url.Values, key string) string {
	for k, v := range values {
		if strings.EqualFold(k, key) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
