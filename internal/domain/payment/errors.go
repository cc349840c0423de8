package payment

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrPaymentNotFound     = errorhandler.New(errorhandler.KindNotFound, "PAYMENT_NOT_FOUND", "payment not found")
	ErrUnsupportedProvider = errorhandler.New(errorhandler.KindValidation, "UNSUPPORTED_PROVIDER", "payment provider is not supported")
	ErrInvalidSignature    = errorhandler.New(errorhandler.KindValidation, "INVALID_SIGNATURE", "webhook signature is invalid")
	ErrAmountMismatch      = errorhandler.New(errorhandler.KindBusinessRule, "AMOUNT_MISMATCH", "paid amount does not match the payment")
	ErrInternal            = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "payment storage failure")
)
