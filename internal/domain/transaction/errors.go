package transaction

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrTransactionNotFound = errorhandler.New(errorhandler.KindNotFound, "TRANSACTION_NOT_FOUND", "transaction not found")
	ErrAlreadyRefunded     = errorhandler.New(errorhandler.KindBusinessRule, "ALREADY_REFUNDED", "transaction was already refunded")
	ErrInvalidTransaction  = errorhandler.New(errorhandler.KindValidation, "VALIDATION_ERROR", "transaction is invalid")
	ErrInvalidPeriod       = errorhandler.New(errorhandler.KindValidation, "INVALID_PERIOD", "from and to must be YYYY-MM-DD with from <= to")
	ErrInternal            = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "transaction storage failure")
)
