package sale

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrSubscriberRequired = errorhandler.New(errorhandler.KindValidation, "VALIDATION_ERROR", "subscriberId is required")
	ErrAmountNotPositive  = errorhandler.New(errorhandler.KindValidation, "VALIDATION_ERROR", "amount must be greater than zero")
	ErrNegativeValue      = errorhandler.New(errorhandler.KindValidation, "VALIDATION_ERROR", "pointsUsed, discount, cashbackGenerated and cashbackUsed must not be negative")
	ErrInvalidPrecision   = errorhandler.New(errorhandler.KindValidation, "VALIDATION_ERROR", "amounts must have at most 2 decimal places")
	ErrExceedsAmount      = errorhandler.New(errorhandler.KindValidation, "VALIDATION_ERROR", "redemption exceeds sale amount")
	ErrInvalidGrant       = errorhandler.New(errorhandler.KindValidation, "VALIDATION_ERROR", "points to grant must be greater than zero")
	ErrNotRefundable      = errorhandler.New(errorhandler.KindBusinessRule, "NOT_REFUNDABLE", "only completed purchases can be refunded")
)
