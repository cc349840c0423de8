package subscriber

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrSubscriberNotFound      = errorhandler.New(errorhandler.KindNotFound, "SUBSCRIBER_NOT_FOUND", "subscriber not found")
	ErrTaxIDExists             = errorhandler.New(errorhandler.KindConflict, "TAX_ID_EXISTS", "tax id already registered")
	ErrAlreadyRegistered       = errorhandler.New(errorhandler.KindConflict, "ALREADY_REGISTERED", "account already has a subscriber profile")
	ErrInvalidTaxID            = errorhandler.New(errorhandler.KindValidation, "INVALID_TAX_ID", "tax id is invalid")
	ErrInvalidStatusTransition = errorhandler.New(errorhandler.KindBusinessRule, "INVALID_STATUS_TRANSITION", "status transition not allowed")
	ErrCannotActivate          = errorhandler.New(errorhandler.KindBusinessRule, "CANNOT_ACTIVATE", "suspended subscriptions cannot be activated")
	ErrInternal                = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "subscriber storage failure")
)
