package balance

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrSubscriberNotFound   = errorhandler.New(errorhandler.KindNotFound, "SUBSCRIBER_NOT_FOUND", "subscriber not found")
	ErrSubscriptionInactive = errorhandler.New(errorhandler.KindBusinessRule, "SUBSCRIPTION_INACTIVE", "subscription is not active")
	ErrInsufficientPoints   = errorhandler.New(errorhandler.KindBusinessRule, "INSUFFICIENT_POINTS", "insufficient points")
	ErrInsufficientBalance  = errorhandler.New(errorhandler.KindBusinessRule, "INSUFFICIENT_BALANCE", "insufficient cashback balance")
	ErrInternal             = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "balance storage failure")
)
