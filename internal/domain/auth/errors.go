package auth

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrInvalidCredentials = errorhandler.New(errorhandler.KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrAccountSuspended   = errorhandler.New(errorhandler.KindForbidden, "ACCOUNT_SUSPENDED", "account is suspended")
	ErrPasswordTooLong    = errorhandler.New(errorhandler.KindValidation, "VALIDATION_ERROR", "password must be at most 72 bytes")
)
