package user

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrUserNotFound       = errorhandler.New(errorhandler.KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrEmailAlreadyExists = errorhandler.New(errorhandler.KindConflict, "EMAIL_EXISTS", "email already registered")
	ErrInternal           = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "user storage failure")
)
