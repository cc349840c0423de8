package notification

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrNotificationNotFound = errorhandler.New(errorhandler.KindNotFound, "NOTIFICATION_NOT_FOUND", "notification not found")
	ErrInternal             = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "notification storage failure")
)
