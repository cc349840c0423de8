package errorhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/clubebeneficios/clube-api/internal/pkg/logger"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
)

// Handle writes the response for err. Classified errors are returned with
// their own message; anything else is logged and hidden behind a 500.
func Handle(ctx context.Context, w http.ResponseWriter, err error) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		logger.FromContext(ctx).Debug().
			Str("error_code", appErr.Code).
			Int("status_code", appErr.Kind.Status()).
			Msg(appErr.Message)
		response.Error(w, appErr.Kind.Status(), appErr.Code, appErr.Message)
		return
	}

	logger.FromContext(ctx).Error().
		Err(err).
		Int("status_code", http.StatusInternalServerError).
		Msg("Request failed")
	response.InternalError(w)
}

// LogDelivery records a failed best-effort delivery (email, push, events).
// These errors never reach the caller.
func LogDelivery(ctx context.Context, channel string, err error, fields map[string]string) {
	event := logger.FromContext(ctx).Warn().Err(err).Str("channel", channel)
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg("Delivery failed")
}
