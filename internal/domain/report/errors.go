package report

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrTooManyRows = errorhandler.New(errorhandler.KindValidation, "REPORT_TOO_LARGE", "report period has too many transactions, narrow the date range")
	ErrInternal    = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "report generation failure")
)
