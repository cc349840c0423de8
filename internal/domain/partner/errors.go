package partner

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrPartnerNotFound = errorhandler.New(errorhandler.KindNotFound, "PARTNER_NOT_FOUND", "partner not found")
	ErrPartnerInactive = errorhandler.New(errorhandler.KindBusinessRule, "PARTNER_INACTIVE", "partner is not active")
	ErrNotPartnerOwner = errorhandler.New(errorhandler.KindForbidden, "NOT_PARTNER", "no partner is linked to this account")
	ErrInternal        = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "partner storage failure")
)
