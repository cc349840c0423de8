package plan

import "github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"

var (
	ErrPlanNotFound        = errorhandler.New(errorhandler.KindNotFound, "PLAN_NOT_FOUND", "plan not found")
	ErrPlanInactive        = errorhandler.New(errorhandler.KindBusinessRule, "PLAN_INACTIVE", "plan is not available")
	ErrInvalidBenefitValue = errorhandler.New(errorhandler.KindValidation, "INVALID_BENEFIT_VALUE", "benefit value does not match its type")
	ErrInvalidCatalog      = errorhandler.New(errorhandler.KindValidation, "INVALID_CATALOG", "catalog is invalid")
	ErrInternal            = errorhandler.New(errorhandler.KindInternal, "INTERNAL", "plan storage failure")
)
