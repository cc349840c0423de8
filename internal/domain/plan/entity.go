package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is a purchasable subscription plan.
type Plan struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Slug         string          `db:"slug" json:"slug"`
	Name         string          `db:"name" json:"name"`
	Description  string          `db:"description" json:"description"`
	Price        decimal.Decimal `db:"price" json:"price"`
	DurationDays int             `db:"duration_days" json:"duration_days"`
	Active       bool            `db:"active" json:"active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// BenefitType discriminates the benefit value payload
type BenefitType string

const (
	BenefitDiscount        BenefitType = "DESCONTO"
	BenefitCashback        BenefitType = "CASHBACK"
	BenefitPoints          BenefitType = "PONTOS"
	BenefitExclusiveAccess BenefitType = "ACESSO_EXCLUSIVO"
)

// BenefitValue is one of DiscountValue, CashbackValue, PointsValue or
// ExclusiveAccessValue.
type BenefitValue interface {
	Type() BenefitType
	validate() error
}

type DiscountValue struct {
	Percentage decimal.Decimal `json:"percentage"`
}

type CashbackValue struct {
	Percentage decimal.Decimal `json:"percentage"`
}

type PointsValue struct {
	MonthlyPoints decimal.Decimal `json:"monthly_points"`
}

type ExclusiveAccessValue struct {
	Description string `json:"description"`
}

func (DiscountValue) Type() BenefitType        { return BenefitDiscount }
func (CashbackValue) Type() BenefitType        { return BenefitCashback }
func (PointsValue) Type() BenefitType          { return BenefitPoints }
func (ExclusiveAccessValue) Type() BenefitType { return BenefitExclusiveAccess }

var hundred = decimal.NewFromInt(100)

func validPercentage(p decimal.Decimal) bool {
	return p.IsPositive() && p.LessThanOrEqual(hundred)
}

func (v DiscountValue) validate() error {
	if !validPercentage(v.Percentage) {
		return fmt.Errorf("%w: discount percentage must be in (0, 100]", ErrInvalidBenefitValue)
	}
	return nil
}

func (v CashbackValue) validate() error {
	if !validPercentage(v.Percentage) {
		return fmt.Errorf("%w: cashback percentage must be in (0, 100]", ErrInvalidBenefitValue)
	}
	return nil
}

func (v PointsValue) validate() error {
	if !v.MonthlyPoints.IsPositive() {
		return fmt.Errorf("%w: monthly_points must be positive", ErrInvalidBenefitValue)
	}
	if !v.MonthlyPoints.Equal(v.MonthlyPoints.Round(2)) {
		return fmt.Errorf("%w: monthly_points must have at most 2 decimal places", ErrInvalidBenefitValue)
	}
	return nil
}

func (v ExclusiveAccessValue) validate() error {
	if v.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidBenefitValue)
	}
	return nil
}

// DecodeValue parses a JSONB payload into the variant selected by t.
// Unknown fields or a payload of the wrong shape are rejected.
func DecodeValue(t BenefitType, raw []byte) (BenefitValue, error) {
	var v BenefitValue
	switch t {
	case BenefitDiscount:
		v = &DiscountValue{}
	case BenefitCashback:
		v = &CashbackValue{}
	case BenefitPoints:
		v = &PointsValue{}
	case BenefitExclusiveAccess:
		v = &ExclusiveAccessValue{}
	default:
		return nil, fmt.Errorf("%w: unknown benefit type %q", ErrInvalidBenefitValue, t)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBenefitValue, err)
	}
	if err := v.validate(); err != nil {
		return nil, err
	}

	switch val := v.(type) {
	case *DiscountValue:
		return *val, nil
	case *CashbackValue:
		return *val, nil
	case *PointsValue:
		return *val, nil
	case *ExclusiveAccessValue:
		return *val, nil
	}
	return v, nil
}

// Benefit is a perk granted by one or more plans.
type Benefit struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Slug      string      `db:"slug" json:"slug"`
	Name      string      `db:"name" json:"name"`
	Type      BenefitType `db:"type" json:"type"`
	ValueRaw  []byte      `db:"value" json:"-"`
	Active    bool        `db:"active" json:"active"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`

	Value BenefitValue `db:"-" json:"value"`
}

// ParseValue populates Value from ValueRaw. Must be called after DB scan.
func (b *Benefit) ParseValue() error {
	v, err := DecodeValue(b.Type, b.ValueRaw)
	if err != nil {
		return err
	}
	b.Value = v
	return nil
}
