package validator

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidCPF(t *testing.T) {
	valid := []string{"529.982.247-25", "52998224725", "111.444.777-35"}
	for _, v := range valid {
		if !ValidCPF(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}

	invalid := []string{"", "123", "111.111.111-11", "529.982.247-26", "5299822472a"}
	for _, v := range invalid {
		if ValidCPF(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

type saleInput struct {
	SubscriberID string          `json:"subscriberId" validate:"required,uuid"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	PointsUsed   decimal.Decimal `json:"pointsUsed" validate:"gte=0"`
}

func TestValidateDecimalFields(t *testing.T) {
	errs := Validate(saleInput{
		SubscriberID: "not-a-uuid",
		Amount:       decimal.Zero,
		PointsUsed:   decimal.NewFromInt(-1),
	})

	for _, field := range []string{"subscriberId", "amount", "pointsUsed"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}

	ok := Validate(saleInput{
		SubscriberID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		Amount:       decimal.RequireFromString("100.50"),
		PointsUsed:   decimal.Zero,
	})
	if ok != nil {
		t.Fatalf("expected no errors, got %v", ok)
	}
}
