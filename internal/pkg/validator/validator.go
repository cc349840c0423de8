package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// gt/gte/lte on money fields compare the float value
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("taxid", func(fl validator.FieldLevel) bool {
		return ValidCPF(fl.Field().String())
	})

	validate.RegisterValidation("benefit_type", oneOf("DESCONTO", "CASHBACK", "PONTOS", "ACESSO_EXCLUSIVO"))
	validate.RegisterValidation("subscriber_status", oneOf("PENDING", "ACTIVE", "SUSPENDED", "CANCELED", "EXPIRED"))
	validate.RegisterValidation("provider", oneOf("robokassa", "kaspi"))
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

// ValidCPF checks a Brazilian individual tax id: 11 digits (punctuation
// allowed), not all equal, with both check digits correct.
func ValidCPF(s string) bool {
	digits := NormalizeTaxID(s)
	if len(digits) != 11 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 11 {
		return false
	}

	check := func(n int) byte {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(digits[i]-'0') * (n + 1 - i)
		}
		r := (sum * 10) % 11
		if r == 10 {
			r = 0
		}
		return byte('0' + r)
	}
	return digits[9] == check(9) && digits[10] == check(10)
}

// NormalizeTaxID strips everything but digits.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "uuid":
			errors[field] = "Invalid identifier"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "taxid":
			errors[field] = "Invalid CPF"
		case "benefit_type":
			errors[field] = "Invalid benefit type"
		case "subscriber_status":
			errors[field] = "Invalid subscription status"
		case "provider":
			errors[field] = "Invalid payment provider. Must be: robokassa or kaspi"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
