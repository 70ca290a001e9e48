package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxMoney is the first amount a NUMERIC(18,2) column cannot hold.
var maxMoney = decimal.New(1, 16)

// FieldError is one failed rule, named by the field's json key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required": "is required",
	"min":      "is too short",
	"max":      "is too long",
	"uuid":     "must be a valid id",
	"oneof":    "is not an accepted value",
	"money":    "must be a non-negative amount below 10^16 with at most 2 decimal places",
	"datetime": "must be a date formatted as YYYY-MM-DD",
}

// Register installs json field naming, decimal support and the money rule.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	return v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return !d.IsNegative() && d.LessThan(maxMoney) && d.Equal(d.Round(2))
	})
}

// Describe flattens validator errors. ok is false for any other error.
func Describe(err error) ([]FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed %s validation", e.Tag())
		}
		out = append(out, FieldError{Field: e.Field(), Message: e.Field() + " " + msg})
	}
	return out, true
}
