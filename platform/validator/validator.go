// Package validator wraps go-playground/validator with the tags request DTOs
// rely on.
package validator

import (
	"reflect"

	"telesales_backend/platform/phone"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Validator struct {
	v *validator.Validate
}

// New registers two tags besides the built-ins:
//
//	phone  the string parses as a number of phoneRegion
//	money  a decimal.Decimal that is not negative and has at most 2 places
func New(phoneRegion string) *Validator {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phone.IsPlausible(fl.Field().String(), phoneRegion)
	})
	_ = v.RegisterValidation("money", isMoney)
	return &Validator{v: v}
}

func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// decimalValue lets tags see a decimal.Decimal as its string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func isMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Round(2))
}
