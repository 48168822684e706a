package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"assessment-service/internal/domain"
)

// requestValidator plugs go-playground/validator into echo's c.Validate.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

func (rv *requestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.Invalidf("%s", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return domain.Invalidf("%s is required", fe.Field())
	case "email":
		return domain.Invalidf("%s must be a valid email", fe.Field())
	case "min":
		return domain.Invalidf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return domain.Invalidf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return domain.Invalidf("%s is invalid", fe.Field())
}
