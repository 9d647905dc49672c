package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/scoo-app/scoo-api/internal/domain"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names so they can be used as the failed scope.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks a request payload and reports the first failing field as
// a validation error scoped to its JSON name.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError(apperrors.ScopeRequest, "Invalid payload", nil)
	}
	fe := fieldErrs[0]
	return apperrors.NewValidationError(fe.Field(), fieldMessage(fe), nil)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("Please provide a %s.", fe.Field())
	case "email":
		return "Please provide a valid email address."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "role":
		return fmt.Sprintf("%v is not a valid role", fe.Value())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
