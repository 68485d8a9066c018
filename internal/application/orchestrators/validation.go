package orchestrators

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const notBlankTag = "notblank"

// validate checks orchestrator input structs.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation(notBlankTag, notBlankValidation)
	return v
}

// notBlankValidation rejects strings that are empty after trimming whitespace.
func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}
