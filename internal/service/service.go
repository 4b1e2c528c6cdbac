// Package service holds the business logic between the HTTP handlers and the
// repositories.
package service

import (
	"fmt"
	"strings"

	"infinity/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct-tag validation and converts the first failure
// into a field-naming validation error.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return models.NewValidationError("Invalid input")
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return models.NewValidationError(fmt.Sprintf("%s is required", field))
	case "max":
		return models.NewValidationError(fmt.Sprintf("%s must not exceed %s characters", field, fe.Param()))
	case "min":
		return models.NewValidationError(fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	default:
		return models.NewValidationError(fmt.Sprintf("%s is invalid", field))
	}
}
