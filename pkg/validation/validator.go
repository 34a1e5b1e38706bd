package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxParameters bounds how many bindings one evaluation accepts
	MaxParameters = 100

	identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func init() {
	validate = validator.New()
}

// ValidateStruct runs struct-tag validation and rewrites the library's
// errors into user-facing messages.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateParams checks evaluation parameter bindings: the count bound
// and that every key is a legal identifier. A key failing the pattern
// can never be referenced from query text.
func ValidateParams(params map[string]any) error {
	if len(params) > MaxParameters {
		return fmt.Errorf("parameters: maximum %d bindings allowed, got %d", MaxParameters, len(params))
	}
	for key := range params {
		if err := ValidateIdentifier(key); err != nil {
			return fmt.Errorf("parameters: %w", err)
		}
	}
	return nil
}

// ValidateIdentifier validates a parameter or variable name
func ValidateIdentifier(name string) error {
	if name == "" {
		return errors.New("identifier cannot be empty")
	}
	if !identPattern.MatchString(name) {
		return fmt.Errorf("identifier %q is invalid (must start with letter or underscore, followed by alphanumeric or underscore)", name)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "url":
			return fmt.Errorf("%s: must be a valid URL", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
