package validator

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validator. Field names in messages use the json tag.
type Validator struct {
	validate *validator.Validate
}

// New creates a new validator
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate validates a struct against its `validate` tags
func (v *Validator) Validate(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// FieldError is returned when one or more fields fail validation
type FieldError struct {
	Fields   []string
	messages []string
}

func (e *FieldError) Error() string {
	return "validation failed: " + strings.Join(e.messages, "; ")
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	out := &FieldError{}
	for _, fe := range validationErrors {
		out.Fields = append(out.Fields, fe.Field())
		out.messages = append(out.messages, formatFieldError(fe))
	}
	return out
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation for %s", field, e.Tag())
	}
}

// ValidateURL checks that s is an absolute http(s) URL
func ValidateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmptyURL
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidScheme
	}
	if parsed.Host == "" {
		return ErrInvalidHost
	}
	return nil
}
