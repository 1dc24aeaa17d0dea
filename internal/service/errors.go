package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

var (
	// ErrForbidden is returned when a valid token carries the wrong role.
	ErrForbidden = errors.New("forbidden for this account type")
	// ErrInvalidCredentials is returned by login for an unknown email or a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput matches every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAccountNotFound is returned when the account behind a valid token
	// no longer exists. It matches repository.ErrNotFound.
	ErrAccountNotFound = fmt.Errorf("account %w", repository.ErrNotFound)
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidField(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and converts failures into
// a *ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"request": err.Error()}}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// finite rejects NaN and infinite numbers, which validator's gte lets through.
func finite(field string, v *float64) error {
	if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return invalidField(field, "must be a finite number")
	}
	return nil
}

// authorize validates the bearer token and requires the given role.
func authorize(iss *auth.Issuer, token string, role model.Role) (auth.Principal, error) {
	p, err := iss.Validate(token)
	if err != nil {
		return auth.Principal{}, err
	}
	if p.Role != role {
		return auth.Principal{}, ErrForbidden
	}
	return p, nil
}
