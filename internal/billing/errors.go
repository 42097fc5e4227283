package billing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBillNotFound is returned when the store has no record for the requested id.
	ErrBillNotFound = errors.New("bill not found")
	// ErrNoPaymentLink indicates the bill carries no outstanding balance to collect.
	ErrNoPaymentLink = errors.New("bill has no payment link")
)

// FieldError describes a single violated input constraint.
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// ValidationError collects every field that failed validation for one operation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the given field is among the violations.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, constraint, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Constraint: constraint, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var target *ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
