package domain

import "fmt"

// Field names reported in validation errors.
const (
	FieldName  = "name"
	FieldEmail = "email"
)

// ValidationError reports a raw value that could not become a domain value.
// It never carries the rejected input, which may be PII.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid subscriber %s: %s", e.Field, e.Reason)
}
