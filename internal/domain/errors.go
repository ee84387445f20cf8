package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrMalformedOutput     = errors.New("malformed model output")
	ErrExtraction          = errors.New("extraction failed")
	ErrInvalidEntryContent = errors.New("invalid entry content")
	ErrServiceUnavailable  = errors.New("service unavailable")
)

// SchemaError describes why a model output does not satisfy a schema.
type SchemaError struct {
	Schema string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Schema, e.Reason)
	}
	return fmt.Sprintf("%s: field %q %s", e.Schema, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrMalformedOutput }

// NewSchemaError creates a SchemaError for a single field.
func NewSchemaError(schema, field, reason string) *SchemaError {
	return &SchemaError{Schema: schema, Field: field, Reason: reason}
}

// ExtractionError is returned when neither the first completion nor its
// repair could be parsed into a SentimentRecord.
type ExtractionError struct {
	Raw      string
	Repaired string
	First    error
	Second   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: first parse: %v; repair parse: %v", e.First, e.Second)
}

func (e *ExtractionError) Unwrap() error { return ErrExtraction }

// ServiceError wraps a failed call to an external embedding or completion service.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrServiceUnavailable }

// NewServiceError wraps err as a ServiceError. A nil err returns nil.
func NewServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}
