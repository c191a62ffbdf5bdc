package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrSchema           = errors.New("schema error")
	ErrValidation       = errors.New("validation error")
	ErrInsufficientData = errors.New("insufficient data")
)

// SchemaError is returned when a requested column is missing from a table
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: column %q: %s", e.Column, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// ValidationError is returned for malformed parameters or cell values
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientDataError is returned when a target class has too few rows to appear in
// every stratified partition
type InsufficientDataError struct {
	Class    string
	Count    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: class %q has %d rows, %d needed to stratify", e.Class, e.Count, e.Required)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
