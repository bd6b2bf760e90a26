// Package apperr defines the error kinds that cross the prediction core boundary.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindArtifactMissing
	KindSchemaExtraction
	KindMissingColumn
	KindRangeValidation
	KindTypeCoercion
)

func (k Kind) String() string {
	switch k {
	case KindArtifactMissing:
		return "artifact_missing"
	case KindSchemaExtraction:
		return "schema_extraction"
	case KindMissingColumn:
		return "missing_column"
	case KindRangeValidation:
		return "range_validation"
	case KindTypeCoercion:
		return "type_coercion"
	default:
		return "unknown"
	}
}

// Retryable reports whether the same call may succeed later without changing the input.
func (k Kind) Retryable() bool {
	return k == KindArtifactMissing
}

// Validation reports whether the kind describes bad caller input.
func (k Kind) Validation() bool {
	switch k {
	case KindMissingColumn, KindRangeValidation, KindTypeCoercion:
		return true
	}
	return false
}

type Error struct {
	Kind  Kind
	Field string
	Value any
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func Wrap(kind Kind, err error, context string) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf("%s: %w", context, err)}
}

func ArtifactMissing(path string) *Error {
	return &Error{
		Kind:  KindArtifactMissing,
		Field: "artifact",
		Value: path,
		Err:   fmt.Errorf("model file not found: %s", path),
	}
}

func MissingColumn(column string, available []string) *Error {
	return &Error{
		Kind:  KindMissingColumn,
		Field: column,
		Err: fmt.Errorf(
			"required target column %q not found after header normalization; available columns: %v",
			column, available,
		),
	}
}

func OutOfRange(field string, value any, lo, hi int) *Error {
	return &Error{
		Kind:  KindRangeValidation,
		Field: field,
		Value: value,
		Err:   fmt.Errorf("%s must be between %d and %d", field, lo, hi),
	}
}

func InvalidNumber(field string, value any) *Error {
	return &Error{
		Kind:  KindTypeCoercion,
		Field: field,
		Value: value,
		Err:   fmt.Errorf("invalid numeric value for '%s': %v", field, value),
	}
}

// KindOf returns the kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
