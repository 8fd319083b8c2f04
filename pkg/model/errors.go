package model

import (
	"context"
	"errors"
)

var (
	// ErrEmptyExpression is returned for blank filter input
	ErrEmptyExpression = errors.New("empty expression")
	// ErrUnknownShortcut is returned when a token names no registered filter
	ErrUnknownShortcut = errors.New("unknown filter")
	// ErrKindMismatch is returned when syntax does not fit the filter kind
	ErrKindMismatch = errors.New("filter kind mismatch")
	// ErrUnsupportedOperator is returned when a filter does not accept an operator
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrInvalidRange is returned for inverted bounds or non-numeric values
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidSelectValue is returned for values outside a closed option set
	ErrInvalidSelectValue = errors.New("invalid select value")
	// ErrNoMatch is returned when no grammar rule matches the input
	ErrNoMatch = errors.New("unrecognized expression")

	// ErrUnknownPreset is returned for preset ids missing from the registry
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrUnknownQuickFilter is returned for quick filter ids missing from the registry
	ErrUnknownQuickFilter = errors.New("unknown quick filter")
	// ErrUnknownField is returned for canonical fields no definition owns
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a value does not fit its field
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidQuery is returned when a resolved query cannot be translated
	ErrInvalidQuery = errors.New("invalid query")
	// ErrClosed is returned by components used after Close
	ErrClosed = errors.New("closed")
	// ErrCanceled is returned when the operation is canceled by the caller
	ErrCanceled = errors.New("operation canceled")
)

// WrapError converts context cancellation into ErrCanceled.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled returns true if the error is due to context cancellation or deadline exceeded.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrCanceled)
}
