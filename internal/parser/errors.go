package parser

import (
	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

// Code categorizes parse failures.
type Code string

const (
	CodeEmpty               Code = "Empty"
	CodeUnknownShortcut     Code = "UnknownShortcut"
	CodeKindMismatch        Code = "KindMismatch"
	CodeUnsupportedOperator Code = "UnsupportedOperator"
	CodeInvalidRange        Code = "InvalidRange"
	CodeInvalidSelectValue  Code = "InvalidSelectValue"
	CodeNoMatch             Code = "NoMatch"
)

var sentinels = map[Code]error{
	CodeEmpty:               model.ErrEmptyExpression,
	CodeUnknownShortcut:     model.ErrUnknownShortcut,
	CodeKindMismatch:        model.ErrKindMismatch,
	CodeUnsupportedOperator: model.ErrUnsupportedOperator,
	CodeInvalidRange:        model.ErrInvalidRange,
	CodeInvalidSelectValue:  model.ErrInvalidSelectValue,
	CodeNoMatch:             model.ErrNoMatch,
}

// ParseError is a recoverable failure carrying corrective suggestions.
type ParseError struct {
	Code        Code
	Message     string
	Input       string // Normalized input
	Token       string // The offending token, if any
	Suggestions []string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Unwrap exposes the matching sentinel in pkg/model for errors.Is.
func (e *ParseError) Unwrap() error {
	return sentinels[e.Code]
}
