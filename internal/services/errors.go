package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies operation failures so callers can choose a response
// without inspecting messages.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindPrecondition ErrorKind = "precondition"
)

// Error is returned for every expected failure of an operation. Anything else
// coming out of a service is an internal error.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewNotFoundError(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewPreconditionError(format string, args ...any) error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" for internal errors.
func KindOf(err error) ErrorKind {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return ""
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsPrecondition(err error) bool {
	return KindOf(err) == KindPrecondition
}

// notFoundOr converts gorm.ErrRecordNotFound into a NotFound error and wraps
// anything else.
func notFoundOr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError("%s %d not found", what, id)
	}
	return fmt.Errorf("failed to load %s %d: %w", what, id, err)
}

// duplicateOr converts a unique constraint violation into a ValidationFailure.
func duplicateOr(err error, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewValidationError("%s", message)
	}
	return err
}
