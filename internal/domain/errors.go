package domain

import (
	"errors"
)

type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindForbidden  ErrorKind = "forbidden"
	ErrorKindConflict   ErrorKind = "conflict"
	ErrorKindState      ErrorKind = "state"
	ErrorKindInternal   ErrorKind = "internal"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *Error {
	return &Error{Kind: ErrorKindValidation, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: ErrorKindNotFound, Message: message}
}

func NewForbiddenError(message string) *Error {
	return &Error{Kind: ErrorKindForbidden, Message: message}
}

func NewConflictError(message string) *Error {
	return &Error{Kind: ErrorKindConflict, Message: message}
}

func NewStateError(message string) *Error {
	return &Error{Kind: ErrorKindState, Message: message}
}

func NewInternalError(message string, err error) *Error {
	return &Error{Kind: ErrorKindInternal, Message: message, Err: err}
}

func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ErrorKindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
