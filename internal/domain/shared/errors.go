package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so transports can map them without knowing every code
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindInvalidState ErrorKind = "INVALID_STATE"
	KindInvalidInput ErrorKind = "INVALID_INPUT"
	KindConflict     ErrorKind = "CONFLICT"
	KindInternal     ErrorKind = "INTERNAL"
)

// DomainError represents a domain-level error.
// Details carries the context a caller needs to render a message (entity id, current status).
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Kind    ErrorKind      `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code, so errors.Is(err, ErrNotFound) holds for any NOT_FOUND error
// regardless of the details attached to it.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying one more detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Kind: e.Kind, Details: details}
}

// NewDomainError creates a new domain error. The kind defaults to INVALID_INPUT
// unless the code names one of the generic kinds.
func NewDomainError(code, message string) *DomainError {
	kind := KindInvalidInput
	switch ErrorKind(code) {
	case KindNotFound, KindInvalidState, KindConflict, KindInternal:
		kind = ErrorKind(code)
	}
	return &DomainError{Code: code, Message: message, Kind: kind}
}

// NewKindError creates a domain error with an explicit kind
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: kind}
}

// NewNotFoundError reports a missing entity
func NewNotFoundError(code, entity string, id fmt.Stringer) *DomainError {
	return NewKindError(KindNotFound, code, fmt.Sprintf("%s %s not found", entity, id)).
		WithDetail("id", id.String())
}

// NewInvalidStateError reports an operation rejected by the entity's current state
func NewInvalidStateError(code, message string) *DomainError {
	return NewKindError(KindInvalidState, code, message)
}

// NewInvalidInputError reports a rejected argument
func NewInvalidInputError(code, message string) *DomainError {
	return NewKindError(KindInvalidInput, code, message)
}

// KindOf returns the kind of a domain error, or KindInternal for anything else
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Common domain errors
var (
	ErrNotFound            = NewKindError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewKindError(KindConflict, "ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewInvalidInputError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewKindError(KindConflict, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewInvalidStateError("INVALID_STATE", "Operation not allowed in current state")
)

// IsNotFound reports whether err is any NOT_FOUND-kind domain error
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}
