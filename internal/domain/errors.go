package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures.
type ErrorKind string

const (
	// KindAuthorization: wrong caller role or identity.
	KindAuthorization ErrorKind = "AUTHORIZATION"
	// KindValidation: bad parameter (non-positive price, unknown tier, ...).
	KindValidation ErrorKind = "VALIDATION"
	// KindStateConflict: operation illegal in the current state (already
	// cancelled, asset already used/refunded, double initialization, ...).
	KindStateConflict ErrorKind = "STATE_CONFLICT"
	// KindResource: insufficient escrow/custody balance or a collaborator
	// transfer failure.
	KindResource ErrorKind = "RESOURCE"
	// KindBounds: deterministic-ID component outside its allowed range.
	KindBounds ErrorKind = "BOUNDS"
)

// Error standardizes engine errors: a kind for dispatch-level handling plus a
// human-readable reason. Every error aborts its call atomically.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs a typed engine error.
func NewError(kind ErrorKind, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func NewAuthorizationError(message string) error {
	return NewError(KindAuthorization, message, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewError(KindValidation, message, details)
}

func NewStateConflictError(message string, details map[string]any) error {
	return NewError(KindStateConflict, message, details)
}

func NewResourceError(message string, err error) error {
	return &Error{Kind: KindResource, Message: message, Err: err}
}

func NewBoundsError(message string, details map[string]any) error {
	return NewError(KindBounds, message, details)
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind == kind
	}
	return false
}
