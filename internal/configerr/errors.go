// Package configerr defines the error taxonomy shared by schema definition,
// coercion, validation, resolution and lookup.
package configerr

import (
	"errors"
	"fmt"
)

// Kind classifies a configuration error.
type Kind int

const (
	KindDuplicateDefinition Kind = iota + 1
	KindTypeMismatch
	KindMissingRequired
	KindValidationFailure
	KindUnknownKey
	KindClassResolution
	KindInvalidKey
	KindInvalidSchema
)

// Sentinel errors, one per Kind. Every *Error matches its kind's sentinel
// through errors.Is.
var (
	ErrDuplicateDefinition = errors.New("duplicate definition")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrMissingRequired     = errors.New("missing required configuration")
	ErrValidationFailure   = errors.New("validation failure")
	ErrUnknownKey          = errors.New("unknown configuration")
	ErrClassResolution     = errors.New("class resolution failure")
	ErrInvalidKey          = errors.New("invalid key")
	ErrInvalidSchema       = errors.New("invalid schema")
)

// String returns the kind name used in reports.
func (k Kind) String() string {
	switch k {
	case KindDuplicateDefinition:
		return "DuplicateDefinition"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindMissingRequired:
		return "MissingRequired"
	case KindValidationFailure:
		return "ValidationFailure"
	case KindUnknownKey:
		return "UnknownKey"
	case KindClassResolution:
		return "ClassResolutionFailure"
	case KindInvalidKey:
		return "InvalidKey"
	case KindInvalidSchema:
		return "InvalidSchema"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindDuplicateDefinition:
		return ErrDuplicateDefinition
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindMissingRequired:
		return ErrMissingRequired
	case KindValidationFailure:
		return ErrValidationFailure
	case KindUnknownKey:
		return ErrUnknownKey
	case KindClassResolution:
		return ErrClassResolution
	case KindInvalidKey:
		return ErrInvalidKey
	case KindInvalidSchema:
		return ErrInvalidSchema
	default:
		return nil
	}
}

// Error is a structured configuration error identifying the offending
// name, the raw value (when there is one) and a human-readable reason.
type Error struct {
	Kind     Kind
	Name     string
	Value    any
	HasValue bool
	Reason   string
	Err      error // underlying cause, if any
}

// Error renders the message in the form
// "Invalid value <v> for configuration <name>: <reason>" when a value is
// attached and "<name>: <reason>" otherwise.
func (e *Error) Error() string {
	if e.HasValue {
		msg := fmt.Sprintf("Invalid value %v for configuration %s", e.Value, e.Name)
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		return msg
	}
	if e.Name == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

// Is matches the sentinel error for e.Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error that carries no value.
func New(kind Kind, name, reason string) *Error {
	return &Error{Kind: kind, Name: name, Reason: reason}
}

// WithValue returns an error that reports the offending raw value.
func WithValue(kind Kind, name string, value any, reason string) *Error {
	return &Error{Kind: kind, Name: name, Value: value, HasValue: true, Reason: reason}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and 0 otherwise.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
