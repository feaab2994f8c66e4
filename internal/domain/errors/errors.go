// Package errors defines the error taxonomy shared by the bridge layers.
package errors

import (
	"errors"
	"fmt"
)

// ErrCredentialRejected is returned when the forum API reports the access token
// as invalid or expired. The event loop recovers from it with one refresh.
var ErrCredentialRejected = errors.New("forum credential rejected")

// ErrUnknownRequester is returned when a chat sender has no entry in the identity cache.
var ErrUnknownRequester = errors.New("requester not found in identity cache")

// UserError carries an actionable message that is shown to the requester as-is.
// It covers parse failures, oversized inputs and rejected arguments.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// NewUserError creates a UserError with a formatted message.
func NewUserError(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// AsUserError reports whether err wraps a UserError and returns it.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// TransientError marks a failure that may succeed when retried (rate limits,
// network errors, upstream 5xx).
type TransientError struct {
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a transient failure.
func NewTransientError(message string, err error) error {
	return &TransientError{Message: message, Err: err}
}

// PermanentError marks a failure that will not succeed on retry.
type PermanentError struct {
	Message string
	Err     error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err as a permanent failure.
func NewPermanentError(message string, err error) error {
	return &PermanentError{Message: message, Err: err}
}

// IsTransientError reports whether err is, or wraps, a TransientError.
func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsCredentialRejected reports whether err wraps ErrCredentialRejected.
func IsCredentialRejected(err error) bool {
	return errors.Is(err, ErrCredentialRejected)
}
