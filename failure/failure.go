// Package failure defines the error taxonomy of a benchmark run.
package failure

import (
	"errors"
	"fmt"

	"github.com/sarchlab/imgaccel/accel"
)

// Kind represents a category of failure.
type Kind string

const (
	KindAllocation          Kind = "allocation"
	KindEngineConfiguration Kind = "engine_configuration"
	KindEngine              Kind = "engine"
	KindTransferTimeout     Kind = "transfer_timeout"
	KindShapeMismatch       Kind = "shape_mismatch"
	KindContentMismatch     Kind = "content_mismatch"
	KindInvalidParams       Kind = "invalid_params"
)

// Error is a failure of one stage of a run.
type Error struct {
	Kind    Kind
	Stage   string
	Message string
	// Direction is set for transfer failures.
	Direction *accel.Direction
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}

	if e.Direction != nil {
		msg += fmt.Sprintf(" (%s)", e.Direction.Name())
	}

	if e.Cause != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithStage returns a copy of e attributed to the given stage.
func (e *Error) WithStage(stage string) *Error {
	c := *e
	c.Stage = stage

	return &c
}

// NewAllocationError creates an error for a buffer that cannot be obtained.
func NewAllocationError(message string, cause error) *Error {
	return &Error{Kind: KindAllocation, Message: message, Cause: cause}
}

// NewEngineConfigurationError creates an error for a DMA engine that cannot
// be found or initialized.
func NewEngineConfigurationError(message string, cause error) *Error {
	return &Error{Kind: KindEngineConfiguration, Message: message, Cause: cause}
}

// NewEngineError creates an error for a transfer that could not be started.
func NewEngineError(dir accel.Direction, cause error) *Error {
	return &Error{
		Kind:      KindEngine,
		Message:   "failed to start transfer",
		Direction: &dir,
		Cause:     cause,
	}
}

// NewTimeoutError creates an error for a completion flag that never arrived.
func NewTimeoutError(dir accel.Direction) *Error {
	return &Error{
		Kind:      KindTransferTimeout,
		Message:   "completion flag not set in time",
		Direction: &dir,
	}
}

// NewShapeMismatchError creates an error for images of different shapes.
func NewShapeMismatchError(actual, expected accel.ImageShape) *Error {
	return &Error{
		Kind:    KindShapeMismatch,
		Message: fmt.Sprintf("actual image is %s, expected %s", actual, expected),
	}
}

// NewContentMismatchError creates an error for images that differ.
func NewContentMismatchError(count int) *Error {
	return &Error{
		Kind:    KindContentMismatch,
		Message: fmt.Sprintf("%d pixels differ", count),
	}
}

// NewInvalidParamsError creates an error for rejected processing
// parameters.
func NewInvalidParamsError(cause error) *Error {
	return &Error{
		Kind:    KindInvalidParams,
		Message: "invalid processing parameters",
		Cause:   cause,
	}
}

// Is reports whether err is a failure of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}

// IsTimeout reports whether err is a transfer timeout in the given direction.
func IsTimeout(err error, dir accel.Direction) bool {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindTransferTimeout {
		return false
	}

	return e.Direction != nil && *e.Direction == dir
}

// Fatal reports whether err must abort the whole run rather than just the
// current iteration.
func Fatal(err error) bool {
	return Is(err, KindAllocation) ||
		Is(err, KindEngineConfiguration) ||
		Is(err, KindInvalidParams)
}
