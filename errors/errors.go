// Package errors provides custom error types for the autosave package
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred
type ErrorCode string

const (
	ErrCodeNetworkFailure    ErrorCode = "NETWORK_FAILURE"
	ErrCodeStorageFailure    ErrorCode = "STORAGE_FAILURE"
	ErrCodeConflictFailure   ErrorCode = "CONFLICT_FAILURE"
	ErrCodeRetryExhausted    ErrorCode = "RETRY_EXHAUSTED"
	ErrCodeValidationFailure ErrorCode = "VALIDATION_FAILURE"
)

// Kind classifies errors for callers that branch on failure class
// rather than on a specific code.
type Kind string

const (
	KindTransient Kind = "transient"
	KindConflict  Kind = "conflict"
	KindExhausted Kind = "exhausted"
	KindInvalid   Kind = "invalid"
	KindInternal  Kind = "internal"
)

// Operation represents the type of engine operation
type Operation string

const (
	OpSave            Operation = "save"
	OpManualSave      Operation = "manual_save"
	OpUpdate          Operation = "update"
	OpReset           Operation = "reset"
	OpConflictResolve Operation = "conflict_resolve"
	OpDraftStore      Operation = "draft_store"
	OpConfigLoad      Operation = "config_load"
	OpClose           Operation = "close"
)

// Component identifies the engine component an error originated in.
type Component string

// SaveError represents an error that occurred inside the auto-save engine
type SaveError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "client", "scheduler")
	Component string

	// Underlying error
	Err error

	// Whether the operation can be retried
	Retryable bool

	// Error code for the error type
	Code ErrorCode

	// Kind classifies the failure
	Kind Kind

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *SaveError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}

	return msg + fmt.Sprintf(": %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a retryable SaveError for a client failure
func NewTransientError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeNetworkFailure,
		Kind:      KindTransient,
		Op:        op,
		Component: "client",
		Err:       cause,
		Retryable: true,
	}
}

// NewConflictError creates a new conflict-related SaveError
func NewConflictError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeConflictFailure,
		Kind:      KindConflict,
		Op:        op,
		Component: "engine",
		Err:       cause,
		Retryable: false,
	}
}

// NewExhaustedError creates a SaveError marking the retry budget as spent
func NewExhaustedError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeRetryExhausted,
		Kind:      KindExhausted,
		Op:        op,
		Component: "engine",
		Err:       cause,
		Retryable: false,
	}
}

// NewValidationError creates a new validation-related SaveError
func NewValidationError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeValidationFailure,
		Kind:      KindInvalid,
		Op:        op,
		Err:       cause,
		Retryable: false,
	}
}

// NewStorageError creates a new storage-related SaveError
func NewStorageError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeStorageFailure,
		Kind:      KindTransient,
		Op:        op,
		Component: "store",
		Err:       cause,
		Retryable: true,
	}
}

// New creates a new SaveError
func New(op Operation, err error) *SaveError {
	return &SaveError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new SaveError with component information
func NewWithComponent(op Operation, component string, err error) *SaveError {
	return &SaveError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// NewRetryable creates a new retryable SaveError
func NewRetryable(op Operation, err error) *SaveError {
	return &SaveError{
		Op:        op,
		Err:       err,
		Retryable: true,
	}
}

// E builds a SaveError from a variadic argument list. Recognized types:
// Operation, Component, Kind, ErrorCode, error, string (stored as a
// metadata note). Unknown argument types are ignored.
func E(args ...interface{}) *SaveError {
	e := &SaveError{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Operation:
			e.Op = a
		case Component:
			e.Component = string(a)
		case Kind:
			e.Kind = a
			if a == KindTransient {
				e.Retryable = true
			}
		case ErrorCode:
			e.Code = a
		case error:
			e.Err = a
		case string:
			if e.Metadata == nil {
				e.Metadata = make(map[string]interface{})
			}
			e.Metadata["note"] = a
		}
	}
	return e
}

// Op marks a string argument to E as the operation name.
func Op(name string) Operation { return Operation(name) }

// IsRetryable checks if an error is a retryable SaveError
func IsRetryable(err error) bool {
	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return saveErr.Retryable
	}
	return false
}

// KindOf returns the Kind of err if it is a SaveError, else KindInternal.
func KindOf(err error) Kind {
	var saveErr *SaveError
	if errors.As(err, &saveErr) && saveErr.Kind != "" {
		return saveErr.Kind
	}
	return KindInternal
}
