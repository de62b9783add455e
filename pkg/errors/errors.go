// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Praxis.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Praxis errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodePlanning indicates the planning collaborator failed.
	CodePlanning ErrorCode = "PLANNING_ERROR"

	// CodeExecution indicates an action execution failed.
	CodeExecution ErrorCode = "EXECUTION_ERROR"

	// CodeFeedback indicates the feedback collaborator failed.
	CodeFeedback ErrorCode = "FEEDBACK_ERROR"

	// CodeMemoryError indicates a memory system error.
	CodeMemoryError ErrorCode = "MEMORY_ERROR"

	// CodeStateChannel indicates the shared state store is unusable.
	// Errors with this code are fatal to the lifecycle controller.
	CodeStateChannel ErrorCode = "STATE_CHANNEL_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// PraxisError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type PraxisError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *PraxisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *PraxisError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *PraxisError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Message     string         `json:"message"`
		Code        string         `json:"code"`
		Err         string         `json:"error,omitempty"`
		Recoverable bool           `json:"recoverable"`
		Context     map[string]any `json:"context,omitempty"`
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Context:     e.Context,
	})
}

// New creates a new PraxisError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *PraxisError {
	return &PraxisError{
		Code:    code,
		Message: msg,
		Err:     cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *PraxisError) WithContext(key string, value interface{}) *PraxisError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *PraxisError) WithRecoverable(recoverable bool) *PraxisError {
	e.Recoverable = recoverable
	return e
}

// AsPraxisError attempts to convert an error to a PraxisError.
// Returns the error as PraxisError if it is one, or wraps it otherwise.
func AsPraxisError(err error) *PraxisError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PraxisError); ok {
		return pe
	}
	return New(CodeInternal, "wrapped error", err)
}

// IsFatal reports whether the error must take the lifecycle controller to
// the error state instead of being recorded and survived.
func IsFatal(err error) bool {
	pe := AsPraxisError(err)
	return pe != nil && pe.Code == CodeStateChannel
}
