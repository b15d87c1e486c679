// Package errors provides structured error handling for the array engine.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind represents the category of error.
type Kind string

const (
	// KindDimension represents dimension-label or extent errors: a label
	// missing or duplicated, an extent mismatch during broadcast, or a
	// construction with an inconsistent number of dimensions.
	KindDimension Kind = "dimension"
	// KindSlice represents out-of-range slice bounds.
	KindSlice Kind = "slice"
	// KindUnit represents incompatible units for an operation requiring
	// equal or combinable units.
	KindUnit Kind = "unit"
	// KindDType represents an unsupported dtype for a requested operation
	// or a dtype mismatch between operands.
	KindDType Kind = "dtype"
	// KindVariances represents variance propagation being undefined for
	// the requested operation or operand combination.
	KindVariances Kind = "variances"
	// KindCoordMismatch represents coordinate or label values differing
	// where element-wise equality is required.
	KindCoordMismatch Kind = "coord_mismatch"
	// KindBinEdge represents bin-edge continuity violations.
	KindBinEdge Kind = "bin_edge"
	// KindSparseData represents an operation requiring dense data applied
	// to ragged data, or vice versa.
	KindSparseData Kind = "sparse_data"
	// KindNotFound represents lookup of an absent coordinate, item or
	// mask name.
	KindNotFound Kind = "not_found"
	// KindReadonly represents a mutation attempted through a readonly
	// handle.
	KindReadonly Kind = "readonly"
	// KindInternal represents internal engine errors.
	KindInternal Kind = "internal"
)

// Error represents a structured error with context.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Kind:    kind,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsKind checks if the error is of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the kind of the error, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return KindInternal
	}
	return e.Kind
}

// captureStack captures the current call stack.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
